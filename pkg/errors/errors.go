// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeSessionNotInitialized     Code = "interview.session.not_initialized"
	CodeSessionAlreadyInitialized Code = "interview.session.already_initialized"
	CodeSessionAlreadyStarted     Code = "interview.session.already_started"
	CodeSessionInvariantBroken    Code = "interview.session.invariant.failure"
	CodeTurnRoleInvalid           Code = "interview.turn.role.invalid_input"
	CodeAnswerEmpty               Code = "interview.answer.empty"
	CodeInterviewNotStarted       Code = "interview.loop.not_started.invalid_input"
	CodeInterviewEnded            Code = "interview.loop.ended.invalid_input"
	CodeQuestionPending           Code = "interview.loop.question_pending.invalid_input"
	CodeNothingToRetry            Code = "interview.loop.retry.invalid_input"
	CodeTranscriberMissing        Code = "interview.loop.transcriber.invalid_input"

	CodeDocumentUnsupportedFormat Code = "document.extract.unsupported_format"
	CodeDocumentReadFailure       Code = "document.extract.read_failure"

	CodeSpeechTranscribeFailure Code = "speech.transcribe.failure"
	CodeSpeechAudioInvalid      Code = "speech.audio.invalid_input"

	CodeProviderRateLimited       Code = "provider.upstream.rate_limited"
	CodeProviderUpstreamFailure   Code = "provider.upstream.failure"
	CodeProviderAuthUnauthorized  Code = "provider.auth.unauthorized"
	CodeProviderRequestInvalid    Code = "provider.request.invalid"
	CodeProviderResponseInvalid   Code = "provider.response.invalid"
	CodeProviderNotFound          Code = "provider.registry.not_found"
	CodeProviderAllUnavailable    Code = "provider.routing.all_unavailable"
	CodeProviderNoDefault         Code = "provider.routing.no_default"
	CodeProviderInvalidModelRef   Code = "provider.routing.invalid_model_ref"
	CodeProviderRetriesExhausted  Code = "provider.retry.exceeded"

	CodeTranscriptWriteFailure Code = "transcript.export.write_failure"
	CodeTranscriptParseInvalid Code = "transcript.parse.invalid_format"
	CodePersonaParseInvalid    Code = "persona.parse.invalid_format"

	CodeStoreSessionNotFound    Code = "store.session.get.not_found"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreInvalidInput       Code = "store.invalid_input"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretNotFound       Code = "secret.keyring.not_found"
	CodeSecretBackendFailure Code = "secret.keyring.failure"
	CodeSecretURIInvalid     Code = "secret.uri.invalid_format"

	CodeWatcherStartFailure Code = "watcher.start.failure"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldSessionID(value string) Attr {
	return Field("session_id", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain, keeping its code.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(CodeOf(err)).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUnauthorized(err error) bool {
	r := reason(CodeOf(err))
	return r == "unauthorized" || r == "forbidden" || r == "denied"
}

func IsRateLimited(err error) bool {
	return reason(CodeOf(err)) == "rate_limited"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

// Retryable reports whether a caller may reasonably try the same call again.
func Retryable(err error) bool {
	return IsRateLimited(err) || IsTimeout(err)
}

func Join(errs ...error) error {
	joined := stderrors.Join(errs...)
	if joined == nil {
		return nil
	}
	for _, e := range errs {
		if code := CodeOf(e); code != "" {
			return oops.Code(code).Wrap(joined)
		}
	}
	return joined
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
