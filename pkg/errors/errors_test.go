// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := apperr.New(
		apperr.CodeConfigValidateInvalidValue,
		"invalid model configuration",
		apperr.FieldSessionID("sess-123"),
		apperr.FieldProvider("openai"),
	)

	require.Error(t, err)
	assert.Equal(t, apperr.CodeConfigValidateInvalidValue, apperr.CodeOf(err))
	assert.True(t, apperr.HasCode(err, apperr.CodeConfigValidateInvalidValue))

	fields := apperr.FieldsOf(err)
	assert.Equal(t, "sess-123", fields["session_id"])
	assert.Equal(t, "openai", fields["provider"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := apperr.Errorf(apperr.CodeTranscriptWriteFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, apperr.CodeTranscriptWriteFailure, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "write failed")
}

func TestWrapPreservesChainAndCode(t *testing.T) {
	root := stderrors.New("no such file")
	err := apperr.Wrap(root, apperr.CodeDocumentReadFailure, "reading document", apperr.FieldPath("cv.pdf"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.Equal(t, apperr.CodeDocumentReadFailure, apperr.CodeOf(err))
	assert.Equal(t, "cv.pdf", apperr.FieldsOf(err)["path"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, apperr.Wrap(nil, apperr.CodeStoreDatabaseFailure, "ignored"))
	assert.NoError(t, apperr.Wrapf(nil, apperr.CodeStoreDatabaseFailure, "ignored %s", "arg"))
	assert.NoError(t, apperr.With(nil, apperr.FieldPath("x")))
}

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := apperr.New(apperr.CodeProviderRateLimited, "slow down")
	withCtx := apperr.With(base, apperr.FieldProvider("anthropic"))

	assert.Equal(t, apperr.CodeProviderRateLimited, apperr.CodeOf(withCtx))
	assert.Equal(t, "anthropic", apperr.FieldsOf(withCtx)["provider"])
}

func TestCodeOfReturnsInnermostCode(t *testing.T) {
	inner := apperr.New(apperr.CodeStoreDatabaseFailure, "db")
	outer := apperr.Wrap(inner, apperr.CodeTranscriptWriteFailure, "archive")
	assert.Equal(t, apperr.CodeStoreDatabaseFailure, apperr.CodeOf(outer))

	assert.Equal(t, apperr.Code(""), apperr.CodeOf(nil))
	assert.Equal(t, apperr.Code(""), apperr.CodeOf(stderrors.New("plain")))
	assert.Nil(t, apperr.FieldsOf(stderrors.New("plain")))
}

func TestErrorIsThroughFmtWrap(t *testing.T) {
	sentinel := stderrors.New("root cause")
	outer := apperr.Wrap(fmt.Errorf("mid: %w", sentinel), apperr.CodeSpeechTranscribeFailure, "whisper")
	assert.ErrorIs(t, outer, sentinel)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name  string
		code  apperr.Code
		check func(error) bool
	}{
		{"session not found", apperr.CodeStoreSessionNotFound, apperr.IsNotFound},
		{"secret not found", apperr.CodeSecretNotFound, apperr.IsNotFound},
		{"invalid value", apperr.CodeConfigValidateInvalidValue, apperr.IsInvalidInput},
		{"invalid format", apperr.CodeTranscriptParseInvalid, apperr.IsInvalidInput},
		{"role invalid", apperr.CodeTurnRoleInvalid, apperr.IsInvalidInput},
		{"auth", apperr.CodeProviderAuthUnauthorized, apperr.IsUnauthorized},
		{"rate limited", apperr.CodeProviderRateLimited, apperr.IsRateLimited},
		{"rate limited retryable", apperr.CodeProviderRateLimited, apperr.Retryable},
		{"upstream", apperr.CodeProviderUpstreamFailure, apperr.IsUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(apperr.New(tt.code, "boom")))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	for _, err := range []error{nil, stderrors.New("plain"), apperr.New(apperr.CodeStoreDatabaseFailure, "db")} {
		assert.False(t, apperr.IsNotFound(err))
		assert.False(t, apperr.IsInvalidInput(err))
		assert.False(t, apperr.IsUnauthorized(err))
		assert.False(t, apperr.IsRateLimited(err))
		assert.False(t, apperr.IsTimeout(err))
		assert.False(t, apperr.IsUpstreamFailure(err))
		assert.False(t, apperr.Retryable(err))
	}
}

func TestAuthErrorIsNotRetryable(t *testing.T) {
	assert.False(t, apperr.Retryable(apperr.New(apperr.CodeProviderAuthUnauthorized, "bad key")))
	assert.False(t, apperr.Retryable(apperr.New(apperr.CodeProviderUpstreamFailure, "500")))
}

func TestJoin(t *testing.T) {
	a := stderrors.New("first")
	b := apperr.New(apperr.CodeDocumentReadFailure, "second")
	joined := apperr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)

	assert.NoError(t, apperr.Join())
	assert.NoError(t, apperr.Join(nil, nil))
}
