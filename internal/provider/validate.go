// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// Name identifies a supported LLM provider.
type Name string

const (
	NameAnthropic Name = "anthropic"
	NameOpenAI    Name = "openai"
	NameGoogle    Name = "google"
)

// KnownNames lists every provider the CLI can configure.
var KnownNames = []Name{NameAnthropic, NameOpenAI, NameGoogle}

// endpoint returns the models URL and auth headers for a key check.
func endpoint(p Name, key string) (string, map[string]string, error) {
	switch p {
	case NameAnthropic:
		return "https://api.anthropic.com/v1/models", map[string]string{
			"x-api-key":         key,
			"anthropic-version": "2023-06-01",
		}, nil
	case NameOpenAI:
		return "https://api.openai.com/v1/models", map[string]string{
			"Authorization": "Bearer " + key,
		}, nil
	case NameGoogle:
		// Google authenticates this endpoint by query parameter only.
		return "https://generativelanguage.googleapis.com/v1/models?key=" + key, nil, nil
	}
	return "", nil, apperr.Errorf(apperr.CodeProviderRequestInvalid, "unknown provider: %s", p)
}

// ValidateKey makes a lightweight call to the provider's models endpoint to
// confirm an API key works.
func ValidateKey(ctx context.Context, client *http.Client, p Name, key string) error {
	return ValidateKeyWithURL(ctx, client, p, key, "")
}

// ValidateKeyWithURL is ValidateKey with an overridable endpoint URL.
func ValidateKeyWithURL(ctx context.Context, client *http.Client, p Name, key, url string) error {
	defURL, headers, err := endpoint(p, key)
	if err != nil {
		return err
	}
	if url == "" {
		url = defURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeProviderRequestInvalid, "building validation request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return apperr.Wrapf(err, apperr.CodeProviderUpstreamFailure, "validating %s key", p)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return Classify(string(p), resp.StatusCode,
			fmt.Errorf("%s key check failed (HTTP %d)", p, resp.StatusCode))
	}
	return nil
}
