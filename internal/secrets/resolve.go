// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package secrets

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI splits keyring://service/key. The key may contain slashes.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", apperr.Errorf(apperr.CodeSecretURIInvalid, "not a keyring URI: %q", uri)
	}

	service, key, ok := strings.Cut(strings.TrimPrefix(uri, keyringScheme), "/")
	if !ok || service == "" || key == "" {
		return "", "", apperr.Errorf(apperr.CodeSecretURIInvalid,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns the secret behind a keyring:// URI, or value unchanged
// when it is not one.
func Resolve(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}
	return store.Retrieve(service, key)
}

// ResolveViper replaces every keyring:// string in v with its secret.
// Failures are logged and the URI is left in place; the provider that needs
// the key reports the problem when it is built.
func ResolveViper(v *viper.Viper, store Store) {
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if !IsKeyringURI(val) {
			continue
		}

		resolved, err := Resolve(store, val)
		if err != nil {
			slog.Warn("could not resolve keyring reference", "config_key", key, "error", err)
			continue
		}
		v.Set(key, resolved)
	}
}
