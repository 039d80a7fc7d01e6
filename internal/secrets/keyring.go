// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/zalando/go-keyring"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// keysIndexSuffix names the entry holding the JSON list of stored keys;
// go-keyring cannot enumerate entries itself.
const keysIndexSuffix = "::keys-index"

// KeyringStore implements Store on the OS keyring (Keychain, Secret Service
// or Windows Credential Manager).
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkRef(service, key); err != nil {
		return err
	}
	if value == "" {
		return apperr.New(apperr.CodeSecretURIInvalid, "secret value must not be empty")
	}

	if err := keyring.Set(service, key, value); err != nil {
		return apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "storing secret %s/%s", service, key)
	}
	return s.addToIndex(service, key)
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkRef(service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", apperr.Errorf(apperr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkRef(service, key); err != nil {
		return err
	}

	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return apperr.Errorf(apperr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "deleting secret %s/%s", service, key)
	}
	return s.removeFromIndex(service, key)
}

func (s *KeyringStore) List(service string) ([]string, error) {
	if service == "" {
		return nil, apperr.New(apperr.CodeSecretURIInvalid, "service must not be empty")
	}
	keys, err := s.loadIndex(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func checkRef(service, key string) error {
	if service == "" || key == "" {
		return apperr.Errorf(apperr.CodeSecretURIInvalid, "service and key must not be empty (got %q/%q)", service, key)
	}
	return nil
}

func (s *KeyringStore) loadIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+keysIndexSuffix)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) saveIndex(service string, keys []string) error {
	indexKey := service + keysIndexSuffix

	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil {
			slog.Debug("removing empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return apperr.Wrapf(err, apperr.CodeSecretBackendFailure, "saving key index for %s", service)
	}
	return nil
}

func (s *KeyringStore) addToIndex(service, key string) error {
	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.saveIndex(service, append(keys, key))
}

func (s *KeyringStore) removeFromIndex(service, key string) error {
	keys, err := s.loadIndex(service)
	if err != nil {
		return err
	}
	return s.saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}
