// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

// Package secrets keeps provider API keys in the OS keyring and resolves
// keyring:// references found in configuration.
package secrets

// DefaultService is the keyring service used by the CLI.
const DefaultService = "interview-agent"

// Store provides secret storage operations.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// A missing key carries secret.keyring.not_found.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	Delete(service, key string) error

	// List returns all key names stored under the given service.
	List(service string) ([]string, error)
}

// ProviderKey is the keyring entry name for a provider's API key.
func ProviderKey(provider string) string {
	return provider + "-api-key"
}

// ProviderURI is the keyring:// reference for a provider's API key.
func ProviderURI(provider string) string {
	return keyringScheme + DefaultService + "/" + ProviderKey(provider)
}
