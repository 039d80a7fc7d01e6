// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Interview Agent Contributors

package provider

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	apperr "github.com/JNalv/interview-agent/pkg/errors"
)

// Registry manages provider registration, lookup, and routing with failover.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider

	defaultRef string   // "provider/model"
	failover   []string // ordered "provider/model" refs
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, apperr.New(
			apperr.CodeProviderNotFound,
			"provider not found: "+name,
			apperr.FieldProvider(name),
		)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetDefault sets the default "provider/model" reference.
func (r *Registry) SetDefault(ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkRefLocked(ref); err != nil {
		return err
	}
	r.defaultRef = ref
	return nil
}

// DefaultRef returns the configured default reference.
func (r *Registry) DefaultRef() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultRef
}

// SetFailover sets the ordered failover chain of "provider/model" refs.
func (r *Registry) SetFailover(chain []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ref := range chain {
		if err := r.checkRefLocked(ref); err != nil {
			return err
		}
	}
	r.failover = append([]string(nil), chain...)
	return nil
}

// MaxAttempts returns 1 (primary) + len(failover chain).
func (r *Registry) MaxAttempts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return 1 + len(r.failover)
}

// Route selects a provider for modelRef, or the default when modelRef is
// empty. Providers named in exclude are skipped so failover progresses even
// for providers that don't report health.
func (r *Registry) Route(ctx context.Context, modelRef string, exclude []string) (Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, err := r.resolveRef(modelRef)
	if err != nil {
		return nil, "", err
	}
	if ref == "" {
		return nil, "", apperr.New(apperr.CodeProviderNoDefault, "no default provider configured")
	}

	candidates := append([]string{ref}, r.failover...)
	for _, c := range candidates {
		name, _ := parseRef(c)
		if slices.Contains(exclude, name) {
			continue
		}
		p, model, err := r.tryRef(ctx, c)
		if err == nil {
			return p, model, nil
		}
	}

	return nil, "", apperr.New(
		apperr.CodeProviderAllUnavailable,
		"all providers unavailable: no healthy provider found",
	)
}

// Health returns metrics for every provider that tracks health.
func (r *Registry) Health() []HealthMetrics {
	var out []HealthMetrics
	for _, name := range r.Names() {
		p, _ := r.Get(name)
		if hr, ok := p.(HealthReporter); ok {
			out = append(out, hr.HealthMetrics())
		}
	}
	return out
}

// Close shuts down all registered providers.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return apperr.Join(errs...)
}

// caller holds r.mu
func (r *Registry) checkRefLocked(ref string) error {
	if !strings.Contains(ref, "/") {
		return apperr.Errorf(apperr.CodeProviderInvalidModelRef,
			"model %q must use provider/model format", ref)
	}
	provName, _ := parseRef(ref)
	if _, ok := r.providers[provName]; !ok {
		return apperr.New(
			apperr.CodeProviderNotFound,
			"provider not registered: "+provName,
			apperr.FieldProvider(provName),
		)
	}
	return nil
}

// caller holds r.mu
func (r *Registry) resolveRef(modelRef string) (string, error) {
	if modelRef != "" && modelRef != "default" {
		if !strings.Contains(modelRef, "/") {
			return "", apperr.Errorf(
				apperr.CodeProviderInvalidModelRef,
				"model name %q must use provider/model format", modelRef,
			)
		}
		return modelRef, nil
	}
	return r.defaultRef, nil
}

// caller holds r.mu
func (r *Registry) tryRef(ctx context.Context, ref string) (Provider, string, error) {
	providerName, model := parseRef(ref)

	p, ok := r.providers[providerName]
	if !ok {
		return nil, "", apperr.New(
			apperr.CodeProviderNotFound,
			"provider not found: "+providerName,
			apperr.FieldProvider(providerName),
		)
	}
	if !p.Available(ctx) {
		return nil, "", apperr.New(
			apperr.CodeProviderUpstreamFailure,
			"provider unavailable: "+providerName,
			apperr.FieldProvider(providerName),
		)
	}
	return p, model, nil
}

// parseRef splits a "provider/model" reference on the first "/".
func parseRef(ref string) (providerName, model string) {
	idx := strings.Index(ref, "/")
	if idx < 0 {
		return ref, ""
	}
	return ref[:idx], ref[idx+1:]
}
