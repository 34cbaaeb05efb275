package adapters

import (
	"strings"

	"github.com/deskhivelabs/deskhive/internal/config"
	"github.com/deskhivelabs/deskhive/internal/payment/domain"
)

// Registry maps provider names to adapter factories.
type Registry struct {
	factories map[string]domain.AdapterFactory
}

func NewRegistry(factories ...domain.AdapterFactory) *Registry {
	r := &Registry{factories: make(map[string]domain.AdapterFactory, len(factories))}
	for _, f := range factories {
		r.factories[strings.ToLower(f.Provider())] = f
	}
	return r
}

func (r *Registry) ProviderExists(provider string) bool {
	_, ok := r.factories[strings.ToLower(provider)]
	return ok
}

// NewAdapter builds an adapter for provider from the deployment config.
// Unknown providers yield ErrProviderNotFound; known providers with blank
// credentials yield ErrGatewayNotConfigured, which is a user-actionable
// condition rather than a failure.
func (r *Registry) NewAdapter(provider string, cfg config.Config) (domain.Adapter, error) {
	factory, ok := r.factories[strings.ToLower(provider)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	creds, ok := cfg.Gateway(provider)
	if !ok {
		return nil, domain.ErrGatewayNotConfigured
	}
	return factory.NewAdapter(creds)
}
