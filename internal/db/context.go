package db

import "context"

type registryKey struct{}

// WithRegistry returns a copy of ctx carrying r.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, r)
}

// RegistryFromContext returns the registry stored by WithRegistry.
func RegistryFromContext(ctx context.Context) (*Registry, error) {
	r, ok := ctx.Value(registryKey{}).(*Registry)
	if !ok || r == nil {
		return nil, ErrNoRegistry
	}
	return r, nil
}
