package ioc

import "context"

// resolverContextKey is the key for storing a Resolver in a context.
type resolverContextKey struct{}

// WithResolver returns a copy of ctx carrying r.
func WithResolver(ctx context.Context, r Resolver) context.Context {
	return context.WithValue(ctx, resolverContextKey{}, r)
}

// FromContext gets the Resolver stored with WithResolver.
func FromContext(ctx context.Context) (Resolver, error) {
	r, ok := ctx.Value(resolverContextKey{}).(Resolver)
	if !ok || r == nil {
		return nil, ErrNoResolverInContext
	}
	return r, nil
}
