package ioc

import "sync/atomic"

// defaultResolver holds the default Resolver.
var defaultResolver atomic.Pointer[Resolver]

// SetDefaultResolver sets the Resolver returned by DefaultResolver.
// This is similar to slog.SetDefault.
//
// HTTP adapters fall back to it when a request context carries no resolver.
// Pass nil to remove the default resolver.
func SetDefaultResolver(r Resolver) {
	if r == nil {
		defaultResolver.Store(nil)
		return
	}
	defaultResolver.Store(&r)
}

// DefaultResolver returns the current default Resolver.
// Returns nil if no default resolver has been set.
func DefaultResolver() Resolver {
	if r := defaultResolver.Load(); r != nil {
		return *r
	}
	return nil
}
