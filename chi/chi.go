// Package chi provides ioc integration for the Chi router.
//
// This package provides middleware attaching a container to each request,
// type-safe handler wrappers resolving controllers, and an initialization
// handler mounting the routes of every realized RouteRegistrar.
//
// Example usage:
//
//	c := ioc.New[*Plugin]()
//	r := chi.NewRouter()
//	r.Use(iocchi.ResolverMiddleware(c))
//	c.OnInitialize(iocchi.Mount[*Plugin](r))
//
//	r.Post("/login", iocchi.Handle(AuthController.Login))
//	r.Get("/users/{id}", iocchi.Handle(UserController.GetByID))
package chi

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/junioryono/ioc"
)

// Config holds the configuration for the resolver middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)

	// Middlewares are functions that run after the resolver is attached.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(ioc.Resolver, *http.Request) error
}

// Option configures the resolver middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the resolver is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(ioc.Resolver, *http.Request) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// ResolverMiddleware creates a Chi middleware attaching resolver to every
// request context. Handlers retrieve it with ioc.FromContext.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Use(iocchi.ResolverMiddleware(c))
func ResolverMiddleware(resolver ioc.Resolver, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				cfg.ErrorHandler(w, r, ioc.ErrNoResolverInContext)
				return
			}

			r = r.WithContext(ioc.WithResolver(r.Context(), resolver))

			for _, mw := range cfg.Middlewares {
				if err := mw(resolver, r); err != nil {
					cfg.ErrorHandler(w, r, err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Qualifier selects the controller bean. Defaults to ioc.DefaultQualifier.
	Qualifier string

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(http.ResponseWriter, *http.Request, any)

	// ResolverErrorHandler is called when no resolver is available.
	ResolverErrorHandler func(http.ResponseWriter, *http.Request, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// HandlerOption configures the Handle wrapper.
type HandlerOption func(*HandlerConfig)

// WithQualifier resolves the controller bean qualified with q.
func WithQualifier(q string) HandlerOption {
	return func(c *HandlerConfig) {
		c.Qualifier = q
	}
}

// WithPanicRecovery enables or disables panic recovery in the handler.
func WithPanicRecovery(enabled bool) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicRecovery = enabled
	}
}

// WithPanicHandler sets the handler for panics.
func WithPanicHandler(h func(http.ResponseWriter, *http.Request, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithResolverErrorHandler sets the error handler for a missing resolver.
func WithResolverErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolverErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(http.ResponseWriter, *http.Request, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		Qualifier:     ioc.DefaultQualifier,
		PanicRecovery: false,
		PanicHandler: func(w http.ResponseWriter, r *http.Request, v any) {
			slog.Error("panic in handler", "panic", v)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolverErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to get resolver from context", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
		ResolutionErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to resolve controller", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Handle wraps a controller method for type-safe resolution. The controller
// type T is resolved from the resolver attached to the request context, or
// from ioc.DefaultResolver when there is none.
//
// The method signature should be: func(T, http.ResponseWriter, *http.Request)
//
// Example:
//
//	r.Get("/users/{id}", iocchi.Handle((*UserController).GetByID))
func Handle[T any](method func(T, http.ResponseWriter, *http.Request), opts ...HandlerOption) http.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					cfg.PanicHandler(w, r, v)
				}
			}()
		}

		resolver, err := ioc.FromContext(r.Context())
		if err != nil {
			if resolver = ioc.DefaultResolver(); resolver == nil {
				cfg.ResolverErrorHandler(w, r, err)
				return
			}
		}

		controller, err := ioc.ResolveQualified[T](resolver, cfg.Qualifier)
		if err != nil {
			cfg.ResolutionErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}

// RouteRegistrar is implemented by components that contribute routes.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Mount returns a container initialization handler that calls RegisterRoutes
// on every realized RouteRegistrar, in registration order. Each bean is
// mounted once, however often the container is initialized.
func Mount[O any](router chi.Router) ioc.ContainerInitializeHandler[O] {
	var mu sync.Mutex
	mounted := make(map[ioc.Key]struct{})

	return func(_ *ioc.Container[O], beans []ioc.QualifiedBean) error {
		mu.Lock()
		defer mu.Unlock()

		for _, bean := range beans {
			registrar, ok := bean.Bean.(RouteRegistrar)
			if !ok {
				continue
			}
			if _, ok := mounted[bean.Key]; ok {
				continue
			}

			registrar.RegisterRoutes(router)
			mounted[bean.Key] = struct{}{}
			slog.Debug("mounted routes", "component", bean.Key.String())
		}
		return nil
	}
}
