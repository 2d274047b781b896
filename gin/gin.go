// Package gin provides ioc integration for the Gin web framework.
//
// This package provides middleware attaching a container to each request,
// type-safe handler wrappers resolving controllers, and an initialization
// handler mounting the routes of every realized RouteRegistrar.
//
// Example usage:
//
//	c := ioc.New[*Plugin]()
//	g := gin.New()
//	g.Use(iocgin.ResolverMiddleware(c))
//	c.OnInitialize(iocgin.Mount[*Plugin](g))
//
//	g.POST("/login", iocgin.Handle(AuthController.Login))
//	g.GET("/users/:id", iocgin.Handle(UserController.GetByID))
package gin

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/ioc"
)

// Config holds the configuration for the resolver middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a default handler returning 500 Internal Server Error is used.
	ErrorHandler func(*gin.Context, error)

	// Middlewares are functions that run after the resolver is attached.
	// They can be used to initialize request context, set user claims, etc.
	Middlewares []func(ioc.Resolver, *gin.Context) error
}

// Option configures the resolver middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*gin.Context, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the resolver is attached.
// Multiple middlewares are executed in the order they are added.
//
// Example:
//
//	iocgin.ResolverMiddleware(c,
//	    iocgin.WithMiddleware(func(r ioc.Resolver, c *gin.Context) error {
//	        audit := ioc.MustResolve[*audit.Log](r)
//	        audit.Record(c.FullPath())
//	        return nil
//	    }),
//	)
func WithMiddleware(mw func(ioc.Resolver, *gin.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *gin.Context, err error) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
	}
}

// ResolverMiddleware creates a gin.HandlerFunc attaching resolver to every
// request context. Handlers retrieve it with ioc.FromContext.
//
// Example:
//
//	g := gin.New()
//	g.Use(iocgin.ResolverMiddleware(c))
func ResolverMiddleware(resolver ioc.Resolver, opts ...Option) gin.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if resolver == nil {
			cfg.ErrorHandler(c, ioc.ErrNoResolverInContext)
			return
		}

		c.Request = c.Request.WithContext(ioc.WithResolver(c.Request.Context(), resolver))

		for _, mw := range cfg.Middlewares {
			if err := mw(resolver, c); err != nil {
				cfg.ErrorHandler(c, err)
				return
			}
		}

		c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Qualifier selects the controller bean. Defaults to ioc.DefaultQualifier.
	Qualifier string

	// PanicRecovery enables panic recovery in the handler.
	// If true, panics are caught and handled by PanicHandler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*gin.Context, any)

	// ResolverErrorHandler is called when no resolver is available.
	ResolverErrorHandler func(*gin.Context, error)

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(*gin.Context, error)
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

// WithPanicHandler sets the handler for panics (requires WithPanicRecovery(true)).
func WithPanicHandler(h func(*gin.Context, any)) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithResolverErrorHandler sets the error handler for a missing resolver.
func WithResolverErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolverErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*gin.Context, error)) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		Qualifier:     ioc.DefaultQualifier,
		PanicRecovery: false,
		PanicHandler: func(c *gin.Context, r any) {
			slog.Error("panic in handler", "panic", r)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
		ResolverErrorHandler: func(c *gin.Context, err error) {
			slog.Error("failed to get resolver from context", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
		ResolutionErrorHandler: func(c *gin.Context, err error) {
			slog.Error("failed to resolve controller", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal Server Error",
			})
		},
	}
}

// Handle wraps a controller method for type-safe resolution. The controller
// type T is resolved from the resolver attached to the request context, or
// from ioc.DefaultResolver when there is none.
//
// The method signature should be: func(T, *gin.Context)
//
// Example:
//
//	g.GET("/users/:id", iocgin.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *gin.Context), opts ...HandlerOption) gin.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if cfg.PanicRecovery {
			defer func() {
				if r := recover(); r != nil {
					cfg.PanicHandler(c, r)
				}
			}()
		}

		resolver, err := ioc.FromContext(c.Request.Context())
		if err != nil {
			if resolver = ioc.DefaultResolver(); resolver == nil {
				cfg.ResolverErrorHandler(c, err)
				return
			}
		}

		controller, err := ioc.ResolveQualified[T](resolver, cfg.Qualifier)
		if err != nil {
			cfg.ResolutionErrorHandler(c, err)
			return
		}

		method(controller, c)
	}
}

// RouteRegistrar is implemented by components that contribute routes.
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRouter)
}

// Mount returns a container initialization handler that calls RegisterRoutes
// on every realized RouteRegistrar, in registration order. Each bean is
// mounted once, however often the container is initialized.
func Mount[O any](router gin.IRouter) ioc.ContainerInitializeHandler[O] {
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
