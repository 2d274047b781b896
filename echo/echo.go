// Package echo provides ioc integration for the Echo web framework.
//
// This package provides middleware attaching a container to each request,
// type-safe handler wrappers resolving controllers, and an initialization
// handler mounting the routes of every realized RouteRegistrar.
//
// Example usage:
//
//	c := ioc.New[*Plugin]()
//	e := echo.New()
//	e.Use(iocecho.ResolverMiddleware(c))
//	c.OnInitialize(iocecho.Mount[*Plugin](e.Group("/api")))
//
//	e.POST("/login", iocecho.Handle(AuthController.Login))
//	e.GET("/users/:id", iocecho.Handle(UserController.GetByID))
package echo

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/junioryono/ioc"
	"github.com/labstack/echo/v4"
)

// Config holds the configuration for the resolver middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a 500 Internal Server Error HTTPError is returned.
	ErrorHandler func(echo.Context, error) error

	// Middlewares are functions that run after the resolver is attached.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(ioc.Resolver, echo.Context) error
}

// Option configures the resolver middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(echo.Context, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the resolver is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(ioc.Resolver, echo.Context) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// ResolverMiddleware creates an Echo middleware attaching resolver to every
// request context. Handlers retrieve it with ioc.FromContext.
//
// Example:
//
//	e := echo.New()
//	e.Use(iocecho.ResolverMiddleware(c))
func ResolverMiddleware(resolver ioc.Resolver, opts ...Option) echo.MiddlewareFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if resolver == nil {
				return cfg.ErrorHandler(c, ioc.ErrNoResolverInContext)
			}

			c.SetRequest(c.Request().WithContext(ioc.WithResolver(c.Request().Context(), resolver)))

			for _, mw := range cfg.Middlewares {
				if err := mw(resolver, c); err != nil {
					return cfg.ErrorHandler(c, err)
				}
			}

			return next(c)
		}
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Qualifier selects the controller bean. Defaults to ioc.DefaultQualifier.
	Qualifier string

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(echo.Context, any) error

	// ResolverErrorHandler is called when no resolver is available.
	ResolverErrorHandler func(echo.Context, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(echo.Context, error) error
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
func WithPanicHandler(h func(echo.Context, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithResolverErrorHandler sets the error handler for a missing resolver.
func WithResolverErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolverErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(echo.Context, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	return &HandlerConfig{
		Qualifier:     ioc.DefaultQualifier,
		PanicRecovery: false,
		PanicHandler: func(c echo.Context, v any) error {
			slog.Error("panic in handler", "panic", v)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ResolverErrorHandler: func(c echo.Context, err error) error {
			slog.Error("failed to get resolver from context", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
		ResolutionErrorHandler: func(c echo.Context, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "Internal Server Error")
		},
	}
}

// Handle wraps a controller method for type-safe resolution. The controller
// type T is resolved from the resolver attached to the request context, or
// from ioc.DefaultResolver when there is none.
//
// The method signature should be: func(T, echo.Context) error
//
// Example:
//
//	e.GET("/users/:id", iocecho.Handle((*UserController).GetByID))
func Handle[T any](method func(T, echo.Context) error, opts ...HandlerOption) echo.HandlerFunc {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c echo.Context) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		resolver, resolverErr := ioc.FromContext(c.Request().Context())
		if resolverErr != nil {
			if resolver = ioc.DefaultResolver(); resolver == nil {
				return cfg.ResolverErrorHandler(c, resolverErr)
			}
		}

		controller, resolveErr := ioc.ResolveQualified[T](resolver, cfg.Qualifier)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// RouteRegistrar is implemented by components that contribute routes.
type RouteRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// Mount returns a container initialization handler that calls RegisterRoutes
// on every realized RouteRegistrar, in registration order. Each bean is
// mounted once, however often the container is initialized.
func Mount[O any](group *echo.Group) ioc.ContainerInitializeHandler[O] {
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

			registrar.RegisterRoutes(group)
			mounted[bean.Key] = struct{}{}
			slog.Debug("mounted routes", "component", bean.Key.String())
		}
		return nil
	}
}
