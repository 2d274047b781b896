// Package fiber provides ioc integration for the Fiber web framework.
//
// This package provides middleware attaching a container to each request,
// type-safe handler wrappers resolving controllers, and an initialization
// handler mounting the routes of every realized RouteRegistrar.
//
// Example usage:
//
//	c := ioc.New[*Plugin]()
//	app := fiber.New()
//	app.Use(iocfiber.ResolverMiddleware(c))
//	c.OnInitialize(iocfiber.Mount[*Plugin](app))
//
//	app.Post("/login", iocfiber.Handle(AuthController.Login))
//	app.Get("/users/:id", iocfiber.Handle(UserController.GetByID))
package fiber

import (
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/junioryono/ioc"
)

// resolverKey is the key used to store the resolver in fiber.Ctx.Locals
const resolverKey = "ioc_resolver"

// Config holds the configuration for the resolver middleware.
type Config struct {
	// ErrorHandler is called when a middleware fails.
	// If nil, a 500 Internal Server Error JSON response is sent.
	ErrorHandler func(*fiber.Ctx, error) error

	// Middlewares are functions that run after the resolver is attached.
	// They can be used to initialize request context, set user data, etc.
	Middlewares []func(ioc.Resolver, *fiber.Ctx) error
}

// Option configures the resolver middleware.
type Option func(*Config)

// WithErrorHandler sets the error handler for middleware failures.
func WithErrorHandler(h func(*fiber.Ctx, error) error) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

// WithMiddleware adds a middleware function that runs after the resolver is attached.
// Multiple middlewares are executed in the order they are added.
func WithMiddleware(mw func(ioc.Resolver, *fiber.Ctx) error) Option {
	return func(c *Config) {
		c.Middlewares = append(c.Middlewares, mw)
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
	}
}

// ResolverMiddleware creates a fiber.Handler storing resolver in
// fiber.Ctx.Locals and attaching it to the UserContext.
//
// Example:
//
//	app := fiber.New()
//	app.Use(iocfiber.ResolverMiddleware(c))
func ResolverMiddleware(resolver ioc.Resolver, opts ...Option) fiber.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) error {
		if resolver == nil {
			return cfg.ErrorHandler(c, ioc.ErrNoResolverInContext)
		}

		c.SetUserContext(ioc.WithResolver(c.UserContext(), resolver))
		c.Locals(resolverKey, resolver)

		for _, mw := range cfg.Middlewares {
			if err := mw(resolver, c); err != nil {
				return cfg.ErrorHandler(c, err)
			}
		}

		return c.Next()
	}
}

// HandlerConfig holds configuration for the Handle wrapper.
type HandlerConfig struct {
	// Qualifier selects the controller bean. Defaults to ioc.DefaultQualifier.
	Qualifier string

	// PanicRecovery enables panic recovery in the handler.
	PanicRecovery bool

	// PanicHandler is called when a panic occurs (if PanicRecovery is true).
	PanicHandler func(*fiber.Ctx, any) error

	// ResolverErrorHandler is called when no resolver is available.
	ResolverErrorHandler func(*fiber.Ctx, error) error

	// ResolutionErrorHandler is called when controller resolution fails.
	ResolutionErrorHandler func(*fiber.Ctx, error) error
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
func WithPanicHandler(h func(*fiber.Ctx, any) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.PanicHandler = h
	}
}

// WithResolverErrorHandler sets the error handler for a missing resolver.
func WithResolverErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolverErrorHandler = h
	}
}

// WithResolutionErrorHandler sets the error handler for controller resolution failures.
func WithResolutionErrorHandler(h func(*fiber.Ctx, error) error) HandlerOption {
	return func(c *HandlerConfig) {
		c.ResolutionErrorHandler = h
	}
}

func defaultHandlerConfig() *HandlerConfig {
	internalError := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}

	return &HandlerConfig{
		Qualifier:     ioc.DefaultQualifier,
		PanicRecovery: false,
		PanicHandler: func(c *fiber.Ctx, v any) error {
			slog.Error("panic in handler", "panic", v)
			return internalError(c)
		},
		ResolverErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to get resolver from context", "error", err)
			return internalError(c)
		},
		ResolutionErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("failed to resolve controller", "error", err)
			return internalError(c)
		},
	}
}

// Handle wraps a controller method for type-safe resolution. The controller
// type T is resolved from the resolver stored by ResolverMiddleware, or from
// ioc.DefaultResolver when there is none.
//
// The method signature should be: func(T, *fiber.Ctx) error
//
// Example:
//
//	app.Get("/users/:id", iocfiber.Handle((*UserController).GetByID))
func Handle[T any](method func(T, *fiber.Ctx) error, opts ...HandlerOption) fiber.Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *fiber.Ctx) (err error) {
		if cfg.PanicRecovery {
			defer func() {
				if v := recover(); v != nil {
					err = cfg.PanicHandler(c, v)
				}
			}()
		}

		resolver := FromContext(c)
		if resolver == nil {
			if resolver = ioc.DefaultResolver(); resolver == nil {
				return cfg.ResolverErrorHandler(c, ioc.ErrNoResolverInContext)
			}
		}

		controller, resolveErr := ioc.ResolveQualified[T](resolver, cfg.Qualifier)
		if resolveErr != nil {
			return cfg.ResolutionErrorHandler(c, resolveErr)
		}

		return method(controller, c)
	}
}

// FromContext retrieves the resolver stored by ResolverMiddleware, falling
// back to the one attached to the UserContext. It returns nil if there is none.
//
// Example:
//
//	r := iocfiber.FromContext(c)
//	users := ioc.MustResolve[*UserService](r)
func FromContext(c *fiber.Ctx) ioc.Resolver {
	if resolver, ok := c.Locals(resolverKey).(ioc.Resolver); ok && resolver != nil {
		return resolver
	}

	resolver, err := ioc.FromContext(c.UserContext())
	if err != nil {
		return nil
	}
	return resolver
}

// RouteRegistrar is implemented by components that contribute routes.
type RouteRegistrar interface {
	RegisterRoutes(r fiber.Router)
}

// Mount returns a container initialization handler that calls RegisterRoutes
// on every realized RouteRegistrar, in registration order. Each bean is
// mounted once, however often the container is initialized.
func Mount[O any](router fiber.Router) ioc.ContainerInitializeHandler[O] {
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
