package gin

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Test types
type testOwner struct {
	Name string
}

type testService struct {
	ID    string
	Value int
}

func newTestService() *testService {
	return &testService{ID: "handled", Value: 100}
}

type testController struct {
	Service *testService
}

func newTestController(svc *testService) *testController {
	return &testController{Service: svc}
}

func (c *testController) GetValue(ctx *gin.Context) {
	ctx.String(http.StatusOK, c.Service.ID)
}

func (c *testController) Panic(ctx *gin.Context) {
	panic("test panic")
}

func (c *testController) RegisterRoutes(r gin.IRouter) {
	r.GET("/value", c.GetValue)
}

func newContainer(t *testing.T, decls ...ioc.Declaration) *ioc.Container[*testOwner] {
	t.Helper()
	catalog, err := ioc.NewCatalog(decls...)
	require.NoError(t, err)

	c := ioc.New[*testOwner]()
	require.NoError(t, c.ScanCatalog(&testOwner{Name: "web"}, catalog))
	return c
}

func serve(g *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestResolverMiddleware(t *testing.T) {
	t.Run("attaches resolver to context", func(t *testing.T) {
		c := newContainer(t, ioc.Component(newTestService))

		var resolved *testService

		g := gin.New()
		g.Use(ResolverMiddleware(c))
		g.GET("/test", func(ctx *gin.Context) {
			resolver, err := ioc.FromContext(ctx.Request.Context())
			assert.NoError(t, err)

			resolved, err = ioc.Resolve[*testService](resolver)
			assert.NoError(t, err)

			ctx.Status(http.StatusOK)
		})

		rec := serve(g, "/test")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, resolved)
		assert.Equal(t, "handled", resolved.ID)
	})

	t.Run("calls error handler without resolver", func(t *testing.T) {
		errorHandlerCalled := false

		g := gin.New()
		g.Use(ResolverMiddleware(nil,
			WithErrorHandler(func(ctx *gin.Context, err error) {
				errorHandlerCalled = true
				assert.ErrorIs(t, err, ioc.ErrNoResolverInContext)
				ctx.AbortWithStatus(http.StatusServiceUnavailable)
			}),
		))
		g.GET("/test", func(ctx *gin.Context) {
			ctx.Status(http.StatusOK)
		})

		rec := serve(g, "/test")

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("runs middlewares in order", func(t *testing.T) {
		var mwOrder []int
		c := newContainer(t)

		g := gin.New()
		g.Use(ResolverMiddleware(c,
			WithMiddleware(func(ioc.Resolver, *gin.Context) error {
				mwOrder = append(mwOrder, 1)
				return nil
			}),
			WithMiddleware(func(ioc.Resolver, *gin.Context) error {
				mwOrder = append(mwOrder, 2)
				return nil
			}),
		))
		g.GET("/test", func(ctx *gin.Context) {
			ctx.Status(http.StatusOK)
		})

		serve(g, "/test")

		assert.Equal(t, []int{1, 2}, mwOrder)
	})

	t.Run("calls error handler when middleware fails", func(t *testing.T) {
		expectedErr := errors.New("middleware failed")
		c := newContainer(t)

		g := gin.New()
		g.Use(ResolverMiddleware(c,
			WithMiddleware(func(ioc.Resolver, *gin.Context) error {
				return expectedErr
			}),
			WithErrorHandler(func(ctx *gin.Context, err error) {
				assert.Equal(t, expectedErr, err)
				ctx.AbortWithStatus(http.StatusBadRequest)
			}),
		))
		g.GET("/test", func(ctx *gin.Context) {
			ctx.Status(http.StatusOK)
		})

		rec := serve(g, "/test")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandle(t *testing.T) {
	t.Run("resolves controller and calls method", func(t *testing.T) {
		c := newContainer(t, ioc.Component(newTestService), ioc.Component(newTestController))

		g := gin.New()
		g.Use(ResolverMiddleware(c))
		g.GET("/value", Handle((*testController).GetValue))

		rec := serve(g, "/value")

		assert.Equal(t, http.StatusOK, rec.Code)
		body, _ := io.ReadAll(rec.Body)
		assert.Equal(t, "handled", string(body))
	})

	t.Run("resolves qualified controller", func(t *testing.T) {
		c := newContainer(t,
			ioc.Component(newTestService),
			ioc.Component(newTestController, ioc.Qualifier("admin")),
		)

		g := gin.New()
		g.Use(ResolverMiddleware(c))
		g.GET("/value", Handle((*testController).GetValue, WithQualifier("admin")))

		assert.Equal(t, http.StatusOK, serve(g, "/value").Code)
	})

	t.Run("falls back to the default resolver", func(t *testing.T) {
		c := newContainer(t, ioc.Component(newTestService), ioc.Component(newTestController))

		ioc.SetDefaultResolver(c)
		defer ioc.SetDefaultResolver(nil)

		g := gin.New()
		g.GET("/value", Handle((*testController).GetValue))

		assert.Equal(t, http.StatusOK, serve(g, "/value").Code)
	})

	t.Run("calls resolver error handler when no resolver", func(t *testing.T) {
		errorHandlerCalled := false

		g := gin.New()
		g.GET("/value", Handle((*testController).GetValue,
			WithResolverErrorHandler(func(ctx *gin.Context, err error) {
				errorHandlerCalled = true
				assert.ErrorIs(t, err, ioc.ErrNoResolverInContext)
				ctx.AbortWithStatus(http.StatusInternalServerError)
			}),
		))

		rec := serve(g, "/value")

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("calls resolution error handler when controller not declared", func(t *testing.T) {
		errorHandlerCalled := false
		c := newContainer(t, ioc.Component(newTestService))

		g := gin.New()
		g.Use(ResolverMiddleware(c))
		g.GET("/value", Handle((*testController).GetValue,
			WithResolutionErrorHandler(func(ctx *gin.Context, err error) {
				errorHandlerCalled = true
				assert.True(t, ioc.IsNotFound(err))
				ctx.AbortWithStatus(http.StatusNotFound)
			}),
		))

		rec := serve(g, "/value")

		assert.True(t, errorHandlerCalled)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recovers from panic when enabled", func(t *testing.T) {
		panicHandlerCalled := false
		c := newContainer(t, ioc.Component(newTestService), ioc.Component(newTestController))

		g := gin.New()
		g.Use(ResolverMiddleware(c))
		g.GET("/panic", Handle((*testController).Panic,
			WithPanicRecovery(true),
			WithPanicHandler(func(ctx *gin.Context, v any) {
				panicHandlerCalled = true
				assert.Equal(t, "test panic", v)
				ctx.AbortWithStatus(http.StatusInternalServerError)
			}),
		))

		rec := serve(g, "/panic")

		assert.True(t, panicHandlerCalled)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMount(t *testing.T) {
	c := newContainer(t, ioc.Component(newTestService), ioc.Component(newTestController))

	g := gin.New()
	c.OnInitialize(Mount[*testOwner](g))

	require.NoError(t, c.Initialize())
	require.NoError(t, c.Initialize(), "routes are mounted once")

	rec := serve(g, "/value")

	assert.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "handled", string(body))
}

func TestDefaultHandlerConfig(t *testing.T) {
	cfg := defaultHandlerConfig()
	assert.False(t, cfg.PanicRecovery)
	assert.Equal(t, ioc.DefaultQualifier, cfg.Qualifier)
}
