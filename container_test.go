package ioc_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/junioryono/ioc"
	"github.com/junioryono/ioc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := ioc.New[*testutil.Plugin](ioc.WithName("a"))
	b := ioc.New[*testutil.Plugin]()

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "a", a.Name())
	assert.Empty(t, a.Beans())
	assert.Empty(t, a.Declared())
}

func TestContainer_Register(t *testing.T) {
	t.Parallel()

	owner := testutil.NewPlugin("owner")

	t.Run("stores under runtime type and qualifier", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		engine := testutil.NewV8Engine()

		require.NoError(t, c.Register(owner, engine, "v8"))

		found := testutil.AssertFound[*testutil.V8Engine](t, c, "v8")
		assert.Same(t, engine, found)

		_, ok := ioc.FindBean[*testutil.V8Engine](c)
		assert.False(t, ok)

		gotOwner, ok := c.Owner(ioc.KeyFor[*testutil.V8Engine]("v8"))
		require.True(t, ok)
		assert.Same(t, owner, gotOwner)
	})

	t.Run("registered instances resolve", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		engine := testutil.NewBasicEngine()
		require.NoError(t, c.Register(owner, engine))

		resolved := testutil.AssertResolvable[*testutil.BasicEngine](t, c)
		assert.Same(t, engine, resolved)
	})

	t.Run("last writer wins", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		first := testutil.NewBasicEngine()
		second := testutil.NewBasicEngine()

		require.NoError(t, c.Register(owner, first))
		require.NoError(t, c.Register(owner, second))

		assert.Same(t, second, testutil.AssertFound[*testutil.BasicEngine](t, c))
		assert.Len(t, c.Beans(), 1)
	})

	t.Run("first owner wins", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		other := testutil.NewPlugin("other")

		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		require.NoError(t, c.Register(other, testutil.NewBasicEngine()))

		gotOwner, ok := c.Owner(ioc.KeyFor[*testutil.BasicEngine]())
		require.True(t, ok)
		assert.Same(t, owner, gotOwner)
	})

	t.Run("nil arguments", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		assert.ErrorIs(t, c.Register(owner, nil), ioc.ErrNilInstance)
		assert.ErrorIs(t, c.Register(owner, (*testutil.BasicEngine)(nil)), ioc.ErrNilInstance)
		assert.ErrorIs(t, c.Register(nil, testutil.NewBasicEngine()), ioc.ErrNilOwner)
		assert.ErrorIs(t, c.RegisterSilent(owner, nil), ioc.ErrNilInstance)
	})

	t.Run("fires hooks and handlers", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		var got []string
		c.OnComponentRegister(func(component any, qualifier string, o *testutil.Plugin) error {
			assert.Same(t, owner, o)
			got = append(got, qualifier)
			return nil
		})

		hooked := testutil.NewHooked()
		require.NoError(t, c.Register(owner, hooked, "x"))

		assert.Equal(t, []string{"x"}, got)
		assert.Equal(t, []string{"PostConstruct"}, hooked.Calls())
	})

	t.Run("silent registration skips hooks and handlers", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		called := false
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			called = true
			return nil
		})

		hooked := testutil.NewHooked()
		require.NoError(t, c.RegisterSilent(owner, hooked))

		assert.False(t, called)
		assert.Empty(t, hooked.Calls())
		assert.Same(t, hooked, testutil.AssertFound[*testutil.Hooked](t, c))

		_, ok := c.Owner(ioc.KeyFor[*testutil.Hooked]())
		assert.True(t, ok, "silent registration still attributes the owner")
	})
}

func TestContainer_ValueOwners(t *testing.T) {
	t.Parallel()

	t.Run("unattributed keys stay unattributed", func(t *testing.T) {
		catalog, err := ioc.NewCatalog(ioc.ComponentOf[*testutil.BasicEngine]())
		require.NoError(t, err)

		c := ioc.New[string]()
		require.NoError(t, c.ScanCatalog("plugin", catalog))

		var owners []string
		c.OnComponentRegister(func(_ any, _ string, owner string) error {
			owners = append(owners, owner)
			return nil
		})

		_, err = c.ResolveKey(ioc.KeyFor[*testutil.BasicEngine]("other"))
		require.NoError(t, err)

		_, ok := c.Owner(ioc.KeyFor[*testutil.BasicEngine]("other"))
		assert.False(t, ok)
		assert.Equal(t, []string{""}, owners)

		owner, ok := c.Owner(ioc.KeyFor[*testutil.BasicEngine]())
		require.True(t, ok)
		assert.Equal(t, "plugin", owner)
	})

	t.Run("handlers receive the attributed owner", func(t *testing.T) {
		c := ioc.New[string]()

		var owners []string
		c.OnComponentRegister(func(_ any, _ string, owner string) error {
			owners = append(owners, owner)
			return nil
		})

		require.NoError(t, c.Register("first", testutil.NewBasicEngine()))
		require.NoError(t, c.Register("second", testutil.NewBasicEngine()))

		owner, ok := c.Owner(ioc.KeyFor[*testutil.BasicEngine]())
		require.True(t, ok)
		assert.Equal(t, "first", owner)
		assert.Equal(t, []string{"first", "first"}, owners)
	})
}

func TestContainer_Declare(t *testing.T) {
	t.Parallel()

	t.Run("registers the owner silently", func(t *testing.T) {
		b := testutil.NewContainerBuilder(t)
		c := b.Build()

		owner := testutil.AssertFound[*testutil.Plugin](t, c)
		assert.Same(t, b.Owner(), owner)
	})

	t.Run("attributes components, beans and parameters", func(t *testing.T) {
		b := testutil.NewContainerBuilder(t).
			WithComponent(testutil.NewTuner).
			WithComponent(testutil.NewFactory,
				ioc.Bean((*testutil.Factory).MakeTunedEngine),
				ioc.Bean((*testutil.Factory).MakeEngine, ioc.Qualifier("v8")),
			)
		c := b.Build()

		assert.Equal(t, []ioc.Key{
			ioc.KeyFor[*testutil.Tuner](),
			ioc.KeyFor[*testutil.Factory](),
			ioc.KeyFor[*testutil.TunedEngine](),
			ioc.KeyFor[testutil.Engine]("v8"),
		}, c.Declared())

		for _, key := range c.Declared() {
			owner, ok := c.Owner(key)
			require.True(t, ok, "%s has no owner", key)
			assert.Same(t, b.Owner(), owner)
		}

		assert.Empty(t, c.Beans()[1:], "declaration instantiates nothing but the owner")
	})

	t.Run("first declaring owner keeps shared keys", func(t *testing.T) {
		first := testutil.NewPlugin("first")
		second := testutil.NewPlugin("second")

		engines, err := ioc.NewCatalog(ioc.Component(testutil.NewBasicEngine))
		require.NoError(t, err)
		cars, err := ioc.NewCatalog(ioc.Component(testutil.NewCar))
		require.NoError(t, err)

		c := ioc.New[*testutil.Plugin]()
		require.NoError(t, c.ScanCatalog(first, engines))
		require.NoError(t, c.ScanCatalog(second, cars))

		owner, _ := c.Owner(ioc.KeyFor[*testutil.BasicEngine]())
		assert.Same(t, first, owner)
		owner, _ = c.Owner(ioc.KeyFor[*testutil.Car]())
		assert.Same(t, second, owner)
	})

	t.Run("parameters pull unowned keys to the declaring owner", func(t *testing.T) {
		first := testutil.NewPlugin("first")
		second := testutil.NewPlugin("second")

		cars, err := ioc.NewCatalog(ioc.Component(testutil.NewCar))
		require.NoError(t, err)
		engines, err := ioc.NewCatalog(ioc.Component(testutil.NewBasicEngine))
		require.NoError(t, err)

		c := ioc.New[*testutil.Plugin]()
		require.NoError(t, c.ScanCatalog(first, cars))
		require.NoError(t, c.ScanCatalog(second, engines))

		owner, _ := c.Owner(ioc.KeyFor[*testutil.BasicEngine]())
		assert.Same(t, first, owner, "Car's parameter was attributed before the engine was declared")
	})

	t.Run("cycle", func(t *testing.T) {
		catalog, err := ioc.NewCatalog(
			ioc.Component(testutil.NewCycleA),
			ioc.Component(testutil.NewCycleB),
		)
		require.NoError(t, err)

		c := ioc.New[*testutil.Plugin]()
		err = c.ScanCatalog(testutil.NewPlugin("p"), catalog)

		cycle := testutil.AssertCircularDependency(t, err,
			ioc.KeyFor[*testutil.CycleA](),
			ioc.KeyFor[*testutil.CycleB](),
		)
		assert.Equal(t, []ioc.Key{
			ioc.KeyFor[*testutil.CycleA](),
			ioc.KeyFor[*testutil.CycleB](),
			ioc.KeyFor[*testutil.CycleA](),
		}, cycle.Path)
		assert.Contains(t, err.Error(), "> *CycleA")
	})

	t.Run("self dependency", func(t *testing.T) {
		catalog, err := ioc.NewCatalog(ioc.Component(testutil.NewSelfDependent))
		require.NoError(t, err)

		c := ioc.New[*testutil.Plugin]()
		err = c.ScanCatalog(testutil.NewPlugin("p"), catalog)
		testutil.AssertCircularDependency(t, err, ioc.KeyFor[*testutil.SelfDependent]())
	})

	t.Run("cycle through an interface", func(t *testing.T) {
		catalog, err := ioc.NewCatalog(
			ioc.Component(testutil.NewPortAdapter),
			ioc.Component(testutil.NewPortUser),
		)
		require.NoError(t, err)

		c := ioc.New[*testutil.Plugin]()
		err = c.ScanCatalog(testutil.NewPlugin("p"), catalog)
		testutil.AssertCircularDependency(t, err,
			ioc.KeyFor[*testutil.PortAdapter](),
			ioc.KeyFor[*testutil.PortUser](),
		)
	})

	t.Run("non-components are ignored", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		err := c.Declare(testutil.NewPlugin("p"), []*ioc.TypeDescriptor{
			nil,
			{Type: ioc.KeyFor[*testutil.Car]().Type},
		})
		require.NoError(t, err)
		assert.Empty(t, c.Declared())
	})

	t.Run("nil owner", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		err := c.Declare(nil, nil)
		assert.ErrorIs(t, err, ioc.ErrNilOwner)
	})
}

func TestContainer_Scan(t *testing.T) {
	t.Parallel()

	catalog, err := ioc.NewCatalog(
		ioc.Component(testutil.NewBasicEngine),
		ioc.Component(testutil.NewCar),
		ioc.Component(NewRacer),
		ioc.Component(testutil.NewV8Engine),
	)
	require.NoError(t, err)

	t.Run("configured discoverer", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(catalog))
		require.NoError(t, c.Scan(testutil.NewPlugin("p")))
		assert.Len(t, c.Declared(), 4)
	})

	t.Run("name filter", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(catalog))
		require.NoError(t, c.Scan(testutil.NewPlugin("p"), ioc.NameContains("Engine")))
		assert.Equal(t, []ioc.Key{
			ioc.KeyFor[*testutil.BasicEngine](),
			ioc.KeyFor[*testutil.V8Engine](),
		}, c.Declared())
	})

	t.Run("package of the owner", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(catalog))
		require.NoError(t, c.ScanPackage(testutil.NewPlugin("p"), ""))
		assert.NotContains(t, c.Declared(), ioc.KeyFor[*Racer]())
		assert.Len(t, c.Declared(), 3)
	})

	t.Run("explicit package root with filter", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(catalog))
		require.NoError(t, c.ScanPackage(testutil.NewPlugin("p"), "github.com/junioryono/ioc/internal", ioc.NameContains("Car")))
		assert.Equal(t, []ioc.Key{ioc.KeyFor[*testutil.Car]()}, c.Declared())
	})

	t.Run("package outside the root", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(catalog))
		require.NoError(t, c.ScanPackage(testutil.NewPlugin("p"), "github.com/junioryono/ioc/internal/test"))
		assert.Empty(t, c.Declared(), "package roots match whole path elements")
	})

	t.Run("discoverer error", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin](ioc.WithDiscoverer(ioc.DiscovererFunc(
			func(any, ioc.Filter) ([]*ioc.TypeDescriptor, error) {
				return nil, testutil.ErrTest
			},
		)))
		assert.ErrorIs(t, c.Scan(testutil.NewPlugin("p")), testutil.ErrTest)
	})

	t.Run("nil discoverer", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()
		assert.ErrorIs(t, c.ScanCatalog(testutil.NewPlugin("p"), nil), ioc.ErrNilDiscoverer)
	})
}

func TestContainer_Initialize(t *testing.T) {
	t.Parallel()

	t.Run("handlers receive every bean once", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).
			WithComponent(testutil.NewBasicEngine).
			WithComponent(testutil.NewCar).
			Build()

		calls := 0
		var beans []ioc.QualifiedBean
		c.OnInitialize(func(got *ioc.Container[*testutil.Plugin], components []ioc.QualifiedBean) error {
			assert.Same(t, c, got)
			calls++
			beans = components
			return nil
		})

		require.NoError(t, c.Initialize())
		assert.Equal(t, 1, calls)

		keys := make([]ioc.Key, len(beans))
		for i, b := range beans {
			keys[i] = b.Key
			assert.Equal(t, b.Key.Qualifier, b.Qualifier)
		}
		assert.ElementsMatch(t, []ioc.Key{
			ioc.KeyFor[*testutil.Plugin](),
			ioc.KeyFor[*testutil.BasicEngine](),
			ioc.KeyFor[*testutil.Car](),
		}, keys)
	})

	t.Run("failing handlers are isolated", func(t *testing.T) {
		recorder := testutil.NewLogRecorder()
		c := testutil.NewContainerBuilder(t).
			WithOptions(ioc.WithLogger(recorder.Logger())).
			WithComponent(testutil.NewBasicEngine).
			Build()

		reached := false
		c.OnInitialize(func(*ioc.Container[*testutil.Plugin], []ioc.QualifiedBean) error {
			return testutil.ErrTest
		})
		c.OnInitialize(func(*ioc.Container[*testutil.Plugin], []ioc.QualifiedBean) error {
			panic("handler exploded")
		})
		c.OnInitialize(func(*ioc.Container[*testutil.Plugin], []ioc.QualifiedBean) error {
			reached = true
			return nil
		})

		require.NoError(t, c.Initialize())
		assert.True(t, reached)
		assert.Len(t, recorder.Find(slog.LevelError, "container initialize handler failed"), 2)
	})

	t.Run("removed handler is not called", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).Build()

		called := false
		id := c.OnInitialize(func(*ioc.Container[*testutil.Plugin], []ioc.QualifiedBean) error {
			called = true
			return nil
		})
		assert.True(t, c.RemoveInitializeHandler(id))
		assert.False(t, c.RemoveInitializeHandler(id))

		require.NoError(t, c.Initialize())
		assert.False(t, called)
	})

	t.Run("resolution errors abort", func(t *testing.T) {
		c := testutil.NewContainerBuilder(t).
			WithComponent(testutil.NewCar).
			Build()

		called := false
		c.OnInitialize(func(*ioc.Container[*testutil.Plugin], []ioc.QualifiedBean) error {
			called = true
			return nil
		})

		err := c.Initialize()
		assert.True(t, ioc.IsNotFound(err))
		assert.False(t, called)
	})

	t.Run("log records carry the container id", func(t *testing.T) {
		recorder := testutil.NewLogRecorder()
		c := testutil.NewContainerBuilder(t).
			WithOptions(ioc.WithLogger(recorder.Logger()), ioc.WithName("app")).
			Build()

		require.NoError(t, c.Initialize())

		records := recorder.Find(slog.LevelDebug, "container initialized")
		require.Len(t, records, 1)
		assert.Equal(t, c.ID().String(), records[0].Attrs["container"])
		assert.Equal(t, "app", records[0].Attrs["name"])
	})
}

func TestContainer_RegisterHandlers(t *testing.T) {
	t.Parallel()

	owner := testutil.NewPlugin("owner")

	t.Run("failing handlers do not stop siblings", func(t *testing.T) {
		recorder := testutil.NewLogRecorder()
		c := ioc.New[*testutil.Plugin](ioc.WithLogger(recorder.Logger()))

		var reached []int
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			reached = append(reached, 1)
			return testutil.ErrTest
		})
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			reached = append(reached, 2)
			panic(errors.New("handler exploded"))
		})
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			reached = append(reached, 3)
			return nil
		})

		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		assert.Equal(t, []int{1, 2, 3}, reached)
		assert.Len(t, recorder.Find(slog.LevelError, "component register handler failed"), 2)
	})

	t.Run("remove handler", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		calls := 0
		id := c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			calls++
			return nil
		})
		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		assert.True(t, c.RemoveComponentRegisterHandler(id))
		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))

		assert.Equal(t, 1, calls)
	})

	t.Run("handler may register handlers", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		calls := 0
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
				calls++
				return nil
			})
			return nil
		})

		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		assert.Equal(t, 0, calls, "handlers added during dispatch run from the next registration")
	})

	t.Run("custom executor", func(t *testing.T) {
		c := ioc.New[*testutil.Plugin]()

		var (
			mu      sync.Mutex
			pending []func()
			owners  []*testutil.Plugin
		)
		c.SetRegisterExecutor(func(o *testutil.Plugin, task func()) {
			mu.Lock()
			defer mu.Unlock()
			owners = append(owners, o)
			pending = append(pending, task)
		})

		called := false
		c.OnComponentRegister(func(any, string, *testutil.Plugin) error {
			called = true
			return nil
		})

		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		assert.False(t, called, "dispatch is deferred to the executor")
		require.Len(t, pending, 1)
		assert.Same(t, owner, owners[0])

		pending[0]()
		assert.True(t, called)

		c.SetRegisterExecutor(nil)
		called = false
		require.NoError(t, c.Register(owner, testutil.NewBasicEngine()))
		assert.True(t, called, "nil restores synchronous dispatch")
	})
}

func TestContainer_Graph(t *testing.T) {
	t.Parallel()

	c := testutil.NewContainerBuilder(t).
		WithComponent(testutil.NewBasicEngine).
		WithComponent(testutil.NewCar).
		WithComponent(testutil.NewFactory, ioc.Bean((*testutil.Factory).MakeEngine, ioc.Qualifier("v8"))).
		Build()

	var dot bytes.Buffer
	require.NoError(t, c.WriteDOT(&dot))
	assert.Contains(t, dot.String(), "digraph dependencies")
	assert.Contains(t, dot.String(), "style=dashed")

	var text bytes.Buffer
	require.NoError(t, c.WriteText(&text))
	assert.Contains(t, text.String(), "*Car")
	assert.Contains(t, text.String(), "Dependencies: [*BasicEngine]")
	assert.Contains(t, text.String(), "Engine[v8]")
}
