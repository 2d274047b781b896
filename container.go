package ioc

import (
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/junioryono/ioc/internal/hooks"
	"github.com/junioryono/ioc/internal/registry"
)

// HandlerID identifies a registered handler.
type HandlerID = hooks.HandlerID

// ComponentRegisterHandler is called after every non-silent registration with
// the registered instance, its qualifier and the owner it is attributed to.
type ComponentRegisterHandler[O any] func(component any, qualifier string, owner O) error

// ContainerInitializeHandler is called once per Initialize with every realized bean.
type ContainerInitializeHandler[O any] func(c *Container[O], components []QualifiedBean) error

// Executor dispatches a registration handler call. The default runs task
// immediately; an embedding application may defer or batch it instead.
type Executor[O any] func(owner O, task func())

// Container holds declared components and the singletons realized from them.
// O is the type of the owners declaring components, e.g. a plugin or module type.
//
// A container is populated by Register, Declare or Scan, then Initialize realizes
// every declared component. All methods are safe for concurrent use, except that
// declaration is expected to happen from a single goroutine during bootstrap.
type Container[O any] struct {
	id     uuid.UUID
	name   string
	logger *slog.Logger

	discoverer Discoverer
	store      *registry.Store
	tracker    *graph.Tracker
	beans      *beanRegistry

	registerHandlers *hooks.List[ComponentRegisterHandler[O]]
	initHandlers     *hooks.List[ContainerInitializeHandler[O]]

	executorMu sync.RWMutex
	executor   Executor[O]
}

var _ Resolver = (*Container[any])(nil)

// New creates an empty container.
func New[O any](opts ...Option) *Container[O] {
	options := newContainerOptions(opts)

	c := &Container[O]{
		id:               uuid.New(),
		name:             options.name,
		discoverer:       options.discoverer,
		store:            registry.NewStore(),
		tracker:          graph.NewTracker(),
		beans:            newBeanRegistry(),
		registerHandlers: hooks.NewList[ComponentRegisterHandler[O]](),
		initHandlers:     hooks.NewList[ContainerInitializeHandler[O]](),
		executor:         syncExecutor[O],
	}

	logger := options.logger.With(slog.String("container", c.id.String()))
	if c.name != "" {
		logger = logger.With(slog.String("name", c.name))
	}
	c.logger = logger

	return c
}

func syncExecutor[O any](_ O, task func()) {
	task()
}

// ID returns the unique identifier of the container.
func (c *Container[O]) ID() uuid.UUID {
	return c.id
}

// Name returns the name given with WithName.
func (c *Container[O]) Name() string {
	return c.name
}

// ========================================
// Registration
// ========================================

// Register stores bean under its runtime type and the optional qualifier,
// attributes it to owner unless it already has an owner, runs its post-construct
// hooks and notifies registration handlers. A previous instance under the same
// key is replaced.
func (c *Container[O]) Register(owner O, bean any, qualifier ...string) error {
	key, err := c.instanceKey(owner, bean, qualifier)
	if err != nil {
		return err
	}

	c.register(key, bean, owner, true)
	return nil
}

// RegisterSilent stores bean like Register but runs no hooks and notifies no handlers.
func (c *Container[O]) RegisterSilent(owner O, bean any, qualifier ...string) error {
	key, err := c.instanceKey(owner, bean, qualifier)
	if err != nil {
		return err
	}

	c.beans.set(key, bean)
	c.tracker.SetOwner(key, owner)
	return nil
}

func (c *Container[O]) instanceKey(owner O, bean any, qualifier []string) (Key, error) {
	if isNil(owner) {
		return Key{}, ErrNilOwner
	}
	if isNil(bean) {
		return Key{}, ErrNilInstance
	}
	return KeyOf(reflect.TypeOf(bean), firstQualifier(qualifier)), nil
}

// register is the full registration path shared with the resolution engine.
// The key is attributed to owner only when attribute is set; handlers receive
// whichever owner the key ends up attributed to.
func (c *Container[O]) register(key Key, bean any, owner O, attribute bool) {
	c.beans.set(key, bean)
	if attribute {
		c.tracker.SetOwner(key, owner)
	}

	c.postConstruct(key, bean)

	attributed, _ := c.Owner(key)
	c.fireRegister(attributed, bean, key.Qualifier)
}

// ========================================
// Declaration
// ========================================

// Declare registers owner silently under its own type, stores every component
// descriptor and its factory methods, and attributes all of their keys to owner.
// A dependency cycle among the declared keys is reported as a
// CircularDependencyError before anything is instantiated.
func (c *Container[O]) Declare(owner O, descriptors []*TypeDescriptor) error {
	if err := c.RegisterSilent(owner, owner); err != nil {
		return err
	}

	var keys []Key
	for _, desc := range descriptors {
		if desc == nil || !desc.Component {
			continue
		}

		key, err := c.store.AddComponent(desc)
		if err != nil {
			return DeclarationError{Type: desc.Type, Cause: err}
		}
		keys = append(keys, key)

		for _, method := range desc.Methods {
			beanKey, err := c.store.AddBean(key, method)
			if err != nil {
				return DeclarationError{Type: desc.Type, Cause: err}
			}
			keys = append(keys, beanKey)
		}
	}

	c.store.Declare(keys...)

	for _, key := range keys {
		if err := c.tracker.Attribute(owner, key, c.store); err != nil {
			return err
		}
	}

	c.logger.Debug("declared components",
		"owner", registry.FormatType(reflect.TypeOf(owner)),
		"keys", len(keys))
	return nil
}

// Scan declares every component the container's Discoverer reports for owner.
// A type is declared only if every filter accepts its fully qualified name.
func (c *Container[O]) Scan(owner O, filters ...Filter) error {
	return c.ScanCatalog(owner, c.discoverer, filters...)
}

// ScanPackage declares the discovered components whose package is root or lies
// below it. An empty root means the package declaring the owner's type.
func (c *Container[O]) ScanPackage(owner O, root string, filters ...Filter) error {
	if root == "" {
		root = registry.PackagePath(reflect.TypeOf(owner))
	}
	return c.Scan(owner, append([]Filter{InPackage(root)}, filters...)...)
}

// ScanCatalog declares the components d reports for owner.
func (c *Container[O]) ScanCatalog(owner O, d Discoverer, filters ...Filter) error {
	if d == nil {
		return ErrNilDiscoverer
	}

	descriptors, err := d.Discover(owner, allOf(filters...))
	if err != nil {
		return err
	}
	return c.Declare(owner, descriptors)
}

// ========================================
// Initialization
// ========================================

// Initialize resolves every key attributed to an owner, then calls each
// initialization handler once with all realized beans. Handler failures are
// logged and do not stop other handlers; resolution failures are returned.
func (c *Container[O]) Initialize() error {
	keys := c.tracker.Owned()

	for _, key := range keys {
		if _, err := c.ResolveKey(key); err != nil {
			return err
		}
	}

	beans := c.Beans()
	for _, handler := range c.initHandlers.Snapshot() {
		err := hooks.Call(func() error {
			return handler(c, beans)
		})
		if err != nil {
			c.logger.Error("container initialize handler failed", "error", err)
		}
	}

	c.logger.Debug("container initialized", "beans", len(beans))
	return nil
}

// Beans returns every realized bean in first-registration order.
func (c *Container[O]) Beans() []QualifiedBean {
	return c.beans.all()
}

// Owner returns the owner the key is attributed to.
func (c *Container[O]) Owner(key Key) (O, bool) {
	owner, ok := c.tracker.Owner(key)
	if !ok {
		var zero O
		return zero, false
	}
	typed, ok := owner.(O)
	return typed, ok
}

// Declared returns the declared component and bean keys in declaration order.
func (c *Container[O]) Declared() []Key {
	return c.store.Declared()
}

// ========================================
// Hooks
// ========================================

// OnComponentRegister adds a handler called after every non-silent registration.
func (c *Container[O]) OnComponentRegister(handler ComponentRegisterHandler[O]) HandlerID {
	return c.registerHandlers.Add(handler)
}

// RemoveComponentRegisterHandler removes a handler added with OnComponentRegister.
func (c *Container[O]) RemoveComponentRegisterHandler(id HandlerID) bool {
	return c.registerHandlers.Remove(id)
}

// OnInitialize adds a handler called at the end of every Initialize.
func (c *Container[O]) OnInitialize(handler ContainerInitializeHandler[O]) HandlerID {
	return c.initHandlers.Add(handler)
}

// RemoveInitializeHandler removes a handler added with OnInitialize.
func (c *Container[O]) RemoveInitializeHandler(id HandlerID) bool {
	return c.initHandlers.Remove(id)
}

// SetRegisterExecutor replaces the executor dispatching registration handlers.
// A nil executor restores synchronous dispatch.
func (c *Container[O]) SetRegisterExecutor(executor Executor[O]) {
	if executor == nil {
		executor = syncExecutor[O]
	}

	c.executorMu.Lock()
	c.executor = executor
	c.executorMu.Unlock()
}

func (c *Container[O]) fireRegister(owner O, bean any, qualifier string) {
	handlers := c.registerHandlers.Snapshot()
	if len(handlers) == 0 {
		return
	}

	c.executorMu.RLock()
	execute := c.executor
	c.executorMu.RUnlock()

	for _, handler := range handlers {
		execute(owner, func() {
			err := hooks.Call(func() error {
				return handler(bean, qualifier, owner)
			})
			if err != nil {
				c.logger.Error("component register handler failed",
					"component", registry.FormatType(reflect.TypeOf(bean)),
					"qualifier", qualifier,
					"error", err)
			}
		})
	}
}

// ========================================
// Diagnostics
// ========================================

// WriteDOT writes the dependency graph recorded during declaration in Graphviz DOT format.
func (c *Container[O]) WriteDOT(w io.Writer) error {
	return graph.NewVisualizer(c.tracker.Graph()).WriteDOT(w)
}

// WriteText writes a readable description of the dependency graph.
func (c *Container[O]) WriteText(w io.Writer) error {
	return graph.NewVisualizer(c.tracker.Graph()).WriteText(w)
}

// isNil reports whether v is nil or a nil pointer, map, slice, channel or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
