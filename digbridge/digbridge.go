// Package digbridge exports beans realized by an ioc container into a
// go.uber.org/dig container, so applications built on dig (or fx) can consume
// them as ordinary dependencies.
//
// Beans under DefaultQualifier are provided unnamed; every other qualifier
// becomes a dig name:
//
//	d := dig.New()
//	bridge := digbridge.New(d)
//	c.OnInitialize(digbridge.OnInitialize[*Plugin](bridge))
//
//	type Params struct {
//	    dig.In
//
//	    Engine Engine `name:"v8"`
//	}
package digbridge

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/junioryono/ioc"
	"go.uber.org/dig"
)

// Bridge provides ioc beans to a dig container. Each key is provided at most once.
type Bridge struct {
	mu       sync.Mutex
	d        *dig.Container
	exported map[ioc.Key]struct{}
}

// New creates a Bridge providing into d.
func New(d *dig.Container) *Bridge {
	return &Bridge{
		d:        d,
		exported: make(map[ioc.Key]struct{}),
	}
}

// Container returns the dig container beans are provided to.
func (b *Bridge) Container() *dig.Container {
	return b.d
}

// Exported reports whether key has been provided to dig.
func (b *Bridge) Exported(key ioc.Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.exported[key]
	return ok
}

// Provide provides every bean not exported yet. It stops at the first bean
// dig rejects.
func (b *Bridge) Provide(beans []ioc.QualifiedBean) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, bean := range beans {
		if _, ok := b.exported[bean.Key]; ok {
			continue
		}

		if err := provide(b.d, bean); err != nil {
			return fmt.Errorf("provide %s to dig: %w", bean.Key, err)
		}
		b.exported[bean.Key] = struct{}{}
	}

	return nil
}

// OnInitialize returns a container initialization handler that provides all
// realized beans through b.
func OnInitialize[O any](b *Bridge) ioc.ContainerInitializeHandler[O] {
	return func(_ *ioc.Container[O], beans []ioc.QualifiedBean) error {
		return b.Provide(beans)
	}
}

// provide registers a constructor returning the bean as its key type.
func provide(d *dig.Container, bean ioc.QualifiedBean) error {
	t := bean.Key.Type
	if t == nil {
		return fmt.Errorf("bean has no type")
	}

	rv := reflect.ValueOf(bean.Bean)
	if !rv.IsValid() || !rv.Type().AssignableTo(t) {
		return ioc.TypeMismatchError{Expected: t, Actual: reflect.TypeOf(bean.Bean), Context: "dig export"}
	}

	// The constructor must return exactly t, also for interface keys.
	value := reflect.New(t).Elem()
	value.Set(rv)

	fnType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{value}
	})

	var opts []dig.ProvideOption
	if q := bean.Key.Qualifier; q != "" && q != ioc.DefaultQualifier {
		opts = append(opts, dig.Name(q))
	}

	return d.Provide(fn.Interface(), opts...)
}
