package ioc

import (
	"reflect"

	"github.com/junioryono/ioc/internal/hooks"
	"github.com/junioryono/ioc/internal/registry"
)

// PostConstructor is implemented by components that finish their setup after
// registration. A returned error is logged; the component stays registered.
//
// Example:
//
//	type Cache struct {
//	    entries map[string]string
//	}
//
//	func (c *Cache) PostConstruct() error {
//	    c.entries = make(map[string]string)
//	    return nil
//	}
type PostConstructor interface {
	PostConstruct() error
}

var errorType = reflect.TypeFor[error]()

// postConstruct runs the hooks of a freshly registered bean: PostConstruct() first,
// then each method named with the PostConstruct option for its type.
// Hooks never fail registration.
func (c *Container[O]) postConstruct(key Key, bean any) {
	if pc, ok := bean.(PostConstructor); ok {
		if err := hooks.Call(pc.PostConstruct); err != nil {
			c.logger.Error("post-construct hook failed",
				"component", key.String(),
				"method", "PostConstruct",
				"error", err)
		}
	}

	for _, name := range c.store.PostConstruct(key.Type) {
		if name == "PostConstruct" {
			if _, ok := bean.(PostConstructor); ok {
				continue
			}
		}
		c.invokeHook(key, bean, name)
	}
}

func (c *Container[O]) invokeHook(key Key, bean any, name string) {
	method := reflect.ValueOf(bean).MethodByName(name)
	if !method.IsValid() {
		c.logger.Warn("post-construct method not found, skipping",
			"component", key.String(),
			"method", name)
		return
	}

	mt := method.Type()
	if mt.NumIn() > 0 {
		c.logger.Warn("post-construct method has parameters, skipping",
			"component", key.String(),
			"method", name,
			"signature", registry.FormatType(mt))
		return
	}

	err := hooks.Call(func() error {
		out := method.Call(nil)
		for _, v := range out {
			if v.Type() == errorType && !v.IsNil() {
				return v.Interface().(error)
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Error("post-construct hook failed",
			"component", key.String(),
			"method", name,
			"error", err)
	}
}
