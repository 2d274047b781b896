package ioc

import (
	"reflect"

	"github.com/junioryono/ioc/internal/reflection"
	"github.com/junioryono/ioc/internal/registry"
)

// DefaultQualifier is the qualifier of every key that does not name one.
const DefaultQualifier = registry.DefaultQualifier

// Key identifies a resolvable unit by type and qualifier.
type Key = registry.Key

// Descriptor contract types consumed from a Discoverer.
type (
	TypeDescriptor = registry.TypeDescriptor
	Constructor    = registry.Constructor
	FactoryMethod  = registry.FactoryMethod
	Param          = registry.Param
	Invoker        = registry.Invoker
	MethodInvoker  = registry.MethodInvoker
)

// In can be embedded in a struct to mark it as a parameter object.
// Each exported field becomes a constructor parameter; a field tagged
// qualifier:"x" or name:"x" requests the key qualified with x.
//
//	type CarParams struct {
//	    ioc.In
//
//	    Engine Engine `qualifier:"v8"`
//	    Wheels *Wheels
//	}
type In = reflection.In

// KeyOf creates a key. An empty qualifier means DefaultQualifier.
func KeyOf(t reflect.Type, qualifier string) Key {
	return registry.KeyOf(t, qualifier)
}

// KeyFor creates the key of T with the optional qualifier.
func KeyFor[T any](qualifier ...string) Key {
	return KeyOf(reflect.TypeFor[T](), firstQualifier(qualifier))
}

// QualifiedBean is a realized instance together with the key it was stored under.
type QualifiedBean struct {
	Key       Key
	Bean      any
	Qualifier string
}

func firstQualifier(qualifier []string) string {
	if len(qualifier) > 0 && qualifier[0] != "" {
		return qualifier[0]
	}
	return DefaultQualifier
}
