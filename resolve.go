package ioc

import (
	"fmt"
	"reflect"

	"github.com/junioryono/ioc/internal/registry"
)

// Resolver resolves instances by key.
type Resolver interface {
	// ResolveKey returns the instance for key, creating it and its
	// dependencies on first use.
	ResolveKey(key Key) (any, error)

	// FindKey returns the instance for key if one has been realized.
	FindKey(key Key) (any, bool)
}

// ResolveKey returns the singleton for key, creating it on first use.
//
// An interface key is first replaced by the first declared key with the same
// qualifier whose type implements it. A realized instance is returned as is.
// Otherwise the key must be a declared component or a factory-produced bean:
// factory beans resolve their parent component, then the method parameters left
// to right, and invoke the method on the parent; components resolve their
// constructor parameters and invoke the constructor. The new instance is
// registered, which runs post-construct hooks and registration handlers.
func (c *Container[O]) ResolveKey(key Key) (any, error) {
	return c.resolve(key, nil)
}

// FindKey returns the realized instance for key, after implementation
// substitution, without creating anything.
func (c *Container[O]) FindKey(key Key) (any, bool) {
	return c.beans.get(c.store.FindImplementation(key))
}

func (c *Container[O]) resolve(requested Key, path []Key) (any, error) {
	key := c.store.FindImplementation(requested)

	if bean, ok := c.beans.get(key); ok {
		return bean, nil
	}

	for _, k := range path {
		if k == key {
			cycle := make([]Key, 0, len(path)+1)
			cycle = append(cycle, path...)
			return nil, CircularDependencyError{Node: key, Path: append(cycle, key)}
		}
	}

	if !c.store.Defines(key) {
		return nil, NoSuchBeanDefinitionError{
			Key:       key,
			Requested: requested,
			Available: c.store.Declared(),
		}
	}

	path = append(path[:len(path):len(path)], key)

	var (
		bean any
		err  error
	)
	if parent, ok := c.store.Parent(key); ok {
		bean, err = c.createBean(key, parent, path)
	} else {
		bean, err = c.createComponent(key, path)
	}
	if err != nil {
		return nil, err
	}

	owner, owned := c.Owner(key)
	c.register(key, bean, owner, owned)

	c.logger.Debug("resolved", "key", key.String())
	return bean, nil
}

// createBean invokes the factory method of key on its resolved parent.
func (c *Container[O]) createBean(key Key, parent registry.Parent, path []Key) (any, error) {
	receiver, err := c.resolve(parent.Key, path)
	if err != nil {
		return nil, err
	}

	args, err := c.resolveParams(parent.Method.Params, path)
	if err != nil {
		return nil, err
	}

	bean, err := parent.Method.Invoke(receiver, args)
	if err != nil {
		return nil, BeanCreationError{
			Target:    key,
			Declaring: parent.Key.Type,
			Method:    parent.Method.Name,
			Cause:     err,
		}
	}
	return bean, nil
}

// createComponent invokes the chosen constructor of key.
func (c *Container[O]) createComponent(key Key, path []Key) (any, error) {
	ctor, ok := c.store.Constructor(key.Type)
	if !ok {
		return nil, BeanCreationError{
			Target:    key,
			Declaring: key.Type,
			Method:    "<none>",
			Cause:     fmt.Errorf("%s declares no constructor", registry.FormatType(key.Type)),
		}
	}

	args, err := c.resolveParams(ctor.Params, path)
	if err != nil {
		return nil, err
	}

	bean, err := ctor.Invoke(args)
	if err != nil {
		return nil, BeanCreationError{
			Target:    key,
			Declaring: key.Type,
			Method:    ctor.Name,
			Cause:     err,
		}
	}
	return bean, nil
}

// resolveParams resolves parameters depth-first, left to right.
func (c *Container[O]) resolveParams(params []Param, path []Key) ([]any, error) {
	if len(params) == 0 {
		return nil, nil
	}

	args := make([]any, len(params))
	for i, key := range c.store.ParamKeys(params) {
		arg, err := c.resolve(key, path)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// ========================================
// Typed accessors
// ========================================

// Resolve returns the instance of T at DefaultQualifier, creating it on first use.
//
//	car, err := ioc.Resolve[*Car](c)
func Resolve[T any](r Resolver) (T, error) {
	return ResolveQualified[T](r, DefaultQualifier)
}

// ResolveQualified returns the instance of T at qualifier, creating it on first use.
func ResolveQualified[T any](r Resolver, qualifier string) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNoResolverInContext
	}

	bean, err := r.ResolveKey(KeyFor[T](qualifier))
	if err != nil {
		return zero, err
	}
	return as[T](bean, "resolve")
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](r Resolver, qualifier ...string) T {
	bean, err := ResolveQualified[T](r, firstQualifier(qualifier))
	if err != nil {
		panic(err)
	}
	return bean
}

// FindBean returns the realized instance of T at the optional qualifier.
// It never creates instances.
func FindBean[T any](r Resolver, qualifier ...string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}

	bean, ok := r.FindKey(KeyFor[T](qualifier...))
	if !ok {
		return zero, false
	}

	typed, err := as[T](bean, "find")
	if err != nil {
		return zero, false
	}
	return typed, true
}

func as[T any](bean any, context string) (T, error) {
	typed, ok := bean.(T)
	if !ok {
		var zero T
		return zero, TypeMismatchError{
			Expected: reflect.TypeFor[T](),
			Actual:   reflect.TypeOf(bean),
			Context:  context,
		}
	}
	return typed, nil
}
