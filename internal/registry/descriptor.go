package registry

import "reflect"

// Invoker constructs a component from its resolved constructor arguments.
type Invoker func(args []any) (any, error)

// MethodInvoker produces a bean by calling a factory method on its parent instance.
type MethodInvoker func(parent any, args []any) (any, error)

// Param describes a single constructor or factory-method parameter.
type Param struct {
	// Type is the declared parameter type
	Type reflect.Type

	// Qualifier is the explicit per-parameter qualifier, if Qualified is set
	Qualifier string

	// Qualified marks an explicit per-parameter qualifier
	Qualified bool
}

// Constructor describes one way of building a component type.
type Constructor struct {
	// Name identifies the constructor in diagnostics
	Name string

	// Params are the constructor parameters, in call order
	Params []Param

	// Autowired marks the preferred constructor
	Autowired bool

	// Invoke performs the call
	Invoke Invoker
}

// FactoryMethod describes a method on a component that produces a bean.
type FactoryMethod struct {
	// Name is the method name
	Name string

	// ReturnType is the type of the produced bean
	ReturnType reflect.Type

	// Qualifier of the produced bean
	Qualifier string

	// Params are the method parameters, excluding the receiver
	Params []Param

	// PostConstruct lists hook methods of the produced bean
	PostConstruct []string

	// Invoke performs the call on a resolved parent
	Invoke MethodInvoker
}

// TypeDescriptor is what class discovery reports for a single type.
type TypeDescriptor struct {
	// Type is the described type
	Type reflect.Type

	// Component marks types eligible for container-managed instantiation
	Component bool

	// Qualifier declared on the type itself
	Qualifier string

	// Constructors declared for the type
	Constructors []Constructor

	// Methods are the factory methods the type declares
	Methods []FactoryMethod

	// PostConstruct lists the names of zero-argument hook methods
	PostConstruct []string
}

// Key returns the component key of the descriptor.
func (d *TypeDescriptor) Key() Key {
	return KeyOf(d.Type, d.Qualifier)
}

// Parent links a factory-produced key to the component that produces it.
type Parent struct {
	Key    Key
	Method FactoryMethod
}
