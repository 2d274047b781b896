package ioc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/ioc/internal/reflection"
	"github.com/junioryono/ioc/internal/registry"
)

// Declaration adds one or more component descriptors to a Catalog.
type Declaration func(*Catalog) error

// Module groups related declarations under a name. Errors from the
// grouped declarations are wrapped in a ModuleError.
//
// Example:
//
//	var EngineModule = ioc.Module("engine",
//	    ioc.Component(NewFactory,
//	        ioc.Bean((*Factory).MakeEngine, ioc.Qualifier("v8")),
//	    ),
//	)
//
//	var AppModule = ioc.Module("app",
//	    EngineModule,
//	    ioc.Component(NewCar, ioc.ParamQualifier(0, "v8")),
//	)
func Module(name string, decls ...Declaration) Declaration {
	return func(c *Catalog) error {
		for _, decl := range decls {
			if decl == nil {
				continue
			}

			if err := decl(c); err != nil {
				return ModuleError{Module: name, Cause: err}
			}
		}

		return nil
	}
}

// Component declares the type returned by ctor as a component constructed by ctor.
// The constructor returns T or (T, error); its parameters, or the fields of an
// embedded-In parameter object, are resolved from the container.
func Component(ctor any, opts ...ComponentOption) Declaration {
	return func(c *Catalog) error {
		if ctor == nil {
			return DeclarationError{Cause: ErrNilConstructor}
		}

		options, err := newComponentOptions(opts)
		if err != nil {
			return DeclarationError{Type: reflect.TypeOf(ctor), Cause: err}
		}

		primary, t, err := newConstructor(ctor, options.paramQualifiers)
		if err != nil {
			return DeclarationError{Type: reflect.TypeOf(ctor), Cause: err}
		}
		if t.Kind() == reflect.Interface {
			return DeclarationError{
				Type:  t,
				Cause: fmt.Errorf("constructor %s must return a concrete type; declare the implementation and request the interface", primary.Name),
			}
		}
		primary.Autowired = options.autowired

		desc, err := options.descriptor(t, primary)
		if err != nil {
			return DeclarationError{Type: t, Cause: err}
		}
		return c.add(desc)
	}
}

// ComponentOf declares T as a component built from its zero value, or from the
// constructors given with the Constructor option. T must be a struct or a
// pointer to a struct unless a constructor is supplied.
func ComponentOf[T any](opts ...ComponentOption) Declaration {
	return func(c *Catalog) error {
		t := reflect.TypeFor[T]()

		options, err := newComponentOptions(opts)
		if err != nil {
			return DeclarationError{Type: t, Cause: err}
		}

		if len(options.constructors) == 0 {
			if _, ok := registry.ZeroConstructor(t); !ok {
				return DeclarationError{Type: t, Cause: fmt.Errorf("%s has no zero-value constructor", registry.FormatType(t))}
			}
		}

		desc, err := options.descriptor(t)
		if err != nil {
			return DeclarationError{Type: t, Cause: err}
		}
		return c.add(desc)
	}
}

// descriptor builds the descriptor of t from the collected options.
func (o *componentOptions) descriptor(t reflect.Type, primary ...Constructor) (*TypeDescriptor, error) {
	for _, fn := range o.deferred {
		if err := fn(t); err != nil {
			return nil, err
		}
	}

	return &TypeDescriptor{
		Type:          t,
		Component:     true,
		Qualifier:     o.qualifier,
		Constructors:  append(primary, o.constructors...),
		Methods:       o.beans,
		PostConstruct: o.postConstruct,
	}, nil
}

// newConstructor analyzes ctor into a Constructor and its result type.
func newConstructor(ctor any, qualifiers map[int]string) (Constructor, reflect.Type, error) {
	info, err := analyzer.Analyze(ctor)
	if err != nil {
		return Constructor{}, nil, err
	}

	params, err := newParams(info, qualifiers)
	if err != nil {
		return Constructor{}, nil, err
	}

	return Constructor{
		Name:   info.Name,
		Params: params,
		Invoke: info.Invoke,
	}, info.ResultType, nil
}

// newFactoryMethod analyzes a method expression of receiver.
func newFactoryMethod(receiver reflect.Type, method any, options *beanOptions) (FactoryMethod, error) {
	info, err := analyzer.AnalyzeMethod(method)
	if err != nil {
		return FactoryMethod{}, err
	}

	if info.Receiver != receiver {
		return FactoryMethod{}, TypeMismatchError{
			Expected: receiver,
			Actual:   info.Receiver,
			Context:  "factory method " + info.Name + " receiver",
		}
	}

	params, err := newParams(info, options.paramQualifiers)
	if err != nil {
		return FactoryMethod{}, err
	}

	return FactoryMethod{
		Name:          info.Name,
		ReturnType:    info.ResultType,
		Qualifier:     options.qualifier,
		Params:        params,
		PostConstruct: options.postConstruct,
		Invoke:        info.InvokeMethod,
	}, nil
}

// newParams converts analyzed parameters, applying ParamQualifier overrides.
func newParams(info *reflection.ConstructorInfo, qualifiers map[int]string) ([]Param, error) {
	params := make([]Param, len(info.Parameters))
	for i, p := range info.Parameters {
		params[i] = Param{Type: p.Type, Qualifier: p.Qualifier, Qualified: p.Qualified}
	}

	for i, q := range qualifiers {
		if i < 0 || i >= len(params) {
			return nil, fmt.Errorf("ParamQualifier(%d, %q): %s has %d parameters", i, q, info.Name, len(params))
		}
		params[i].Qualifier = q
		params[i].Qualified = true
	}

	return params, nil
}

// ========================================
// Options
// ========================================

// A ComponentOption modifies a Component or ComponentOf declaration.
type ComponentOption interface {
	applyComponentOption(*componentOptions)
}

// A BeanOption modifies a factory method declared with Bean.
type BeanOption interface {
	applyBeanOption(*beanOptions)
}

type componentOptions struct {
	qualifier       string
	autowired       bool
	constructors    []Constructor
	beans           []FactoryMethod
	postConstruct   []string
	paramQualifiers map[int]string

	// deferred holds options that need the component type
	deferred []func(t reflect.Type) error
	errs     []error
}

// A DeclarationOption applies to both components and factory methods.
type DeclarationOption interface {
	ComponentOption
	BeanOption
}

type beanOptions struct {
	qualifier       string
	postConstruct   []string
	paramQualifiers map[int]string
}

func newComponentOptions(opts []ComponentOption) (*componentOptions, error) {
	o := &componentOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyComponentOption(o)
		}
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate reports option errors collected while applying options.
func (o *componentOptions) Validate() error {
	if len(o.errs) > 0 {
		return o.errs[0]
	}
	return validateQualifier(o.qualifier)
}

// validateQualifier rejects qualifiers that cannot be written in a struct tag.
func validateQualifier(q string) error {
	if strings.ContainsAny(q, "`\"") {
		return fmt.Errorf("invalid ioc.Qualifier(%q): qualifiers cannot contain quotes or backquotes", q)
	}
	return nil
}

// Qualifier sets the qualifier of a component or a factory-produced bean.
//
// Given,
//
//	ioc.Component(NewFactory,
//	    ioc.Bean((*Factory).MakeV8, ioc.Qualifier("v8")),
//	    ioc.Bean((*Factory).MakeV6, ioc.Qualifier("v6")),
//	)
//
// the container holds two Engine beans, requested as KeyFor[Engine]("v8") and
// KeyFor[Engine]("v6"). A qualifier on a component type is also the default
// qualifier of every parameter of that type.
func Qualifier(q string) DeclarationOption {
	return qualifierOption(q)
}

type qualifierOption string

func (o qualifierOption) String() string {
	return fmt.Sprintf("Qualifier(%q)", string(o))
}

func (o qualifierOption) applyComponentOption(opts *componentOptions) {
	opts.qualifier = string(o)
}

func (o qualifierOption) applyBeanOption(opts *beanOptions) {
	opts.qualifier = string(o)
}

// Autowired marks the constructor passed to Component as the preferred one
// when more constructors are declared for the same type.
func Autowired() ComponentOption {
	return autowiredOption{}
}

type autowiredOption struct{}

func (autowiredOption) String() string { return "Autowired()" }

func (autowiredOption) applyComponentOption(opts *componentOptions) {
	opts.autowired = true
}

// WithConstructor declares an alternative constructor. Without an Autowired
// constructor, the first declared one is used.
func WithConstructor(ctor any) ComponentOption {
	return constructorOption{ctor: ctor}
}

type constructorOption struct {
	ctor any
}

func (o constructorOption) applyComponentOption(opts *componentOptions) {
	if o.ctor == nil {
		opts.errs = append(opts.errs, ErrNilConstructor)
		return
	}

	ctor, t, err := newConstructor(o.ctor, nil)
	if err != nil {
		opts.errs = append(opts.errs, err)
		return
	}
	opts.constructors = append(opts.constructors, ctor)
	opts.deferred = append(opts.deferred, func(component reflect.Type) error {
		if t != component {
			return TypeMismatchError{Expected: component, Actual: t, Context: "constructor " + ctor.Name}
		}
		return nil
	})
}

// Bean declares a factory method of the component. method is a method
// expression such as (*Factory).MakeEngine, or a function taking the component
// as its first parameter. The produced bean is keyed by the method's result
// type and the Qualifier option.
func Bean(method any, opts ...BeanOption) ComponentOption {
	return beanOption{method: method, opts: opts}
}

type beanOption struct {
	method any
	opts   []BeanOption
}

func (o beanOption) applyComponentOption(opts *componentOptions) {
	if o.method == nil {
		opts.errs = append(opts.errs, ErrNilMethod)
		return
	}

	options := &beanOptions{}
	for _, opt := range o.opts {
		if opt != nil {
			opt.applyBeanOption(options)
		}
	}
	if err := validateQualifier(options.qualifier); err != nil {
		opts.errs = append(opts.errs, err)
		return
	}

	index := len(opts.beans)
	opts.beans = append(opts.beans, FactoryMethod{})
	opts.deferred = append(opts.deferred, func(component reflect.Type) error {
		method, err := newFactoryMethod(component, o.method, options)
		if err != nil {
			return err
		}
		opts.beans[index] = method
		return nil
	})
}

// PostConstruct names zero-argument methods invoked after the component or bean
// is registered. Types implementing PostConstructor need no option.
func PostConstruct(methods ...string) DeclarationOption {
	return postConstructOption(methods)
}

type postConstructOption []string

func (o postConstructOption) String() string {
	return fmt.Sprintf("PostConstruct(%s)", strings.Join(o, ", "))
}

func (o postConstructOption) applyComponentOption(opts *componentOptions) {
	opts.postConstruct = append(opts.postConstruct, o...)
}

func (o postConstructOption) applyBeanOption(opts *beanOptions) {
	opts.postConstruct = append(opts.postConstruct, o...)
}

// ParamQualifier requests the parameter at index with qualifier q, overriding
// the qualifier declared on the parameter type. For parameter objects the
// index counts injected fields.
func ParamQualifier(index int, q string) DeclarationOption {
	return paramQualifierOption{index: index, qualifier: q}
}

type paramQualifierOption struct {
	index     int
	qualifier string
}

func (o paramQualifierOption) String() string {
	return fmt.Sprintf("ParamQualifier(%d, %q)", o.index, o.qualifier)
}

func (o paramQualifierOption) applyComponentOption(opts *componentOptions) {
	if opts.paramQualifiers == nil {
		opts.paramQualifiers = make(map[int]string)
	}
	opts.paramQualifiers[o.index] = o.qualifier
}

func (o paramQualifierOption) applyBeanOption(opts *beanOptions) {
	if opts.paramQualifiers == nil {
		opts.paramQualifiers = make(map[int]string)
	}
	opts.paramQualifiers[o.index] = o.qualifier
}
