// Package ioc provides a qualifier-aware dependency injection container that
// remembers which owner contributed every bean.
//
// # Overview
//
// A Container is parameterized by its owner type, typically a plugin or module
// handle. Owners declare components; the container resolves them lazily,
// records the owner of every realized bean and notifies listeners as beans
// appear. The library provides:
//   - Keys made of a type and a qualifier ("default" unless named)
//   - Constructor injection, with parameter objects embedding ioc.In
//   - Factory methods on components producing further beans
//   - Interface requests satisfied by the first declared implementation
//   - Eager cycle detection at declaration time, and lazy detection while resolving
//   - Owner attribution for every declared and realized key
//   - Register and initialize hooks with pluggable executors
//
// # Basic Usage
//
// Declare components in a Catalog, declare the catalog under an owner and resolve:
//
//	catalog, err := ioc.NewCatalog(
//	    ioc.Component(NewEngine),
//	    ioc.Component(NewCar),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := ioc.New[*Plugin](ioc.WithDiscoverer(catalog))
//	if err := c.Scan(plugin); err != nil {
//	    log.Fatal(err)
//	}
//
//	car, err := ioc.Resolve[*Car](c)
//
// Packages may instead add their declarations to DefaultCatalog from init:
//
//	func init() {
//	    ioc.Provide(ioc.Component(NewEngine))
//	}
//
// # Qualifiers
//
// A qualifier distinguishes several beans of the same type:
//
//	ioc.Component(NewFactory,
//	    ioc.Bean((*Factory).MakeV8, ioc.Qualifier("v8")),
//	    ioc.Bean((*Factory).MakeV6, ioc.Qualifier("v6")),
//	)
//
// The qualifier of a parameter is chosen in this order:
//
//  1. An explicit ParamQualifier option, or a qualifier:"x" / name:"x" tag on a parameter object field
//  2. The qualifier declared on the parameter's component type
//  3. DefaultQualifier
//
// # Interfaces
//
// Components are always concrete. A request for an interface key is served by
// the first declared type, in declaration order, that implements the interface
// with the same qualifier:
//
//	ioc.Component(NewPostgresStore, ioc.Qualifier("primary"))
//	ioc.Component(NewService, ioc.ParamQualifier(0, "primary")) // NewService(Store)
//
// # Owners
//
// Every declared key is attributed to the owner that declared it, and every
// realized bean inherits that attribution:
//
//	owner, ok := c.Owner(ioc.KeyFor[*Car]())
//
// Register stores an existing instance on behalf of an owner. The first owner
// to claim a key keeps it.
//
// # Lifecycle
//
// Components implementing PostConstructor, or declared with the PostConstruct
// option, run their hooks right after registration. Hook failures are logged
// and never fail resolution.
//
// Initialize resolves every declared key and calls the handlers registered
// with OnInitialize. OnComponentRegister handlers see every bean as it is
// registered; SetRegisterExecutor moves their invocation elsewhere:
//
//	c.OnComponentRegister(func(bean any, qualifier string, owner *Plugin) error {
//	    log.Printf("%s registered %T[%s]", owner.Name, bean, qualifier)
//	    return nil
//	})
//
// # Error Handling
//
// Errors carry context and can be matched with errors.Is and errors.As:
//
//	_, err := ioc.Resolve[*Car](c)
//	switch {
//	case ioc.IsNotFound(err):
//	    // no component, bean or instance for the key
//	case ioc.IsCircularDependency(err):
//	    var cycle ioc.CircularDependencyError
//	    errors.As(err, &cycle)
//	case ioc.IsBeanCreation(err):
//	    // a constructor or factory method failed
//	}
//
// # Thread Safety
//
// Containers are safe for concurrent use. Two goroutines resolving the same
// unrealized key may both construct it; the last registration wins.
package ioc
