package ioc

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/junioryono/ioc/internal/reflection"
	"github.com/junioryono/ioc/internal/registry"
)

// Filter selects discovered types by their fully qualified name,
// e.g. "github.com/acme/app.Engine".
type Filter func(typeName string) bool

// Discoverer supplies the component descriptors a container declares.
// Implementations may use reflection, generated code or hand-written descriptors.
type Discoverer interface {
	Discover(owner any, filter Filter) ([]*TypeDescriptor, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(owner any, filter Filter) ([]*TypeDescriptor, error)

func (f DiscovererFunc) Discover(owner any, filter Filter) ([]*TypeDescriptor, error) {
	return f(owner, filter)
}

// DefaultCatalog is the Discoverer used by containers created without WithDiscoverer.
// Packages typically populate it from init with Provide.
var DefaultCatalog = &Catalog{}

// analyzer is shared by every catalog; analyses are cached per function.
var analyzer = reflection.New()

// Provide adds declarations to DefaultCatalog.
//
//	func init() {
//	    ioc.Provide(
//	        ioc.Component(NewEngine),
//	        ioc.Component(NewCar),
//	    )
//	}
func Provide(decls ...Declaration) error {
	return DefaultCatalog.Add(decls...)
}

// Catalog is a Discoverer backed by constructor and method-expression declarations.
// Declaring the same type twice merges its constructors and factory methods.
type Catalog struct {
	mu          sync.RWMutex
	descriptors []*TypeDescriptor
	index       map[reflect.Type]int
}

// NewCatalog creates a catalog holding decls.
func NewCatalog(decls ...Declaration) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Add(decls...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add applies decls in order, stopping at the first error.
func (c *Catalog) Add(decls ...Declaration) error {
	for _, decl := range decls {
		if decl == nil {
			continue
		}
		if err := decl(c); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of distinct component types in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.descriptors)
}

// Discover returns copies of the descriptors whose type name passes filter.
// A nil filter selects everything.
func (c *Catalog) Discover(_ any, filter Filter) ([]*TypeDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*TypeDescriptor, 0, len(c.descriptors))
	for _, desc := range c.descriptors {
		if filter != nil && !filter(registry.TypeName(desc.Type)) {
			continue
		}
		out = append(out, cloneDescriptor(desc))
	}
	return out, nil
}

// add merges desc into the catalog.
func (c *Catalog) add(desc *TypeDescriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.index == nil {
		c.index = make(map[reflect.Type]int)
	}

	i, ok := c.index[desc.Type]
	if !ok {
		c.index[desc.Type] = len(c.descriptors)
		c.descriptors = append(c.descriptors, cloneDescriptor(desc))
		return nil
	}

	existing := c.descriptors[i]
	if existing.Key() != desc.Key() {
		return DeclarationError{
			Type:  desc.Type,
			Cause: fmt.Errorf("already declared with qualifier %q, redeclared with %q", existing.Qualifier, desc.Key().Qualifier),
		}
	}
	existing.Constructors = append(existing.Constructors, desc.Constructors...)
	existing.Methods = append(existing.Methods, desc.Methods...)
	existing.PostConstruct = append(existing.PostConstruct, desc.PostConstruct...)
	return nil
}

func cloneDescriptor(desc *TypeDescriptor) *TypeDescriptor {
	copied := *desc
	copied.Constructors = append([]Constructor(nil), desc.Constructors...)
	copied.Methods = append([]FactoryMethod(nil), desc.Methods...)
	copied.PostConstruct = append([]string(nil), desc.PostConstruct...)
	return &copied
}

// InPackage selects types declared in the package root or any package below it.
func InPackage(root string) Filter {
	root = strings.TrimSuffix(root, "/")
	return func(typeName string) bool {
		pkg := packageOf(typeName)
		return pkg == root || strings.HasPrefix(pkg, root+"/")
	}
}

// NameContains selects types whose fully qualified name contains any of parts.
func NameContains(parts ...string) Filter {
	return func(typeName string) bool {
		for _, part := range parts {
			if strings.Contains(typeName, part) {
				return true
			}
		}
		return false
	}
}

// allOf combines filters; nil filters are ignored.
func allOf(filters ...Filter) Filter {
	var active []Filter
	for _, f := range filters {
		if f != nil {
			active = append(active, f)
		}
	}

	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}

	return func(typeName string) bool {
		for _, f := range active {
			if !f(typeName) {
				return false
			}
		}
		return true
	}
}

// packageOf strips the type name from a fully qualified name.
// Type arguments of generic types are ignored.
func packageOf(typeName string) string {
	if i := strings.IndexByte(typeName, '['); i >= 0 {
		typeName = typeName[:i]
	}
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		return typeName[:i]
	}
	return ""
}
