package testutil

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/require"
)

// ContainerBuilder provides a fluent interface for building test containers.
type ContainerBuilder struct {
	t       *testing.T
	owner   *Plugin
	decls   []ioc.Declaration
	options []ioc.Option
}

// NewContainerBuilder creates a builder declaring everything under a "test" plugin.
func NewContainerBuilder(t *testing.T) *ContainerBuilder {
	return &ContainerBuilder{
		t:     t,
		owner: NewPlugin("test"),
	}
}

// WithOwner changes the owner the declarations are attributed to.
func (b *ContainerBuilder) WithOwner(owner *Plugin) *ContainerBuilder {
	b.owner = owner
	return b
}

// WithComponent declares a component built by ctor.
func (b *ContainerBuilder) WithComponent(ctor any, opts ...ioc.ComponentOption) *ContainerBuilder {
	b.decls = append(b.decls, ioc.Component(ctor, opts...))
	return b
}

// WithDeclarations adds arbitrary declarations.
func (b *ContainerBuilder) WithDeclarations(decls ...ioc.Declaration) *ContainerBuilder {
	b.decls = append(b.decls, decls...)
	return b
}

// WithOptions adds container options.
func (b *ContainerBuilder) WithOptions(opts ...ioc.Option) *ContainerBuilder {
	b.options = append(b.options, opts...)
	return b
}

// Owner returns the owner of the declarations.
func (b *ContainerBuilder) Owner() *Plugin {
	return b.owner
}

// Catalog builds the catalog holding the declarations.
func (b *ContainerBuilder) Catalog() *ioc.Catalog {
	b.t.Helper()
	catalog, err := ioc.NewCatalog(b.decls...)
	require.NoError(b.t, err, "failed to build catalog")
	return catalog
}

// Build creates a container and declares the catalog under the owner.
func (b *ContainerBuilder) Build() *ioc.Container[*Plugin] {
	b.t.Helper()
	c := ioc.New[*Plugin](b.options...)
	require.NoError(b.t, c.ScanCatalog(b.owner, b.Catalog()), "failed to declare components")
	return c
}

// BuildInitialized is Build followed by Initialize.
func (b *ContainerBuilder) BuildInitialized() *ioc.Container[*Plugin] {
	b.t.Helper()
	c := b.Build()
	require.NoError(b.t, c.Initialize(), "failed to initialize container")
	return c
}
