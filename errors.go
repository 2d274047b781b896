package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/ioc/internal/graph"
	"github.com/junioryono/ioc/internal/reflection"
	"github.com/junioryono/ioc/internal/registry"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Resolution errors.
	ErrNoSuchBeanDefinition = errors.New("no such bean definition")
	ErrCircularDependency   = graph.ErrCircularDependency
	ErrBeanCreation         = errors.New("bean creation failed")
	ErrNilResult            = reflection.ErrNilResult

	// Registration errors.
	ErrNilInstance    = errors.New("instance cannot be nil")
	ErrNilOwner       = errors.New("owner cannot be nil")
	ErrNilDiscoverer  = errors.New("discoverer cannot be nil")
	ErrNilConstructor = errors.New("constructor cannot be nil")
	ErrNilMethod      = errors.New("factory method cannot be nil")

	// Context errors.
	ErrNoResolverInContext = errors.New("no resolver in context")
)

var (
	_ error = NoSuchBeanDefinitionError{}
	_ error = BeanCreationError{}
	_ error = DeclarationError{}
	_ error = ModuleError{}
	_ error = TypeMismatchError{}
	_ error = CircularDependencyError{}
	_ error = InvocationPanicError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// CircularDependencyError reports a key that depends on itself. Path holds
// the dependency chain that led back to Node.
type CircularDependencyError = graph.CircularDependencyError

// InvocationPanicError reports a constructor or factory method that panicked.
type InvocationPanicError = reflection.PanicError

// NoSuchBeanDefinitionError indicates a key is neither a declared component,
// a factory-produced bean, nor a registered instance.
type NoSuchBeanDefinitionError struct {
	Key Key

	// Requested is the key asked for before implementation substitution
	Requested Key

	// Available lists declared keys, used for suggestions
	Available []Key
}

func (e NoSuchBeanDefinitionError) Error() string {
	var b strings.Builder
	b.WriteString("no such bean definition: ")
	b.WriteString(e.Key.String())

	if e.Requested.Type != nil && e.Requested != e.Key {
		fmt.Fprintf(&b, " (requested as %s)", e.Requested)
	}

	if similar := similarKeys(e.Key, e.Available); len(similar) > 0 {
		b.WriteString("\n\nDid you mean one of these?\n")
		for _, k := range similar {
			fmt.Fprintf(&b, "  • %s\n", k)
		}
	}

	return b.String()
}

func (e NoSuchBeanDefinitionError) Unwrap() error {
	return ErrNoSuchBeanDefinition
}

// similarKeys finds declared keys of the same type or a similarly named one.
func similarKeys(target Key, available []Key) []Key {
	if target.Type == nil || len(available) == 0 {
		return nil
	}

	targetName := strings.ToLower(registry.FormatType(target.Type))
	targetName = strings.TrimPrefix(targetName, "*")

	var similar []Key
	for _, k := range available {
		if k == target || k.Type == nil {
			continue
		}

		name := strings.TrimPrefix(strings.ToLower(registry.FormatType(k.Type)), "*")
		if k.Type == target.Type || strings.Contains(name, targetName) || strings.Contains(targetName, name) {
			similar = append(similar, k)
		}

		if len(similar) >= 5 {
			break
		}
	}

	return similar
}

// BeanCreationError wraps a failed constructor or factory method invocation.
type BeanCreationError struct {
	// Target is the key being created
	Target Key

	// Declaring is the type declaring the constructor or factory method
	Declaring reflect.Type

	// Method is the factory method or constructor name
	Method string

	Cause error
}

func (e BeanCreationError) Error() string {
	return fmt.Sprintf("failed to create %s via %s.%s: %v",
		e.Target, registry.FormatType(e.Declaring), e.Method, e.Cause)
}

func (e BeanCreationError) Unwrap() []error {
	return []error{ErrBeanCreation, e.Cause}
}

// DeclarationError indicates an invalid component or factory method declaration.
type DeclarationError struct {
	Type  reflect.Type
	Cause error
}

func (e DeclarationError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("invalid declaration of %s: %v", registry.FormatType(e.Type), e.Cause)
	}
	return fmt.Sprintf("invalid declaration: %v", e.Cause)
}

func (e DeclarationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from a module's declarations.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %q: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved instance is not of the requested type.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
	Context  string // "resolve", "find", etc.
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Context,
		registry.FormatType(e.Expected), registry.FormatType(e.Actual))
}

// IsNotFound reports whether err is caused by a missing bean definition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoSuchBeanDefinition)
}

// IsCircularDependency reports whether err is caused by a dependency cycle.
func IsCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

// IsBeanCreation reports whether err is caused by a failed instantiation.
func IsBeanCreation(err error) bool {
	return errors.Is(err, ErrBeanCreation)
}
