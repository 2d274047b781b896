package ioc

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errEngine struct{}
type errEngineFactory struct{}
type errCar struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrNoSuchBeanDefinition, "no such bean definition"},
		{ErrBeanCreation, "bean creation failed"},
		{ErrNilInstance, "instance cannot be nil"},
		{ErrNilOwner, "owner cannot be nil"},
		{ErrNilDiscoverer, "discoverer cannot be nil"},
		{ErrNilConstructor, "constructor cannot be nil"},
		{ErrNilMethod, "factory method cannot be nil"},
		{ErrNoResolverInContext, "no resolver in context"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestNoSuchBeanDefinitionError(t *testing.T) {
	engine := KeyFor[*errEngine]()

	t.Run("plain", func(t *testing.T) {
		err := NoSuchBeanDefinitionError{Key: engine}

		assert.Equal(t, "no such bean definition: *errEngine", err.Error())
		assert.ErrorIs(t, err, ErrNoSuchBeanDefinition)
		assert.True(t, IsNotFound(err))
		assert.False(t, IsCircularDependency(err))
	})

	t.Run("requested as another key", func(t *testing.T) {
		err := NoSuchBeanDefinitionError{Key: engine, Requested: KeyFor[error]("x")}
		assert.Contains(t, err.Error(), "(requested as error[x])")
	})

	t.Run("suggestions", func(t *testing.T) {
		err := NoSuchBeanDefinitionError{
			Key: engine,
			Available: []Key{
				KeyFor[*errEngine]("v8"),
				KeyFor[*errEngineFactory](),
				KeyFor[*errCar](),
			},
		}

		msg := err.Error()
		assert.Contains(t, msg, "Did you mean one of these?")
		assert.Contains(t, msg, "*errEngine[v8]")
		assert.Contains(t, msg, "*errEngineFactory")
		assert.NotContains(t, msg, "*errCar")
	})

	t.Run("suggestions are capped", func(t *testing.T) {
		var available []Key
		for _, q := range []string{"a", "b", "c", "d", "e", "f", "g"} {
			available = append(available, KeyFor[*errEngine](q))
		}

		similar := similarKeys(engine, available)
		assert.Len(t, similar, 5)
	})
}

func TestBeanCreationError(t *testing.T) {
	cause := errors.New("boom")
	err := BeanCreationError{
		Target:    KeyFor[*errEngine]("v8"),
		Declaring: reflect.TypeFor[*errEngineFactory](),
		Method:    "MakeEngine",
		Cause:     cause,
	}

	assert.Equal(t, "failed to create *errEngine[v8] via *errEngineFactory.MakeEngine: boom", err.Error())
	assert.ErrorIs(t, err, ErrBeanCreation)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsBeanCreation(err))
	assert.False(t, IsNotFound(err))

	var target BeanCreationError
	require.True(t, errors.As(error(err), &target))
	assert.Equal(t, "MakeEngine", target.Method)
}

func TestDeclarationError(t *testing.T) {
	tests := []struct {
		name     string
		err      DeclarationError
		expected string
	}{
		{
			name:     "with type",
			err:      DeclarationError{Type: reflect.TypeFor[*errCar](), Cause: ErrNilMethod},
			expected: "invalid declaration of *errCar: factory method cannot be nil",
		},
		{
			name:     "without type",
			err:      DeclarationError{Cause: ErrNilConstructor},
			expected: "invalid declaration: constructor cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.ErrorIs(t, tt.err, tt.err.Cause)
		})
	}
}

func TestModuleError(t *testing.T) {
	err := ModuleError{
		Module: "engines",
		Cause:  DeclarationError{Cause: ErrNilConstructor},
	}

	assert.Equal(t, `module "engines": invalid declaration: constructor cannot be nil`, err.Error())
	assert.ErrorIs(t, err, ErrNilConstructor)

	var decl DeclarationError
	assert.True(t, errors.As(error(err), &decl))
}

func TestTypeMismatchError(t *testing.T) {
	err := TypeMismatchError{
		Expected: reflect.TypeFor[*errCar](),
		Actual:   reflect.TypeFor[*errEngine](),
		Context:  "resolve",
	}

	assert.Equal(t, "resolve: expected *errCar, got *errEngine", err.Error())
}

func TestCircularDependencyError_Matching(t *testing.T) {
	var err error = CircularDependencyError{
		Node: KeyFor[*errCar](),
		Path: []Key{KeyFor[*errCar](), KeyFor[*errEngine](), KeyFor[*errCar]()},
	}

	assert.True(t, IsCircularDependency(err))
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "*errEngine")
}
