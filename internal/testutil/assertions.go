package testutil

import (
	"testing"

	"github.com/junioryono/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertResolvable checks that T can be resolved at the optional qualifier.
func AssertResolvable[T any](t *testing.T, r ioc.Resolver, qualifier ...string) T {
	t.Helper()
	q := ioc.DefaultQualifier
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	bean, err := ioc.ResolveQualified[T](r, q)
	require.NoError(t, err, "failed to resolve %T[%s]", *new(T), q)
	require.NotNil(t, bean, "resolved bean is nil")
	return bean
}

// AssertFound checks that T has already been realized.
func AssertFound[T any](t *testing.T, r ioc.Resolver, qualifier ...string) T {
	t.Helper()
	bean, ok := ioc.FindBean[T](r, qualifier...)
	require.True(t, ok, "expected %T to be realized", *new(T))
	return bean
}

// AssertNotFound checks that resolving T fails with a missing definition.
func AssertNotFound[T any](t *testing.T, r ioc.Resolver, qualifier ...string) {
	t.Helper()
	q := ioc.DefaultQualifier
	if len(qualifier) > 0 {
		q = qualifier[0]
	}
	_, err := ioc.ResolveQualified[T](r, q)
	require.Error(t, err)
	assert.True(t, ioc.IsNotFound(err), "expected no such bean definition error, got: %v", err)
}

// AssertErrorType checks if an error is of a specific type
func AssertErrorType[T error](t *testing.T, err error, msgAndArgs ...any) T {
	t.Helper()
	var target T
	require.ErrorAs(t, err, &target, msgAndArgs...)
	return target
}

// AssertCircularDependency checks that err is a cycle whose path contains keys.
func AssertCircularDependency(t *testing.T, err error, keys ...ioc.Key) ioc.CircularDependencyError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, ioc.IsCircularDependency(err), "expected circular dependency error, got: %v", err)

	cycle := AssertErrorType[ioc.CircularDependencyError](t, err)
	for _, key := range keys {
		assert.True(t, cycle.Contains(key), "expected %s in cycle path %v", key, cycle.Path)
	}
	return cycle
}

// AssertPanicsWithError checks if a function panics with specific error
func AssertPanicsWithError(t *testing.T, expectedError error, f func(), msgAndArgs ...any) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			assert.Fail(t, "function did not panic", msgAndArgs...)
			return
		}

		err, ok := r.(error)
		if !ok {
			assert.Fail(t, "panic value is not an error", "%v", r)
			return
		}

		assert.ErrorIs(t, err, expectedError, msgAndArgs...)
	}()
	f()
}
