// Package hooks implements the ordered handler lists behind the container's
// registration and initialization events.
package hooks

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// HandlerID identifies a registered handler so it can be removed later.
type HandlerID string

// NewHandlerID returns a fresh random handler ID.
func NewHandlerID() HandlerID {
	return HandlerID(uuid.NewString())
}

type entry[H any] struct {
	id      HandlerID
	handler H
}

// List is an ordered, copy-on-write list of handlers. Handlers may be added or
// removed while a snapshot is being iterated.
type List[H any] struct {
	mu      sync.Mutex
	entries []entry[H]
}

// NewList creates an empty list.
func NewList[H any]() *List[H] {
	return &List[H]{}
}

// Add appends a handler and returns its ID.
func (l *List[H]) Add(handler H) HandlerID {
	id := NewHandlerID()

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]entry[H], len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	l.entries = append(next, entry[H]{id: id, handler: handler})
	return id
}

// Remove deletes the handler with the given ID and reports whether it existed.
func (l *List[H]) Remove(id HandlerID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, e := range l.entries {
		if e.id != id {
			continue
		}
		next := make([]entry[H], 0, len(l.entries)-1)
		next = append(next, l.entries[:i]...)
		next = append(next, l.entries[i+1:]...)
		l.entries = next
		return true
	}
	return false
}

// Snapshot returns the handlers in registration order.
func (l *List[H]) Snapshot() []H {
	l.mu.Lock()
	entries := l.entries
	l.mu.Unlock()

	handlers := make([]H, len(entries))
	for i, e := range entries {
		handlers[i] = e.handler
	}
	return handlers
}

// Len returns the number of registered handlers.
func (l *List[H]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// PanicError is returned by Call when the handler panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call runs fn, converting a panic into a PanicError.
func Call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
