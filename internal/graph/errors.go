package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/junioryono/ioc/internal/registry"
)

// ErrCircularDependency is the sentinel wrapped by CircularDependencyError.
var ErrCircularDependency = errors.New("circular dependency detected")

// CircularDependencyError represents a key that depends on itself, directly or
// through a chain of factory parents and parameters.
type CircularDependencyError struct {
	// Node is the key that was found on its own path
	Node registry.Key

	// Path is the dependency path, outermost first, ending with Node
	Path []registry.Key
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	if len(e.Path) == 0 {
		b.WriteString(fmt.Sprintf("  > %s\n", e.Node))
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("  > %s (cycle)\n", e.Node))
	} else {
		for i, key := range e.Path {
			marker := "    "
			if key == e.Node {
				marker = "  > "
			}
			b.WriteString(marker + key.String())
			if i == len(e.Path)-1 {
				b.WriteString(" (cycle)")
			}
			b.WriteString("\n")
			if i < len(e.Path)-1 {
				b.WriteString("      ↓\n")
			}
		}
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Depend on an interface implemented outside the cycle\n")
	b.WriteString("  • Move the shared dependency into its own component\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func (e CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

// Contains reports whether key is part of the cycle path.
func (e CircularDependencyError) Contains(key registry.Key) bool {
	for _, k := range e.Path {
		if k == key {
			return true
		}
	}
	return e.Node == key
}
