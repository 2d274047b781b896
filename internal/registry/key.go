package registry

import (
	"reflect"
	"strings"
)

// DefaultQualifier is used when neither a parameter nor its type declares one.
const DefaultQualifier = "default"

// Key identifies a resolvable unit: a type and the qualifier that discriminates
// between several instances of that type.
type Key struct {
	Type      reflect.Type
	Qualifier string
}

// KeyOf creates a key. An empty qualifier is normalized to DefaultQualifier.
func KeyOf(t reflect.Type, qualifier string) Key {
	if qualifier == "" {
		qualifier = DefaultQualifier
	}
	return Key{Type: t, Qualifier: qualifier}
}

// IsAbstract reports whether the key requests an interface type.
func (k Key) IsAbstract() bool {
	return k.Type != nil && k.Type.Kind() == reflect.Interface
}

// Satisfies reports whether a declared key can stand in for the requested one.
func (k Key) Satisfies(requested Key) bool {
	if k.Type == nil || requested.Type == nil {
		return false
	}
	return k.Qualifier == requested.Qualifier && k.Type.AssignableTo(requested.Type)
}

func (k Key) String() string {
	name := FormatType(k.Type)
	if k.Qualifier == "" || k.Qualifier == DefaultQualifier {
		return name
	}
	return name + "[" + k.Qualifier + "]"
}

// TypeName returns the fully qualified name of t, e.g. "github.com/acme/app.Engine".
// Pointer types are named after their element.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// PackagePath returns the import path of the package declaring t.
func PackagePath(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.PkgPath()
}

// FormatType formats a reflect.Type for diagnostics.
func FormatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return strings.TrimSpace(t.String())
	}
}
