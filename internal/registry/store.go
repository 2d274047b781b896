package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Store holds everything known about declared components and beans.
// Declaration is expected to happen during bootstrap; queries may run concurrently.
type Store struct {
	mu sync.RWMutex

	// components stores annotated component types
	components map[reflect.Type]*TypeDescriptor

	// parents maps factory-produced keys to their producing component
	parents map[Key]Parent

	// declared preserves declaration order for implementation lookup
	declared    []Key
	declaredSet map[Key]struct{}

	// hooks maps a type to its post-construct method names
	hooks map[reflect.Type][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		components:  make(map[reflect.Type]*TypeDescriptor),
		parents:     make(map[Key]Parent),
		declaredSet: make(map[Key]struct{}),
		hooks:       make(map[reflect.Type][]string),
	}
}

// AddComponent records a component type and returns its key.
// Constructors and hooks of an already known type are merged.
func (s *Store) AddComponent(desc *TypeDescriptor) (Key, error) {
	if desc == nil || desc.Type == nil {
		return Key{}, fmt.Errorf("component descriptor has no type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := desc.Key()
	if existing, ok := s.components[desc.Type]; ok {
		if existing.Key() != key {
			return Key{}, fmt.Errorf("%s already declared with qualifier %q", FormatType(desc.Type), existing.Qualifier)
		}
		existing.Constructors = append(existing.Constructors, desc.Constructors...)
		existing.Methods = append(existing.Methods, desc.Methods...)
	} else {
		copied := *desc
		copied.Qualifier = key.Qualifier
		copied.Constructors = append([]Constructor(nil), desc.Constructors...)
		copied.Methods = append([]FactoryMethod(nil), desc.Methods...)
		s.components[desc.Type] = &copied
	}

	s.addHooksLocked(desc.Type, desc.PostConstruct)
	return key, nil
}

// AddBean records a factory-produced key and its parent component.
func (s *Store) AddBean(parent Key, method FactoryMethod) (Key, error) {
	if method.ReturnType == nil {
		return Key{}, fmt.Errorf("factory method %s has no return type", method.Name)
	}
	if method.Invoke == nil {
		return Key{}, fmt.Errorf("factory method %s has no invoker", method.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyOf(method.ReturnType, method.Qualifier)
	s.parents[key] = Parent{Key: parent, Method: method}
	s.addHooksLocked(method.ReturnType, method.PostConstruct)
	return key, nil
}

func (s *Store) addHooksLocked(t reflect.Type, names []string) {
	for _, name := range names {
		known := false
		for _, existing := range s.hooks[t] {
			if existing == name {
				known = true
				break
			}
		}
		if !known {
			s.hooks[t] = append(s.hooks[t], name)
		}
	}
}

// Declare appends keys to the declared set, skipping duplicates.
func (s *Store) Declare(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if _, ok := s.declaredSet[key]; ok {
			continue
		}
		s.declaredSet[key] = struct{}{}
		s.declared = append(s.declared, key)
	}
}

// Declared returns a snapshot of the declared keys in declaration order.
func (s *Store) Declared() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Key(nil), s.declared...)
}

// IsDeclared reports whether key was declared.
func (s *Store) IsDeclared(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.declaredSet[key]
	return ok
}

// IsComponent reports whether t was declared as a component.
func (s *Store) IsComponent(t reflect.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.components[t]
	return ok
}

// IsBean reports whether key is produced by a factory method.
func (s *Store) IsBean(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.parents[key]
	return ok
}

// Parent returns the producing component of a factory-produced key.
func (s *Store) Parent(key Key) (Parent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parents[key]
	return p, ok
}

// Defines reports whether key can be instantiated by the store.
// Factory framing takes precedence over component framing.
func (s *Store) Defines(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.parents[key]; ok {
		return true
	}
	_, ok := s.components[key.Type]
	return ok
}

// FindImplementation returns the first declared key, in declaration order, whose
// qualifier matches and whose type is assignable to the requested type.
// The requested key is returned unchanged when nothing matches.
func (s *Store) FindImplementation(key Key) Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, declared := range s.declared {
		if declared.Satisfies(key) {
			return declared
		}
	}
	return key
}

// TypeQualifier returns the qualifier declared on t's component declaration.
func (s *Store) TypeQualifier(t reflect.Type) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	desc, ok := s.components[t]
	if !ok {
		return "", false
	}
	return desc.Qualifier, true
}

// ParamKey derives the key a parameter requests: the explicit qualifier first,
// then the qualifier declared on the parameter type, then DefaultQualifier.
func (s *Store) ParamKey(p Param) Key {
	if p.Qualified {
		return KeyOf(p.Type, p.Qualifier)
	}
	if q, ok := s.TypeQualifier(p.Type); ok {
		return KeyOf(p.Type, q)
	}
	return KeyOf(p.Type, DefaultQualifier)
}

// ParamKeys derives the keys of a parameter list.
func (s *Store) ParamKeys(params []Param) []Key {
	keys := make([]Key, len(params))
	for i, p := range params {
		keys[i] = s.ParamKey(p)
	}
	return keys
}

// Constructor picks the constructor for t: the first autowired one, else the
// first declared one, else a zero-value constructor for struct types.
func (s *Store) Constructor(t reflect.Type) (Constructor, bool) {
	s.mu.RLock()
	desc, ok := s.components[t]
	var ctors []Constructor
	if ok {
		ctors = desc.Constructors
	}
	s.mu.RUnlock()

	if !ok {
		return Constructor{}, false
	}

	for _, ctor := range ctors {
		if ctor.Autowired {
			return ctor, true
		}
	}
	if len(ctors) > 0 {
		return ctors[0], true
	}
	return ZeroConstructor(t)
}

// ZeroConstructor builds the default constructor of a struct or pointer-to-struct type.
func ZeroConstructor(t reflect.Type) (Constructor, bool) {
	switch {
	case t.Kind() == reflect.Struct:
		return Constructor{
			Name: "new " + FormatType(t),
			Invoke: func([]any) (any, error) {
				return reflect.New(t).Elem().Interface(), nil
			},
		}, true
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return Constructor{
			Name: "new " + FormatType(t.Elem()),
			Invoke: func([]any) (any, error) {
				return reflect.New(t.Elem()).Interface(), nil
			},
		}, true
	default:
		return Constructor{}, false
	}
}

// Params returns the parameter keys needed to build key: the factory method's
// parameters for beans, the chosen constructor's for components, and none for
// other interface or unknown keys.
func (s *Store) Params(key Key) []Key {
	if parent, ok := s.Parent(key); ok {
		return s.ParamKeys(parent.Method.Params)
	}
	if key.IsAbstract() {
		return nil
	}
	ctor, ok := s.Constructor(key.Type)
	if !ok {
		return nil
	}
	return s.ParamKeys(ctor.Params)
}

// PostConstruct returns the hook method names declared for t.
func (s *Store) PostConstruct(t reflect.Type) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.hooks[t]...)
}

// Len returns the number of declared keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.declared)
}
