package reflection

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// In marks a struct as a parameter object: each exported field is a parameter.
type In struct{}

var (
	inType  = reflect.TypeOf(In{})
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Analyzer performs reflection-based analysis of constructors and factory methods.
// It caches analysis results for performance.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[cacheKey]*ConstructorInfo
}

type cacheKey struct {
	ptr    uintptr
	typ    reflect.Type
	method bool
}

// ConstructorInfo contains analyzed information about a constructor function or
// a method expression.
type ConstructorInfo struct {
	Type  reflect.Type
	Value reflect.Value

	// Name is the short function or method name
	Name string

	// FullName is the runtime name including the package path
	FullName string

	// Receiver is the receiver type for method expressions
	Receiver reflect.Type

	// Parameters excludes the receiver of method expressions
	Parameters []ParameterInfo

	// IsParamObject is set when the only parameter embeds In
	IsParamObject bool

	// ResultType is the type of the produced value
	ResultType reflect.Type

	// HasErrorReturn is set when the function returns (T, error)
	HasErrorReturn bool
}

// ParameterInfo describes a constructor parameter or a field of an In struct.
type ParameterInfo struct {
	Type      reflect.Type
	Name      string // field name for In structs
	Index     int    // parameter index or field index
	Qualifier string // from qualifier:"x" or name:"x" tags
	Qualified bool
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Qualifier string
	Qualified bool
	Ignore    bool
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[cacheKey]*ConstructorInfo),
	}
}

// Analyze analyzes a constructor function.
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	return a.analyze(constructor, false)
}

// AnalyzeMethod analyzes a method expression such as (*Factory).MakeEngine.
// The first parameter is treated as the receiver.
func (a *Analyzer) AnalyzeMethod(method any) (*ConstructorInfo, error) {
	return a.analyze(method, true)
}

func (a *Analyzer) analyze(fn any, method bool) (*ConstructorInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	val := reflect.ValueOf(fn)
	typ := val.Type()

	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", typ)
	}
	if val.IsNil() {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	// Different functions with the same signature are cached separately
	key := cacheKey{ptr: val.Pointer(), typ: typ, method: method}

	a.mu.RLock()
	if cached, ok := a.cache[key]; ok {
		a.mu.RUnlock()
		// Closures share code pointers, so the value itself is never cached
		info := *cached
		info.Value = val
		return &info, nil
	}
	a.mu.RUnlock()

	info := &ConstructorInfo{
		Type:  typ,
		Value: val,
	}
	info.FullName, info.Name = funcNames(val)

	offset := 0
	if method {
		if typ.NumIn() == 0 {
			return nil, fmt.Errorf("method %s has no receiver parameter", info.Name)
		}
		info.Receiver = typ.In(0)
		offset = 1
	}

	if err := a.analyzeParameters(info, offset); err != nil {
		return nil, fmt.Errorf("failed to analyze parameters: %w", err)
	}

	if err := a.analyzeReturns(info); err != nil {
		return nil, fmt.Errorf("failed to analyze returns: %w", err)
	}

	a.mu.Lock()
	a.cache[key] = info
	a.mu.Unlock()

	return info, nil
}

// analyzeParameters analyzes function parameters or In struct fields.
func (a *Analyzer) analyzeParameters(info *ConstructorInfo, offset int) error {
	fnType := info.Type

	if fnType.IsVariadic() {
		return fmt.Errorf("variadic constructors are not supported")
	}

	// Check for In parameter object
	if fnType.NumIn()-offset == 1 && hasEmbeddedIn(fnType.In(offset)) {
		info.IsParamObject = true
		return a.analyzeParamObject(info, fnType.In(offset))
	}

	info.Parameters = make([]ParameterInfo, 0, fnType.NumIn()-offset)
	for i := offset; i < fnType.NumIn(); i++ {
		info.Parameters = append(info.Parameters, ParameterInfo{
			Type:  fnType.In(i),
			Index: i - offset,
		})
	}

	return nil
}

// analyzeParamObject analyzes an In struct's fields.
func (a *Analyzer) analyzeParamObject(info *ConstructorInfo, structType reflect.Type) error {
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	if structType.Kind() != reflect.Struct {
		return fmt.Errorf("In parameter must be a struct, got %v", structType.Kind())
	}

	params := make([]ParameterInfo, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		// Skip embedded In field itself
		if field.Anonymous && field.Type == inType {
			continue
		}

		if !field.IsExported() {
			continue
		}

		tagInfo := ParseFieldTags(field.Tag)
		if tagInfo.Ignore {
			continue
		}

		params = append(params, ParameterInfo{
			Type:      field.Type,
			Name:      field.Name,
			Index:     i,
			Qualifier: tagInfo.Qualifier,
			Qualified: tagInfo.Qualified,
		})
	}

	info.Parameters = params
	return nil
}

// analyzeReturns accepts T or (T, error).
func (a *Analyzer) analyzeReturns(info *ConstructorInfo) error {
	fnType := info.Type

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errType {
			return fmt.Errorf("second return value must be error, got %v", fnType.Out(1))
		}
		info.HasErrorReturn = true
	default:
		return fmt.Errorf("constructor must return T or (T, error), got %d values", fnType.NumOut())
	}

	if fnType.Out(0) == errType {
		return fmt.Errorf("constructor only returns error")
	}

	info.ResultType = fnType.Out(0)
	return nil
}

// ParseFieldTags parses struct field tags for DI-specific annotations.
func ParseFieldTags(tag reflect.StructTag) TagInfo {
	info := TagInfo{}

	if val, ok := tag.Lookup("qualifier"); ok {
		info.Qualifier = val
		info.Qualified = true
	} else if val, ok := tag.Lookup("name"); ok {
		info.Qualifier = val
		info.Qualified = true
	}

	if val, ok := tag.Lookup("inject"); ok && val == "-" {
		info.Ignore = true
	}

	return info
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// Clear clears the analysis cache.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.cache = make(map[cacheKey]*ConstructorInfo)
	a.mu.Unlock()
}

// hasEmbeddedIn checks if a struct (or pointer to struct) embeds In.
func hasEmbeddedIn(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}

	return false
}

// funcNames returns the runtime name of a function and its short form.
func funcNames(val reflect.Value) (string, string) {
	fn := runtime.FuncForPC(val.Pointer())
	if fn == nil {
		return "", "func"
	}

	full := strings.TrimSuffix(fn.Name(), "-fm")
	short := full
	if i := strings.LastIndex(short, "/"); i >= 0 {
		short = short[i+1:]
	}
	if i := strings.LastIndex(short, "."); i >= 0 {
		short = short[i+1:]
	}
	return full, short
}
