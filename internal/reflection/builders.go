package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
)

// ErrNilResult is returned when a constructor produced a nil value.
var ErrNilResult = errors.New("constructor returned nil")

// PanicError indicates a constructor or factory method panicked during invocation.
type PanicError struct {
	Function string
	Panic    any
	Stack    []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Function, e.Panic)
}

// Unwrap returns the panic value when it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Panic.(error); ok {
		return err
	}
	return nil
}

// ArgumentError indicates a resolved argument does not fit the parameter.
type ArgumentError struct {
	Function string
	Index    int
	Expected reflect.Type
	Actual   reflect.Type
}

func (e ArgumentError) Error() string {
	return fmt.Sprintf("%s: argument %d: expected %v, got %v", e.Function, e.Index, e.Expected, e.Actual)
}

// Invoke calls a constructor with already resolved arguments, one per parameter.
func (info *ConstructorInfo) Invoke(args []any) (any, error) {
	if info.Receiver != nil {
		return nil, fmt.Errorf("%s is a method expression and needs a receiver", info.Name)
	}

	in, err := info.buildArguments(args)
	if err != nil {
		return nil, err
	}
	return info.call(in)
}

// InvokeMethod calls a method expression on receiver with already resolved arguments.
func (info *ConstructorInfo) InvokeMethod(receiver any, args []any) (any, error) {
	if info.Receiver == nil {
		return nil, fmt.Errorf("%s is not a method expression", info.Name)
	}

	recv, err := info.value(-1, info.Receiver, receiver)
	if err != nil {
		return nil, err
	}

	in, err := info.buildArguments(args)
	if err != nil {
		return nil, err
	}
	return info.call(append([]reflect.Value{recv}, in...))
}

// buildArguments builds the argument list, assembling the In struct when needed.
func (info *ConstructorInfo) buildArguments(args []any) ([]reflect.Value, error) {
	if len(args) != len(info.Parameters) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", info.Name, len(info.Parameters), len(args))
	}

	if info.IsParamObject {
		offset := 0
		if info.Receiver != nil {
			offset = 1
		}
		paramType := info.Type.In(offset)

		structType := paramType
		if structType.Kind() == reflect.Pointer {
			structType = structType.Elem()
		}

		structPtr := reflect.New(structType)
		structValue := structPtr.Elem()
		for i, param := range info.Parameters {
			v, err := info.value(i, param.Type, args[i])
			if err != nil {
				return nil, err
			}
			structValue.Field(param.Index).Set(v)
		}

		if paramType.Kind() == reflect.Pointer {
			return []reflect.Value{structPtr}, nil
		}
		return []reflect.Value{structValue}, nil
	}

	in := make([]reflect.Value, len(info.Parameters))
	for i, param := range info.Parameters {
		v, err := info.value(i, param.Type, args[i])
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	return in, nil
}

// value converts an argument into a reflect.Value assignable to t.
func (info *ConstructorInfo) value(index int, t reflect.Type, arg any) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(arg)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, ArgumentError{Function: info.Name, Index: index, Expected: t, Actual: v.Type()}
	}
	return v, nil
}

// call invokes the function and unpacks (T) or (T, error).
func (info *ConstructorInfo) call(in []reflect.Value) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = PanicError{Function: info.Name, Panic: r, Stack: debug.Stack()}
		}
	}()

	out := info.Value.Call(in)

	if info.HasErrorReturn {
		if errValue := out[len(out)-1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
	}

	if isNil(out[0]) {
		return nil, ErrNilResult
	}
	return out[0].Interface(), nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return !v.IsValid()
	}
}
