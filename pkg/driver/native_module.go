package driver

import (
	"fmt"
	"math"
	"reflect"

	"jsexec/pkg/bridge"
	"jsexec/pkg/errors"
)

// ObjectBuilder provides the declarative API for building host objects out
// of plain Go values and functions. Builders are used inside a
// DeclareObject callback; the first failure sticks and is reported by
// DeclareObject.
type ObjectBuilder struct {
	ctx *bridge.Context
	obj *bridge.Object
	err error
}

var (
	contextType  = reflect.TypeOf((*bridge.Context)(nil))
	valueType    = reflect.TypeOf(bridge.Value{})
	objectType   = reflect.TypeOf((*bridge.Object)(nil))
	functionType = reflect.TypeOf((*bridge.Function)(nil))
	bigIntType   = reflect.TypeOf((*bridge.BigInt)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// DeclareObject builds an object with build and binds it as a global named
// name. Go functions added to the builder are callable from script with
// their arguments converted to the Go parameter types.
//
//	s.DeclareObject("geometry", func(b *ObjectBuilder) {
//		b.Const("UNIT", 1.0)
//		b.Function("hypot", math.Hypot)
//	})
func (s *Session) DeclareObject(name string, build func(b *ObjectBuilder)) (*bridge.Object, error) {
	b := newObjectBuilder(s.ctx)
	build(b)
	if b.err != nil {
		return nil, fmt.Errorf("declare %s: %w", name, b.err)
	}
	if err := s.ctx.SetGlobal(name, b.obj.Value()); err != nil {
		return nil, err
	}
	debugPrintf("// [Driver] declared host object '%s'\n", name)
	return b.obj, nil
}

func newObjectBuilder(ctx *bridge.Context) *ObjectBuilder {
	return &ObjectBuilder{ctx: ctx, obj: ctx.NewObject()}
}

func (b *ObjectBuilder) define(name string, v bridge.Value, flags bridge.PropertyFlags) {
	if b.err != nil {
		return
	}
	if _, err := b.obj.Define(bridge.Key(name), v, flags); err != nil {
		b.err = err
	}
}

// Const adds a read-only property.
func (b *ObjectBuilder) Const(name string, value interface{}) *ObjectBuilder {
	b.define(name, b.ctx.ValueOf(value), bridge.FlagsConstant)
	return b
}

// Var adds a writable property.
func (b *ObjectBuilder) Var(name string, value interface{}) *ObjectBuilder {
	b.define(name, b.ctx.ValueOf(value), bridge.FlagsDefault)
	return b
}

// Function adds a method backed by the Go function fn.
func (b *ObjectBuilder) Function(name string, fn interface{}) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	host, nargs, err := hostFuncOf(fn)
	if err != nil {
		b.err = fmt.Errorf("function %s: %w", name, err)
		return b
	}
	b.define(name, b.ctx.NewFunction(name, nargs, host).Value(), bridge.FlagsDefault)
	return b
}

// Namespace adds a nested object.
func (b *ObjectBuilder) Namespace(name string, build func(ns *ObjectBuilder)) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	ns := newObjectBuilder(b.ctx)
	build(ns)
	if ns.err != nil {
		b.err = fmt.Errorf("namespace %s: %w", name, ns.err)
		return b
	}
	b.define(name, ns.obj.Value(), bridge.FlagsConstant)
	return b
}

// Class adds a constructor. constructor is a Go function returning the new
// instance (and optionally an error); `new Name(...)` hands its result to
// script as a wrapped Go value whose exported fields and methods are
// visible under the configured field-name tag.
//
//	b.Class("Counter", func(start int) *Counter { return &Counter{N: start} })
func (b *ObjectBuilder) Class(name string, constructor interface{}) *ObjectBuilder {
	if b.err != nil {
		return b
	}
	host, nargs, err := hostFuncOf(constructor)
	if err != nil {
		b.err = fmt.Errorf("class %s: %w", name, err)
		return b
	}
	t := reflect.TypeOf(constructor)
	if t.NumOut() == 0 || t.Out(0) == errorType {
		b.err = fmt.Errorf("class %s: constructor must return the instance", name)
		return b
	}
	b.define(name, b.ctx.NewConstructor(name, nargs, host).Value(), bridge.FlagsDefault)
	return b
}

// hostFuncOf adapts a Go func to a HostFunc using reflection. A leading
// *bridge.Context parameter receives the calling context. A trailing error
// result is thrown into script when non-nil.
func hostFuncOf(fn interface{}) (bridge.HostFunc, int, error) {
	fnValue := reflect.ValueOf(fn)
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func || fnValue.IsNil() {
		return nil, 0, fmt.Errorf("%T is not a function", fn)
	}
	fnType := fnValue.Type()

	first := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		first = 1
	}
	fixed := fnType.NumIn() - first
	if fnType.IsVariadic() {
		fixed--
	}
	if fnType.NumOut() > 2 || (fnType.NumOut() == 2 && fnType.Out(1) != errorType) {
		return nil, 0, fmt.Errorf("%s: expected (result), (result, error) or (error) results", fnType)
	}

	host := func(ctx *bridge.Context, this bridge.Value, args []bridge.Value) (bridge.Value, error) {
		goArgs := make([]reflect.Value, 0, fnType.NumIn())
		if first == 1 {
			goArgs = append(goArgs, reflect.ValueOf(ctx))
		}
		for i := 0; i < fixed; i++ {
			target := fnType.In(first + i)
			// Missing arguments become zero values
			if i >= len(args) {
				goArgs = append(goArgs, reflect.Zero(target))
				continue
			}
			rv, err := valueToReflect(args[i], target)
			if err != nil {
				return bridge.Undefined(), argumentError(i, err)
			}
			goArgs = append(goArgs, rv)
		}
		if fnType.IsVariadic() {
			elem := fnType.In(fnType.NumIn() - 1).Elem()
			for i := fixed; i < len(args); i++ {
				rv, err := valueToReflect(args[i], elem)
				if err != nil {
					return bridge.Undefined(), argumentError(i, err)
				}
				goArgs = append(goArgs, rv)
			}
		}

		results := fnValue.Call(goArgs)
		if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
			if err, _ := results[n-1].Interface().(error); err != nil {
				return bridge.Undefined(), err
			}
			results = results[:n-1]
		}
		if len(results) == 0 {
			return bridge.Undefined(), nil
		}
		return reflectToValue(ctx, results[0]), nil
	}
	return host, fixed, nil
}

// valueToReflect converts a script value to the Go parameter type target.
func valueToReflect(v bridge.Value, target reflect.Type) (reflect.Value, *errors.ConversionError) {
	switch target {
	case valueType:
		return reflect.ValueOf(v), nil
	case objectType:
		o, err := v.AsObject()
		if err != nil {
			return reflect.Value{}, conversionFailure(v, target)
		}
		return reflect.ValueOf(o), nil
	case functionType:
		f, err := v.AsFunction()
		if err != nil {
			return reflect.Value{}, conversionFailure(v, target)
		}
		return reflect.ValueOf(f), nil
	case bigIntType:
		n, err := v.AsBigInt()
		if err != nil {
			return reflect.Value{}, conversionFailure(v, target)
		}
		return reflect.ValueOf(n), nil
	}

	switch target.Kind() {
	case reflect.String:
		s, err := v.ToString()
		if err != nil {
			return reflect.Value{}, conversionFailure(v, target)
		}
		return reflect.ValueOf(s).Convert(target), nil
	case reflect.Bool:
		return reflect.ValueOf(v.ToBoolean()).Convert(target), nil
	case reflect.Float64, reflect.Float32,
		reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8,
		reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		n, err := v.ToNumber()
		if err != nil {
			return reflect.Value{}, conversionFailure(v, target)
		}
		return numberToReflect(v, n, target)
	case reflect.Interface:
		if v.IsUndefined() {
			return reflect.Zero(target), nil
		}
		exported := reflect.ValueOf(v.Export())
		if exported.IsValid() && exported.Type().AssignableTo(target) {
			return exported, nil
		}
		if target.NumMethod() == 0 {
			return reflect.Zero(target), nil
		}
	default:
		if v.IsNullOrUndefined() {
			return reflect.Zero(target), nil
		}
		exported := reflect.ValueOf(v.Export())
		if exported.IsValid() && exported.Type().AssignableTo(target) {
			return exported, nil
		}
		if exported.IsValid() && exported.Type().ConvertibleTo(target) {
			return exported.Convert(target), nil
		}
	}
	return reflect.Value{}, conversionFailure(v, target)
}

// numberToReflect stores n in a numeric Go type. Integer targets take only
// integral numbers within their range; float32 rejects finite overflow.
func numberToReflect(v bridge.Value, n float64, target reflect.Type) (reflect.Value, *errors.ConversionError) {
	out := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.Float32, reflect.Float64:
		if out.OverflowFloat(n) {
			return reflect.Value{}, outOfRange(v, target)
		}
		out.SetFloat(n)
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		// 2^63 is the first float64 past the int64 range
		if !isIntegral(n) || n < math.MinInt64 || n >= 1<<63 || out.OverflowInt(int64(n)) {
			return reflect.Value{}, outOfRange(v, target)
		}
		out.SetInt(int64(n))
	default:
		if !isIntegral(n) || n < 0 || n >= 1<<64 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, outOfRange(v, target)
		}
		out.SetUint(uint64(n))
	}
	return out, nil
}

func isIntegral(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)
}

func outOfRange(v bridge.Value, target reflect.Type) *errors.ConversionError {
	return &errors.ConversionError{
		Msg:   fmt.Sprintf("%s is not representable as %s", v.Inspect(), target),
		Input: v.Inspect(),
	}
}

func conversionFailure(v bridge.Value, target reflect.Type) *errors.ConversionError {
	return &errors.ConversionError{
		Msg:   fmt.Sprintf("cannot use %s as %s", v.TypeOf(), target),
		Input: v.Inspect(),
	}
}

func argumentError(i int, err *errors.ConversionError) error {
	err.Msg = fmt.Sprintf("argument %d: %s", i+1, err.Msg)
	return err
}

// reflectToValue converts a Go result back to a script value.
func reflectToValue(ctx *bridge.Context, rv reflect.Value) bridge.Value {
	if !rv.IsValid() {
		return bridge.Undefined()
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		if rv.IsNil() {
			return bridge.Null()
		}
	}
	return ctx.ValueOf(rv.Interface())
}
