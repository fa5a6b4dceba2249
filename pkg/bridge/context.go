package bridge

import (
	"fmt"
	"math/big"

	"github.com/dop251/goja"

	"jsexec/pkg/errors"
	"jsexec/pkg/source"
)

const debugBridge = false

func debugPrintf(format string, args ...interface{}) {
	if debugBridge {
		fmt.Printf(format, args...)
	}
}

// intrinsicsProgram captures the builtins the bridge calls through, before
// any user script can replace them. It is compiled once and run in every
// new Context.
var intrinsicsProgram = goja.MustCompile("<intrinsics>", `(function () {
	"use strict";
	var symbolDescription = Object.getOwnPropertyDescriptor(Symbol.prototype, "description");
	return {
		get: Reflect.get,
		set: Reflect.set,
		has: Reflect.has,
		deleteProperty: Reflect.deleteProperty,
		defineProperty: Reflect.defineProperty,
		getOwnPropertyDescriptor: Reflect.getOwnPropertyDescriptor,
		ownKeys: Reflect.ownKeys,
		getPrototypeOf: Reflect.getPrototypeOf,
		hasOwn: Object.prototype.hasOwnProperty,
		propertyIsEnumerable: Object.prototype.propertyIsEnumerable,
		functionToString: Function.prototype.toString,
		symbolDescription: symbolDescription && symbolDescription.get,
		symbolFor: Symbol.for,
		symbolKeyFor: Symbol.keyFor,
		numberValueOf: Number.prototype.valueOf,
		stringValueOf: String.prototype.valueOf,
		booleanValueOf: Boolean.prototype.valueOf,
		bigintValueOf: BigInt.prototype.valueOf,
		promiseThen: Promise.prototype.then,
		arrayFrom: Array.from,
		toNumber: function (v) { return +v; },
		toString: function (v) { return ` + "`${v}`" + `; },
		Promise: Promise,
		Error: Error,
		SyntaxError: SyntaxError,
		ReferenceError: ReferenceError,
		TypeError: TypeError,
		RangeError: RangeError
	};
})()`, true)

type intrinsics struct {
	get, set, has, deleteProperty, defineProperty  goja.Callable
	getOwnPropertyDescriptor, ownKeys              goja.Callable
	getPrototypeOf, hasOwn, propertyIsEnumerable   goja.Callable
	functionToString, symbolDescription            goja.Callable
	symbolFor, symbolKeyFor                        goja.Callable
	numberValueOf, stringValueOf, booleanValueOf   goja.Callable
	bigintValueOf, promiseThen, toNumber, toString goja.Callable
	arrayFrom                                      goja.Callable

	promise *goja.Object
	// errorCtors holds the constructors of the classified error kinds;
	// KindScript maps to Error.
	errorCtors map[errors.Kind]*goja.Object
	// errorProtos are the prototypes matched when classifying a throw.
	errorProtos map[errors.Kind]*goja.Object
}

// Context is one execution context: a global object, a call stack and a
// job queue. A Context and every handle it produces must be used from one
// goroutine at a time.
type Context struct {
	id     uint64
	rt     *Runtime
	vm     *goja.Runtime
	in     intrinsics
	closed bool
}

func newContext(rt *Runtime, id uint64) (*Context, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(rt.cfg.MaxCallStackSize)
	if rt.cfg.FieldNameTag != "" {
		vm.SetFieldNameMapper(goja.TagFieldNameMapper(rt.cfg.FieldNameTag, true))
	}
	c := &Context{id: id, rt: rt, vm: vm}
	if err := c.loadIntrinsics(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) loadIntrinsics() error {
	res, err := c.vm.RunProgram(intrinsicsProgram)
	if err != nil {
		return fmt.Errorf("bridge: bootstrap: %w", err)
	}
	obj := res.ToObject(c.vm)

	fns := []struct {
		name string
		dst  *goja.Callable
	}{
		{"get", &c.in.get},
		{"set", &c.in.set},
		{"has", &c.in.has},
		{"deleteProperty", &c.in.deleteProperty},
		{"defineProperty", &c.in.defineProperty},
		{"getOwnPropertyDescriptor", &c.in.getOwnPropertyDescriptor},
		{"ownKeys", &c.in.ownKeys},
		{"getPrototypeOf", &c.in.getPrototypeOf},
		{"hasOwn", &c.in.hasOwn},
		{"propertyIsEnumerable", &c.in.propertyIsEnumerable},
		{"functionToString", &c.in.functionToString},
		{"symbolDescription", &c.in.symbolDescription},
		{"symbolFor", &c.in.symbolFor},
		{"symbolKeyFor", &c.in.symbolKeyFor},
		{"numberValueOf", &c.in.numberValueOf},
		{"stringValueOf", &c.in.stringValueOf},
		{"booleanValueOf", &c.in.booleanValueOf},
		{"bigintValueOf", &c.in.bigintValueOf},
		{"promiseThen", &c.in.promiseThen},
		{"arrayFrom", &c.in.arrayFrom},
		{"toNumber", &c.in.toNumber},
		{"toString", &c.in.toString},
	}
	for _, f := range fns {
		fn, ok := goja.AssertFunction(obj.Get(f.name))
		if !ok {
			// Optional builtins the engine lacks stay nil.
			debugPrintf("// [bridge] intrinsic %s missing\n", f.name)
			continue
		}
		*f.dst = fn
	}
	if c.in.get == nil || c.in.set == nil || c.in.ownKeys == nil || c.in.toString == nil {
		return fmt.Errorf("bridge: bootstrap: engine lacks Reflect")
	}

	c.in.promise, _ = obj.Get("Promise").(*goja.Object)
	c.in.errorCtors = make(map[errors.Kind]*goja.Object)
	c.in.errorProtos = make(map[errors.Kind]*goja.Object)
	for kind, name := range map[errors.Kind]string{
		errors.KindScript:    "Error",
		errors.KindSyntax:    "SyntaxError",
		errors.KindReference: "ReferenceError",
		errors.KindType:      "TypeError",
		errors.KindRange:     "RangeError",
	} {
		ctor, ok := obj.Get(name).(*goja.Object)
		if !ok {
			return fmt.Errorf("bridge: bootstrap: missing %s", name)
		}
		c.in.errorCtors[kind] = ctor
		if proto, ok := ctor.Get("prototype").(*goja.Object); ok {
			c.in.errorProtos[kind] = proto
		}
	}
	return nil
}

// ID distinguishes contexts of one Runtime.
func (c *Context) ID() uint64 { return c.id }

func (c *Context) Runtime() *Runtime { return c.rt }

// Close ends the context. Handles produced by it become unusable; touching
// them panics with an InvariantViolation. Closing twice is a no-op.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.rt.contextClosed(c)
}

func (c *Context) IsClosed() bool { return c.closed }

// Interrupt stops the script running in c at its next instruction, and the
// evaluation fails with a ScriptException whose message includes v. Safe to
// call from any goroutine. If no script is running, the next one is stopped
// before it starts.
func (c *Context) Interrupt(v any) { c.vm.Interrupt(v) }

// check panics if the context can no longer be used.
func (c *Context) check() {
	if c.closed {
		panic(&errors.InvariantViolation{
			Msg:   fmt.Sprintf("context %d used after Close", c.id),
			Cause: ErrContextClosed,
		})
	}
}

// own panics unless o belongs to this context.
func (c *Context) own(o *Object) {
	o.ctx.check()
	if o.ctx != c {
		panic(&errors.InvariantViolation{
			Msg: fmt.Sprintf("object of context %d passed to context %d", o.ctx.id, c.id),
		})
	}
}

// --- Script entry points ---

// CompileAndEvaluateScript runs src as a top-level program in the global
// scope under the configured script name and returns the completion value.
func (c *Context) CompileAndEvaluateScript(src string) (Value, error) {
	return c.EvaluateSource(source.NewNamedSource(c.rt.cfg.ScriptName, src))
}

// EvaluateScript is CompileAndEvaluateScript with an explicit script name,
// which appears in stack traces.
func (c *Context) EvaluateScript(name, src string) (Value, error) {
	return c.EvaluateSource(source.NewNamedSource(name, src))
}

func (c *Context) EvaluateSource(src *source.SourceFile) (Value, error) {
	c.check()
	return c.run(src, src.Content)
}

// run compiles and runs code under src's name. src may differ from code
// when code was generated from it; errors are reported against src.
func (c *Context) run(src *source.SourceFile, code string) (Value, error) {
	prog, err := c.rt.compile(src.DisplayPath(), code)
	if err != nil {
		return Undefined(), c.translate(err, src)
	}
	res, err := c.vm.RunProgram(prog)
	if err != nil {
		return Undefined(), c.translate(err, src)
	}
	return c.fromEngine(res), nil
}

// --- Object construction ---

func (c *Context) GlobalObject() *Object {
	c.check()
	return c.wrap(c.vm.GlobalObject())
}

// NewObject returns a fresh ordinary object.
func (c *Context) NewObject() *Object {
	c.check()
	return c.wrap(c.vm.NewObject())
}

func (c *Context) NewArray(items ...Value) *Object {
	c.check()
	vals := make([]interface{}, len(items))
	for i, it := range items {
		vals[i] = c.toEngine(it)
	}
	return c.wrap(c.vm.NewArray(vals...))
}

// HostFunc is a Go function callable from script. A returned error is
// thrown into the script (see NewFunction).
type HostFunc func(ctx *Context, this Value, args []Value) (Value, error)

// NewFunction exposes fn to scripts with the given name and length.
//
// A returned SyntaxError, ReferenceError, TypeError or RangeError is thrown
// as an instance of the matching script class, ConversionError as a
// TypeError. An error carrying a thrown script value rethrows that value.
// Anything else is thrown as an Error wrapping the Go error.
func (c *Context) NewFunction(name string, nargs int, fn HostFunc) *Function {
	c.check()
	native := func(call goja.FunctionCall) goja.Value {
		args := make([]Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = c.fromEngine(a)
		}
		res, err := fn(c, c.fromEngine(call.This), args)
		if err != nil {
			panic(c.throwable(err))
		}
		return c.toEngine(res)
	}
	obj := c.vm.ToValue(native).(*goja.Object)
	_ = obj.DefineDataProperty("name", c.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	_ = obj.DefineDataProperty("length", c.vm.ToValue(nargs), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	return &Function{Object: c.wrap(obj)}
}

// NewConstructor is NewFunction for functions used with new. fn sees the
// freshly allocated instance as this; returning an object replaces it.
func (c *Context) NewConstructor(name string, nargs int, fn HostFunc) *Function {
	c.check()
	native := func(call goja.ConstructorCall) *goja.Object {
		args := make([]Value, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = c.fromEngine(a)
		}
		res, err := fn(c, ObjectValue(c.wrap(call.This)), args)
		if err != nil {
			panic(c.throwable(err))
		}
		if o, ok := res.ref.(*Object); ok && res.kind == KindObject {
			c.own(o)
			return o.obj
		}
		return call.This
	}
	obj := c.vm.ToValue(native).(*goja.Object)
	_ = obj.DefineDataProperty("name", c.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	_ = obj.DefineDataProperty("length", c.vm.ToValue(nargs), goja.FLAG_FALSE, goja.FLAG_TRUE, goja.FLAG_FALSE)
	return &Function{Object: c.wrap(obj)}
}

// NewSymbolFor returns the registry symbol for key (Symbol.for).
func (c *Context) NewSymbolFor(key string) (*Symbol, error) {
	c.check()
	res, err := c.invoke(c.in.symbolFor, goja.Undefined(), stringToEngine(c.vm, key))
	if err != nil {
		return nil, err
	}
	sym, ok := res.(*goja.Symbol)
	if !ok {
		return nil, &errors.ConversionError{Msg: "Symbol.for did not return a symbol"}
	}
	return symbolFromEngine(c, sym), nil
}

// SetGlobal creates or overwrites a global binding.
func (c *Context) SetGlobal(name string, v Value) error {
	c.check()
	if err := c.vm.Set(name, c.toEngine(v)); err != nil {
		return c.translate(err, nil)
	}
	return nil
}

// GetGlobal reads a property of the global object; missing names are undefined.
func (c *Context) GetGlobal(name string) (Value, error) {
	return c.GlobalObject().Get(Key(name))
}

// ValueOf converts a Go value the way the engine does: numbers, strings,
// bools, *big.Int, maps, slices, structs, funcs. Structs and pointers are
// wrapped, so scripts see live host state.
func (c *Context) ValueOf(x interface{}) Value {
	c.check()
	switch v := x.(type) {
	case Value:
		return v
	case *Object:
		return ObjectValue(v)
	case *Function:
		return ObjectValue(v.Object)
	case *BigInt:
		return BigIntValue(v)
	case *Symbol:
		return SymbolValue(v)
	}
	return c.fromEngine(c.vm.ToValue(x))
}

// --- Engine boundary ---

func (c *Context) wrap(o *goja.Object) *Object {
	return &Object{ctx: c, obj: o}
}

// fromEngine classifies an engine value into exactly one Value kind.
func (c *Context) fromEngine(gv goja.Value) Value {
	if gv == nil || goja.IsUndefined(gv) {
		return Undefined()
	}
	if goja.IsNull(gv) {
		return Null()
	}
	switch x := gv.(type) {
	case *goja.Object:
		return ObjectValue(c.wrap(x))
	case *goja.Symbol:
		return SymbolValue(symbolFromEngine(c, x))
	case goja.String:
		return String(stringFromEngine(x))
	}
	switch e := gv.Export().(type) {
	case bool:
		return Bool(e)
	case int64:
		return numberValue(float64(e))
	case float64:
		return numberValue(e)
	case string:
		return String(e)
	case *big.Int:
		return BigIntValue(BigIntFromBig(e))
	}
	debugPrintf("// [bridge] unclassified engine value %T\n", gv)
	return Undefined()
}

func (c *Context) toEngine(v Value) goja.Value {
	switch v.kind {
	case KindNull:
		return goja.Null()
	case KindBoolean:
		return c.vm.ToValue(v.num != 0)
	case KindInt32:
		return c.vm.ToValue(int64(v.num))
	case KindDouble:
		return c.vm.ToValue(v.num)
	case KindString:
		return stringToEngine(c.vm, v.str)
	case KindBigInt:
		return c.vm.ToValue(v.ref.(*BigInt).Int())
	case KindSymbol:
		return v.ref.(*Symbol).sym
	case KindObject:
		o := v.ref.(*Object)
		c.own(o)
		return o.obj
	default:
		return goja.Undefined()
	}
}

func (c *Context) toEngineArgs(args []Value) []goja.Value {
	out := make([]goja.Value, len(args))
	for i, a := range args {
		out[i] = c.toEngine(a)
	}
	return out
}

// invoke calls an engine function and translates any throw.
func (c *Context) invoke(fn goja.Callable, this goja.Value, args ...goja.Value) (goja.Value, error) {
	res, err := fn(this, args...)
	if err != nil {
		return nil, c.translate(err, nil)
	}
	return res, nil
}

func (c *Context) symbolDescription(sym *goja.Symbol) (string, bool) {
	if c.in.symbolDescription == nil {
		d := sym.String()
		return d, d != ""
	}
	res, err := c.in.symbolDescription(sym)
	if err != nil || goja.IsUndefined(res) {
		return "", false
	}
	return stringFromEngine(res), true
}

func (c *Context) symbolKeyFor(sym *goja.Symbol) (string, bool) {
	if c.in.symbolKeyFor == nil {
		return "", false
	}
	res, err := c.in.symbolKeyFor(goja.Undefined(), sym)
	if err != nil || goja.IsUndefined(res) {
		return "", false
	}
	return res.String(), true
}
