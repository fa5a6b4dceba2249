package bridge

import (
	stderrors "errors"
	"fmt"
	"testing"

	"jsexec/pkg/errors"
)

func TestFunctionCall(t *testing.T) {
	ctx := newTestContext(t)
	mustEval(t, ctx, "function add(a, b) { return a + b; }")

	fn, ok, err := ctx.GlobalObject().GetFunction("add")
	if err != nil || !ok {
		t.Fatalf("GetFunction(add) = %v, %v", ok, err)
	}
	v, err := fn.Call([]Value{Int32(5), Int32(7)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := v.ToNumber()
	if n != 12.0 {
		t.Errorf("add(5, 7) = %v, want 12", n)
	}
}

func TestFunctionCallThis(t *testing.T) {
	ctx := newTestContext(t)
	whoami := mustFunction(t, ctx, "(function () { return this; })")

	v, err := whoami.Call(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	self, err := v.AsObject()
	if err != nil {
		t.Fatalf("this = %s, want the global object", v.Inspect())
	}
	if !self.Same(ctx.GlobalObject()) {
		t.Errorf("omitted this did not bind the global object")
	}

	receiver := ctx.NewObject()
	v, _ = whoami.Call(nil, receiver)
	if o, _ := v.AsObject(); o == nil || !o.Same(receiver) {
		t.Errorf("explicit this = %s", v.Inspect())
	}

	strict := mustFunction(t, ctx, `(function () { "use strict"; return typeof this; })`)
	v, _ = strict.CallWithThis(Undefined(), nil)
	if v.String() != "undefined" {
		t.Errorf("CallWithThis(undefined) saw this of type %s", v.String())
	}
}

func TestFunctionIntrospection(t *testing.T) {
	ctx := newTestContext(t)
	tests := []struct {
		src    string
		name   string
		nargs  int
		length int
		ctor   bool
	}{
		{"(function add(a, b) { return a + b; })", "add", 2, 2, true},
		{"(function (a, b = 1, ...rest) {})", "", 2, 1, true},
		{"((x, y, z) => x)", "", 3, 3, false},
		{"(async function fetchIt(url) {})", "fetchIt", 1, 1, false},
		{"(function* gen(a, b) {})", "gen", 2, 2, false},
		{"({ method(p, q) {} }).method", "method", 2, 2, false},
		{"(class Point { constructor(x, y = 0) {} })", "Point", 2, 1, true},
		{"(class Empty {})", "Empty", 0, 0, true},
		{`(function f(a, b = 1, c) { return "[native code]"; })`, "f", 3, 1, true},
		{"Math.max", "max", 2, 2, false},
		{"(function named() {}).bind(null, 1)", "bound named", 0, 0, true},
	}
	for _, tt := range tests {
		fn := mustFunction(t, ctx, tt.src)
		if got := fn.Name(); got != tt.name {
			t.Errorf("%s: Name() = %q, want %q", tt.src, got, tt.name)
		}
		if got := fn.NArgs(); got != tt.nargs {
			t.Errorf("%s: NArgs() = %d, want %d", tt.src, got, tt.nargs)
		}
		if got := fn.Length(); got != tt.length {
			t.Errorf("%s: Length() = %d, want %d", tt.src, got, tt.length)
		}
		if got := fn.IsConstructor(); got != tt.ctor {
			t.Errorf("%s: IsConstructor() = %v, want %v", tt.src, got, tt.ctor)
		}
	}
}

func TestFunctionSource(t *testing.T) {
	ctx := newTestContext(t)
	const src = "function add(a, b) { return a + b; }"
	fn := mustFunction(t, ctx, "("+src+")")
	got, err := fn.Source()
	if err != nil || got != src {
		t.Errorf("Source() = %q, %v; want %q", got, err, src)
	}
}

func TestFunctionConstruct(t *testing.T) {
	ctx := newTestContext(t)
	point := mustFunction(t, ctx, "(class Point { constructor(x) { this.x = x; } })")
	obj, err := point.Construct([]Value{Int32(3)})
	if err != nil {
		t.Fatal(err)
	}
	if x, _ := obj.Get(Key("x")); !x.IsSame(Int32(3)) {
		t.Errorf("x = %s", x.Inspect())
	}

	arrow := mustFunction(t, ctx, "(() => 1)")
	if _, err := arrow.Construct(nil); errors.KindOf(err) != errors.KindType {
		t.Errorf("constructing an arrow function: %v, want TypeError", err)
	}
	if _, err := point.Call(nil, nil); errors.KindOf(err) != errors.KindType {
		t.Errorf("calling a class without new: %v, want TypeError", err)
	}
}

func TestFunctionFromObject(t *testing.T) {
	ctx := newTestContext(t)
	if _, ok := FunctionFromObject(mustObject(t, ctx, "(function () {})")); !ok {
		t.Errorf("function object rejected")
	}
	if _, ok := FunctionFromObject(mustObject(t, ctx, "[]")); ok {
		t.Errorf("array accepted as function")
	}
}

func TestHostFunction(t *testing.T) {
	ctx := newTestContext(t)
	sum := ctx.NewFunction("sum", 2, func(ctx *Context, this Value, args []Value) (Value, error) {
		total := 0.0
		for _, a := range args {
			n, err := a.ToNumber()
			if err != nil {
				return Undefined(), err
			}
			total += n
		}
		return Float64(total), nil
	})
	if err := ctx.SetGlobal("sum", sum.Value()); err != nil {
		t.Fatal(err)
	}

	if v := mustEval(t, ctx, "sum(1, 2, 3.5)"); !v.IsSame(Float64(6.5)) {
		t.Errorf("sum(1, 2, 3.5) = %s", v.Inspect())
	}
	if v := mustEval(t, ctx, "sum.name + '/' + sum.length"); v.String() != "sum/2" {
		t.Errorf("name/length = %s", v.String())
	}
	if v := mustEval(t, ctx, "typeof sum"); v.String() != "function" {
		t.Errorf("typeof sum = %s", v.String())
	}
	if v := mustEval(t, ctx, "try { sum(1n); 'no error' } catch (e) { e instanceof TypeError }"); !v.ToBoolean() {
		t.Errorf("BigInt argument should raise a script TypeError, got %s", v.Inspect())
	}
}

var errQuota = stderrors.New("quota exhausted")

func TestHostFunctionErrors(t *testing.T) {
	ctx := newTestContext(t)
	register := func(name string, err error) {
		t.Helper()
		fn := ctx.NewFunction(name, 0, func(*Context, Value, []Value) (Value, error) {
			return Undefined(), err
		})
		if err := ctx.SetGlobal(name, fn.Value()); err != nil {
			t.Fatal(err)
		}
	}
	register("failRange", &errors.RangeError{Msg: "too big"})
	register("failType", &errors.TypeError{Msg: "wrong type"})
	register("failConvert", &errors.ConversionError{Msg: "cannot convert"})
	register("failPlain", fmt.Errorf("wrapped: %w", errQuota))

	tests := []struct {
		call string
		want string
	}{
		{"failRange()", "RangeError: too big"},
		{"failType()", "TypeError: wrong type"},
		{"failConvert()", "TypeError: cannot convert"},
	}
	for _, tt := range tests {
		src := fmt.Sprintf("try { %s; 'none' } catch (e) { e.name + ': ' + e.message }", tt.call)
		if got := mustEval(t, ctx, src).String(); got != tt.want {
			t.Errorf("%s caught %q, want %q", tt.call, got, tt.want)
		}
	}
	if got := mustEval(t, ctx, "try { failPlain() } catch (e) { e instanceof Error && e.message }").String(); got != "wrapped: quota exhausted" {
		t.Errorf("plain Go error surfaced as %q", got)
	}

	_, err := ctx.CompileAndEvaluateScript("failPlain()")
	if errors.KindOf(err) != errors.KindScript {
		t.Fatalf("uncaught host error = %v, want ScriptException", err)
	}
	if !stderrors.Is(err, errQuota) {
		t.Errorf("uncaught host error lost its cause: %v", err)
	}

	_, err = ctx.CompileAndEvaluateScript("failRange()")
	if errors.KindOf(err) != errors.KindRange {
		t.Errorf("uncaught host RangeError = %v", err)
	}
}

func TestHostFunctionRethrowsScriptValue(t *testing.T) {
	ctx := newTestContext(t)
	thrower := mustFunction(t, ctx, "(function () { throw {code: 7}; })")
	relay := ctx.NewFunction("relay", 0, func(ctx *Context, this Value, args []Value) (Value, error) {
		return thrower.Call(nil, nil)
	})
	if err := ctx.SetGlobal("relay", relay.Value()); err != nil {
		t.Fatal(err)
	}
	if v := mustEval(t, ctx, "try { relay() } catch (e) { e.code }"); !v.IsSame(Int32(7)) {
		t.Errorf("relayed throw caught as %s, want the original object", v.Inspect())
	}
}

func TestHostConstructor(t *testing.T) {
	ctx := newTestContext(t)
	point := ctx.NewConstructor("Point", 2, func(ctx *Context, this Value, args []Value) (Value, error) {
		self, err := this.AsObject()
		if err != nil {
			return Undefined(), err
		}
		for i, name := range []string{"x", "y"} {
			v := Int32(0)
			if i < len(args) {
				v = args[i]
			}
			if _, err := self.Set(Key(name), v); err != nil {
				return Undefined(), err
			}
		}
		return Undefined(), nil
	})
	if err := ctx.SetGlobal("Point", point.Value()); err != nil {
		t.Fatal(err)
	}
	if !point.IsConstructor() {
		t.Error("host constructor is not a constructor")
	}

	v := mustEval(t, ctx, "const p = new Point(3, 4); [p.x, p.y, p instanceof Point]")
	if got := v.Inspect(); got != "[3, 4, true]" {
		t.Errorf("new Point(3, 4) = %s", got)
	}

	obj, err := point.Construct([]Value{Int32(1)})
	if err != nil {
		t.Fatal(err)
	}
	if y, _ := obj.Get(Key("y")); !y.IsSame(Int32(0)) {
		t.Errorf("missing argument gave y = %s", y.Inspect())
	}

	replaced := ctx.NewConstructor("Factory", 0, func(ctx *Context, this Value, args []Value) (Value, error) {
		return ctx.NewArray(String("made")).Value(), nil
	})
	made, err := replaced.Construct(nil)
	if err != nil {
		t.Fatal(err)
	}
	if made.BuiltinClass() != ClassArray {
		t.Errorf("returned object did not replace this: %s", made.String())
	}
}
