package bridge

import (
	"testing"
)

// newTestContext returns a fresh context on the shared runtime, closed when
// the test ends.
func newTestContext(t *testing.T) *Context {
	t.Helper()
	rt, err := Acquire(nil)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	ctx, err := rt.NewContext()
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	t.Cleanup(ctx.Close)
	return ctx
}

func mustEval(t *testing.T, ctx *Context, src string) Value {
	t.Helper()
	v, err := ctx.CompileAndEvaluateScript(src)
	if err != nil {
		t.Fatalf("evaluating %q: %v", src, err)
	}
	return v
}

func mustObject(t *testing.T, ctx *Context, src string) *Object {
	t.Helper()
	o, err := mustEval(t, ctx, src).AsObject()
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return o
}

func mustFunction(t *testing.T, ctx *Context, src string) *Function {
	t.Helper()
	fn, err := mustEval(t, ctx, src).AsFunction()
	if err != nil {
		t.Fatalf("%q: %v", src, err)
	}
	return fn
}

// expectPanic runs f and returns the recovered value, failing if f returns
// normally.
func expectPanic(t *testing.T, f func()) (recovered any) {
	t.Helper()
	defer func() {
		recovered = recover()
		if recovered == nil {
			t.Fatalf("expected a panic")
		}
	}()
	f()
	return nil
}
