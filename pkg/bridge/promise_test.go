package bridge

import (
	"testing"

	"jsexec/pkg/errors"
)

func TestPromiseSettledFromHost(t *testing.T) {
	ctx := newTestContext(t)
	p, err := ctx.NewPromise()
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != PromisePending {
		t.Fatalf("new promise is %s", p.State())
	}
	if !p.Result().IsUndefined() {
		t.Errorf("pending result = %s", p.Result().Inspect())
	}
	if got := p.Inspect(); got != "Promise { <pending> }" {
		t.Errorf("Inspect() = %q", got)
	}

	if err := p.Resolve(String("done")); err != nil {
		t.Fatal(err)
	}
	if p.State() != PromiseFulfilled || p.Result().String() != "done" {
		t.Errorf("after Resolve: %s %s", p.State(), p.Result().Inspect())
	}
	// Settling twice has no effect.
	_ = p.Reject(String("late"))
	if p.State() != PromiseFulfilled {
		t.Errorf("second settle changed the state to %s", p.State())
	}
}

func TestRejectedPromise(t *testing.T) {
	ctx := newTestContext(t)
	p, err := ctx.RejectedPromise(Int32(13))
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != PromiseRejected || !p.Result().IsSame(Int32(13)) {
		t.Errorf("RejectedPromise: %s %s", p.State(), p.Result().Inspect())
	}
	if got := p.Inspect(); got != "Promise { <rejected> 13 }" {
		t.Errorf("Inspect() = %q", got)
	}
}

func TestPromiseThen(t *testing.T) {
	ctx := newTestContext(t)
	p, err := ctx.NewPromise()
	if err != nil {
		t.Fatal(err)
	}
	var seen Value
	next, err := p.Then(func(ctx *Context, this Value, args []Value) (Value, error) {
		seen = args[0]
		n, _ := args[0].ToNumber()
		return Float64(n * 2), nil
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if next.State() != PromisePending {
		t.Fatalf("derived promise settled early: %s", next.State())
	}

	if err := p.Resolve(Int32(21)); err != nil {
		t.Fatal(err)
	}
	if seen.IsUndefined() || !seen.IsSame(Int32(21)) {
		t.Errorf("reaction saw %s", seen.Inspect())
	}
	if next.State() != PromiseFulfilled {
		t.Fatalf("derived promise is %s", next.State())
	}
	if n, _ := next.Result().ToNumber(); n != 42 {
		t.Errorf("derived result = %s", next.Result().Inspect())
	}
}

func TestPromiseThenRejection(t *testing.T) {
	ctx := newTestContext(t)
	p, _ := ctx.NewPromise()
	recovered, err := p.Then(nil, func(ctx *Context, this Value, args []Value) (Value, error) {
		return String("recovered: " + args[0].String()), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = p.Reject(String("oops"))
	if recovered.State() != PromiseFulfilled || recovered.Result().String() != "recovered: oops" {
		t.Errorf("recovered = %s %s", recovered.State(), recovered.Result().Inspect())
	}
}

func TestScriptPromises(t *testing.T) {
	ctx := newTestContext(t)
	obj := mustObject(t, ctx, "Promise.resolve(5).then(x => x + 1)")
	p, ok := PromiseFromObject(obj)
	if !ok {
		t.Fatal("script promise rejected by PromiseFromObject")
	}
	if p.State() != PromiseFulfilled || !p.Result().IsSame(Int32(6)) {
		t.Errorf("script promise: %s %s", p.State(), p.Result().Inspect())
	}
	if err := p.Resolve(Int32(1)); errors.KindOf(err) != errors.KindType {
		t.Errorf("resolving a script promise: %v, want TypeError", err)
	}

	if _, ok := PromiseFromObject(ctx.NewObject()); ok {
		t.Error("plain object accepted as a promise")
	}
}

func TestPromiseVisibleToScripts(t *testing.T) {
	ctx := newTestContext(t)
	p, _ := ctx.NewPromise()
	if err := ctx.SetGlobal("pending", p.Value()); err != nil {
		t.Fatal(err)
	}
	mustEval(t, ctx, "var observed = 'nothing'; pending.then(v => { observed = v; })")
	if err := p.Resolve(String("value")); err != nil {
		t.Fatal(err)
	}
	if v := mustEval(t, ctx, "observed"); v.String() != "value" {
		t.Errorf("script reaction saw %s", v.Inspect())
	}
}
