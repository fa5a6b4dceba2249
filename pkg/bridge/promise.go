package bridge

import (
	"fmt"

	"github.com/dop251/goja"

	"jsexec/pkg/errors"
)

type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Promise is a Promise object. Promises made by NewPromise can be settled
// from the host; reactions run as soon as the engine drains its job queue,
// which happens when the outermost engine call returns.
type Promise struct {
	*Object
	resolve goja.Callable
	reject  goja.Callable
}

// NewPromise creates a pending promise settled with Resolve or Reject.
func (c *Context) NewPromise() (*Promise, error) {
	c.check()
	p := &Promise{}
	executor := c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		p.resolve, _ = goja.AssertFunction(call.Argument(0))
		p.reject, _ = goja.AssertFunction(call.Argument(1))
		return goja.Undefined()
	})
	obj, err := c.vm.New(c.in.promise, executor)
	if err != nil {
		return nil, c.translate(err, nil)
	}
	p.Object = c.wrap(obj)
	return p, nil
}

// ResolvedPromise is Promise.resolve(v) for a non-thenable v.
func (c *Context) ResolvedPromise(v Value) (*Promise, error) {
	p, err := c.NewPromise()
	if err != nil {
		return nil, err
	}
	return p, p.Resolve(v)
}

// RejectedPromise is Promise.reject(reason).
func (c *Context) RejectedPromise(reason Value) (*Promise, error) {
	p, err := c.NewPromise()
	if err != nil {
		return nil, err
	}
	return p, p.Reject(reason)
}

// PromiseFromObject views o as a promise; false for any other class.
func PromiseFromObject(o *Object) (*Promise, bool) {
	if o.BuiltinClass() != ClassPromise {
		return nil, false
	}
	return &Promise{Object: o}, true
}

func (p *Promise) engine() *goja.Promise {
	p.ctx.check()
	gp, _ := p.obj.Export().(*goja.Promise)
	return gp
}

func (p *Promise) State() PromiseState {
	gp := p.engine()
	if gp == nil {
		return PromisePending
	}
	switch gp.State() {
	case goja.PromiseStateFulfilled:
		return PromiseFulfilled
	case goja.PromiseStateRejected:
		return PromiseRejected
	}
	return PromisePending
}

// Result is the fulfillment value or rejection reason; undefined while pending.
func (p *Promise) Result() Value {
	gp := p.engine()
	if gp == nil || gp.State() == goja.PromiseStatePending {
		return Undefined()
	}
	return p.ctx.fromEngine(gp.Result())
}

// Resolve settles a host-created promise. Resolving with a thenable adopts
// its state.
func (p *Promise) Resolve(v Value) error {
	return p.settle(p.resolve, v)
}

func (p *Promise) Reject(reason Value) error {
	return p.settle(p.reject, reason)
}

func (p *Promise) settle(fn goja.Callable, v Value) error {
	c := p.ctx
	c.check()
	if fn == nil {
		return &errors.TypeError{
			Msg:   fmt.Sprintf("promise %s was not created by the host", p.Inspect()),
			Trace: errors.Trace{Name: "TypeError"},
		}
	}
	_, err := c.invoke(fn, goja.Undefined(), c.toEngine(v))
	return err
}

// Then registers reactions; either may be nil to pass the outcome through.
func (p *Promise) Then(onFulfilled, onRejected HostFunc) (*Promise, error) {
	c := p.ctx
	c.check()
	reaction := func(name string, fn HostFunc) goja.Value {
		if fn == nil {
			return goja.Undefined()
		}
		return c.NewFunction(name, 1, fn).obj
	}
	res, err := c.invoke(c.in.promiseThen, p.obj,
		reaction("onFulfilled", onFulfilled), reaction("onRejected", onRejected))
	if err != nil {
		return nil, err
	}
	obj, ok := res.(*goja.Object)
	if !ok {
		return nil, &errors.TypeError{Msg: "then did not return a promise", Trace: errors.Trace{Name: "TypeError"}}
	}
	return &Promise{Object: c.wrap(obj)}, nil
}

func (p *Promise) Inspect() string { return p.Value().Inspect() }
