package bridge

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"

	"jsexec/pkg/errors"
)

// Function is an Object known to be callable.
type Function struct {
	*Object
}

// FunctionFromObject views o as a function; false if it is not callable.
func FunctionFromObject(o *Object) (*Function, bool) {
	return o.ToFunction()
}

// Call invokes f with args. A nil this binds the global object.
func (f *Function) Call(args []Value, this *Object) (Value, error) {
	c := f.ctx
	c.check()
	thisVal := ObjectValue(c.wrap(c.vm.GlobalObject()))
	if this != nil {
		thisVal = ObjectValue(this)
	}
	return f.CallWithThis(thisVal, args)
}

// CallWithThis invokes f with an arbitrary this value, primitives included.
func (f *Function) CallWithThis(this Value, args []Value) (Value, error) {
	c := f.ctx
	c.check()
	call, ok := goja.AssertFunction(f.obj)
	if !ok {
		msg := fmt.Sprintf("%s cannot be invoked without 'new'", f.displayName())
		return Undefined(), &errors.TypeError{Msg: msg, Trace: errors.Trace{Name: "TypeError"}}
	}
	res, err := call(c.toEngine(this), c.toEngineArgs(args)...)
	if err != nil {
		return Undefined(), c.translate(err, nil)
	}
	return c.fromEngine(res), nil
}

// Construct is the new operator.
func (f *Function) Construct(args []Value) (*Object, error) {
	c := f.ctx
	c.check()
	ctor, ok := goja.AssertConstructor(f.obj)
	if !ok {
		msg := fmt.Sprintf("%s is not a constructor", f.displayName())
		return nil, &errors.TypeError{Msg: msg, Trace: errors.Trace{Name: "TypeError"}}
	}
	obj, err := ctor(nil, c.toEngineArgs(args)...)
	if err != nil {
		return nil, c.translate(err, nil)
	}
	return c.wrap(obj), nil
}

// IsConstructor reports whether f can be used with new. Arrow functions,
// methods and most natives cannot.
func (f *Function) IsConstructor() bool {
	f.ctx.check()
	_, ok := goja.AssertConstructor(f.obj)
	return ok
}

// Name is the function's name property; empty when absent or not a string.
func (f *Function) Name() string {
	v, err := f.Get(Key("name"))
	if err != nil || !v.IsString() {
		return ""
	}
	return v.str
}

func (f *Function) displayName() string {
	if n := f.Name(); n != "" {
		return n
	}
	return "anonymous"
}

// Length is the function's length property, the count of parameters before
// the first default or rest parameter.
func (f *Function) Length() int {
	v, err := f.Get(Key("length"))
	if err != nil || !v.IsNumber() {
		return 0
	}
	return int(v.num)
}

// NArgs is the number of declared formal parameters, defaulted ones
// included and the rest parameter excluded. For native functions it falls
// back to Length.
func (f *Function) NArgs() int {
	src, err := f.Source()
	if err == nil {
		if n, ok := countFormals(src); ok {
			return n
		}
	}
	return f.Length()
}

// Source is Function.prototype.toString of f.
func (f *Function) Source() (string, error) {
	c := f.ctx
	c.check()
	res, err := c.invoke(c.in.functionToString, f.obj)
	if err != nil {
		return "", err
	}
	return stringFromEngine(res), nil
}

// countFormals parses function source text and counts its parameters.
// Method shorthand only parses inside an object literal, so that is tried
// second. Native function text does not parse either way.
func countFormals(src string) (int, bool) {
	if expr, ok := parseExpression("(" + src + "\n)"); ok {
		if n, ok := formalsOf(expr); ok {
			return n, true
		}
	}
	if expr, ok := parseExpression("({" + src + "\n})"); ok {
		if lit, ok := expr.(*ast.ObjectLiteral); ok && len(lit.Value) == 1 {
			if prop, ok := lit.Value[0].(*ast.PropertyKeyed); ok {
				return formalsOf(prop.Value)
			}
		}
	}
	return 0, false
}

func parseExpression(src string) (ast.Expression, bool) {
	prog, err := parser.ParseFile(nil, "", src, 0)
	if err != nil || len(prog.Body) != 1 {
		return nil, false
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, false
	}
	return stmt.Expression, true
}

func formalsOf(expr ast.Expression) (int, bool) {
	switch fn := expr.(type) {
	case *ast.FunctionLiteral:
		return paramCount(fn.ParameterList), true
	case *ast.ArrowFunctionLiteral:
		return paramCount(fn.ParameterList), true
	case *ast.ClassLiteral:
		for _, el := range fn.Body {
			m, ok := el.(*ast.MethodDefinition)
			if !ok || m.Static || m.Computed {
				continue
			}
			if isConstructorKey(m.Key) && m.Body != nil {
				return paramCount(m.Body.ParameterList), true
			}
		}
		return 0, true
	}
	return 0, false
}

func isConstructorKey(key ast.Expression) bool {
	switch k := key.(type) {
	case *ast.StringLiteral:
		return k.Value == "constructor"
	case *ast.Identifier:
		return k.Name == "constructor"
	}
	return false
}

func paramCount(pl *ast.ParameterList) int {
	if pl == nil {
		return 0
	}
	return len(pl.List)
}
