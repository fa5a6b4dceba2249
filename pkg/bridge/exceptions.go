package bridge

import (
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"
	"github.com/dop251/goja"

	"jsexec/pkg/errors"
	"jsexec/pkg/source"
)

// syntaxMessage splits the parser's "file: Line L:C message" text.
var syntaxMessage = regexp2.MustCompile(
	`^(?:SyntaxError: )?(?:(?<file>.*?): )?Line (?<line>\d+):(?<col>\d+) (?<msg>.*?)(?: \(and \d+ more errors\))?$`,
	regexp2.Singleline)

const stackOverflowMessage = "Maximum call stack size exceeded"

// parseSyntaxMessage extracts position and bare message from parser text.
// Text that does not follow the parser format is returned unchanged.
func parseSyntaxMessage(text string) (msg string, line, col int) {
	m, err := syntaxMessage.FindStringMatch(text)
	if err != nil || m == nil {
		return text, 0, 0
	}
	line, _ = strconv.Atoi(m.GroupByName("line").String())
	col, _ = strconv.Atoi(m.GroupByName("col").String())
	return m.GroupByName("msg").String(), line, col
}

// translate turns an engine failure into a bridge error. src is the script
// being evaluated, if any; it anchors positions and stack frames.
func (c *Context) translate(err error, src *source.SourceFile) error {
	if err == nil {
		return nil
	}
	var (
		syntaxErr   *goja.CompilerSyntaxError
		refErr      *goja.CompilerReferenceError
		overflow    *goja.StackOverflowError
		interrupted *goja.InterruptedError
		exception   *goja.Exception
	)
	switch {
	case stderrors.As(err, &syntaxErr):
		msg, line, col := parseSyntaxMessage(syntaxErr.Message)
		return &errors.SyntaxError{
			Position: errors.Position{Line: line, Column: col, Source: src},
			Msg:      msg,
			Trace:    errors.Trace{Name: "SyntaxError"},
			Cause:    err,
		}
	case stderrors.As(err, &refErr):
		return &errors.ReferenceError{
			Position: errors.Position{Source: src},
			Msg:      refErr.Message,
			Trace:    errors.Trace{Name: "ReferenceError"},
			Cause:    err,
		}
	case stderrors.As(err, &overflow):
		frames := framesOf(overflow.Stack(), src)
		return &errors.RangeError{
			Position: positionOf(frames, src),
			Msg:      stackOverflowMessage,
			Trace:    errors.Trace{Name: "RangeError", Frames: frames},
			Cause:    err,
		}
	case stderrors.As(err, &interrupted):
		c.vm.ClearInterrupt()
		frames := framesOf(interrupted.Stack(), src)
		return &errors.ScriptException{
			Position: positionOf(frames, src),
			Msg:      fmt.Sprint("execution interrupted: ", interrupted.Value()),
			Trace:    errors.Trace{Frames: frames},
			Cause:    err,
		}
	case stderrors.As(err, &exception):
		return c.translateThrow(exception, src)
	}
	return &errors.ScriptException{Msg: err.Error(), Cause: err}
}

// translateThrow classifies a thrown value by its prototype chain.
func (c *Context) translateThrow(ex *goja.Exception, src *source.SourceFile) error {
	frames := framesOf(ex.Stack(), src)
	pos := positionOf(frames, src)
	thrown := c.fromEngine(ex.Value())
	trace := errors.Trace{Frames: frames, Thrown: thrown}

	obj, isObj := ex.Value().(*goja.Object)
	kind := errors.KindScript
	var msg string
	if isObj {
		kind = c.classifyError(obj)
		if kind != errors.KindNone {
			trace.Name = c.peekString(obj, "name")
			msg = c.peekString(obj, "message")
		} else {
			kind = errors.KindScript
			msg = c.peekString(obj, "")
		}
	} else if ex.Value() != nil {
		msg = thrown.String()
	}

	switch kind {
	case errors.KindSyntax:
		m, line, col := parseSyntaxMessage(msg)
		if line > 0 {
			msg = m
			pos = errors.Position{Line: line, Column: col, Source: src}
		}
		return &errors.SyntaxError{Position: pos, Msg: msg, Trace: trace, Cause: ex}
	case errors.KindReference:
		return &errors.ReferenceError{Position: pos, Msg: msg, Trace: trace, Cause: ex}
	case errors.KindType:
		return &errors.TypeError{Position: pos, Msg: msg, Trace: trace, Cause: ex}
	case errors.KindRange:
		return &errors.RangeError{Position: pos, Msg: msg, Trace: trace, Cause: ex}
	}
	return &errors.ScriptException{Position: pos, Msg: msg, Trace: trace, Cause: ex}
}

// classifyError walks obj's prototype chain looking for one of the error
// prototypes captured at bootstrap. It returns KindNone for non-errors.
func (c *Context) classifyError(obj *goja.Object) errors.Kind {
	base := c.in.errorProtos[errors.KindScript]
	for p, depth := obj.Prototype(), 0; p != nil && depth < 64; p, depth = p.Prototype(), depth+1 {
		for _, k := range []errors.Kind{errors.KindSyntax, errors.KindReference, errors.KindType, errors.KindRange} {
			if proto := c.in.errorProtos[k]; proto != nil && p.SameAs(proto) {
				return k
			}
		}
		if base != nil && p.SameAs(base) {
			return errors.KindScript
		}
	}
	return errors.KindNone
}

// peekString reads a property as a string without letting a throwing getter
// escape. An empty name converts the object itself.
func (c *Context) peekString(obj *goja.Object, name string) string {
	var s string
	ex := c.vm.Try(func() {
		if name == "" {
			s = obj.String()
			return
		}
		v := obj.Get(name)
		if v != nil && !goja.IsUndefined(v) {
			s = v.String()
		}
	})
	if ex != nil {
		return ""
	}
	return s
}

func framesOf(stack []goja.StackFrame, src *source.SourceFile) []errors.StackFrame {
	frames := make([]errors.StackFrame, 0, len(stack))
	for i := range stack {
		f := &stack[i]
		p := f.Position()
		script := p.Filename
		if script == "" {
			script = f.SrcName()
		}
		name := f.FuncName()
		if name == "<anonymous>" && i == len(stack)-1 && src != nil {
			// The outermost frame of an evaluated script is top-level code.
			name = ""
		}
		frames = append(frames, errors.StackFrame{
			Function: name,
			Script:   script,
			Line:     p.Line,
			Column:   p.Column,
		})
	}
	return frames
}

// positionOf picks the innermost frame that lies in src, or the innermost
// frame with a line when src is unknown.
func positionOf(frames []errors.StackFrame, src *source.SourceFile) errors.Position {
	for _, f := range frames {
		if f.Line == 0 {
			continue
		}
		if src == nil {
			return errors.Position{Line: f.Line, Column: f.Column}
		}
		if f.Script == src.DisplayPath() {
			return errors.Position{Line: f.Line, Column: f.Column, Source: src}
		}
	}
	return errors.Position{Source: src}
}

// throwable converts a host error into the value thrown into script.
func (c *Context) throwable(err error) goja.Value {
	var tr errors.Tracer
	if stderrors.As(err, &tr) {
		if v, ok := tr.EngineTrace().Thrown.(Value); ok {
			if o, isObj := v.ref.(*Object); !isObj || o.ctx == c {
				return c.toEngine(v)
			}
		}
	}

	msg := err.Error()
	var be errors.BridgeError
	if stderrors.As(err, &be) {
		msg = be.Message()
	}

	var ctor *goja.Object
	switch kind := errors.KindOf(err); kind {
	case errors.KindSyntax, errors.KindReference, errors.KindType, errors.KindRange:
		ctor = c.in.errorCtors[kind]
	case errors.KindConversion:
		ctor = c.in.errorCtors[errors.KindType]
	}
	if ctor == nil {
		return c.vm.NewGoError(err)
	}
	obj, cerr := c.vm.New(ctor, c.vm.ToValue(msg))
	if cerr != nil {
		return c.vm.NewGoError(err)
	}
	return obj
}
