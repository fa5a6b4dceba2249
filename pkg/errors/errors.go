package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"
)

// Kind classifies every failure the bridge reports.
type Kind int

const (
	KindNone Kind = iota // not a bridge error
	KindSyntax
	KindReference
	KindType
	KindRange
	KindScript
	KindConversion
	KindInvariant
)

var kindNames = [...]string{
	KindNone:       "None",
	KindSyntax:     "SyntaxError",
	KindReference:  "ReferenceError",
	KindType:       "TypeError",
	KindRange:      "RangeError",
	KindScript:     "ScriptException",
	KindConversion: "ConversionError",
	KindInvariant:  "InvariantViolation",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name such as "TypeError" back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != KindNone {
			return Kind(k), true
		}
	}
	return KindNone, false
}

// BridgeError is the interface implemented by all bridge errors.
type BridgeError interface {
	error
	Pos() Position
	Kind() Kind
	// Message returns the error text without position or stack information.
	Message() string
	Unwrap() error
}

// KindOf returns the classification of err, or KindNone for errors that did
// not originate in the bridge.
func KindOf(err error) Kind {
	var be BridgeError
	if stderrors.As(err, &be) {
		return be.Kind()
	}
	return KindNone
}

// Trace is what the engine reported alongside an uncaught throw.
type Trace struct {
	Name   string       // constructor name of the thrown error ("TypeError", "Error", ...), empty for non-Error values
	Frames []StackFrame // innermost first
	Thrown any          // the thrown value as a bridge value, nil when unavailable
}

func (t Trace) header(msg string) string {
	if t.Name == "" {
		return "Uncaught " + msg
	}
	if msg == "" {
		return "Uncaught " + t.Name
	}
	return "Uncaught " + t.Name + ": " + msg
}

func (t Trace) short(msg string) string {
	h := t.header(msg)
	if len(t.Frames) > 0 {
		h += " at " + t.Frames[0].String()
	}
	return h
}

// Tracer is implemented by errors that carry an engine stack.
type Tracer interface {
	EngineTrace() Trace
}

// StackTrace renders err the way an engine console prints an uncaught
// exception: a header line followed by one "at" line per frame. Errors
// without a trace render as their Error text.
func StackTrace(err error) string {
	var tr Tracer
	if !stderrors.As(err, &tr) {
		return err.Error()
	}
	var be BridgeError
	msg := err.Error()
	if stderrors.As(err, &be) {
		msg = be.Message()
	}
	t := tr.EngineTrace()
	var sb strings.Builder
	sb.WriteString(t.header(msg))
	for _, f := range t.Frames {
		sb.WriteString("\n    at ")
		sb.WriteString(f.String())
	}
	return sb.String()
}

// --- Concrete Error Types ---

// SyntaxError is a parse failure reported by the engine.
type SyntaxError struct {
	Position
	Msg string
	Trace
	Cause error // Underlying cause, if any
}

func (e *SyntaxError) Error() string {
	if e.IsValid() {
		return fmt.Sprintf("SyntaxError: %s (%s)", e.Msg, e.Position)
	}
	return "SyntaxError: " + e.Msg
}
func (e *SyntaxError) Pos() Position      { return e.Position }
func (e *SyntaxError) Kind() Kind         { return KindSyntax }
func (e *SyntaxError) Message() string    { return e.Msg }
func (e *SyntaxError) Unwrap() error      { return e.Cause }
func (e *SyntaxError) EngineTrace() Trace { return e.Trace }
func (e *SyntaxError) CausedBy(cause error) *SyntaxError {
	e.Cause = cause
	return e
}

// ReferenceError is an uncaught ReferenceError, e.g. reading an unbound identifier.
type ReferenceError struct {
	Position
	Msg string
	Trace
	Cause error
}

func (e *ReferenceError) Error() string      { return e.short(e.Msg) }
func (e *ReferenceError) Pos() Position      { return e.Position }
func (e *ReferenceError) Kind() Kind         { return KindReference }
func (e *ReferenceError) Message() string    { return e.Msg }
func (e *ReferenceError) Unwrap() error      { return e.Cause }
func (e *ReferenceError) EngineTrace() Trace { return e.Trace }
func (e *ReferenceError) CausedBy(cause error) *ReferenceError {
	e.Cause = cause
	return e
}

// TypeError is an uncaught TypeError, e.g. property access on null.
type TypeError struct {
	Position
	Msg string
	Trace
	Cause error
}

func (e *TypeError) Error() string      { return e.short(e.Msg) }
func (e *TypeError) Pos() Position      { return e.Position }
func (e *TypeError) Kind() Kind         { return KindType }
func (e *TypeError) Message() string    { return e.Msg }
func (e *TypeError) Unwrap() error      { return e.Cause }
func (e *TypeError) EngineTrace() Trace { return e.Trace }
func (e *TypeError) CausedBy(cause error) *TypeError {
	e.Cause = cause
	return e
}

// RangeError is an uncaught RangeError, including engine stack exhaustion.
type RangeError struct {
	Position
	Msg string
	Trace
	Cause error
}

func (e *RangeError) Error() string      { return e.short(e.Msg) }
func (e *RangeError) Pos() Position      { return e.Position }
func (e *RangeError) Kind() Kind         { return KindRange }
func (e *RangeError) Message() string    { return e.Msg }
func (e *RangeError) Unwrap() error      { return e.Cause }
func (e *RangeError) EngineTrace() Trace { return e.Trace }
func (e *RangeError) CausedBy(cause error) *RangeError {
	e.Cause = cause
	return e
}

// ScriptException is any other uncaught throw: a user Error, an error
// subclass without its own kind, or an arbitrary thrown value.
type ScriptException struct {
	Position
	Msg string
	Trace
	Cause error
}

func (e *ScriptException) Error() string      { return e.short(e.Msg) }
func (e *ScriptException) Pos() Position      { return e.Position }
func (e *ScriptException) Kind() Kind         { return KindScript }
func (e *ScriptException) Message() string    { return e.Msg }
func (e *ScriptException) Unwrap() error      { return e.Cause }
func (e *ScriptException) EngineTrace() Trace { return e.Trace }
func (e *ScriptException) CausedBy(cause error) *ScriptException {
	e.Cause = cause
	return e
}

// ConversionError is raised synchronously by value and BigInt construction
// or extraction, e.g. an invalid BigInt literal or a width overflow.
type ConversionError struct {
	Msg   string
	Input string // offending input, if any
	Cause error
}

func (e *ConversionError) Error() string {
	if e.Input != "" {
		return fmt.Sprintf("ConversionError: %s: %q", e.Msg, e.Input)
	}
	return "ConversionError: " + e.Msg
}
func (e *ConversionError) Pos() Position   { return Position{} }
func (e *ConversionError) Kind() Kind      { return KindConversion }
func (e *ConversionError) Message() string { return e.Msg }
func (e *ConversionError) Unwrap() error   { return e.Cause }
func (e *ConversionError) CausedBy(cause error) *ConversionError {
	e.Cause = cause
	return e
}

// InvariantViolation marks misuse of the bridge such as touching a handle
// after its Context was closed. It is raised by panic, not returned.
type InvariantViolation struct {
	Msg   string
	Cause error
}

func (e *InvariantViolation) Error() string   { return "invariant violation: " + e.Msg }
func (e *InvariantViolation) Pos() Position   { return Position{} }
func (e *InvariantViolation) Kind() Kind      { return KindInvariant }
func (e *InvariantViolation) Message() string { return e.Msg }
func (e *InvariantViolation) Unwrap() error   { return e.Cause }
func (e *InvariantViolation) CausedBy(cause error) *InvariantViolation {
	e.Cause = cause
	return e
}

// --- Error Reporting ---

// DisplayErrors prints errs to w in a user-friendly format, including the
// source line, a position marker and the engine stack when there is one.
func DisplayErrors(w io.Writer, source string, errs []BridgeError) {
	if len(errs) == 0 {
		return
	}

	lines := strings.Split(source, "\n")

	for _, err := range errs {
		pos := err.Pos()
		kind := err.Kind()
		msg := err.Message()

		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s: %s\n", kind, msg)
		} else {
			sourceLine := strings.TrimRight(lines[lineIdx], "\r\n\t ")
			fmt.Fprintf(w, "%s at %d:%d: %s\n", kind, pos.Line, pos.Column, msg)
			fmt.Fprintf(w, "  %s\n", sourceLine)
			fmt.Fprintf(w, "  %s^\n", markerPad(sourceLine, pos.Column))
		}

		if tr, ok := err.(Tracer); ok {
			for _, f := range tr.EngineTrace().Frames {
				fmt.Fprintf(w, "    at %s\n", f)
			}
		}
		fmt.Fprintln(w)
	}
}

// markerPad returns the blank run that puts a caret under the 1-based column
// col of line, counting wide runes as two terminal cells and keeping tabs.
func markerPad(line string, col int) string {
	var sb strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		switch {
		case r == '\t':
			sb.WriteByte('\t')
		case isWide(r):
			sb.WriteString("  ")
		default:
			sb.WriteByte(' ')
		}
		i++
	}
	for ; i < col; i++ {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	}
	return false
}
