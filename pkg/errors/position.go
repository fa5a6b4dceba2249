package errors

import (
	"fmt"

	"jsexec/pkg/source"
)

// Position represents a specific location in script source.
// Line and Column are 1-based; a zero Line means the engine reported no position.
type Position struct {
	Line   int
	Column int
	Source *source.SourceFile // Reference to the source file, nil when unknown
}

// IsValid reports whether the position points at a real line.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	name := source.DefaultName
	if p.Source != nil {
		name = p.Source.DisplayPath()
	}
	if !p.IsValid() {
		return name
	}
	return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Column)
}

// StackFrame is one entry of an engine call stack.
type StackFrame struct {
	Function string // empty for top-level code
	Script   string // source identifier, e.g. "inline.js"
	Line     int
	Column   int
}

func (f StackFrame) String() string {
	loc := f.Script
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", f.Script, f.Line, f.Column)
	}
	if f.Function == "" {
		return loc
	}
	return fmt.Sprintf("%s (%s)", f.Function, loc)
}
