package driver

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jsexec/pkg/bridge"
	"jsexec/pkg/config"
	"jsexec/pkg/errors"
	"jsexec/pkg/source"
)

const debugDriver = false

func debugPrintf(format string, args ...interface{}) {
	if debugDriver {
		fmt.Printf(format, args...)
	}
}

// Session is a persistent host session. It keeps one Context alive between
// evaluations, so bindings created by one RunString are visible to the next.
type Session struct {
	rt  *bridge.Runtime
	ctx *bridge.Context

	out    io.Writer
	errOut io.Writer
}

// NewSession attaches to the process runtime, initializing it with cfg on
// first use, and opens a fresh context.
func NewSession(cfg *config.Config) (*Session, error) {
	rt, err := bridge.Acquire(cfg)
	if err != nil {
		return nil, err
	}
	ctx, err := rt.NewContext()
	if err != nil {
		return nil, err
	}
	debugPrintf("// [Driver] session on context %d\n", ctx.ID())
	return &Session{rt: rt, ctx: ctx, out: os.Stdout, errOut: os.Stderr}, nil
}

func (s *Session) Context() *bridge.Context { return s.ctx }

func (s *Session) Runtime() *bridge.Runtime { return s.rt }

// SetOutput redirects results and diagnostics printed by DisplayResult.
func (s *Session) SetOutput(out, errOut io.Writer) {
	s.out = out
	s.errOut = errOut
}

// ErrOutput is where diagnostics go.
func (s *Session) ErrOutput() io.Writer { return s.errOut }

// Interrupt stops whatever script the session is running; see
// bridge.Context.Interrupt.
func (s *Session) Interrupt(reason string) {
	s.ctx.Interrupt(reason)
}

// Close releases the session's context. The runtime stays up.
func (s *Session) Close() {
	s.ctx.Close()
}

// RunString evaluates sourceCode in the session under the configured script
// name.
func (s *Session) RunString(sourceCode string) (bridge.Value, error) {
	return s.ctx.CompileAndEvaluateScript(sourceCode)
}

// RunSource evaluates an already loaded source.
func (s *Session) RunSource(src *source.SourceFile) (bridge.Value, error) {
	return s.ctx.EvaluateSource(src)
}

// RunFile reads filename and evaluates it as a classic script; .ts files are
// compiled first unless TypeScript is disabled. The loaded source is
// returned for error display even when evaluation fails.
func (s *Session) RunFile(filename string) (bridge.Value, *source.SourceFile, error) {
	src, err := source.ReadFile(filename)
	if err != nil {
		return bridge.Undefined(), nil, err
	}
	if s.rt.Config().TypeScript && strings.EqualFold(filepath.Ext(filename), ".ts") {
		debugPrintf("// [Driver] compiling %s as TypeScript\n", filename)
		v, err := s.ctx.EvaluateTypeScriptSource(src)
		return v, src, err
	}
	v, err := s.ctx.EvaluateSource(src)
	return v, src, err
}

// RunOptions configures optional diagnostic output.
type RunOptions struct {
	ShowStack      bool // print the full stack trace of script errors
	ShowCacheStats bool // print program cache statistics after the run
}

// RunCode runs sourceCode with the given options and displays the outcome.
// Returns true if execution completed without any errors.
func (s *Session) RunCode(sourceCode string, options RunOptions) bool {
	value, err := s.RunString(sourceCode)
	ok := s.Report(sourceCode, value, err, options)
	if options.ShowCacheStats {
		s.PrintCacheStats()
	}
	return ok
}

// DisplayResult prints value, or err with the offending source line.
// Returns true if there was no error.
func (s *Session) DisplayResult(sourceCode string, value bridge.Value, err error) bool {
	return s.Report(sourceCode, value, err, RunOptions{})
}

// Report is DisplayResult with diagnostic options; cache statistics are
// left to the caller.
func (s *Session) Report(sourceCode string, value bridge.Value, err error, options RunOptions) bool {
	if err != nil {
		var be errors.BridgeError
		if stderrors.As(err, &be) {
			errors.DisplayErrors(s.errOut, sourceCode, []errors.BridgeError{be})
			if options.ShowStack {
				fmt.Fprintln(s.errOut, errors.StackTrace(err))
			}
		} else {
			fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}
		return false
	}

	// Only print non-undefined results in REPL-like contexts
	if !value.IsUndefined() {
		fmt.Fprintln(s.out, value.Inspect())
	}
	return true
}

// PrintCacheStats writes the runtime program cache counters to the
// diagnostics writer.
func (s *Session) PrintCacheStats() {
	st := s.rt.CacheStats()
	fmt.Fprintln(s.errOut, "\n=== Program Cache Statistics ===")
	fmt.Fprintf(s.errOut, "entries: %d  hits: %d  misses: %d  evictions: %d\n",
		st.Entries, st.Hits, st.Misses, st.Evictions)
	fmt.Fprintln(s.errOut, "================================")
}

// RunString evaluates sourceCode in a fresh session, printing the result or
// any error. Returns true if execution completed without any errors.
func RunString(sourceCode string) bool {
	return RunStringWithOptions(sourceCode, RunOptions{})
}

// RunStringWithOptions is like RunString but accepts options for diagnostic output.
func RunStringWithOptions(sourceCode string, options RunOptions) bool {
	s, err := NewSession(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	defer s.Close()
	return s.RunCode(sourceCode, options)
}

// RunFile evaluates filename in a fresh session and displays the outcome.
func RunFile(filename string, options RunOptions) bool {
	s, err := NewSession(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	defer s.Close()

	value, src, err := s.RunFile(filename)
	if src == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	ok := s.Report(src.Content, value, err, options)
	if options.ShowCacheStats {
		s.PrintCacheStats()
	}
	return ok
}
