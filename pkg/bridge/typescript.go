package bridge

import (
	"github.com/evanw/esbuild/pkg/api"
	"github.com/go-sourcemap/sourcemap"

	"jsexec/pkg/errors"
	"jsexec/pkg/source"
)

// SourceMap relates positions in JavaScript produced by CompileTypeScript to
// the TypeScript it was compiled from.
type SourceMap struct {
	raw      []byte
	consumer *sourcemap.Consumer
}

// JSON returns the map in source map v3 format.
func (m *SourceMap) JSON() []byte { return m.raw }

// Original maps a generated position (1-based line, 0-based column) to the
// source file, line and column it came from.
func (m *SourceMap) Original(line, column int) (file string, origLine, origColumn int, ok bool) {
	file, _, origLine, origColumn, ok = m.consumer.Source(line, column)
	return file, origLine, origColumn, ok
}

func (m *SourceMap) String() string {
	return "SourceMap(" + m.consumer.File() + ")"
}

// CompileTypeScript strips types from src and lowers syntax the engine does
// not run, returning the JavaScript and a source map back to filename.
// Nothing is type-checked. Parse failures are SyntaxErrors positioned in src.
func (r *Runtime) CompileTypeScript(src, filename string) (string, *SourceMap, error) {
	if filename == "" {
		filename = source.DefaultName
	}
	res, err := transpileTypeScript(source.NewNamedSource(filename, src), api.SourceMapExternal)
	if err != nil {
		return "", nil, err
	}
	consumer, err := sourcemap.Parse(filename+".map", res.Map)
	if err != nil {
		return "", nil, &errors.ConversionError{Msg: "unreadable source map: " + err.Error(), Input: filename}
	}
	r.logger().Debug("compiled typescript", "script", filename, "bytes", len(res.Code))
	return string(res.Code), &SourceMap{raw: res.Map, consumer: consumer}, nil
}

// EvaluateTypeScript compiles src and runs it like EvaluateScript. The
// generated code carries an inline source map, so stack frames and error
// positions refer to the TypeScript text.
func (c *Context) EvaluateTypeScript(name, src string) (Value, error) {
	return c.EvaluateTypeScriptSource(source.NewNamedSource(name, src))
}

func (c *Context) EvaluateTypeScriptSource(src *source.SourceFile) (Value, error) {
	c.check()
	res, err := transpileTypeScript(src, api.SourceMapInline)
	if err != nil {
		return Undefined(), err
	}
	return c.run(src, string(res.Code))
}

func transpileTypeScript(src *source.SourceFile, sm api.SourceMap) (api.TransformResult, error) {
	res := api.Transform(src.Content, api.TransformOptions{
		Loader:     api.LoaderTS,
		Sourcefile: src.DisplayPath(),
		Sourcemap:  sm,
		Target:     api.ES2020,
	})
	if len(res.Errors) > 0 {
		return res, typeScriptError(src, res.Errors[0])
	}
	return res, nil
}

func typeScriptError(src *source.SourceFile, m api.Message) error {
	e := &errors.SyntaxError{
		Position: errors.Position{Source: src},
		Msg:      m.Text,
		Trace:    errors.Trace{Name: "SyntaxError"},
	}
	if loc := m.Location; loc != nil {
		e.Position.Line = loc.Line
		e.Position.Column = loc.Column + 1
	}
	return e
}
