package driver

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"jsexec/pkg/bridge"
)

// InstallConsole binds a minimal console global writing to the session's
// output streams: log, info and debug go to the result writer, warn and
// error to the diagnostics writer.
func (s *Session) InstallConsole() error {
	printer := func(w func() io.Writer) func(args ...bridge.Value) {
		return func(args ...bridge.Value) {
			fmt.Fprintln(w(), formatConsoleArgs(args))
		}
	}
	stdout := func() io.Writer { return s.out }
	stderr := func() io.Writer { return s.errOut }

	_, err := s.DeclareObject("console", func(b *ObjectBuilder) {
		b.Function("log", printer(stdout))
		b.Function("info", printer(stdout))
		b.Function("debug", printer(stdout))
		b.Function("warn", printer(stderr))
		b.Function("error", printer(stderr))
	})
	return err
}

// formatConsoleArgs joins arguments with spaces. Strings print raw, other
// values as the REPL shows them.
func formatConsoleArgs(args []bridge.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.IsString() {
			parts[i] = a.String()
		} else {
			parts[i] = a.Inspect()
		}
	}
	return strings.Join(parts, " ")
}

// ProcessOptions configure the process global.
type ProcessOptions struct {
	Argv []string
	// Exit replaces os.Exit for process.exit.
	Exit func(code int)
}

// InstallProcess binds a Node-style process global: argv, env, platform,
// pid, cwd(), exit(code) and memoryUsage().
func (s *Session) InstallProcess(opts ProcessOptions) error {
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	argv := opts.Argv
	if argv == nil {
		argv = []string{}
	}

	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}

	_, err := s.DeclareObject("process", func(b *ObjectBuilder) {
		b.Const("argv", argv)
		b.Const("platform", runtime.GOOS)
		b.Const("pid", os.Getpid())
		b.Const("env", env)
		b.Function("cwd", os.Getwd)
		b.Function("exit", func(code int) { exit(code) })
		b.Function("memoryUsage", func() map[string]uint64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return map[string]uint64{
				"heapUsed":  m.HeapAlloc,
				"heapTotal": m.HeapSys,
				"rss":       m.Sys,
			}
		})
	})
	return err
}
