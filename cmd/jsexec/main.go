package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"jsexec/pkg/config"
	"jsexec/pkg/driver"
	"jsexec/pkg/source"
)

// Exit codes follow sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitSoftware = 70
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the whole command; it returns the exit status so deferred cleanup
// happens before the process ends.
func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jsexec", flag.ContinueOnError)
	fs.SetOutput(stderr)
	exprFlag := fs.String("e", "", "Run the given expression and exit")
	configFlag := fs.String("config", "", "Load runtime settings from a .yaml or .toml file")
	stackFlag := fs.Bool("stack", false, "Print the full stack trace of uncaught errors")
	cacheStatsFlag := fs.Bool("cache-stats", false, "Show program cache statistics after execution")
	dumpConfigFlag := fs.Bool("dump-config", false, "Print the effective configuration and exit")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg := config.Default()
	if *configFlag != "" {
		loaded, err := config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		cfg = loaded
	}
	if *dumpConfigFlag {
		out, err := cfg.Encode()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitSoftware
		}
		stdout.Write(out)
		return exitOK
	}

	options := driver.RunOptions{ShowStack: *stackFlag, ShowCacheStats: *cacheStatsFlag}

	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "Usage: jsexec [script] or jsexec -e \"expression\"\n")
		return exitUsage
	}

	session, err := driver.NewSession(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitSoftware
	}
	defer session.Close()
	session.SetOutput(stdout, stderr)

	status := exitOK
	exit := func(code int) {
		session.Close()
		os.Exit(code)
	}
	if err := installGlobals(session, fs.Args(), exit); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitSoftware
	}

	stopSignals := interruptOnSignal(session)
	defer stopSignals()

	switch {
	case *exprFlag != "":
		if !session.RunCode(*exprFlag, options) {
			status = exitSoftware
		}
	case fs.NArg() == 1:
		if !runFile(session, fs.Arg(0), options) {
			status = exitSoftware
		}
	case !term.IsTerminal(int(stdin.Fd())):
		// Piped input runs as a single script
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading input: %s\n", err)
			return exitSoftware
		}
		value, err := session.RunSource(source.NewStdinSource(string(data)))
		if !session.Report(string(data), value, err, options) {
			status = exitSoftware
		}
	default:
		runRepl(session, cfg, options)
	}
	return status
}

func installGlobals(s *driver.Session, args []string, exit func(int)) error {
	if err := s.InstallConsole(); err != nil {
		return err
	}
	argv := append([]string{os.Args[0]}, args...)
	return s.InstallProcess(driver.ProcessOptions{Argv: argv, Exit: exit})
}

// interruptOnSignal turns SIGINT into an interrupt of the running script
// until the returned func is called.
func interruptOnSignal(s *driver.Session) func() {
	sig := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sig, os.Interrupt)
	go func() {
		for {
			select {
			case <-sig:
				s.Interrupt("SIGINT")
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(sig)
		close(done)
	}
}

func runFile(s *driver.Session, filename string, options driver.RunOptions) bool {
	value, src, err := s.RunFile(filename)
	if src == nil {
		fmt.Fprintf(s.ErrOutput(), "Failed to read file '%s': %s\n", filename, err)
		return false
	}
	ok := s.Report(src.Content, value, err, options)
	if options.ShowCacheStats {
		s.PrintCacheStats()
	}
	return ok
}
