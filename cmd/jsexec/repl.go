package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja/parser"
	"github.com/peterh/liner"

	"jsexec/pkg/config"
	"jsexec/pkg/driver"
)

const (
	promptMain = "> "
	promptCont = "... "
)

func runRepl(s *driver.Session, cfg *config.Config, options driver.RunOptions) {
	fmt.Println("jsexec (Ctrl+D to exit, .help for commands)")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath(cfg.HistoryFile)
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		code, ok := readUntilParsed(ln)
		if !ok {
			fmt.Println()
			return
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ".") {
			if !replCommand(s, trimmed) {
				return
			}
			continue
		}
		_ = s.RunCode(code, options)
	}
}

// replCommand handles dot commands; false ends the session.
func replCommand(s *driver.Session, cmd string) bool {
	switch cmd {
	case ".exit", ".quit":
		return false
	case ".stats":
		s.PrintCacheStats()
	case ".help":
		fmt.Println(".exit   leave the REPL")
		fmt.Println(".stats  show program cache statistics")
	default:
		fmt.Printf("unknown command %s. Type .help for the list.\n", cmd)
	}
	return true
}

// readUntilParsed reads lines until they parse, or fail to parse for a
// reason other than running out of input.
func readUntilParsed(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C drops the pending input
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ".") || !isIncomplete(src) {
			return src, true
		}
	}
}

// isIncomplete reports whether src fails to parse only because it ends too
// early, as with an open block or a dangling operator.
func isIncomplete(src string) bool {
	_, err := parser.ParseFile(nil, "<repl>", src, 0)
	if err == nil {
		return false
	}
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return strings.Contains(list[0].Message, "Unexpected end of input")
	}
	return strings.Contains(err.Error(), "Unexpected end of input")
}

func historyPath(name string) string {
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, name[2:])
	}
	return name
}
