package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jsexec/pkg/bridge"
)

func runCommand(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr strings.Builder
	code := run(args, os.Stdin, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunExitCodes(t *testing.T) {
	script := filepath.Join(t.TempDir(), "hello.js")
	if err := os.WriteFile(script, []byte("console.log('hello from', process.argv.length)"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    string
		wantErrOut string
	}{
		{"expression", []string{"-e", "1 + 2"}, exitOK, "3\n", ""},
		{"uncaught error", []string{"-e", "throw new TypeError('boom')"}, exitSoftware, "", "TypeError"},
		{"script file", []string{script}, exitOK, "hello from 2\n", ""},
		{"missing file", []string{filepath.Join(t.TempDir(), "absent.js")}, exitSoftware, "", "Failed to read file"},
		{"too many args", []string{"a.js", "b.js"}, exitUsage, "", "Usage"},
		{"unknown flag", []string{"-nope"}, exitUsage, "", "-nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCommand(t, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, errOut)
			}
			if tt.wantOut != "" && out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
			if tt.wantErrOut != "" && !strings.Contains(errOut, tt.wantErrOut) {
				t.Errorf("stderr %q does not mention %q", errOut, tt.wantErrOut)
			}
		})
	}
}

func TestRunClosesSessionOnFailure(t *testing.T) {
	rt, err := bridge.Acquire(nil)
	if err != nil {
		t.Fatal(err)
	}
	before := rt.LiveContexts()
	if code, _, _ := runCommand(t, "-e", "undefinedName"); code != exitSoftware {
		t.Fatalf("exit code = %d, want %d", code, exitSoftware)
	}
	if got := rt.LiveContexts(); got != before {
		t.Errorf("live contexts after a failed run = %d, want %d", got, before)
	}
}
