package driver

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dlclark/regexp2"

	"jsexec/pkg/errors"
)

// Expectation is the outcome a script declares in its leading comments.
type Expectation struct {
	Error   bool
	Kind    errors.Kind // expected error kind
	Value   string      // Inspect output, or a message prefix for errors
	Comment string
}

var expectRegex = regexp2.MustCompile(`^//\s*(?<type>expect(?:_error)?):\s*(?<value>.*)$`, regexp2.None)

// parseExpectation extracts the expectation from the script's comments.
// Looks for lines like:
//
//	// expect: [1, 2]
//	// expect_error: TypeError
//	// expect_error: ReferenceError: x is not defined
func parseExpectation(content string) (*Expectation, error) {
	for _, line := range strings.Split(content, "\n") {
		m, err := expectRegex.FindStringMatch(strings.TrimSpace(line))
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m.GroupByName("value").String())
		exp := &Expectation{Comment: line}
		if m.GroupByName("type").String() == "expect" {
			exp.Value = value
			return exp, nil
		}

		exp.Error = true
		name, msg, _ := strings.Cut(value, ":")
		kind, ok := errors.ParseKind(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown error kind %q", name)
		}
		exp.Kind = kind
		exp.Value = strings.TrimSpace(msg)
		return exp, nil
	}
	return nil, fmt.Errorf("no expectation comment found (e.g., // expect: value)")
}

func TestParseExpectation(t *testing.T) {
	tests := []struct {
		src   string
		error bool
		kind  errors.Kind
		value string
	}{
		{"// expect: 42\n42;", false, errors.KindNone, "42"},
		{"  // expect:   [1, 2]  \n", false, errors.KindNone, "[1, 2]"},
		{"// expect_error: TypeError\nnull.x", true, errors.KindType, ""},
		{"// expect_error: ReferenceError: y is not defined", true, errors.KindReference, "y is not defined"},
		{"// expect_error: ScriptException: a: b", true, errors.KindScript, "a: b"},
	}
	for _, tt := range tests {
		exp, err := parseExpectation(tt.src)
		if err != nil {
			t.Errorf("%q: %v", tt.src, err)
			continue
		}
		if exp.Error != tt.error || exp.Kind != tt.kind || exp.Value != tt.value {
			t.Errorf("%q parsed as %+v", tt.src, exp)
		}
	}

	for _, bad := range []string{"42;", "// expect_error: WeirdError"} {
		if _, err := parseExpectation(bad); err == nil {
			t.Errorf("%q: expected a parse failure", bad)
		}
	}
}

func TestScripts(t *testing.T) {
	scriptDir := filepath.Join("testdata", "scripts")
	files, err := os.ReadDir(scriptDir)
	if err != nil {
		t.Fatalf("Failed to read script directory %q: %v", scriptDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".js") {
			continue
		}
		scriptPath := filepath.Join(scriptDir, file.Name())
		t.Run(file.Name(), func(t *testing.T) {
			content, err := os.ReadFile(scriptPath)
			if err != nil {
				t.Fatalf("Failed to read script file %q: %v", scriptPath, err)
			}
			expectation, err := parseExpectation(string(content))
			if err != nil {
				t.Fatalf("%s: %v", scriptPath, err)
			}

			s := newTestSession(t)
			value, src, err := s.RunFile(scriptPath)
			if src == nil {
				t.Fatalf("RunFile: %v", err)
			}

			if !expectation.Error {
				if err != nil {
					t.Fatalf("Expected value %q, but got error:\n%s", expectation.Value, errors.StackTrace(err))
				}
				if got := value.Inspect(); got != expectation.Value {
					t.Errorf("Expected output %q, but got %q", expectation.Value, got)
				}
				return
			}

			if err == nil {
				t.Fatalf("Expected %s, but got value %s", expectation.Kind, value.Inspect())
			}
			if got := errors.KindOf(err); got != expectation.Kind {
				t.Fatalf("Expected %s, but got %s: %v", expectation.Kind, got, err)
			}
			var be errors.BridgeError
			if !stderrors.As(err, &be) {
				t.Fatalf("%T is not a bridge error", err)
			}
			if !strings.HasPrefix(be.Message(), expectation.Value) {
				t.Errorf("Expected message starting with %q, but got %q", expectation.Value, be.Message())
			}
			if (be.Kind() == errors.KindScript || be.Kind() == errors.KindReference) &&
				!strings.Contains(errors.StackTrace(err), file.Name()) {
				t.Errorf("stack trace does not name the script:\n%s", errors.StackTrace(err))
			}
		})
	}
}
