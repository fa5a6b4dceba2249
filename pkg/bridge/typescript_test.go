package bridge

import (
	stderrors "errors"
	"strings"
	"testing"

	"jsexec/pkg/errors"
)

const calcTS = `interface Point { x: number; y: number }
const origin: Point = { x: 0, y: 0 };
function double(a: number): number {
  return a * 2;
}
enum Color { Red, Green }
`

func TestCompileTypeScript(t *testing.T) {
	rt, err := Acquire(nil)
	if err != nil {
		t.Fatal(err)
	}
	js, sm, err := rt.CompileTypeScript(calcTS, "calc.ts")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(js, "interface") || strings.Contains(js, ": number") {
		t.Errorf("types left in output:\n%s", js)
	}
	if len(sm.JSON()) == 0 {
		t.Fatal("empty source map")
	}

	line, col := 0, 0
	for i, l := range strings.Split(js, "\n") {
		if c := strings.Index(l, "a * 2"); c >= 0 {
			line, col = i+1, c
			break
		}
	}
	if line == 0 {
		t.Fatalf("no return statement in output:\n%s", js)
	}
	file, origLine, _, ok := sm.Original(line, col)
	if !ok {
		t.Fatalf("no mapping for %d:%d", line, col)
	}
	if !strings.HasSuffix(file, "calc.ts") || origLine != 4 {
		t.Errorf("mapped to %s:%d, want calc.ts:4", file, origLine)
	}
}

func TestEvaluateTypeScript(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"double(21)", "42"},
		{"Color.Green", "1"},
		{"Color[0]", "Red"},
		{"origin.x + origin.y", "0"},
		{"(<any>'cast').length", "4"},
	}
	for _, tt := range tests {
		// top-level const declarations cannot be repeated in one context
		ctx := newTestContext(t)
		v, err := ctx.EvaluateTypeScript("calc.ts", calcTS+tt.src)
		if err != nil {
			t.Errorf("%s: %v", tt.src, err)
			continue
		}
		if got := v.Inspect(); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestTypeScriptSyntaxError(t *testing.T) {
	ctx := newTestContext(t)
	_, err := ctx.EvaluateTypeScript("broken.ts", "const ok = 1;\nlet x: = 2;\n")
	var se *errors.SyntaxError
	if !stderrors.As(err, &se) {
		t.Fatalf("got %v, want *errors.SyntaxError", err)
	}
	if se.Line != 2 || se.Source == nil || se.Source.Name != "broken.ts" {
		t.Errorf("position = %d in %v", se.Line, se.Source)
	}

	rt, _ := Acquire(nil)
	if _, _, err := rt.CompileTypeScript("function (", "f.ts"); errors.KindOf(err) != errors.KindSyntax {
		t.Errorf("CompileTypeScript error = %v, want SyntaxError", err)
	}
}
