package bridge

import (
	"slices"
	"testing"
)

const (
	loneHigh = "\xed\xa0\x80" // U+D800
	loneLow  = "\xed\xb0\x80" // U+DC00
)

func TestUTF16Units(t *testing.T) {
	tests := []struct {
		in   string
		want []uint16
	}{
		{"abc", []uint16{'a', 'b', 'c'}},
		{"é😀", []uint16{0xE9, 0xD83D, 0xDE00}},
		{loneHigh + "x", []uint16{0xD800, 'x'}},
		{"x" + loneLow, []uint16{'x', 0xDC00}},
		{"\xff", []uint16{0xFFFD}},
	}
	for _, tt := range tests {
		if got := utf16Units(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("utf16Units(%q) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestLoneSurrogateStrings(t *testing.T) {
	ctx := newTestContext(t)

	v := mustEval(t, ctx, `"\uD800"`)
	if got, _ := v.ToString(); got != loneHigh {
		t.Errorf("engine string read as %q, want %q", got, loneHigh)
	}
	if n := v.UTF16Len(); n != 1 {
		t.Errorf("UTF16Len = %d, want 1", n)
	}

	charCode := mustFunction(t, ctx, "(s => s.length + ':' + s.charCodeAt(s.length - 1))")
	res, err := charCode.Call([]Value{v}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "1:55296" {
		t.Errorf("string passed back to script = %q, want 1:55296", res.String())
	}

	res, err = charCode.Call([]Value{String("a" + loneLow)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.String() != "2:56320" {
		t.Errorf("host string with lone surrogate = %q, want 2:56320", res.String())
	}

	if s := mustEval(t, ctx, `"😀"`).String(); s != "😀" {
		t.Errorf("surrogate pair read as %q", s)
	}
	if !mustEval(t, ctx, `"\uD800"`).IsSame(v) {
		t.Errorf("equal engine strings are not the same value")
	}
}

func TestLoneSurrogateKeys(t *testing.T) {
	ctx := newTestContext(t)
	o := mustObject(t, ctx, `({"\uD800": 1, a: 2})`)

	m, err := o.ToMap(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 {
		t.Fatalf("ToMap has %d entries, want 2", len(m))
	}
	if v := m[OwnedString(loneHigh)]; v.Inspect() != "1" {
		t.Errorf("lone surrogate key maps to %s", v.Inspect())
	}

	keys, err := o.Keys(IterHidden)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0].Name() != loneHigh || keys[1].Name() != "a" {
		t.Fatalf("Keys = %q", keys)
	}
	if v, err := o.Get(keys[0]); err != nil || v.Inspect() != "1" {
		t.Errorf("Get(%q) = %v, %v", keys[0].Name(), v, err)
	}

	if _, err := o.Set(Key(loneLow), Int32(3)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetGlobal("o", o.Value()); err != nil {
		t.Fatal(err)
	}
	if v := mustEval(t, ctx, `o["\uDC00"]`); v.Inspect() != "3" {
		t.Errorf(`o["\uDC00"] = %s, want 3`, v.Inspect())
	}
}
