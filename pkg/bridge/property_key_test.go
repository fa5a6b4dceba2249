package bridge

import (
	"hash/maphash"
	"testing"
)

func TestKeyNormalisation(t *testing.T) {
	tests := []struct {
		name  string
		kind  KeyKind
		index uint32
	}{
		{"0", KeyKindIndex, 0},
		{"42", KeyKindIndex, 42},
		{"2147483647", KeyKindIndex, 2147483647},
		{"2147483648", KeyKindString, 0},
		{"01", KeyKindString, 0},
		{"-1", KeyKindString, 0},
		{"1.5", KeyKindString, 0},
		{"", KeyKindString, 0},
		{"length", KeyKindString, 0},
	}
	for _, tt := range tests {
		k := Key(tt.name)
		if k.Kind() != tt.kind {
			t.Errorf("Key(%q).Kind() = %s, want %s", tt.name, k.Kind(), tt.kind)
			continue
		}
		if k.IsIndex() && k.Index() != tt.index {
			t.Errorf("Key(%q).Index() = %d, want %d", tt.name, k.Index(), tt.index)
		}
		if k.Name() != tt.name {
			t.Errorf("Key(%q).Name() = %q", tt.name, k.Name())
		}
	}

	if Key("7").ToOwnedKey() != KeyIndex(7).ToOwnedKey() {
		t.Errorf("Key(\"7\") and KeyIndex(7) should name the same property")
	}
	if k := KeyIndex(1 << 31); !k.IsString() || k.Name() != "2147483648" {
		t.Errorf("KeyIndex(2^31) = %s %q, want string form", k.Kind(), k.Name())
	}
}

func TestOwnedKeyEqualityAndHash(t *testing.T) {
	seed := maphash.MakeSeed()
	sym := NewSymbol("k")
	keys := []PropertyKey{Key("name"), Key("3"), KeyIndex(3), KeySymbol(sym), Key("")}

	for _, k := range keys {
		k1, k2 := k.ToOwnedKey(), k.ToOwnedKey()
		if k1 != k2 || !k1.Equal(k2) {
			t.Errorf("%s: owned keys differ", k)
		}
		if k1.Hash(seed) != k2.Hash(seed) {
			t.Errorf("%s: hashes differ", k)
		}
	}

	if KeySymbol(sym).ToOwnedKey() == KeySymbol(NewSymbol("k")).ToOwnedKey() {
		t.Errorf("keys of distinct symbols compared equal")
	}
	if Key("a").ToOwnedKey() == Key("b").ToOwnedKey() {
		t.Errorf("distinct names compared equal")
	}
}

func TestOwnedKeyConversions(t *testing.T) {
	sym := NewSymbol("s")
	tests := []struct {
		key  OwnedKey
		want PropertyKey
	}{
		{OwnedString("x"), Key("x")},
		{OwnedString("12"), KeyIndex(12)},
		{OwnedIndex(5), KeyIndex(5)},
		{OwnedSymbol(sym), KeySymbol(sym)},
	}
	for _, tt := range tests {
		back := tt.key.ToPropertyKey()
		if back.ToOwnedKey() != tt.want.ToOwnedKey() {
			t.Errorf("%s did not survive ToPropertyKey", tt.key)
		}
	}
	if OwnedSymbol(sym).Symbol() == nil || !OwnedSymbol(sym).Symbol().Equal(sym) {
		t.Errorf("OwnedSymbol lost its symbol")
	}
}

func TestKeyFromValue(t *testing.T) {
	sym := NewSymbol("v")
	tests := []struct {
		in   Value
		want PropertyKey
		ok   bool
	}{
		{String("a"), Key("a"), true},
		{String("4"), KeyIndex(4), true},
		{Int32(4), KeyIndex(4), true},
		{Float64(4), KeyIndex(4), true},
		{Float64(1.5), Key("1.5"), true},
		{Int32(-1), Key("-1"), true},
		{SymbolValue(sym), KeySymbol(sym), true},
		{Null(), PropertyKey{}, false},
		{Bool(true), PropertyKey{}, false},
	}
	for _, tt := range tests {
		got, ok := KeyFromValue(tt.in)
		if ok != tt.ok {
			t.Errorf("KeyFromValue(%s) ok = %v", tt.in.Inspect(), ok)
			continue
		}
		if ok && got.ToOwnedKey() != tt.want.ToOwnedKey() {
			t.Errorf("KeyFromValue(%s) = %s, want %s", tt.in.Inspect(), got, tt.want)
		}
	}
}

func TestSymbols(t *testing.T) {
	ctx := newTestContext(t)

	iter, ok := WellKnownSymbol(SymIterator)
	if !ok {
		t.Fatal("Symbol.iterator missing")
	}
	engineIter, err := mustEval(t, ctx, "Symbol.iterator").AsSymbol()
	if err != nil {
		t.Fatal(err)
	}
	if !iter.Equal(engineIter) {
		t.Errorf("WellKnownSymbol(SymIterator) differs from the script's Symbol.iterator")
	}
	if engineIter.SymbolCode() != WellKnown {
		t.Errorf("Symbol.iterator code = %s", engineIter.SymbolCode())
	}
	if code, ok := engineIter.WellKnownCode(); !ok || code != SymIterator {
		t.Errorf("WellKnownCode() = %v, %v", code, ok)
	}

	reg, err := ctx.NewSymbolFor("app.key")
	if err != nil {
		t.Fatal(err)
	}
	fromScript, _ := mustEval(t, ctx, "Symbol.for('app.key')").AsSymbol()
	if !reg.Equal(fromScript) {
		t.Errorf("NewSymbolFor and Symbol.for disagree")
	}
	if reg.SymbolCode() != InSymbolRegistry {
		t.Errorf("registry symbol code = %s", reg.SymbolCode())
	}

	unique, _ := mustEval(t, ctx, "Symbol('local')").AsSymbol()
	if unique.SymbolCode() != UniqueSymbol {
		t.Errorf("Symbol('local') code = %s", unique.SymbolCode())
	}
	if d, ok := unique.Description(); !ok || d != "local" {
		t.Errorf("Description() = %q, %v", d, ok)
	}
	if unique.String() != "Symbol(local)" {
		t.Errorf("String() = %q", unique.String())
	}

	bare, _ := mustEval(t, ctx, "Symbol()").AsSymbol()
	if _, ok := bare.Description(); ok {
		t.Errorf("Symbol() should have no description")
	}
}

func TestHostSymbolDescriptions(t *testing.T) {
	ctx := newTestContext(t)

	anon := NewAnonymousSymbol()
	if _, ok := anon.Description(); ok {
		t.Errorf("NewAnonymousSymbol has a description")
	}
	empty := NewSymbol("")
	if d, ok := empty.Description(); !ok || d != "" {
		t.Errorf("NewSymbol(\"\").Description() = %q, %v", d, ok)
	}
	if anon.Equal(NewAnonymousSymbol()) {
		t.Errorf("anonymous symbols compare equal")
	}

	if err := ctx.SetGlobal("anon", SymbolValue(anon)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.SetGlobal("empty", SymbolValue(empty)); err != nil {
		t.Fatal(err)
	}
	if v := mustEval(t, ctx, "anon.description === undefined"); !v.ToBoolean() {
		t.Errorf("script sees anon.description = %s", mustEval(t, ctx, "String(anon.description)").String())
	}
	if v := mustEval(t, ctx, `empty.description === ""`); !v.ToBoolean() {
		t.Errorf("script sees empty.description = %s", mustEval(t, ctx, "String(empty.description)").String())
	}
}
