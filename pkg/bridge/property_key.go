package bridge

import (
	"math"
	"strconv"

	"github.com/dop251/goja"
)

// KeyKind is the variant of a property key.
type KeyKind uint8

const (
	KeyKindString KeyKind = iota
	KeyKindIndex
	KeyKindSymbol
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindIndex:
		return "index"
	case KeyKindSymbol:
		return "symbol"
	default:
		return "string"
	}
}

// maxIndexKey is the largest integer stored in index form.
const maxIndexKey = math.MaxInt32

// PropertyKey names a property: a string, an array index or a symbol.
// Canonical index strings ("0", "42") are always stored in index form, so
// Key("3") and KeyIndex(3) name the same property.
//
// A PropertyKey is meant to be used for the operation at hand; it cannot be
// a map key. Convert it with ToOwnedKey to keep it.
type PropertyKey struct {
	_     [0]func()
	kind  KeyKind
	name  string
	index uint32
	sym   *Symbol
}

// Key is shorthand for KeyString.
func Key(name string) PropertyKey { return KeyString(name) }

func KeyString(name string) PropertyKey {
	if i, ok := canonicalIndex(name); ok {
		return PropertyKey{kind: KeyKindIndex, index: i}
	}
	return PropertyKey{kind: KeyKindString, name: name}
}

// KeyIndex is the integer form. Indices above 2^31-1 are kept as strings.
func KeyIndex(i uint32) PropertyKey {
	if i > maxIndexKey {
		return PropertyKey{kind: KeyKindString, name: strconv.FormatUint(uint64(i), 10)}
	}
	return PropertyKey{kind: KeyKindIndex, index: i}
}

func KeySymbol(sym *Symbol) PropertyKey {
	return PropertyKey{kind: KeyKindSymbol, sym: sym}
}

// KeyFromValue converts a string, symbol or non-negative integral number to
// a key. Other values report false; use ToString first to apply the full
// ToPropertyKey conversion.
func KeyFromValue(v Value) (PropertyKey, bool) {
	switch v.kind {
	case KindString:
		return KeyString(v.str), true
	case KindSymbol:
		return KeySymbol(v.ref.(*Symbol)), true
	case KindInt32, KindDouble:
		if v.num >= 0 && v.num == math.Trunc(v.num) && v.num <= math.MaxUint32 && !math.Signbit(v.num) {
			return KeyIndex(uint32(v.num)), true
		}
		if v.kind == KindDouble {
			return KeyString(formatNumber(v.num)), true
		}
		return KeyString(strconv.Itoa(int(v.num))), true
	}
	return PropertyKey{}, false
}

// canonicalIndex reports whether s is the canonical decimal form of an
// index in [0, 2^31-1].
func canonicalIndex(s string) (uint32, bool) {
	if s == "" || len(s) > 10 || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	var n uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	if n > maxIndexKey {
		return 0, false
	}
	return uint32(n), true
}

func (k PropertyKey) Kind() KeyKind   { return k.kind }
func (k PropertyKey) IsString() bool  { return k.kind == KeyKindString }
func (k PropertyKey) IsIndex() bool   { return k.kind == KeyKindIndex }
func (k PropertyKey) IsSymbol() bool  { return k.kind == KeyKindSymbol }
func (k PropertyKey) Index() uint32   { return k.index }
func (k PropertyKey) Symbol() *Symbol { return k.sym }

// Name returns the string form of a string or index key, empty for symbols.
func (k PropertyKey) Name() string {
	switch k.kind {
	case KeyKindIndex:
		return strconv.FormatUint(uint64(k.index), 10)
	case KeyKindString:
		return k.name
	}
	return ""
}

func (k PropertyKey) String() string {
	if k.kind == KeyKindSymbol {
		if k.sym == nil {
			return "Symbol()"
		}
		return "[" + k.sym.String() + "]"
	}
	return k.Name()
}

// ToOwnedKey returns the hashable form of k.
func (k PropertyKey) ToOwnedKey() OwnedKey {
	switch k.kind {
	case KeyKindIndex:
		return OwnedKey{kind: KeyKindIndex, index: k.index}
	case KeyKindSymbol:
		var sym *goja.Symbol
		if k.sym != nil {
			sym = k.sym.sym
		}
		return OwnedKey{kind: KeyKindSymbol, sym: sym}
	}
	return OwnedKey{kind: KeyKindString, name: k.name}
}

// Value returns the key as a script value: a string or a symbol.
func (k PropertyKey) Value() Value {
	if k.kind == KeyKindSymbol {
		return SymbolValue(k.sym)
	}
	return String(k.Name())
}

func (k PropertyKey) toEngine(vm *goja.Runtime) goja.Value {
	if k.kind == KeyKindSymbol {
		if k.sym == nil {
			return goja.Undefined()
		}
		return k.sym.sym
	}
	return stringToEngine(vm, k.Name())
}

// keyFromEngine converts a key produced by Reflect.ownKeys.
func keyFromEngine(ctx *Context, v goja.Value) PropertyKey {
	if sym, ok := v.(*goja.Symbol); ok {
		return KeySymbol(symbolFromEngine(ctx, sym))
	}
	return KeyString(stringFromEngine(v))
}
