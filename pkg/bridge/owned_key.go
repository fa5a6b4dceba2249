package bridge

import (
	"hash/maphash"
	"strconv"

	"github.com/dop251/goja"
)

// OwnedKey is the host-owned form of a PropertyKey. It is comparable, so it
// can be used directly as a map key: string keys compare by content, index
// keys by number and symbol keys by engine identity.
type OwnedKey struct {
	kind  KeyKind
	name  string
	index uint32
	sym   *goja.Symbol
}

// OwnedString normalises canonical index strings the same way KeyString does.
func OwnedString(name string) OwnedKey { return KeyString(name).ToOwnedKey() }

func OwnedIndex(i uint32) OwnedKey { return KeyIndex(i).ToOwnedKey() }

func OwnedSymbol(sym *Symbol) OwnedKey { return KeySymbol(sym).ToOwnedKey() }

func (k OwnedKey) Kind() KeyKind  { return k.kind }
func (k OwnedKey) IsString() bool { return k.kind == KeyKindString }
func (k OwnedKey) IsIndex() bool  { return k.kind == KeyKindIndex }
func (k OwnedKey) IsSymbol() bool { return k.kind == KeyKindSymbol }
func (k OwnedKey) Index() uint32  { return k.index }

// Name returns the string form of a string or index key, empty for symbols.
func (k OwnedKey) Name() string {
	if k.kind == KeyKindIndex {
		return strconv.FormatUint(uint64(k.index), 10)
	}
	return k.name
}

// Symbol returns the symbol of a symbol key, nil otherwise.
func (k OwnedKey) Symbol() *Symbol {
	if k.kind != KeyKindSymbol || k.sym == nil {
		return nil
	}
	return &Symbol{sym: k.sym}
}

func (k OwnedKey) Equal(other OwnedKey) bool { return k == other }

// Hash is consistent with Equal for a given seed.
func (k OwnedKey) Hash(seed maphash.Seed) uint64 {
	return maphash.Comparable(seed, k)
}

// ToPropertyKey converts back for use in object operations.
func (k OwnedKey) ToPropertyKey() PropertyKey {
	switch k.kind {
	case KeyKindIndex:
		return PropertyKey{kind: KeyKindIndex, index: k.index}
	case KeyKindSymbol:
		return PropertyKey{kind: KeyKindSymbol, sym: k.Symbol()}
	}
	return PropertyKey{kind: KeyKindString, name: k.name}
}

func (k OwnedKey) String() string { return k.ToPropertyKey().String() }
