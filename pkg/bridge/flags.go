package bridge

import "strings"

// PropertyFlags are the attributes of a data property.
type PropertyFlags uint8

const (
	FlagWritable PropertyFlags = 1 << iota
	FlagEnumerable
	FlagConfigurable

	// FlagsDefault is what plain assignment creates.
	FlagsDefault = FlagWritable | FlagEnumerable | FlagConfigurable
	// FlagsConstant is a visible property that can never change.
	FlagsConstant = FlagEnumerable
	// FlagsHidden is a mutable property skipped by enumeration.
	FlagsHidden = FlagWritable | FlagConfigurable
)

func (f PropertyFlags) Writable() bool     { return f&FlagWritable != 0 }
func (f PropertyFlags) Enumerable() bool   { return f&FlagEnumerable != 0 }
func (f PropertyFlags) Configurable() bool { return f&FlagConfigurable != 0 }

func (f PropertyFlags) String() string {
	var parts []string
	if f.Writable() {
		parts = append(parts, "writable")
	}
	if f.Enumerable() {
		parts = append(parts, "enumerable")
	}
	if f.Configurable() {
		parts = append(parts, "configurable")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// IteratorFlags widen key enumeration. The zero value selects own,
// enumerable, string-keyed properties.
type IteratorFlags uint8

const (
	// IterInherited walks the prototype chain, skipping shadowed keys.
	IterInherited IteratorFlags = 1 << iota
	// IterHidden includes non-enumerable properties.
	IterHidden
	// IterSymbols adds symbol keys after the string keys.
	IterSymbols
	// IterSymbolsOnly returns symbol keys and nothing else.
	IterSymbolsOnly
)

func (f IteratorFlags) has(flag IteratorFlags) bool { return f&flag != 0 }

func (f IteratorFlags) wantStrings() bool { return !f.has(IterSymbolsOnly) }

func (f IteratorFlags) wantSymbols() bool { return f.has(IterSymbols) || f.has(IterSymbolsOnly) }
