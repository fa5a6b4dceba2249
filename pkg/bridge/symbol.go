package bridge

import (
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// SymbolCode tells how a symbol came to exist.
type SymbolCode int

const (
	UniqueSymbol     SymbolCode = iota // created by Symbol() or NewSymbol
	InSymbolRegistry                   // created by Symbol.for
	WellKnown                          // one of the WellKnownSymbolCode singletons
)

func (c SymbolCode) String() string {
	switch c {
	case InSymbolRegistry:
		return "InSymbolRegistry"
	case WellKnown:
		return "WellKnown"
	default:
		return "UniqueSymbol"
	}
}

// WellKnownSymbolCode enumerates the engine-defined protocol symbols.
type WellKnownSymbolCode int

const (
	SymIsConcatSpreadable WellKnownSymbolCode = iota
	SymIterator
	SymMatch
	SymReplace
	SymSearch
	SymSpecies
	SymHasInstance
	SymSplit
	SymToPrimitive
	SymToStringTag
	SymUnscopables
	SymAsyncIterator
	SymMatchAll
	numWellKnownSymbols
)

// wellKnownNames are the property names on the Symbol constructor.
var wellKnownNames = [numWellKnownSymbols]string{
	SymIsConcatSpreadable: "isConcatSpreadable",
	SymIterator:           "iterator",
	SymMatch:              "match",
	SymReplace:            "replace",
	SymSearch:             "search",
	SymSpecies:            "species",
	SymHasInstance:        "hasInstance",
	SymSplit:              "split",
	SymToPrimitive:        "toPrimitive",
	SymToStringTag:        "toStringTag",
	SymUnscopables:        "unscopables",
	SymAsyncIterator:      "asyncIterator",
	SymMatchAll:           "matchAll",
}

func (c WellKnownSymbolCode) String() string {
	if c < 0 || c >= numWellKnownSymbols {
		return "Symbol.<unknown>"
	}
	return "Symbol." + wellKnownNames[c]
}

var (
	wellKnownOnce sync.Once
	wellKnownSyms [numWellKnownSymbols]*goja.Symbol

	// scratchMu guards scratchSymbol, the Symbol function of the scratch
	// engine.
	scratchMu     sync.Mutex
	scratchSymbol goja.Callable
)

// loadWellKnown reads the protocol symbols off a scratch engine. The engine
// shares them between all of its runtimes, so any runtime yields the same
// identities.
func loadWellKnown() {
	vm := goja.New()
	ctor, ok := vm.Get("Symbol").(*goja.Object)
	if !ok {
		return
	}
	scratchSymbol, _ = goja.AssertFunction(ctor)
	for code, name := range wellKnownNames {
		if sym, ok := ctor.Get(name).(*goja.Symbol); ok {
			wellKnownSyms[code] = sym
		}
	}
}

func wellKnownCodeOf(sym *goja.Symbol) (WellKnownSymbolCode, bool) {
	wellKnownOnce.Do(loadWellKnown)
	for code, s := range wellKnownSyms {
		if s != nil && s == sym {
			return WellKnownSymbolCode(code), true
		}
	}
	return 0, false
}

// Symbol is a handle to an engine symbol. Symbols are not bound to a
// Context; one read from a Context remembers it to answer registry and
// description queries.
type Symbol struct {
	sym     *goja.Symbol
	desc    string
	hasDesc bool
	known   bool // desc/hasDesc are authoritative
	ctx     *Context
}

// NewSymbol creates a unique symbol described by description, which may be
// empty. Two calls with the same description never produce equal symbols.
func NewSymbol(description string) *Symbol {
	return &Symbol{sym: goja.NewSymbol(description), desc: description, hasDesc: true, known: true}
}

// NewAnonymousSymbol creates a unique symbol with no description, as
// Symbol() does; scripts see its description as undefined.
func NewAnonymousSymbol() *Symbol {
	wellKnownOnce.Do(loadWellKnown)
	scratchMu.Lock()
	defer scratchMu.Unlock()
	if scratchSymbol != nil {
		if res, err := scratchSymbol(goja.Undefined()); err == nil {
			if sym, ok := res.(*goja.Symbol); ok {
				return &Symbol{sym: sym, known: true}
			}
		}
	}
	return &Symbol{sym: goja.NewSymbol(""), known: true}
}

// WellKnownSymbol returns the singleton for code. The second result is
// false only if the engine does not implement that protocol.
func WellKnownSymbol(code WellKnownSymbolCode) (*Symbol, bool) {
	if code < 0 || code >= numWellKnownSymbols {
		return nil, false
	}
	wellKnownOnce.Do(loadWellKnown)
	sym := wellKnownSyms[code]
	if sym == nil {
		return nil, false
	}
	return &Symbol{sym: sym, desc: code.String(), hasDesc: true, known: true}, true
}

func symbolFromEngine(ctx *Context, sym *goja.Symbol) *Symbol {
	return &Symbol{sym: sym, ctx: ctx}
}

// Description returns the symbol's description, if it has one.
func (s *Symbol) Description() (string, bool) {
	if s.known {
		return s.desc, s.hasDesc
	}
	if code, ok := wellKnownCodeOf(s.sym); ok {
		return code.String(), true
	}
	if s.ctx != nil && !s.ctx.closed {
		if d, ok := s.ctx.symbolDescription(s.sym); ok {
			return d, true
		}
		return "", false
	}
	d := s.sym.String()
	return d, d != ""
}

// SymbolCode reports whether s is unique, registered or well-known.
// Registry membership can only be told for symbols read from a live Context.
func (s *Symbol) SymbolCode() SymbolCode {
	if _, ok := wellKnownCodeOf(s.sym); ok {
		return WellKnown
	}
	if s.ctx != nil && !s.ctx.closed {
		if _, ok := s.ctx.symbolKeyFor(s.sym); ok {
			return InSymbolRegistry
		}
	}
	return UniqueSymbol
}

// WellKnownCode returns the protocol code of a well-known symbol.
func (s *Symbol) WellKnownCode() (WellKnownSymbolCode, bool) {
	return wellKnownCodeOf(s.sym)
}

// Equal reports engine identity.
func (s *Symbol) Equal(other *Symbol) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.sym == other.sym
}

// String renders the symbol as Symbol(description).
func (s *Symbol) String() string {
	d, _ := s.Description()
	var sb strings.Builder
	sb.WriteString("Symbol(")
	sb.WriteString(d)
	sb.WriteString(")")
	return sb.String()
}
