package bridge

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dop251/goja/ftoa"
	"golang.org/x/text/encoding/unicode"

	"jsexec/pkg/errors"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindInt32
	KindDouble
	KindBigInt
	KindString
	KindSymbol
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt32:
		return "int32"
	case KindDouble:
		return "double"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is any engine value. Primitives are held host-side; objects are
// handles tied to the Context that produced them. The zero Value is undefined.
//
// String payloads are WTF-8, so strings holding unpaired surrogates survive
// a trip through the host unchanged.
type Value struct {
	kind Kind
	num  float64 // Boolean (0 or 1), Int32 and Double payload
	str  string
	ref  any // *BigInt, *Symbol or *Object
}

// --- Constructors ---

func Undefined() Value { return Value{} }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, num: 1}
	}
	return Value{kind: KindBoolean}
}

func Int32(i int32) Value { return Value{kind: KindInt32, num: float64(i)} }

// Float64 always produces a Double, even for integral input.
func Float64(f float64) Value { return Value{kind: KindDouble, num: f} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func BigIntValue(b *BigInt) Value { return Value{kind: KindBigInt, ref: b} }

func SymbolValue(s *Symbol) Value { return Value{kind: KindSymbol, ref: s} }

// ObjectValue wraps an object handle. A nil handle yields null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{kind: KindObject, ref: o}
}

// numberValue applies the engine tagging rule: integral numbers in int32
// range other than -0 are Int32, everything else is Double.
func numberValue(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 && !(f == 0 && math.Signbit(f)) {
		return Int32(int32(f))
	}
	return Float64(f)
}

// --- Type Checks ---

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBoolean() bool   { return v.kind == KindBoolean }
func (v Value) IsNumber() bool    { return v.kind == KindInt32 || v.kind == KindDouble }
func (v Value) IsInt32() bool     { return v.kind == KindInt32 }
func (v Value) IsDouble() bool    { return v.kind == KindDouble }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsBigInt() bool    { return v.kind == KindBigInt }
func (v Value) IsSymbol() bool    { return v.kind == KindSymbol }
func (v Value) IsObject() bool    { return v.kind == KindObject }

func (v Value) IsNullOrUndefined() bool { return v.kind == KindUndefined || v.kind == KindNull }

// IsPrimitive reports whether v is anything but an object.
func (v Value) IsPrimitive() bool { return v.kind != KindObject }

// IsFunction reports whether v is a callable object.
func (v Value) IsFunction() bool {
	if v.kind != KindObject {
		return false
	}
	_, ok := v.ref.(*Object).ToFunction()
	return ok
}

// TypeOf returns the result of the typeof operator.
func (v Value) TypeOf() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindBoolean:
		return "boolean"
	case KindInt32, KindDouble:
		return "number"
	case KindBigInt:
		return "bigint"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	default:
		if v.IsFunction() {
			return "function"
		}
		return "object"
	}
}

// --- Typed accessors ---

func mismatch(want string, v Value) error {
	return &errors.ConversionError{Msg: "expected " + want + ", got " + v.kind.String()}
}

// ToInt32 returns the payload of an Int32 value; other tags are an error.
func (v Value) ToInt32() (int32, error) {
	if v.kind != KindInt32 {
		return 0, mismatch("int32", v)
	}
	return int32(v.num), nil
}

// ToDouble returns the payload of a Double value; other tags are an error.
func (v Value) ToDouble() (float64, error) {
	if v.kind != KindDouble {
		return 0, mismatch("double", v)
	}
	return v.num, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBoolean {
		return false, mismatch("boolean", v)
	}
	return v.num != 0, nil
}

func (v Value) AsObject() (*Object, error) {
	if v.kind != KindObject {
		return nil, mismatch("object", v)
	}
	return v.ref.(*Object), nil
}

func (v Value) AsBigInt() (*BigInt, error) {
	if v.kind != KindBigInt {
		return nil, mismatch("bigint", v)
	}
	return v.ref.(*BigInt), nil
}

func (v Value) AsSymbol() (*Symbol, error) {
	if v.kind != KindSymbol {
		return nil, mismatch("symbol", v)
	}
	return v.ref.(*Symbol), nil
}

func (v Value) AsFunction() (*Function, error) {
	o, err := v.AsObject()
	if err != nil {
		return nil, err
	}
	fn, ok := o.ToFunction()
	if !ok {
		return nil, &errors.ConversionError{Msg: "object is not a function"}
	}
	return fn, nil
}

// --- Conversions ---

// ToBoolean applies ECMAScript ToBoolean. null, undefined, false, +0, -0,
// NaN, 0n and "" are false; everything else is true.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean, KindInt32:
		return v.num != 0
	case KindDouble:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBigInt:
		return v.ref.(*BigInt).Sign() != 0
	case KindString:
		return v.str != ""
	default:
		return true
	}
}

// ToNumber applies ECMAScript ToNumber. Objects are converted by the engine
// (valueOf / toString), which may run script and fail.
func (v Value) ToNumber() (float64, error) {
	switch v.kind {
	case KindUndefined:
		return math.NaN(), nil
	case KindNull:
		return 0, nil
	case KindBoolean, KindInt32, KindDouble:
		return v.num, nil
	case KindString:
		return parseStringToNumber(v.str), nil
	case KindBigInt:
		return 0, &errors.TypeError{Msg: "Cannot convert a BigInt value to a number", Trace: errors.Trace{Name: "TypeError"}}
	case KindSymbol:
		return 0, &errors.TypeError{Msg: "Cannot convert a Symbol value to a number", Trace: errors.Trace{Name: "TypeError"}}
	default:
		return v.ref.(*Object).toNumber()
	}
}

// ToUint32 applies ECMAScript ToUint32 (ToNumber, then modulo 2^32).
func (v Value) ToUint32() (uint32, error) {
	f, err := v.ToNumber()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m), nil
}

// ToString applies ECMAScript ToString. Objects are converted by the engine.
func (v Value) ToString() (string, error) {
	switch v.kind {
	case KindUndefined:
		return "undefined", nil
	case KindNull:
		return "null", nil
	case KindBoolean:
		if v.num != 0 {
			return "true", nil
		}
		return "false", nil
	case KindInt32:
		return strconv.FormatInt(int64(v.num), 10), nil
	case KindDouble:
		return formatNumber(v.num), nil
	case KindString:
		return v.str, nil
	case KindBigInt:
		return v.ref.(*BigInt).String(), nil
	case KindSymbol:
		return "", &errors.TypeError{Msg: "Cannot convert a Symbol value to a string", Trace: errors.Trace{Name: "TypeError"}}
	default:
		return v.ref.(*Object).toString()
	}
}

// String implements fmt.Stringer. Strings print raw; everything else prints
// as Inspect does.
func (v Value) String() string {
	if v.kind == KindString {
		return v.str
	}
	return v.Inspect()
}

// UTF16Len is the string's length as scripts see it (UTF-16 code units).
// Non-strings report -1.
func (v Value) UTF16Len() int {
	if v.kind != KindString {
		return -1
	}
	return utf16Len(v.str)
}

var utf16Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func utf16Len(s string) int {
	if !utf8.ValidString(s) {
		return len(utf16Units(s))
	}
	b, err := utf16Encoding.NewEncoder().String(s)
	if err != nil {
		return utf8.RuneCountInString(s)
	}
	return len(b) / 2
}

// IsSame implements SameValue: NaN is the same as NaN, +0 differs from -0,
// objects and symbols compare by identity.
func (v Value) IsSame(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		a, b := v.num, other.num
		if math.IsNaN(a) && math.IsNaN(b) {
			return true
		}
		return a == b && math.Signbit(a) == math.Signbit(b)
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindBigInt:
		return v.ref.(*BigInt).Cmp(other.ref.(*BigInt)) == 0
	case KindSymbol:
		return v.ref.(*Symbol).Equal(other.ref.(*Symbol))
	case KindObject:
		return v.ref.(*Object).Same(other.ref.(*Object))
	}
	return false
}

// Export returns a plain Go value: nil for null and undefined, bool,
// int64 for Int32, float64, string, *big.Int, *Symbol, and for objects
// whatever the engine exports (maps, slices, funcs, wrapped Go values).
func (v Value) Export() any {
	switch v.kind {
	case KindBoolean:
		return v.num != 0
	case KindInt32:
		return int64(v.num)
	case KindDouble:
		return v.num
	case KindString:
		return v.str
	case KindBigInt:
		return v.ref.(*BigInt).Int()
	case KindSymbol:
		return v.ref.(*Symbol)
	case KindObject:
		return v.ref.(*Object).export()
	default:
		return nil
	}
}

// --- Number helpers ---

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	var buf [128]byte
	return string(ftoa.FToStr(f, ftoa.ModeStandard, 0, buf[:0]))
}

// isJSWhitespace matches the WhiteSpace and LineTerminator productions that
// StringToNumber trims.
func isJSWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00A0', '\u1680', '\u2028', '\u2029', '\u202F', '\u205F', '\u3000', '\uFEFF':
		return true
	}
	return r >= '\u2000' && r <= '\u200A'
}

// parseStringToNumber converts a string to a number following ECMAScript
// StringToNumber: hex (0x), octal (0o), binary (0b), decimal with exponent,
// and Infinity. Anything else is NaN.
func parseStringToNumber(s string) float64 {
	str := strings.TrimFunc(s, isJSWhitespace)
	if str == "" {
		return 0
	}

	if len(str) > 2 && str[0] == '0' {
		base := 0
		switch str[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, ok := new(big.Int).SetString(str[2:], base)
			if !ok || n.Sign() < 0 || strings.ContainsAny(str[2:], "+-_") {
				return math.NaN()
			}
			f, _ := new(big.Float).SetInt(n).Float64()
			return f
		}
	}

	// "Infinity" is case-sensitive, unlike Go's ParseFloat.
	switch str {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	for _, r := range str {
		if !(r >= '0' && r <= '9') && r != '.' && r != 'e' && r != 'E' && r != '+' && r != '-' {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		// ParseFloat reports overflow with ±Inf and ErrRange; that is the right answer.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}
