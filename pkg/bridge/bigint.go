package bridge

import (
	"math"
	"math/big"
	"strings"

	"jsexec/pkg/errors"
)

// BigInt is an arbitrary-precision integer. It is immutable; the wrapped
// *big.Int is never handed out without copying.
type BigInt struct {
	v *big.Int
}

func newBigInt(v *big.Int) *BigInt { return &BigInt{v: v} }

func BigIntFromInt64(n int64) *BigInt { return newBigInt(big.NewInt(n)) }

func BigIntFromUint64(n uint64) *BigInt { return newBigInt(new(big.Int).SetUint64(n)) }

func BigIntFromBool(b bool) *BigInt {
	if b {
		return BigIntFromInt64(1)
	}
	return BigIntFromInt64(0)
}

// BigIntFromBig copies n.
func BigIntFromBig(n *big.Int) *BigInt { return newBigInt(new(big.Int).Set(n)) }

// BigIntFromString parses an integer literal: decimal with an optional sign,
// or an unsigned 0x, 0o or 0b prefixed literal. Surrounding whitespace is
// ignored; an empty literal, digit separators, a trailing "n" or any other
// character is a ConversionError.
func BigIntFromString(s string) (*BigInt, error) {
	str := strings.TrimFunc(s, isJSWhitespace)
	if str == "" {
		return nil, &errors.ConversionError{Msg: "empty BigInt literal", Input: s}
	}

	digits, base := str, 10
	if len(str) > 2 && str[0] == '0' {
		switch str[1] {
		case 'x', 'X':
			digits, base = str[2:], 16
		case 'o', 'O':
			digits, base = str[2:], 8
		case 'b', 'B':
			digits, base = str[2:], 2
		}
	}
	if base == 10 && (str[0] == '+' || str[0] == '-') {
		digits = str[1:]
	}
	if digits == "" || strings.ContainsAny(digits, "+-_") {
		return nil, &errors.ConversionError{Msg: "invalid BigInt literal", Input: s}
	}

	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, &errors.ConversionError{Msg: "invalid BigInt literal", Input: s}
	}
	if str[0] == '-' {
		n.Neg(n)
	}
	return newBigInt(n), nil
}

// BigIntFromFloat64 converts an integral double exactly. NaN, infinities and
// values with a fractional part are a ConversionError.
func BigIntFromFloat64(f float64) (*BigInt, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &errors.ConversionError{Msg: "cannot convert non-finite number to BigInt", Input: formatNumber(f)}
	}
	if f != math.Trunc(f) {
		return nil, &errors.ConversionError{Msg: "cannot convert non-integral number to BigInt", Input: formatNumber(f)}
	}
	n, _ := big.NewFloat(f).Int(nil)
	return newBigInt(n), nil
}

// ToInt64 fails with a ConversionError when the value needs more than 64 bits.
func (b *BigInt) ToInt64() (int64, error) {
	if !b.v.IsInt64() {
		return 0, &errors.ConversionError{Msg: "BigInt out of int64 range", Input: b.v.String()}
	}
	return b.v.Int64(), nil
}

// ToUint64 fails with a ConversionError for negative values or values wider
// than 64 bits.
func (b *BigInt) ToUint64() (uint64, error) {
	if !b.v.IsUint64() {
		return 0, &errors.ConversionError{Msg: "BigInt out of uint64 range", Input: b.v.String()}
	}
	return b.v.Uint64(), nil
}

// ToFloat64 returns the nearest double, ±Inf when out of range.
func (b *BigInt) ToFloat64() float64 {
	f, _ := new(big.Float).SetInt(b.v).Float64()
	return f
}

// FitsFloat64 returns the value as a double only if the conversion is exact.
func (b *BigInt) FitsFloat64() (float64, bool) {
	f, acc := new(big.Float).SetInt(b.v).Float64()
	return f, acc == big.Exact && !math.IsInf(f, 0)
}

// Text renders the value in the given radix (2 to 36) with lowercase digits.
func (b *BigInt) Text(radix int) (string, error) {
	if radix < 2 || radix > 36 {
		return "", &errors.ConversionError{Msg: "radix must be between 2 and 36"}
	}
	return b.v.Text(radix), nil
}

func (b *BigInt) String() string { return b.v.String() }

func (b *BigInt) Sign() int { return b.v.Sign() }

func (b *BigInt) IsNegative() bool { return b.v.Sign() < 0 }

func (b *BigInt) Cmp(other *BigInt) int { return b.v.Cmp(other.v) }

// Int returns a copy of the value.
func (b *BigInt) Int() *big.Int { return new(big.Int).Set(b.v) }
