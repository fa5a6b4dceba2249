package bridge

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// Engine strings are sequences of UTF-16 code units and may contain unpaired
// surrogates. Host-side they are Go strings in WTF-8: well-formed text is
// plain UTF-8, and an unpaired surrogate is the three-byte generalized UTF-8
// form of its code point (ED A0..BF xx). Conversion in both directions is
// lossless.

// stringFromEngine reads an engine string without replacing unpaired
// surrogates.
func stringFromEngine(gv goja.Value) string {
	s, ok := gv.(goja.String)
	if !ok {
		return gv.String()
	}
	text := s.String()
	if !strings.ContainsRune(text, utf8.RuneError) {
		return text
	}
	n := s.Length()
	buf := make([]byte, 0, len(text))
	for i := 0; i < n; i++ {
		u := rune(s.CharAt(i))
		if !utf16.IsSurrogate(u) {
			buf = utf8.AppendRune(buf, u)
			continue
		}
		if u < 0xDC00 && i+1 < n {
			if lo := rune(s.CharAt(i + 1)); lo >= 0xDC00 && lo <= 0xDFFF {
				buf = utf8.AppendRune(buf, utf16.DecodeRune(u, lo))
				i++
				continue
			}
		}
		buf = append(buf, 0xED, byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
	}
	return string(buf)
}

// stringToEngine is the inverse of stringFromEngine. Bytes that are neither
// UTF-8 nor an encoded surrogate become U+FFFD.
func stringToEngine(vm *goja.Runtime, s string) goja.Value {
	if utf8.ValidString(s) {
		return vm.ToValue(s)
	}
	return goja.StringFromUTF16(utf16Units(s))
}

func utf16Units(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		if u, ok := surrogateAt(s, i); ok {
			units = append(units, u)
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		units = utf16.AppendRune(units, r)
		i += size
	}
	return units
}

func surrogateAt(s string, i int) (uint16, bool) {
	if i+2 < len(s) && s[i] == 0xED && s[i+1] >= 0xA0 && s[i+1] <= 0xBF && s[i+2]&0xC0 == 0x80 {
		return 0xD000 | uint16(s[i+1]&0x3F)<<6 | uint16(s[i+2]&0x3F), true
	}
	return 0, false
}
