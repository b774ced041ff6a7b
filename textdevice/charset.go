package textdevice

// charsets mirrors the encoding tables the assembler's !encoding/!chartrans
// directives select between, kept as its own copy here since the device
// translates character-plane bytes to on-screen glyphs independently of
// any particular assembly run.
var charsets map[string][256]byte

func init() {
	var ascii [256]byte
	for i := range ascii {
		ascii[i] = byte(i)
	}

	petsciiUpper := ascii
	petsciiLower := ascii
	for c := byte('a'); c <= 'z'; c++ {
		petsciiUpper[c] = c - 'a' + 'A'
		petsciiUpper[c-'a'+'A'] = c
	}
	for c := byte('A'); c <= 'Z'; c++ {
		petsciiLower[c] = c
	}

	charsets = map[string][256]byte{
		"ascii":            ascii,
		"petscii_upper":    petsciiUpper,
		"petscii_lower":    petsciiLower,
		"screencode_upper": toScreenCode(petsciiUpper),
		"screencode_lower": toScreenCode(petsciiLower),
	}
}

func toScreenCode(petscii [256]byte) [256]byte {
	var out [256]byte
	for i, c := range petscii {
		out[i] = petsciiByteToScreenCode(c)
	}
	return out
}

func petsciiByteToScreenCode(c byte) byte {
	switch {
	case c < 0x20:
		return c + 0x80
	case c < 0x40:
		return c
	case c < 0x60:
		return c - 0x40
	case c < 0x80:
		return c - 0x20
	case c < 0xa0:
		return c
	case c < 0xc0:
		return c - 0x40
	default:
		return c - 0x80
	}
}
