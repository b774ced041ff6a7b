package assembler

// charsets holds the byte-encoding tables !text/!chartrans translate
// through, one entry per input codepoint 0-255. The default ("ascii") is
// the identity mapping; the others approximate the Commodore PETSCII and
// screen-code conventions, derived programmatically rather than
// hand-listed since both are regular transforms of ASCII.
var charsets map[string][256]byte

func init() {
	var ascii [256]byte
	for i := range ascii {
		ascii[i] = byte(i)
	}

	petsciiUpper := ascii
	petsciiLower := ascii
	for c := byte('a'); c <= 'z'; c++ {
		// unshifted PETSCII swaps the case glyphs relative to ASCII: the
		// "upper/graphics" table maps lowercase input to the uppercase
		// code point and vice versa.
		petsciiUpper[c] = c - 'a' + 'A'
		petsciiUpper[c-'a'+'A'] = c
	}
	for c := byte('A'); c <= 'Z'; c++ {
		// the "lower/upper-case" shifted table leaves case as typed.
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

// toScreenCode maps a PETSCII-encoded byte to its C64 screen-code
// equivalent. The ranges below are the standard PETSCII->screen-code
// transform used by the VIC-II character generator.
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
