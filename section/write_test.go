package section

import (
	"bytes"
	"testing"
)

func layoutWithTwoChunks(t *testing.T) *Layout {
	t.Helper()
	l := New()
	if _, err := l.AddSection(Spec{Name: "a", Start: 0x1000, Size: -1}); err != nil {
		t.Fatalf("AddSection(a): %v", err)
	}
	if _, err := l.AddSection(Spec{Name: "b", Start: 0x1008, Size: -1}); err != nil {
		t.Fatalf("AddSection(b): %v", err)
	}
	l.Emit("a", []byte{0xa0, 0xa1, 0xa2, 0xa3})
	l.Emit("b", []byte{0xb0, 0xb1})
	if _, err := l.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	return l
}

func TestWriteRawPadsGaps(t *testing.T) {
	l := layoutWithTwoChunks(t)
	var buf bytes.Buffer
	if err := Write(&buf, FormatRaw, l.Roots(), CartConfig{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := append([]byte{0xa0, 0xa1, 0xa2, 0xa3}, append(make([]byte, 4), 0xb0, 0xb1)...)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("raw output = % x, want % x", buf.Bytes(), want)
	}
}

func TestWritePRGPrependsLoadAddress(t *testing.T) {
	l := layoutWithTwoChunks(t)
	var buf bytes.Buffer
	if err := Write(&buf, FormatPRG, l.Roots(), CartConfig{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Bytes()[0] != 0x00 || buf.Bytes()[1] != 0x10 {
		t.Fatalf("PRG load address = % x, want 00 10 (little-endian 0x1000)", buf.Bytes()[:2])
	}
	if len(buf.Bytes()) != 2+4+4+2 {
		t.Fatalf("PRG output length = %d, want %d", len(buf.Bytes()), 2+4+4+2)
	}
}

func TestWriteCartridgeHeaderAndChip(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "rom", Start: 0x8000, Size: -1})
	l.Emit("rom", []byte{0xde, 0xad, 0xbe, 0xef})
	l.Do()

	var buf bytes.Buffer
	cfg := CartConfig{Label: "TESTCART", HWType: 0}
	if err := Write(&buf, FormatCartridge, l.Roots(), cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b := buf.Bytes()
	if !bytes.Equal(b[0:16], cartMagic[:]) {
		t.Fatalf("magic = %q, want %q", b[0:16], cartMagic)
	}
	if !bytes.Contains(b[16:64], []byte("TESTCART")) {
		t.Fatalf("header should contain the label")
	}
	chipOff := bytes.Index(b, []byte("CHIP"))
	if chipOff < 0 {
		t.Fatalf("no CHIP record found")
	}
	payload := b[chipOff+16:]
	if !bytes.Equal(payload, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("CHIP payload = % x, want de ad be ef", payload)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	l := layoutWithTwoChunks(t)
	var buf bytes.Buffer
	if err := Write(&buf, Format(99), l.Roots(), CartConfig{}); err == nil {
		t.Fatalf("unknown format should error")
	}
}
