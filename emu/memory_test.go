package emu

import "testing"

func TestDirectLoadAndRead(t *testing.T) {
	d := NewDirect()
	d.Load(0x0800, []byte{1, 2, 3})
	if d.Read(0x0800) != 1 || d.Read(0x0801) != 2 || d.Read(0x0802) != 3 {
		t.Errorf("unexpected RAM contents after Load")
	}
}

func TestDirectWrite(t *testing.T) {
	d := NewDirect()
	d.Write(0x1234, 0x42)
	if d.Read(0x1234) != 0x42 {
		t.Errorf("Read after Write = %#02x, want 0x42", d.Read(0x1234))
	}
}

func TestBankedFixedRegion(t *testing.T) {
	b := NewBanked(0x8000, []Bank{{Data: []byte{0xaa}}})
	b.Fixed[0x0000] = 0x11
	if b.Read(0x0000) != 0x11 {
		t.Errorf("fixed region read = %#02x, want 0x11", b.Read(0x0000))
	}
	b.Write(0x0001, 0x22)
	if b.Fixed[0x0001] != 0x22 {
		t.Error("fixed region write did not land in Fixed")
	}
}

func TestBankedSwitchableRegion(t *testing.T) {
	banks := []Bank{{Data: []byte{0x01}}, {Data: []byte{0x02}}}
	b := NewBanked(0x8000, banks)
	if b.Read(0x8000) != 0x01 {
		t.Errorf("bank 0 read = %#02x, want 0x01", b.Read(0x8000))
	}
	b.SelectBank(1)
	if b.Read(0x8000) != 0x02 {
		t.Errorf("bank 1 read = %#02x, want 0x02", b.Read(0x8000))
	}
	b.Write(0x8000, 0x55)
	if banks[1].Data[0] != 0x55 {
		t.Error("write to switchable region did not reach the selected bank")
	}
}

func TestBankedSelectBankClamps(t *testing.T) {
	banks := []Bank{{Data: []byte{0}}, {Data: []byte{0}}}
	b := NewBanked(0x8000, banks)
	b.SelectBank(-1)
	if b.Selected != 0 {
		t.Errorf("SelectBank(-1) = %d, want clamped to 0", b.Selected)
	}
	b.SelectBank(99)
	if b.Selected != len(banks)-1 {
		t.Errorf("SelectBank(99) = %d, want clamped to %d", b.Selected, len(banks)-1)
	}
}

func TestCallbackFallsThroughWithoutIntercept(t *testing.T) {
	d := NewDirect()
	cb := NewCallback(d)
	cb.Write(0x1000, 0x9)
	if cb.Read(0x1000) != 0x9 {
		t.Error("uninterceped address should pass through to backing memory")
	}
}

func TestCallbackIntercept(t *testing.T) {
	d := NewDirect()
	cb := NewCallback(d)
	var written byte
	cb.Intercept(0xd000,
		func() byte { return 0x77 },
		func(v byte) { written = v })

	if cb.Read(0xd000) != 0x77 {
		t.Errorf("intercepted read = %#02x, want 0x77", cb.Read(0xd000))
	}
	cb.Write(0xd000, 0x55)
	if written != 0x55 {
		t.Errorf("intercepted write got %#02x, want 0x55", written)
	}
	// backing memory should be untouched by an intercepted address.
	if d.Read(0xd000) != 0 {
		t.Error("intercepted write should not fall through to backing memory")
	}
}

func TestCallbackNilHandlerFallsThrough(t *testing.T) {
	d := NewDirect()
	cb := NewCallback(d)
	// register a read intercept only; writes should still fall through.
	cb.Intercept(0x2000, func() byte { return 1 }, nil)
	cb.Write(0x2000, 0x44)
	if d.Read(0x2000) != 0x44 {
		t.Error("write with a nil WriteFunc should fall through to backing memory")
	}
}
