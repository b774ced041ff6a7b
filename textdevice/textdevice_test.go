package textdevice

import (
	"testing"

	"github.com/badass-asm/badass/emu"
)

func TestNewCentersWindow(t *testing.T) {
	d := New(80, 25, 40, 25)
	if d.Regs[RegWinW] != 40 || d.Regs[RegWinH] != 25 {
		t.Fatalf("window size = %d x %d, want 40 x 25", d.Regs[RegWinW], d.Regs[RegWinH])
	}
	if want := byte((80 - 40) / 2); d.Regs[RegWinX] != want {
		t.Errorf("WinX = %d, want %d", d.Regs[RegWinX], want)
	}
	if len(d.CharRAM) != 40*25 {
		t.Errorf("len(CharRAM) = %d, want %d", len(d.CharRAM), 40*25)
	}
	for i, c := range d.CharRAM {
		if c != 0x20 {
			t.Fatalf("CharRAM[%d] = %#x, want 0x20", i, c)
		}
	}
}

func TestKeyFIFO(t *testing.T) {
	d := New(80, 25, 40, 25)
	if got := d.readReg(RegKeys); got != 0 {
		t.Fatalf("empty FIFO read = %#x, want 0", got)
	}
	d.PushKey('a')
	d.PushKey('b')
	if got := d.readReg(RegKeys); got != 'a' {
		t.Fatalf("first pop = %c, want a", got)
	}
	if got := d.readReg(RegKeys); got != 'b' {
		t.Fatalf("second pop = %c, want b", got)
	}
	if got := d.readReg(RegKeys); got != 0 {
		t.Fatalf("drained FIFO read = %#x, want 0", got)
	}
}

func TestControlBits(t *testing.T) {
	d := New(80, 25, 40, 25)
	if d.ExitRequested() || d.BlockingFlush() {
		t.Fatalf("fresh device should not request exit or block")
	}
	d.writeReg(RegControl, ControlExit)
	if !d.ExitRequested() {
		t.Errorf("ControlExit bit should request exit")
	}
	if d.BlockingFlush() {
		t.Errorf("ControlExit alone should not also block")
	}
	d.writeReg(RegControl, ControlExit|ControlBlock)
	if !d.ExitRequested() || !d.BlockingFlush() {
		t.Errorf("both bits set should request exit and block")
	}
}

func TestTickAdvancesTimer(t *testing.T) {
	d := New(80, 25, 40, 25)
	d.Regs[RegFreq] = 50
	d.Tick(50 * 300)
	frames := int(d.Regs[RegTimerHi])<<8 | int(d.Regs[RegTimerLo])
	if frames != 300 {
		t.Errorf("frames = %d, want 300", frames)
	}
}

func TestTranslateEncoding(t *testing.T) {
	d := New(80, 25, 40, 25)
	if !d.SetEncoding("petscii_upper") {
		t.Fatalf("SetEncoding(petscii_upper) should succeed")
	}
	if got := d.Translate('a'); got != 'A' {
		t.Errorf("petscii_upper translate('a') = %c, want A", got)
	}
	if d.SetEncoding("not_a_charset") {
		t.Errorf("SetEncoding should reject an unknown charset name")
	}
	if got := d.Translate('a'); got != 'A' {
		t.Errorf("encoding should be unchanged after a rejected SetEncoding")
	}
}

func TestAttachMapsRegisterPlaneAndPalette(t *testing.T) {
	d := New(80, 25, 3, 2)
	backing := emu.NewDirect()
	cb := emu.NewCallback(backing)
	d.Attach(cb, 0xd700)

	cb.Write(0xd700+RegWinX, 7)
	if d.Regs[RegWinX] != 7 {
		t.Fatalf("register write through callback did not reach Regs: %d", d.Regs[RegWinX])
	}
	if got := cb.Read(0xd700 + RegWinX); got != 7 {
		t.Fatalf("register read through callback = %d, want 7", got)
	}

	cb.Write(0xd780, 0x42)
	if d.Palette[0] != 0x42 {
		t.Fatalf("palette write through callback did not reach Palette[0]")
	}

	textBase := uint16(d.Regs[RegTextPtr]) << 8
	cb.Write(textBase, 'X')
	if d.CharRAM[0] != 'X' {
		t.Fatalf("char-plane write through callback did not reach CharRAM[0]")
	}

	colorBase := uint16(d.Regs[RegColorPtr]) << 8
	cb.Write(colorBase+1, 5)
	if d.ColorRAM[1] != 5 {
		t.Fatalf("color-plane write through callback did not reach ColorRAM[1]")
	}
}
