// Package textdevice implements the memory-mapped text display used by the
// assembler's optional --run mode: a register page plus character and color
// planes, a 16-color palette, a keyboard FIFO and a free-running tick
// counter. Actual terminal rendering is an external collaborator's job; this
// package only maintains the device's addressable state and exposes it for
// one to draw.
package textdevice

import "github.com/badass-asm/badass/emu"

// Register indices within the 256-byte register page.
const (
	RegWinX = iota
	RegWinY
	RegWinW
	RegWinH

	RegRealW
	RegRealH

	RegTextPtr
	RegColorPtr

	RegCFillOut

	RegKeys
	RegFreq
	RegTimerLo
	RegTimerHi
	RegControl
	RegCharset
)

// Control register bit masks.
const (
	ControlExit  = 1 << 0 // request clean exit
	ControlBlock = 1 << 1 // block until the next display flush
)

// c64Palette is the stock 16-color Commodore 64 palette, RGB triples.
var c64Palette = [16 * 3]byte{
	0x00, 0x00, 0x00, // black
	0xFF, 0xFF, 0xFF, // white
	0x68, 0x37, 0x2B, // red
	0x70, 0xA4, 0xB2, // cyan
	0x6F, 0x3D, 0x86, // purple
	0x58, 0x8D, 0x43, // green
	0x35, 0x28, 0x79, // blue
	0xB8, 0xC7, 0x6F, // yellow
	0x6F, 0x4F, 0x25, // orange
	0x43, 0x39, 0x00, // brown
	0x9A, 0x67, 0x59, // light red
	0x44, 0x44, 0x44, // dark grey
	0x6C, 0x6C, 0x6C, // grey
	0x9A, 0xD2, 0x84, // light green
	0x6C, 0x5E, 0xB5, // light blue
	0x95, 0x95, 0x95, // light grey
}

// Device is the addressable state of the text display. Regs is the
// register page; Palette is a 128-byte table with the stock 16-color
// palette duplicated at offset 0 and 48 so foreground (high nibble of a
// color byte, offset by 16 entries) and background (low nibble) indices
// both land in range without a branch.
type Device struct {
	Regs    [0x80]byte
	Palette [0x80]byte

	CharRAM  []byte
	ColorRAM []byte

	keys []byte

	encoding string
	ticks    int64 // elapsed milliseconds, advanced by Tick
}

// New returns a device sized for a cols x rows window centered in a
// termWidth x termHeight terminal, with the character plane filled with
// spaces and the color plane with color 1.
func New(termWidth, termHeight, cols, rows int) *Device {
	d := &Device{
		CharRAM:  make([]byte, cols*rows),
		ColorRAM: make([]byte, cols*rows),
		encoding: "screencode_upper",
	}
	for i := 0; i < 16*3; i++ {
		d.Palette[i] = c64Palette[i]
		d.Palette[i+16*3] = c64Palette[i]
	}
	for i := range d.CharRAM {
		d.CharRAM[i] = 0x20
	}
	for i := range d.ColorRAM {
		d.ColorRAM[i] = 0x01
	}
	d.Regs[RegWinW] = byte(cols)
	d.Regs[RegWinH] = byte(rows)
	d.Regs[RegWinX] = byte((termWidth - cols) / 2)
	d.Regs[RegWinY] = byte((termHeight - rows) / 2)
	d.Regs[RegRealW] = byte(termWidth)
	d.Regs[RegRealH] = byte(termHeight)
	d.Regs[RegTextPtr] = 0x04
	d.Regs[RegColorPtr] = 0xd8
	d.Regs[RegFreq] = 50
	return d
}

// SetEncoding selects the charset character-plane writes are translated
// through when a host renders them; ok is false for an unrecognized name
// and the previous encoding is left in place.
func (d *Device) SetEncoding(name string) bool {
	if _, ok := charsets[name]; !ok {
		return false
	}
	d.encoding = name
	return true
}

// Translate maps a character-plane byte to its glyph codepoint under the
// device's current encoding.
func (d *Device) Translate(c byte) byte {
	return charsets[d.encoding][c]
}

// PushKey appends a key to the keyboard FIFO; readReg(RegKeys) pops it.
func (d *Device) PushKey(k byte) {
	d.keys = append(d.keys, k)
}

// Tick advances the free-running millisecond clock and republishes the
// low/high timer registers, grounded on TextEmu::update's frame counter
// derived from elapsed time divided by the Freq register.
func (d *Device) Tick(elapsedMS int64) {
	d.ticks = elapsedMS
	freq := int64(d.Regs[RegFreq])
	if freq == 0 {
		return
	}
	frames := d.ticks / freq
	d.Regs[RegTimerLo] = byte(frames)
	d.Regs[RegTimerHi] = byte(frames >> 8)
}

// ExitRequested reports whether the control register's exit bit is set.
func (d *Device) ExitRequested() bool {
	return d.Regs[RegControl]&ControlExit != 0
}

// BlockingFlush reports whether the control register requests the host
// block until the next display flush before resuming execution.
func (d *Device) BlockingFlush() bool {
	return d.Regs[RegControl]&ControlBlock != 0
}

func (d *Device) readReg(r byte) byte {
	if int(r) == RegKeys {
		if len(d.keys) == 0 {
			return 0
		}
		k := d.keys[0]
		d.keys = d.keys[1:]
		return k
	}
	if int(r) < len(d.Regs) {
		return d.Regs[r]
	}
	return 0
}

func (d *Device) writeReg(r, v byte) {
	if int(r) >= len(d.Regs) {
		return
	}
	d.Regs[r] = v
}

// textBase/colorBase return the char/color plane base address implied by
// the current TextPtr/ColorPtr register values (a page-number high byte,
// as on a real 6502 memory map).
func (d *Device) textBase() uint16  { return uint16(d.Regs[RegTextPtr]) << 8 }
func (d *Device) colorBase() uint16 { return uint16(d.Regs[RegColorPtr]) << 8 }

// Attach maps the device's register page, palette, and character/color
// planes into mem starting at regBase for the register page (0xd700 by
// convention) and at the plane addresses implied by the TextPtr/ColorPtr
// registers at attach time. Plane addresses are fixed for the life of the
// attachment; only their power-on defaults are ever used in practice.
func (d *Device) Attach(mem *emu.Callback, regBase uint16) {
	palBase := regBase + 0x80
	for i := 0; i < 0x80; i++ {
		off := byte(i)
		mem.Intercept(regBase+uint16(i),
			func() byte { return d.readReg(off) },
			func(v byte) { d.writeReg(off, v) },
		)
		mem.Intercept(palBase+uint16(i),
			func() byte { return d.Palette[off] },
			func(v byte) { d.Palette[off] = v },
		)
	}

	base := d.textBase()
	for i := range d.CharRAM {
		addr := base + uint16(i)
		off := i
		mem.Intercept(addr,
			func() byte { return d.CharRAM[off] },
			func(v byte) { d.CharRAM[off] = v },
		)
	}

	cbase := d.colorBase()
	for i := range d.ColorRAM {
		addr := cbase + uint16(i)
		off := i
		mem.Intercept(addr,
			func() byte { return d.ColorRAM[off] },
			func(v byte) { d.ColorRAM[off] = v },
		)
	}
}
