// Package emu implements the cycle-accurate 6502/65C02 core used by the
// assembler's !test/!check/!run harness and, optionally, by a running
// program that talks to the text display device.
package emu

// Memory is the address-space abstraction the core reads and writes
// through. Pluggable implementations let a test harness swap in a flat
// 64K array, a banked cartridge image, or a callback-mapped I/O page
// without touching the instruction core itself.
type Memory interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// Direct is a flat 64K memory with no banking or side effects. It is the
// default used by !test and most !check assertions.
type Direct struct {
	RAM [0x10000]byte
}

// NewDirect returns a zero-filled 64K address space.
func NewDirect() *Direct { return &Direct{} }

func (d *Direct) Read(addr uint16) byte  { return d.RAM[addr] }
func (d *Direct) Write(addr uint16, v byte) { d.RAM[addr] = v }

// Load copies data into RAM starting at addr, for seeding a test's initial
// memory image from an assembled section.
func (d *Direct) Load(addr uint16, data []byte) {
	copy(d.RAM[int(addr):], data)
}

// Bank is one fixed-size page of a Banked memory's switchable region.
type Bank struct {
	Data []byte
}

// Banked models a cartridge-style address space: a fixed low region plus
// one switchable high bank selected by SelectBank, grounded on the
// examples' mapper split between flat RAM and a PRG-ROM banking scheme.
type Banked struct {
	Fixed      [0x10000]byte
	Banks      []Bank
	BankStart  uint16
	Selected   int
}

// NewBanked creates a banked memory with the given bank window starting
// at start and the given set of banks, bank 0 selected initially.
func NewBanked(start uint16, banks []Bank) *Banked {
	return &Banked{BankStart: start, Banks: banks}
}

// SelectBank switches the active bank. Out-of-range selections are
// clamped to the last bank, matching a cartridge mapper's saturating
// register write.
func (b *Banked) SelectBank(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(b.Banks) {
		n = len(b.Banks) - 1
	}
	b.Selected = n
}

func (b *Banked) Read(addr uint16) byte {
	if addr >= b.BankStart && len(b.Banks) > 0 {
		off := int(addr - b.BankStart)
		bank := b.Banks[b.Selected].Data
		if off < len(bank) {
			return bank[off]
		}
		return 0
	}
	return b.Fixed[addr]
}

func (b *Banked) Write(addr uint16, v byte) {
	if addr >= b.BankStart && len(b.Banks) > 0 {
		off := int(addr - b.BankStart)
		bank := b.Banks[b.Selected].Data
		if off < len(bank) {
			bank[off] = v
		}
		return
	}
	b.Fixed[addr] = v
}

// ReadFunc/WriteFunc back one intercepted address in a Callback memory.
type ReadFunc func() byte
type WriteFunc func(v byte)

// Callback wraps a backing Memory with a per-address intercept table, the
// mechanism the text display device hooks into: a write to a mapped
// address invokes the handler instead of updating backing storage: a
// bus-dispatch pattern
// reworked into direct per-address slots for O(1) lookup on every access.
type Callback struct {
	Backing Memory
	reads   [0x10000]ReadFunc
	writes  [0x10000]WriteFunc
}

// NewCallback wraps backing with an empty intercept table.
func NewCallback(backing Memory) *Callback {
	return &Callback{Backing: backing}
}

// Intercept registers handlers for addr. A nil handler leaves that
// direction to fall through to the backing memory.
func (c *Callback) Intercept(addr uint16, r ReadFunc, w WriteFunc) {
	c.reads[addr] = r
	c.writes[addr] = w
}

func (c *Callback) Read(addr uint16) byte {
	if f := c.reads[addr]; f != nil {
		return f()
	}
	return c.Backing.Read(addr)
}

func (c *Callback) Write(addr uint16, v byte) {
	if f := c.writes[addr]; f != nil {
		f(v)
		return
	}
	c.Backing.Write(addr, v)
}
