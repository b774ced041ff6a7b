package emu

import (
	"testing"

	"github.com/badass-asm/badass/cpu"
)

func TestStepLdaStaRtsHalts(t *testing.T) {
	mem := NewDirect()
	// lda #$42 ; sta $10 ; rts
	mem.Load(0, []byte{0xa9, 0x42, 0x85, 0x10, 0x60})
	c := New(mem, cpu.MOS6502)
	c.SP = 0xff // outermost frame, per the !test-body halt convention

	if _, err := c.Step(); err != nil { // lda
		t.Fatalf("lda: %v", err)
	}
	if c.A != 0x42 {
		t.Errorf("A = %#02x, want 0x42", c.A)
	}
	if _, err := c.Step(); err != nil { // sta
		t.Fatalf("sta: %v", err)
	}
	if mem.Read(0x10) != 0x42 {
		t.Errorf("mem[0x10] = %#02x, want 0x42", mem.Read(0x10))
	}
	if c.Halted() {
		t.Fatal("should not be halted before executing rts")
	}
	if _, err := c.Step(); err != nil { // rts
		t.Fatalf("rts: %v", err)
	}
	if !c.Halted() {
		t.Error("rts with SP at the outermost frame should halt the core")
	}
}

func TestStepSetsZeroAndNegativeFlags(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0xa9, 0x00}) // lda #$00
	c := New(mem, cpu.MOS6502)
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.flag(Zero) {
		t.Error("lda #$00 should set the zero flag")
	}
	if c.flag(Negative) {
		t.Error("lda #$00 should not set the negative flag")
	}
}

func TestBranchTaken(t *testing.T) {
	mem := NewDirect()
	// bne +5 (displacement of 5 from pc+2)
	mem.Load(0, []byte{0xd0, 0x05})
	c := New(mem, cpu.MOS6502)
	// Zero flag starts clear (power-on status), so bne should branch.
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	want := uint16(2 + 5)
	if c.PC != want {
		t.Errorf("PC = %#04x, want %#04x", c.PC, want)
	}
}

func TestBranchNotTaken(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0xd0, 0x05})
	c := New(mem, cpu.MOS6502)
	c.setFlag(Zero, true) // bne should not branch when Z is set
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 2 {
		t.Errorf("PC = %#04x, want 2 (no branch taken)", c.PC)
	}
}

func TestJmpIndirectPageWrapBug(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x6c, 0xff, 0x30}) // jmp ($30ff)
	mem.Write(0x30ff, 0x00)
	mem.Write(0x3000, 0x80) // NMOS bug: high byte wraps to start of page
	mem.Write(0x3100, 0x99) // must NOT be used
	c := New(mem, cpu.MOS6502)
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.PC != 0x8000 {
		t.Errorf("PC = %#04x, want 0x8000 (page-wrap bug)", c.PC)
	}
}

func TestBrkWithOnBreakHalts(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x00}) // brk
	c := New(mem, cpu.MOS6502)
	c.OnBreak = func(c *CPU) bool { return true }
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.Halted() {
		t.Error("brk with an OnBreak returning true should halt the core")
	}
}

func TestBrkWithoutOnBreakVectors(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x00}) // brk
	mem.Write(0xfffe, 0x00)
	mem.Write(0xffff, 0x90)
	c := New(mem, cpu.MOS6502)
	c.SP = 0xff
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if c.Halted() {
		t.Error("brk with no OnBreak should vector through $fffe, not halt")
	}
	if c.PC != 0x9000 {
		t.Errorf("PC = %#04x, want 0x9000 (brk vector)", c.PC)
	}
}

func TestStepUnknownOpcode(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x02}) // unassigned on the base 6502
	c := New(mem, cpu.MOS6502)
	if _, err := c.Step(); err == nil {
		t.Fatal("expected an error for an unknown opcode")
	}
}

func TestStepIgnoredOnceHalted(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x60}) // rts
	c := New(mem, cpu.MOS6502)
	c.SP = 0xff
	if _, err := c.Step(); err != nil {
		t.Fatal(err)
	}
	if !c.Halted() {
		t.Fatal("expected the core to be halted")
	}
	n, err := c.Step()
	if err != nil || n != 0 {
		t.Errorf("Step on a halted core = (%d, %v), want (0, nil)", n, err)
	}
}

func TestBranchTakenCostsAnExtraCycle(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0xd0, 0x10}) // bne +0x10
	c := New(mem, cpu.MOS6502)
	c.setFlag(Zero, false) // condition true: branch taken
	n, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("Step() = %d cycles, want 3 (2 base + 1 taken)", n)
	}
	if c.Cycles != 3 {
		t.Errorf("c.Cycles = %d, want 3", c.Cycles)
	}
}

func TestBranchNotTakenCostsBaseCyclesOnly(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0xd0, 0x10}) // bne +0x10
	c := New(mem, cpu.MOS6502)
	c.setFlag(Zero, true) // condition false: branch not taken
	n, err := c.Step()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Step() = %d cycles, want 2 (no taken bonus)", n)
	}
	if c.Cycles != 2 {
		t.Errorf("c.Cycles = %d, want 2", c.Cycles)
	}
}

func TestRunStopsAtMaxSteps(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0xea}) // nop, then brk vectoring back to $0000, forever
	c := New(mem, cpu.MOS6502)
	if err := c.Run(10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Halted() {
		t.Error("an infinite nop loop should not halt on its own")
	}
	if c.Cycles == 0 {
		t.Error("expected Cycles to advance across the run")
	}
}

func TestRunStopsOnHalt(t *testing.T) {
	mem := NewDirect()
	mem.Load(0, []byte{0x60}) // rts
	c := New(mem, cpu.MOS6502)
	c.SP = 0xff
	if err := c.Run(1000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Halted() {
		t.Error("expected Run to stop once rts halts the core")
	}
}
