package emu

import (
	"github.com/badass-asm/badass/cpu"
	"github.com/pkg/errors"
)

// Flag bits of the processor status register.
const (
	Carry byte = 1 << iota
	Zero
	IRQDisable
	Decimal
	Break
	Unused
	Overflow
	Negative
)

// EachOpFunc, when set on a CPU, is called after every instruction
// executes. Neither the !test harness nor the CLI sets it.
type EachOpFunc func(c *CPU, mnemonic string, mode cpu.Mode)

// BreakFunc intercepts BRK instead of pushing an interrupt frame, letting
// a !test harness stop the core cleanly instead of vectoring through
// 0xFFFE of a memory image that has no handler installed there.
type BreakFunc func(c *CPU) (halt bool)

// CPU is one 6502 or 65C02 core bound to a Memory implementation.
type CPU struct {
	A, X, Y byte
	SP      byte
	PC      uint16
	Status  byte

	Mem   Memory
	Table *cpu.Table
	Kind  cpu.CPU

	Cycles uint64

	EachOp  EachOpFunc
	OnBreak BreakFunc

	halted bool
}

// New creates a core over mem using the given instruction set. SP and
// Status start at the classic power-on values (0xFD and IRQDisable|Unused);
// PC is left at 0 until Reset or an explicit assignment.
func New(mem Memory, kind cpu.CPU) *CPU {
	return &CPU{
		Mem:    mem,
		Table:  cpu.TableFor(kind),
		Kind:   kind,
		SP:     0xfd,
		Status: IRQDisable | Unused,
	}
}

// Reset loads PC from the reset vector at 0xFFFC.
func (c *CPU) Reset() {
	c.PC = c.read16(0xfffc)
}

// Halted reports whether the core has stopped (via !test's "rts halts
// immediately" convention, or a BreakFunc returning true).
func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) read16(addr uint16) uint16 {
	lo := uint16(c.Mem.Read(addr))
	hi := uint16(c.Mem.Read(addr + 1))
	return lo | hi<<8
}

func (c *CPU) setFlag(f byte, on bool) {
	if on {
		c.Status |= f
	} else {
		c.Status &^= f
	}
}

func (c *CPU) flag(f byte) bool { return c.Status&f != 0 }

func (c *CPU) setZN(v byte) {
	c.setFlag(Zero, v == 0)
	c.setFlag(Negative, v&0x80 != 0)
}

func (c *CPU) push(v byte) {
	c.Mem.Write(0x100+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() byte {
	c.SP++
	return c.Mem.Read(0x100 + uint16(c.SP))
}

func (c *CPU) push16(v uint16) {
	c.push(byte(v >> 8))
	c.push(byte(v))
}

func (c *CPU) pop16() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return lo | hi<<8
}

// operand resolves the effective address (or, for Immediate/Accumulator,
// signals that no memory access is needed) for the instruction at the
// current PC, given its decoded mode and raw operand bits.
type operand struct {
	isAccumulator bool
	isImmediate   bool
	immediate     byte
	addr          uint16
}

func (c *CPU) resolveOperand(mode cpu.Mode, raw int64) operand {
	switch mode {
	case cpu.Implicit:
		return operand{}
	case cpu.Accumulator:
		return operand{isAccumulator: true}
	case cpu.Immediate:
		return operand{isImmediate: true, immediate: byte(raw)}
	case cpu.ZeroPage:
		return operand{addr: uint16(raw)}
	case cpu.ZeroPageX:
		return operand{addr: uint16(byte(raw) + c.X)}
	case cpu.ZeroPageY:
		return operand{addr: uint16(byte(raw) + c.Y)}
	case cpu.Absolute:
		return operand{addr: uint16(raw)}
	case cpu.AbsoluteX:
		return operand{addr: uint16(raw) + uint16(c.X)}
	case cpu.AbsoluteY:
		return operand{addr: uint16(raw) + uint16(c.Y)}
	case cpu.Indirect:
		ptr := uint16(raw)
		// NMOS page-wrap bug: if the pointer's low byte is 0xFF, the high
		// byte is fetched from the start of the same page, not the next.
		var lo, hi uint16
		lo = uint16(c.Mem.Read(ptr))
		if ptr&0xff == 0xff {
			hi = uint16(c.Mem.Read(ptr & 0xff00))
		} else {
			hi = uint16(c.Mem.Read(ptr + 1))
		}
		return operand{addr: lo | hi<<8}
	case cpu.IndirectX:
		zp := byte(raw) + c.X
		lo := uint16(c.Mem.Read(uint16(zp)))
		hi := uint16(c.Mem.Read(uint16(zp + 1)))
		return operand{addr: lo | hi<<8}
	case cpu.IndirectY:
		zp := byte(raw)
		lo := uint16(c.Mem.Read(uint16(zp)))
		hi := uint16(c.Mem.Read(uint16(zp + 1)))
		return operand{addr: (lo | hi<<8) + uint16(c.Y)}
	case cpu.IndirectZP:
		zp := byte(raw)
		lo := uint16(c.Mem.Read(uint16(zp)))
		hi := uint16(c.Mem.Read(uint16(zp + 1)))
		return operand{addr: lo | hi<<8}
	case cpu.IndirectAbsX:
		ptr := uint16(raw) + uint16(c.X)
		lo := uint16(c.Mem.Read(ptr))
		hi := uint16(c.Mem.Read(ptr + 1))
		return operand{addr: lo | hi<<8}
	default:
		return operand{addr: uint16(raw)}
	}
}

func (c *CPU) loadOperand(op operand) byte {
	if op.isImmediate {
		return op.immediate
	}
	if op.isAccumulator {
		return c.A
	}
	return c.Mem.Read(op.addr)
}

func (c *CPU) storeOperand(op operand, v byte) {
	if op.isAccumulator {
		c.A = v
		return
	}
	c.Mem.Write(op.addr, v)
}

// Step decodes and executes one instruction, returning the cycle count
// consumed. An error is returned only for an unknown opcode byte; the
// instruction set is otherwise total over the 256 opcode values.
func (c *CPU) Step() (int, error) {
	if c.halted {
		return 0, nil
	}
	start := c.PC
	opcodeByte := c.Mem.Read(start)
	entry, ok := c.Table.ByCode(opcodeByte)
	if !ok {
		return 0, errors.Errorf("emu: unknown opcode 0x%02x at $%04x", opcodeByte, start)
	}

	var raw int64
	switch entry.Size {
	case 2:
		raw = int64(c.Mem.Read(start + 1))
	case 3:
		lo := int64(c.Mem.Read(start + 1))
		hi := int64(c.Mem.Read(start + 2))
		raw = lo | hi<<8
	}
	c.PC = start + uint16(entry.Size)

	before := c.Cycles
	op := c.resolveOperand(entry.Mode, raw)
	c.execute(entry.Mnemonic, entry.Mode, op, raw, start)
	c.Cycles += uint64(entry.Cycles)

	if c.EachOp != nil {
		c.EachOp(c, entry.Mnemonic, entry.Mode)
	}
	return int(c.Cycles - before), nil
}

// Run steps the core until it halts or maxSteps is reached (a safety
// backstop against a runaway !run program with no terminating rts).
func (c *CPU) Run(maxSteps int) error {
	for i := 0; i < maxSteps && !c.halted; i++ {
		if _, err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}
