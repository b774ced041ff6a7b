package emu

import "github.com/badass-asm/badass/cpu"

// execute dispatches one decoded instruction. Grounded on the fetch-
// execute switch idiom (one opcode per case, PC already advanced past the
// operand before the case body runs), generalized from a stack-machine
// opcode set to the 6502/65C02 mnemonic set.
func (c *CPU) execute(mnemonic string, mode cpu.Mode, op operand, raw int64, pc uint16) {
	switch mnemonic {
	case "adc":
		c.adc(c.loadOperand(op))
	case "sbc":
		c.sbc(c.loadOperand(op))
	case "and":
		c.A &= c.loadOperand(op)
		c.setZN(c.A)
	case "ora":
		c.A |= c.loadOperand(op)
		c.setZN(c.A)
	case "eor":
		c.A ^= c.loadOperand(op)
		c.setZN(c.A)
	case "asl":
		v := c.loadOperand(op)
		c.setFlag(Carry, v&0x80 != 0)
		v <<= 1
		c.storeOperand(op, v)
		c.setZN(v)
	case "lsr":
		v := c.loadOperand(op)
		c.setFlag(Carry, v&1 != 0)
		v >>= 1
		c.storeOperand(op, v)
		c.setZN(v)
	case "rol":
		v := c.loadOperand(op)
		carryIn := byte(0)
		if c.flag(Carry) {
			carryIn = 1
		}
		c.setFlag(Carry, v&0x80 != 0)
		v = v<<1 | carryIn
		c.storeOperand(op, v)
		c.setZN(v)
	case "ror":
		v := c.loadOperand(op)
		carryIn := byte(0)
		if c.flag(Carry) {
			carryIn = 0x80
		}
		c.setFlag(Carry, v&1 != 0)
		v = v>>1 | carryIn
		c.storeOperand(op, v)
		c.setZN(v)
	case "inc":
		v := c.loadOperand(op) + 1
		c.storeOperand(op, v)
		c.setZN(v)
	case "dec":
		v := c.loadOperand(op) - 1
		c.storeOperand(op, v)
		c.setZN(v)
	case "inx":
		c.X++
		c.setZN(c.X)
	case "iny":
		c.Y++
		c.setZN(c.Y)
	case "dex":
		c.X--
		c.setZN(c.X)
	case "dey":
		c.Y--
		c.setZN(c.Y)
	case "lda":
		c.A = c.loadOperand(op)
		c.setZN(c.A)
	case "ldx":
		c.X = c.loadOperand(op)
		c.setZN(c.X)
	case "ldy":
		c.Y = c.loadOperand(op)
		c.setZN(c.Y)
	case "sta":
		c.storeOperand(op, c.A)
	case "stx":
		c.storeOperand(op, c.X)
	case "sty":
		c.storeOperand(op, c.Y)
	case "stz":
		c.storeOperand(op, 0)
	case "tax":
		c.X = c.A
		c.setZN(c.X)
	case "tay":
		c.Y = c.A
		c.setZN(c.Y)
	case "txa":
		c.A = c.X
		c.setZN(c.A)
	case "tya":
		c.A = c.Y
		c.setZN(c.A)
	case "tsx":
		c.X = c.SP
		c.setZN(c.X)
	case "txs":
		c.SP = c.X
	case "cmp":
		c.compare(c.A, c.loadOperand(op))
	case "cpx":
		c.compare(c.X, c.loadOperand(op))
	case "cpy":
		c.compare(c.Y, c.loadOperand(op))
	case "bit":
		v := c.loadOperand(op)
		c.setFlag(Zero, c.A&v == 0)
		c.setFlag(Overflow, v&0x40 != 0)
		c.setFlag(Negative, v&0x80 != 0)
	case "trb":
		v := c.loadOperand(op)
		c.setFlag(Zero, c.A&v == 0)
		c.storeOperand(op, v&^c.A)
	case "tsb":
		v := c.loadOperand(op)
		c.setFlag(Zero, c.A&v == 0)
		c.storeOperand(op, v|c.A)
	case "clc":
		c.setFlag(Carry, false)
	case "sec":
		c.setFlag(Carry, true)
	case "cli":
		c.setFlag(IRQDisable, false)
	case "sei":
		c.setFlag(IRQDisable, true)
	case "clv":
		c.setFlag(Overflow, false)
	case "cld":
		c.setFlag(Decimal, false)
	case "sed":
		c.setFlag(Decimal, true)
	case "pha":
		c.push(c.A)
	case "pla":
		c.A = c.pop()
		c.setZN(c.A)
	case "phx":
		c.push(c.X)
	case "plx":
		c.X = c.pop()
		c.setZN(c.X)
	case "phy":
		c.push(c.Y)
	case "ply":
		c.Y = c.pop()
		c.setZN(c.Y)
	case "php":
		c.push(c.Status | Break | Unused)
	case "plp":
		c.Status = c.pop()&^Break | Unused
	case "jmp":
		c.PC = op.addr
	case "jsr":
		c.push16(c.PC - 1)
		c.PC = op.addr
	case "rts":
		c.rts()
	case "rti":
		c.Status = c.pop()&^Break | Unused
		c.PC = c.pop16()
	case "brk":
		c.brk()
	case "nop":
		// no operation
	case "bpl":
		c.branch(!c.flag(Negative), raw, pc)
	case "bmi":
		c.branch(c.flag(Negative), raw, pc)
	case "bvc":
		c.branch(!c.flag(Overflow), raw, pc)
	case "bvs":
		c.branch(c.flag(Overflow), raw, pc)
	case "bcc":
		c.branch(!c.flag(Carry), raw, pc)
	case "bcs":
		c.branch(c.flag(Carry), raw, pc)
	case "bne":
		c.branch(!c.flag(Zero), raw, pc)
	case "beq":
		c.branch(c.flag(Zero), raw, pc)
	case "bra":
		c.branch(true, raw, pc)
	default:
		c.execBitTest(mnemonic, mode, op, raw, pc)
	}
}

// rts treats a return from the outermost call frame as a halt instead of
// popping an address below the stack's starting point: a test body with
// no caller on the stack has nothing meaningful to return to, so its rts
// stops execution.
func (c *CPU) rts() {
	if c.SP == 0xff {
		c.halted = true
		return
	}
	c.PC = c.pop16() + 1
}

func (c *CPU) brk() {
	if c.OnBreak != nil && c.OnBreak(c) {
		c.halted = true
		return
	}
	c.push16(c.PC + 1)
	c.push(c.Status | Break | Unused)
	c.setFlag(IRQDisable, true)
	c.PC = c.read16(0xfffe)
}

// branch redirects PC when take is true. A taken branch costs one cycle
// more than the base cost already tabled for the instruction.
func (c *CPU) branch(take bool, raw int64, pc uint16) {
	if !take {
		return
	}
	c.Cycles++
	c.PC = uint16(int32(pc) + 2 + int32(int8(byte(raw))))
}

func (c *CPU) compare(reg, v byte) {
	d := reg - v
	c.setFlag(Carry, reg >= v)
	c.setZN(d)
}

// execBitTest handles the 65C02 bbr/bbs/rmb/smb family, whose mnemonics
// are distinguished per bit index (bbr0..bbr7, etc) rather than by
// addressing mode alone.
func (c *CPU) execBitTest(mnemonic string, mode cpu.Mode, op operand, raw int64, pc uint16) {
	if len(mnemonic) < 4 {
		return
	}
	bit := mnemonic[3] - '0'
	zp := byte(raw)
	v := c.Mem.Read(uint16(zp))
	switch mnemonic[:3] {
	case "rmb":
		c.Mem.Write(uint16(zp), v&^(1<<bit))
	case "smb":
		c.Mem.Write(uint16(zp), v|1<<bit)
	case "bbr":
		disp := int64(int8(byte(raw >> 8)))
		if v&(1<<bit) == 0 {
			c.PC = uint16(int32(pc) + 3 + int32(disp))
		}
	case "bbs":
		disp := int64(int8(byte(raw >> 8)))
		if v&(1<<bit) != 0 {
			c.PC = uint16(int32(pc) + 3 + int32(disp))
		}
	}
}
