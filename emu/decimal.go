package emu

// adcTable and sbcTable select the binary or BCD implementation of ADC/SBC
// by the current Decimal flag, indexed as table[0]=binary, table[1]=BCD --
// a literal two-entry jump table rather than an if/else, since the 65C02
// also spends an extra cycle in decimal mode that a caller may want to
// account for by inspecting which function ran.
var adcTable = [2]func(*CPU, byte){(*CPU).adcBinary, (*CPU).adcDecimal}
var sbcTable = [2]func(*CPU, byte){(*CPU).sbcBinary, (*CPU).sbcDecimal}

func (c *CPU) adc(v byte) {
	idx := 0
	if c.flag(Decimal) {
		idx = 1
	}
	adcTable[idx](c, v)
}

func (c *CPU) sbc(v byte) {
	idx := 0
	if c.flag(Decimal) {
		idx = 1
	}
	sbcTable[idx](c, v)
}

func (c *CPU) adcBinary(v byte) {
	carry := uint16(0)
	if c.flag(Carry) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	result := byte(sum)
	c.setFlag(Overflow, (c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0)
	c.setFlag(Carry, sum > 0xff)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) sbcBinary(v byte) {
	c.adcBinary(^v)
}

// adcDecimal implements packed-BCD addition as the NMOS/65C02 hardware
// actually performs it: nibble-wise with a per-nibble carry adjustment,
// not decimal(binary(a)+binary(b)).
func (c *CPU) adcDecimal(v byte) {
	carry := byte(0)
	if c.flag(Carry) {
		carry = 1
	}
	lo := (c.A & 0x0f) + (v & 0x0f) + carry
	hi := (c.A >> 4) + (v >> 4)
	if lo > 9 {
		lo += 6
		hi++
	}
	overflowCheck := (c.A ^ v) & 0x80 == 0 && (c.A^(hi<<4|lo&0x0f))&0x80 != 0
	if hi > 9 {
		hi += 6
	}
	c.setFlag(Carry, hi > 15)
	result := hi<<4 | (lo & 0x0f)
	c.setFlag(Overflow, overflowCheck)
	c.A = result
	c.setZN(c.A)
}

func (c *CPU) sbcDecimal(v byte) {
	borrow := byte(1)
	if c.flag(Carry) {
		borrow = 0
	}
	lo := int16(c.A&0x0f) - int16(v&0x0f) - int16(borrow)
	hi := int16(c.A>>4) - int16(v>>4)
	if lo < 0 {
		lo -= 6
		hi--
	}
	if hi < 0 {
		hi -= 6
	}
	c.sbcBinary(v) // derive Z/N/C/V from the equivalent binary subtraction
	c.A = byte(hi)<<4 | byte(lo&0x0f)
}
