package cpu

// opcodes6502 is the documented NMOS 6502 instruction set, one Entry per
// (mnemonic, mode) pair, keyed both ways by buildTable.
var opcodes6502 = []Entry{
	// ADC
	{"adc", Immediate, 0x69, 2, 2}, {"adc", ZeroPage, 0x65, 2, 3}, {"adc", ZeroPageX, 0x75, 2, 4},
	{"adc", Absolute, 0x6d, 3, 4}, {"adc", AbsoluteX, 0x7d, 3, 4}, {"adc", AbsoluteY, 0x79, 3, 4},
	{"adc", IndirectX, 0x61, 2, 6}, {"adc", IndirectY, 0x71, 2, 5},
	// AND
	{"and", Immediate, 0x29, 2, 2}, {"and", ZeroPage, 0x25, 2, 3}, {"and", ZeroPageX, 0x35, 2, 4},
	{"and", Absolute, 0x2d, 3, 4}, {"and", AbsoluteX, 0x3d, 3, 4}, {"and", AbsoluteY, 0x39, 3, 4},
	{"and", IndirectX, 0x21, 2, 6}, {"and", IndirectY, 0x31, 2, 5},
	// ASL
	{"asl", Accumulator, 0x0a, 1, 2}, {"asl", ZeroPage, 0x06, 2, 5}, {"asl", ZeroPageX, 0x16, 2, 6},
	{"asl", Absolute, 0x0e, 3, 6}, {"asl", AbsoluteX, 0x1e, 3, 7},
	// branches
	{"bpl", Relative, 0x10, 2, 2}, {"bmi", Relative, 0x30, 2, 2}, {"bvc", Relative, 0x50, 2, 2},
	{"bvs", Relative, 0x70, 2, 2}, {"bcc", Relative, 0x90, 2, 2}, {"bcs", Relative, 0xb0, 2, 2},
	{"bne", Relative, 0xd0, 2, 2}, {"beq", Relative, 0xf0, 2, 2},
	{"bit", ZeroPage, 0x24, 2, 3}, {"bit", Absolute, 0x2c, 3, 4},
	{"brk", Implicit, 0x00, 1, 7},
	// CMP/CPX/CPY
	{"cmp", Immediate, 0xc9, 2, 2}, {"cmp", ZeroPage, 0xc5, 2, 3}, {"cmp", ZeroPageX, 0xd5, 2, 4},
	{"cmp", Absolute, 0xcd, 3, 4}, {"cmp", AbsoluteX, 0xdd, 3, 4}, {"cmp", AbsoluteY, 0xd9, 3, 4},
	{"cmp", IndirectX, 0xc1, 2, 6}, {"cmp", IndirectY, 0xd1, 2, 5},
	{"cpx", Immediate, 0xe0, 2, 2}, {"cpx", ZeroPage, 0xe4, 2, 3}, {"cpx", Absolute, 0xec, 3, 4},
	{"cpy", Immediate, 0xc0, 2, 2}, {"cpy", ZeroPage, 0xc4, 2, 3}, {"cpy", Absolute, 0xcc, 3, 4},
	// DEC/DEX/DEY, INC/INX/INY
	{"dec", ZeroPage, 0xc6, 2, 5}, {"dec", ZeroPageX, 0xd6, 2, 6}, {"dec", Absolute, 0xce, 3, 6}, {"dec", AbsoluteX, 0xde, 3, 7},
	{"dex", Implicit, 0xca, 1, 2}, {"dey", Implicit, 0x88, 1, 2},
	{"inc", ZeroPage, 0xe6, 2, 5}, {"inc", ZeroPageX, 0xf6, 2, 6}, {"inc", Absolute, 0xee, 3, 6}, {"inc", AbsoluteX, 0xfe, 3, 7},
	{"inx", Implicit, 0xe8, 1, 2}, {"iny", Implicit, 0xc8, 1, 2},
	// EOR
	{"eor", Immediate, 0x49, 2, 2}, {"eor", ZeroPage, 0x45, 2, 3}, {"eor", ZeroPageX, 0x55, 2, 4},
	{"eor", Absolute, 0x4d, 3, 4}, {"eor", AbsoluteX, 0x5d, 3, 4}, {"eor", AbsoluteY, 0x59, 3, 4},
	{"eor", IndirectX, 0x41, 2, 6}, {"eor", IndirectY, 0x51, 2, 5},
	// flags
	{"clc", Implicit, 0x18, 1, 2}, {"sec", Implicit, 0x38, 1, 2}, {"cli", Implicit, 0x58, 1, 2},
	{"sei", Implicit, 0x78, 1, 2}, {"clv", Implicit, 0xb8, 1, 2}, {"cld", Implicit, 0xd8, 1, 2}, {"sed", Implicit, 0xf8, 1, 2},
	// JMP/JSR/RTI/RTS
	{"jmp", Absolute, 0x4c, 3, 3}, {"jmp", Indirect, 0x6c, 3, 5},
	{"jsr", Absolute, 0x20, 3, 6}, {"rti", Implicit, 0x40, 1, 6}, {"rts", Implicit, 0x60, 1, 6},
	// LDA/LDX/LDY
	{"lda", Immediate, 0xa9, 2, 2}, {"lda", ZeroPage, 0xa5, 2, 3}, {"lda", ZeroPageX, 0xb5, 2, 4},
	{"lda", Absolute, 0xad, 3, 4}, {"lda", AbsoluteX, 0xbd, 3, 4}, {"lda", AbsoluteY, 0xb9, 3, 4},
	{"lda", IndirectX, 0xa1, 2, 6}, {"lda", IndirectY, 0xb1, 2, 5},
	{"ldx", Immediate, 0xa2, 2, 2}, {"ldx", ZeroPage, 0xa6, 2, 3}, {"ldx", ZeroPageY, 0xb6, 2, 4},
	{"ldx", Absolute, 0xae, 3, 4}, {"ldx", AbsoluteY, 0xbe, 3, 4},
	{"ldy", Immediate, 0xa0, 2, 2}, {"ldy", ZeroPage, 0xa4, 2, 3}, {"ldy", ZeroPageX, 0xb4, 2, 4},
	{"ldy", Absolute, 0xac, 3, 4}, {"ldy", AbsoluteX, 0xbc, 3, 4},
	// LSR
	{"lsr", Accumulator, 0x4a, 1, 2}, {"lsr", ZeroPage, 0x46, 2, 5}, {"lsr", ZeroPageX, 0x56, 2, 6},
	{"lsr", Absolute, 0x4e, 3, 6}, {"lsr", AbsoluteX, 0x5e, 3, 7},
	// NOP
	{"nop", Implicit, 0xea, 1, 2},
	// ORA
	{"ora", Immediate, 0x09, 2, 2}, {"ora", ZeroPage, 0x05, 2, 3}, {"ora", ZeroPageX, 0x15, 2, 4},
	{"ora", Absolute, 0x0d, 3, 4}, {"ora", AbsoluteX, 0x1d, 3, 4}, {"ora", AbsoluteY, 0x19, 3, 4},
	{"ora", IndirectX, 0x01, 2, 6}, {"ora", IndirectY, 0x11, 2, 5},
	// stack
	{"pha", Implicit, 0x48, 1, 3}, {"php", Implicit, 0x08, 1, 3}, {"pla", Implicit, 0x68, 1, 4}, {"plp", Implicit, 0x28, 1, 4},
	// ROL/ROR
	{"rol", Accumulator, 0x2a, 1, 2}, {"rol", ZeroPage, 0x26, 2, 5}, {"rol", ZeroPageX, 0x36, 2, 6},
	{"rol", Absolute, 0x2e, 3, 6}, {"rol", AbsoluteX, 0x3e, 3, 7},
	{"ror", Accumulator, 0x6a, 1, 2}, {"ror", ZeroPage, 0x66, 2, 5}, {"ror", ZeroPageX, 0x76, 2, 6},
	{"ror", Absolute, 0x6e, 3, 6}, {"ror", AbsoluteX, 0x7e, 3, 7},
	// SBC
	{"sbc", Immediate, 0xe9, 2, 2}, {"sbc", ZeroPage, 0xe5, 2, 3}, {"sbc", ZeroPageX, 0xf5, 2, 4},
	{"sbc", Absolute, 0xed, 3, 4}, {"sbc", AbsoluteX, 0xfd, 3, 4}, {"sbc", AbsoluteY, 0xf9, 3, 4},
	{"sbc", IndirectX, 0xe1, 2, 6}, {"sbc", IndirectY, 0xf1, 2, 5},
	// STA/STX/STY
	{"sta", ZeroPage, 0x85, 2, 3}, {"sta", ZeroPageX, 0x95, 2, 4}, {"sta", Absolute, 0x8d, 3, 4},
	{"sta", AbsoluteX, 0x9d, 3, 5}, {"sta", AbsoluteY, 0x99, 3, 5}, {"sta", IndirectX, 0x81, 2, 6}, {"sta", IndirectY, 0x91, 2, 6},
	{"stx", ZeroPage, 0x86, 2, 3}, {"stx", ZeroPageY, 0x96, 2, 4}, {"stx", Absolute, 0x8e, 3, 4},
	{"sty", ZeroPage, 0x84, 2, 3}, {"sty", ZeroPageX, 0x94, 2, 4}, {"sty", Absolute, 0x8c, 3, 4},
	// transfers
	{"tax", Implicit, 0xaa, 1, 2}, {"tay", Implicit, 0xa8, 1, 2}, {"tsx", Implicit, 0xba, 1, 2},
	{"txa", Implicit, 0x8a, 1, 2}, {"txs", Implicit, 0x9a, 1, 2}, {"tya", Implicit, 0x98, 1, 2},
}

// opcodes65C02 adds the WDC 65C02 instructions on top of opcodes6502: new
// addressing modes for existing mnemonics (ora/and/eor/adc/sta/lda/cmp/sbc
// (zp), inc/dec A, jmp (abs,x)), brand-new mnemonics (stz, bra, phx/phy/
// plx/ply, trb/tsb), and the bit-test family (bbr0..7, bbs0..7, rmb0..7,
// smb0..7).
var opcodes65C02 = []Entry{
	{"ora", IndirectZP, 0x12, 2, 5},
	{"and", IndirectZP, 0x32, 2, 5},
	{"eor", IndirectZP, 0x52, 2, 5},
	{"adc", IndirectZP, 0x72, 2, 5},
	{"sta", IndirectZP, 0x92, 2, 5},
	{"lda", IndirectZP, 0xb2, 2, 5},
	{"cmp", IndirectZP, 0xd2, 2, 5},
	{"sbc", IndirectZP, 0xf2, 2, 5},

	{"inc", Accumulator, 0x1a, 1, 2}, {"dec", Accumulator, 0x3a, 1, 2},
	{"bra", Relative, 0x80, 2, 3},
	{"phx", Implicit, 0xda, 1, 3}, {"plx", Implicit, 0xfa, 1, 4},
	{"phy", Implicit, 0x5a, 1, 3}, {"ply", Implicit, 0x7a, 1, 4},
	{"stz", ZeroPage, 0x64, 2, 3}, {"stz", ZeroPageX, 0x74, 2, 4},
	{"stz", Absolute, 0x9c, 3, 4}, {"stz", AbsoluteX, 0x9e, 3, 5},
	{"trb", ZeroPage, 0x14, 2, 5}, {"trb", Absolute, 0x1c, 3, 6},
	{"tsb", ZeroPage, 0x04, 2, 5}, {"tsb", Absolute, 0x0c, 3, 6},
	{"jmp", IndirectAbsX, 0x7c, 3, 6},

	{"rmb0", ZPRelBitTest, 0x07, 2, 5}, {"rmb1", ZPRelBitTest, 0x17, 2, 5},
	{"rmb2", ZPRelBitTest, 0x27, 2, 5}, {"rmb3", ZPRelBitTest, 0x37, 2, 5},
	{"rmb4", ZPRelBitTest, 0x47, 2, 5}, {"rmb5", ZPRelBitTest, 0x57, 2, 5},
	{"rmb6", ZPRelBitTest, 0x67, 2, 5}, {"rmb7", ZPRelBitTest, 0x77, 2, 5},

	{"smb0", ZPRelBitTest, 0x87, 2, 5}, {"smb1", ZPRelBitTest, 0x97, 2, 5},
	{"smb2", ZPRelBitTest, 0xa7, 2, 5}, {"smb3", ZPRelBitTest, 0xb7, 2, 5},
	{"smb4", ZPRelBitTest, 0xc7, 2, 5}, {"smb5", ZPRelBitTest, 0xd7, 2, 5},
	{"smb6", ZPRelBitTest, 0xe7, 2, 5}, {"smb7", ZPRelBitTest, 0xf7, 2, 5},

	{"bbr0", ZPRelBitTest, 0x0f, 3, 5}, {"bbr1", ZPRelBitTest, 0x1f, 3, 5},
	{"bbr2", ZPRelBitTest, 0x2f, 3, 5}, {"bbr3", ZPRelBitTest, 0x3f, 3, 5},
	{"bbr4", ZPRelBitTest, 0x4f, 3, 5}, {"bbr5", ZPRelBitTest, 0x5f, 3, 5},
	{"bbr6", ZPRelBitTest, 0x6f, 3, 5}, {"bbr7", ZPRelBitTest, 0x7f, 3, 5},

	{"bbs0", ZPRelBitTest, 0x8f, 3, 5}, {"bbs1", ZPRelBitTest, 0x9f, 3, 5},
	{"bbs2", ZPRelBitTest, 0xaf, 3, 5}, {"bbs3", ZPRelBitTest, 0xbf, 3, 5},
	{"bbs4", ZPRelBitTest, 0xcf, 3, 5}, {"bbs5", ZPRelBitTest, 0xdf, 3, 5},
	{"bbs6", ZPRelBitTest, 0xef, 3, 5}, {"bbs7", ZPRelBitTest, 0xff, 3, 5},
}
