// Package cpu implements the 6502/65C02 instruction tables and the mode
// reconciliation and assembly/disassembly procedures built on top of them.
// It has no dependency on the emulator or the assembler: it is pure data
// plus the two directions of (mnemonic, mode, operand) <-> bytes.
package cpu

import (
	"fmt"
)

// Mode is one of the abstract addressing modes the grammar recognizes.
type Mode int

const (
	Implicit Mode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
	IndirectZP    // 65C02 (zp), no index
	IndirectAbsX  // 65C02 jmp (abs,x)
	ZPRelBitTest  // bbr/bbs/rmb/smb: zero-page byte + 8-bit relative displacement
)

var modeNames = map[Mode]string{
	Implicit: "implicit", Accumulator: "accumulator", Immediate: "immediate",
	ZeroPage: "zp", ZeroPageX: "zp,x", ZeroPageY: "zp,y", Relative: "relative",
	Absolute: "absolute", AbsoluteX: "absolute,x", AbsoluteY: "absolute,y",
	Indirect: "indirect", IndirectX: "(zp,x)", IndirectY: "(zp),y",
	IndirectZP: "(zp)", IndirectAbsX: "(absolute,x)", ZPRelBitTest: "zp,rel",
}

func (m Mode) String() string { return modeNames[m] }

// Entry is one row of the opcode table: a (mnemonic, mode) pair bound to
// its encoding.
type Entry struct {
	Mnemonic string
	Mode     Mode
	Code     byte
	Size     int // total instruction bytes, including the opcode byte
	Cycles   int
}

// CPU selects which instruction set is in effect.
type CPU int

const (
	MOS6502 CPU = iota
	WDC65C02
)

// Table indexes a CPU's instruction set both ways: by (mnemonic, mode) for
// assembly, and by opcode byte for disassembly/emulation.
type Table struct {
	byNameMode map[string]map[Mode]Entry
	byCode     [256]*Entry
}

var table6502 = buildTable(opcodes6502)
var table65C02 = buildTable(append(append([]Entry{}, opcodes6502...), opcodes65C02...))

func buildTable(entries []Entry) *Table {
	t := &Table{byNameMode: make(map[string]map[Mode]Entry)}
	for _, e := range entries {
		e := e
		if t.byNameMode[e.Mnemonic] == nil {
			t.byNameMode[e.Mnemonic] = make(map[Mode]Entry)
		}
		t.byNameMode[e.Mnemonic][e.Mode] = e
		t.byCode[e.Code] = &e
	}
	return t
}

// TableFor returns the instruction table for the given CPU.
func TableFor(c CPU) *Table {
	if c == WDC65C02 {
		return table65C02
	}
	return table6502
}

// Lookup returns the exact (mnemonic, mode) entry, if present.
func (t *Table) Lookup(mnemonic string, mode Mode) (Entry, bool) {
	m, ok := t.byNameMode[mnemonic]
	if !ok {
		return Entry{}, false
	}
	e, ok := m[mode]
	return e, ok
}

// ByCode returns the entry for a raw opcode byte, if known.
func (t *Table) ByCode(code byte) (Entry, bool) {
	e := t.byCode[code]
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// HasMnemonic reports whether mnemonic names an instruction in this
// table, in any addressing mode.
func (t *Table) HasMnemonic(mnemonic string) bool {
	_, ok := t.byNameMode[mnemonic]
	return ok
}

// ErrIllegal is returned when no (mnemonic, mode) combination matches.
type ErrIllegal struct {
	Mnemonic string
	Mode     Mode
}

func (e *ErrIllegal) Error() string {
	return fmt.Sprintf("illegal instruction/addressing mode: %s %s", e.Mnemonic, e.Mode)
}

// ErrRange is returned when an operand does not fit the encoding
// (out-of-range 8-bit branch, etc). Truncated is true when the
// out-of-range result was nonetheless encoded (tolerated outside the
// final assembly pass).
type ErrRange struct {
	Reason    string
	Truncated bool
}

func (e *ErrRange) Error() string { return "range: " + e.Reason }

// zpVariant maps a wide mode to its zero-page equivalent, for the
// "operand fits in a byte" promotion rule.
var zpVariant = map[Mode]Mode{
	Absolute:  ZeroPage,
	AbsoluteX: ZeroPageX,
	AbsoluteY: ZeroPageY,
	Indirect:  IndirectZP,
}

// Assemble encodes one instruction. mnemonic may carry a ".b" suffix
// (forcing absolute -> zero-page); absoluteTarget marks operand as an
// absolute branch target, which a Relative table entry encodes as a
// displacement from pc.
// pc is the address of the opcode byte itself, needed to compute relative
// displacements. finalPass disables the "truncated" tolerance.
func Assemble(t *Table, mnemonic string, mode Mode, operand int64, absoluteTarget bool, pc int, finalPass bool) ([]byte, *ErrRange, error) {
	forceZP := false
	if len(mnemonic) > 2 && mnemonic[len(mnemonic)-2:] == ".b" {
		mnemonic = mnemonic[:len(mnemonic)-2]
		forceZP = true
	}

	if forceZP {
		if zp, ok := zpVariant[mode]; ok {
			mode = zp
		}
	}

	// 1. promote wide mode to zero-page equivalent when the operand fits a byte
	if zp, ok := zpVariant[mode]; ok && fitsByte(operand) {
		if e, ok := t.Lookup(mnemonic, zp); ok {
			return encode(e, operand, pc)
		}
	}

	// 2. exact match; a Relative request carrying an absolute target is
	// left to step 3, which turns the target into a displacement
	if e, ok := t.Lookup(mnemonic, mode); ok && !(mode == Relative && absoluteTarget) {
		return encode(e, operand, pc)
	}

	// 3. relative encoding: table entry is Relative, but caller supplied an
	// absolute target address.
	if e, ok := t.Lookup(mnemonic, Relative); ok && absoluteTarget {
		disp := operand - int64(pc+2)
		rangeErr := checkDisplacement(disp)
		if rangeErr != nil {
			if finalPass {
				return nil, rangeErr, errRangeFinal(rangeErr)
			}
			rangeErr.Truncated = true
		}
		return []byte{e.Code, byte(int8(disp))}, rangeErr, nil
	}

	// zero-page-relative-bit-test composite operand is handled by the
	// caller via AssembleBitTest, since it needs two operands.
	return nil, nil, &ErrIllegal{Mnemonic: mnemonic, Mode: mode}
}

func errRangeFinal(e *ErrRange) error { return e }

func fitsByte(v int64) bool { return v >= 0 && v <= 0xff }

func checkDisplacement(disp int64) *ErrRange {
	if disp < -128 || disp > 127 {
		return &ErrRange{Reason: fmt.Sprintf("relative displacement %d out of range [-128,127]", disp)}
	}
	return nil
}

func encode(e Entry, operand int64, pc int) ([]byte, *ErrRange, error) {
	switch e.Size {
	case 1:
		return []byte{e.Code}, nil, nil
	case 2:
		if operand < 0 || operand > 0xff {
			if e.Mode != Immediate {
				return []byte{e.Code, byte(operand)}, &ErrRange{Reason: fmt.Sprintf("operand %d does not fit a byte", operand), Truncated: true}, nil
			}
		}
		return []byte{e.Code, byte(operand)}, nil, nil
	case 3:
		return []byte{e.Code, byte(operand), byte(operand >> 8)}, nil, nil
	default:
		return nil, nil, fmt.Errorf("cpu: unsupported instruction size %d", e.Size)
	}
}

// AssembleBitTest encodes a zero-page-relative-bit-test instruction
// (bbr0..bbr7, bbs0..bbs7, rmb0..rmb7, smb0..smb7): opcode byte, then a
// zero-page byte, then (for bbr/bbs only) an 8-bit relative displacement.
func AssembleBitTest(t *Table, mnemonic string, zp int64, target int64, pc int, finalPass bool) ([]byte, *ErrRange, error) {
	e, ok := t.Lookup(mnemonic, ZPRelBitTest)
	if !ok {
		return nil, nil, &ErrIllegal{Mnemonic: mnemonic, Mode: ZPRelBitTest}
	}
	if e.Size == 2 {
		// rmb/smb: opcode + zp byte only
		return []byte{e.Code, byte(zp)}, nil, nil
	}
	disp := target - int64(pc+3)
	rangeErr := checkDisplacement(disp)
	if rangeErr != nil {
		if finalPass {
			return nil, rangeErr, errRangeFinal(rangeErr)
		}
		rangeErr.Truncated = true
	}
	return []byte{e.Code, byte(zp), byte(int8(disp))}, rangeErr, nil
}

// Disassemble decodes the instruction at code[pc:], returning its mnemonic
// text, a compatible mode, and the offset of the next instruction. It is
// the inverse of Assemble.
func Disassemble(t *Table, code []byte, pc int) (mnemonic string, mode Mode, operand int64, next int, err error) {
	if pc >= len(code) {
		return "", Implicit, 0, pc, fmt.Errorf("cpu: pc %d out of range", pc)
	}
	e, ok := t.ByCode(code[pc])
	if !ok {
		return "", Implicit, 0, pc, fmt.Errorf("cpu: unknown opcode 0x%02x at %d", code[pc], pc)
	}
	switch e.Size {
	case 1:
		return e.Mnemonic, e.Mode, 0, pc + 1, nil
	case 2:
		if pc+1 >= len(code) {
			return "", Implicit, 0, pc, fmt.Errorf("cpu: truncated operand at %d", pc)
		}
		return e.Mnemonic, e.Mode, int64(code[pc+1]), pc + 2, nil
	case 3:
		if pc+2 >= len(code) {
			return "", Implicit, 0, pc, fmt.Errorf("cpu: truncated operand at %d", pc)
		}
		lo, hi := int64(code[pc+1]), int64(code[pc+2])
		return e.Mnemonic, e.Mode, lo | hi<<8, pc + 3, nil
	default:
		return "", Implicit, 0, pc, fmt.Errorf("cpu: unsupported size %d", e.Size)
	}
}
