package assembler

import (
	"github.com/badass-asm/badass/ast"
	"github.com/badass-asm/badass/cpu"
)

var opTagToMode = map[string]cpu.Mode{
	"implicit":    cpu.Implicit,
	"immediate":   cpu.Immediate,
	"accumulator": cpu.Accumulator,
	"indirect":    cpu.Indirect,
	"indirect-x":  cpu.IndirectX,
	"indirect-y":  cpu.IndirectY,
	"indexed-x":   cpu.AbsoluteX,
	"indexed-y":   cpu.AbsoluteY,
	"absolute":    cpu.Absolute,
}

// bitTestMnemonics lists the 65C02 mnemonics whose operand is a
// (zero-page, relative-target) pair rather than the single operand every
// other instruction form carries.
var bitTestMnemonics = map[string]bool{}

func init() {
	for _, prefix := range []string{"rmb", "smb", "bbr", "bbs"} {
		for bit := 0; bit < 8; bit++ {
			bitTestMnemonics[prefix+itoa(bit)] = true
		}
	}
}

func (a *Assembler) assembleInstruction(n *ast.Node) {
	mnemonic := n.Str
	bare := mnemonic
	if len(bare) > 2 && bare[len(bare)-2:] == ".b" {
		bare = bare[:len(bare)-2]
	}

	if bitTestMnemonics[bare] {
		a.assembleBitTestInstruction(n, mnemonic)
		return
	}

	mode, ok := opTagToMode[n.Op]
	if !ok {
		a.addf(KindError, n.Line, "unknown addressing-mode tag %q", n.Op)
		return
	}

	var operand int64
	if len(n.Children) > 0 {
		operand = a.eval(n.Children[0]).Int64()
	}

	pc := a.pc()
	bytes, rangeErr, err := cpu.Assemble(a.table, mnemonic, mode, operand, true, pc, a.finalPass)
	if err != nil {
		a.addf(KindError, n.Line, "%s", err)
		return
	}
	if rangeErr != nil {
		if rangeErr.Truncated {
			a.addf(KindWarning, n.Line, "%s", rangeErr)
		} else {
			a.addf(KindRange, n.Line, "%s", rangeErr)
		}
	}
	a.emit(bytes)
}

// assembleBitTestInstruction handles rmb/smb (one operand: a zero-page
// address) and bbr/bbs (two operands: a zero-page address and a branch
// target), both parsed as ordinary instructions with a single chained
// operand expression list via the comma form, e.g. `bbr0 flags, target`.
func (a *Assembler) assembleBitTestInstruction(n *ast.Node, mnemonic string) {
	if len(n.Children) == 0 {
		a.addf(KindError, n.Line, "%s requires a zero-page operand", mnemonic)
		return
	}
	zp := a.eval(n.Children[0]).Int64()
	var target int64
	if len(n.Children) > 1 {
		target = a.eval(n.Children[1]).Int64()
	}
	pc := a.pc()
	bytes, rangeErr, err := cpu.AssembleBitTest(a.table, mnemonic, zp, target, pc, a.finalPass)
	if err != nil {
		a.addf(KindError, n.Line, "%s", err)
		return
	}
	if rangeErr != nil {
		if rangeErr.Truncated {
			a.addf(KindWarning, n.Line, "%s", rangeErr)
		} else {
			a.addf(KindRange, n.Line, "%s", rangeErr)
		}
	}
	a.emit(bytes)
}
