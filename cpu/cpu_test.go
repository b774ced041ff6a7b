package cpu

import "testing"

func TestTableForSeparatesInstructionSets(t *testing.T) {
	t6502 := TableFor(MOS6502)
	t65c02 := TableFor(WDC65C02)
	if t6502.HasMnemonic("rmb0") {
		t.Error("rmb0 is a 65C02-only mnemonic and should not exist on the base 6502 table")
	}
	if !t65c02.HasMnemonic("rmb0") {
		t.Error("rmb0 should exist on the 65C02 table")
	}
	if !t6502.HasMnemonic("lda") || !t65c02.HasMnemonic("lda") {
		t.Error("lda should exist on both tables")
	}
}

func TestLookupAndByCode(t *testing.T) {
	tbl := TableFor(MOS6502)
	e, ok := tbl.Lookup("lda", Immediate)
	if !ok || e.Code != 0xa9 {
		t.Fatalf("Lookup(lda, immediate) = %+v, %v", e, ok)
	}
	e2, ok := tbl.ByCode(0xa9)
	if !ok || e2.Mnemonic != "lda" {
		t.Fatalf("ByCode(0xa9) = %+v, %v", e2, ok)
	}
}

func TestAssembleImmediate(t *testing.T) {
	tbl := TableFor(MOS6502)
	code, rangeErr, err := Assemble(tbl, "lda", Immediate, 0x42, false, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rangeErr != nil {
		t.Fatalf("unexpected range error: %v", rangeErr)
	}
	want := []byte{0xa9, 0x42}
	if len(code) != len(want) || code[0] != want[0] || code[1] != want[1] {
		t.Errorf("code = % x, want % x", code, want)
	}
}

func TestAssembleZeroPagePromotion(t *testing.T) {
	tbl := TableFor(MOS6502)
	// Absolute-mode request with an operand that fits a byte should promote
	// to the zero-page encoding, without a ".b" suffix.
	code, _, err := Assemble(tbl, "sta", Absolute, 0x20, false, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code[0] != 0x85 {
		t.Errorf("opcode = %#02x, want zero-page sta (0x85)", code[0])
	}
}

func TestAssembleIndirectPromotesToIndirectZP(t *testing.T) {
	tbl := TableFor(WDC65C02)
	// A bare (zp) operand is parsed as mode Indirect; on the 65C02 it must
	// promote to the true indirect-zero-page encoding, not (zp,x).
	code, _, err := Assemble(tbl, "lda", Indirect, 0x20, false, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code[0] != 0xb2 {
		t.Errorf("opcode = %#02x, want lda (zp) (0xb2), not (zp,x) (0xa1)", code[0])
	}
}

func TestAssembleForcedByteSuffix(t *testing.T) {
	tbl := TableFor(MOS6502)
	code, _, err := Assemble(tbl, "sta.b", Absolute, 0x20, false, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code[0] != 0x85 {
		t.Errorf("opcode = %#02x, want zero-page sta (0x85) via .b suffix", code[0])
	}
}

func TestAssembleRelativeBranch(t *testing.T) {
	tbl := TableFor(MOS6502)
	// bne at pc=0x10, target=0x20: displacement = 0x20 - (0x10+2) = 14
	code, rangeErr, err := Assemble(tbl, "bne", Relative, 0x20, true, 0x10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rangeErr != nil {
		t.Fatalf("unexpected range error: %v", rangeErr)
	}
	if code[0] != 0xd0 || int8(code[1]) != 14 {
		t.Errorf("code = % x, want opcode 0xd0 and displacement 14", code)
	}
}

func TestAssembleRelativeBranchOutOfRangeFinalPass(t *testing.T) {
	tbl := TableFor(MOS6502)
	_, rangeErr, err := Assemble(tbl, "bne", Relative, 0x1000, true, 0, true)
	if err == nil {
		t.Fatal("expected an error for an out-of-range branch on the final pass")
	}
	if rangeErr == nil || rangeErr.Truncated {
		t.Errorf("rangeErr = %+v, want non-truncated final-pass error", rangeErr)
	}
}

func TestAssembleRelativeBranchOutOfRangeNonFinalPassTolerated(t *testing.T) {
	tbl := TableFor(MOS6502)
	code, rangeErr, err := Assemble(tbl, "bne", Relative, 0x1000, true, 0, false)
	if err != nil {
		t.Fatalf("non-final pass should tolerate an out-of-range branch, got error: %v", err)
	}
	if rangeErr == nil || !rangeErr.Truncated {
		t.Error("expected a Truncated range error on a non-final pass")
	}
	if len(code) != 2 {
		t.Errorf("expected a 2-byte encoding even when truncated, got %d bytes", len(code))
	}
}

func TestAssembleIllegalInstruction(t *testing.T) {
	tbl := TableFor(MOS6502)
	_, _, err := Assemble(tbl, "rmb0", ZPRelBitTest, 0, false, 0, true)
	if err == nil {
		t.Fatal("expected an illegal-instruction error for a 65C02-only mnemonic on the base table")
	}
	if _, ok := err.(*ErrIllegal); !ok {
		t.Errorf("expected *ErrIllegal, got %T", err)
	}
}

func TestAssembleBitTestRmb(t *testing.T) {
	tbl := TableFor(WDC65C02)
	code, _, err := AssembleBitTest(tbl, "rmb0", 0x20, 0, 0, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x07, 0x20}
	if len(code) != 2 || code[0] != want[0] || code[1] != want[1] {
		t.Errorf("code = % x, want % x", code, want)
	}
}

func TestAssembleBitTestBbr(t *testing.T) {
	tbl := TableFor(WDC65C02)
	// bbr0 at pc=0x10, zp=0x20, target=0x20: displacement = 0x20-(0x10+3) = 13
	code, _, err := AssembleBitTest(tbl, "bbr0", 0x20, 0x20, 0x10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code[0] != 0x0f || code[1] != 0x20 || int8(code[2]) != 13 {
		t.Errorf("code = % x, want opcode 0x0f, zp 0x20, displacement 13", code)
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	tbl := TableFor(MOS6502)
	code := []byte{0xa9, 0x42, 0xea}
	mnemonic, mode, operand, next, err := Disassemble(tbl, code, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mnemonic != "lda" || mode != Immediate || operand != 0x42 || next != 2 {
		t.Errorf("got (%s, %s, %d, %d), want (lda, immediate, 0x42, 2)", mnemonic, mode, operand, next)
	}
	mnemonic2, mode2, _, next2, err := Disassemble(tbl, code, next)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mnemonic2 != "nop" || mode2 != Implicit || next2 != 3 {
		t.Errorf("got (%s, %s, _, %d), want (nop, implicit, 3)", mnemonic2, mode2, next2)
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	tbl := TableFor(MOS6502)
	_, _, _, _, err := Disassemble(tbl, []byte{0x02}, 0)
	if err == nil {
		t.Fatal("expected an error for an unassigned opcode byte")
	}
}

func TestDisassembleTruncatedOperand(t *testing.T) {
	tbl := TableFor(MOS6502)
	_, _, _, _, err := Disassemble(tbl, []byte{0xa9}, 0)
	if err == nil {
		t.Fatal("expected an error for a truncated two-byte instruction")
	}
}
