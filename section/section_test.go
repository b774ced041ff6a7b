package section

import "testing"

func TestAddSectionFloatingNesting(t *testing.T) {
	l := New()
	if _, err := l.AddSection(Spec{Name: "code", Start: 0x0801, Size: -1}); err != nil {
		t.Fatalf("AddSection(code): %v", err)
	}
	if _, err := l.AddSection(Spec{Name: "code.header", Start: -1, Size: -1, Parent: "code"}); err != nil {
		t.Fatalf("AddSection(code.header): %v", err)
	}
	if err := l.Emit("code.header", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	stable, err := l.Do()
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !stable {
		t.Errorf("single pass over a fully fixed/emitted tree should already be stable")
	}

	header, ok := l.Get("code.header")
	if !ok {
		t.Fatalf("code.header not found")
	}
	if header.Start != 0x0801 {
		t.Errorf("code.header.Start = %#x, want %#x", header.Start, 0x0801)
	}

	code, _ := l.Get("code")
	if code.Size != 3 {
		t.Errorf("code.Size = %d, want 3 (sum of children)", code.Size)
	}
}

func TestLayoutStabilizesAcrossResetPasses(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "zp", Start: 0x00, Size: 0x100})
	l.AddSection(Spec{Name: "code", Start: -1, Size: -1})

	stable, err := l.Do()
	if err != nil {
		t.Fatalf("Do (pass 1): %v", err)
	}
	if stable {
		t.Fatalf("first layout of a floating section should not report stable before any Emit")
	}
	codeStartPass1, _ := l.Get("code")
	if codeStartPass1.Start != 0x100 {
		t.Fatalf("code.Start after pass 1 = %#x, want %#x", codeStartPass1.Start, 0x100)
	}

	l.Reset()
	if codeStartPass1.Start != 0x100 {
		t.Fatalf("Reset must not clear a section's previously resolved Start")
	}
	if codeStartPass1.PC != 0x100 {
		t.Fatalf("Reset should rewind PC to Start, got %#x", codeStartPass1.PC)
	}

	stable, err = l.Do()
	if err != nil {
		t.Fatalf("Do (pass 2): %v", err)
	}
	if !stable {
		t.Errorf("second pass over an unchanged tree should be stable")
	}
}

func TestEmitRejectsFixedSizeOverflow(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "zp", Start: 0, Size: 2})
	if err := l.Emit("zp", []byte{1, 2}); err != nil {
		t.Fatalf("Emit within size: %v", err)
	}
	if err := l.Emit("zp", []byte{3}); err == nil {
		t.Fatalf("Emit exceeding fixed size should fail")
	}
}

func TestEmitRejectsNonLeaf(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "code", Start: 0, Size: -1})
	l.AddSection(Spec{Name: "code.a", Start: -1, Size: -1, Parent: "code"})
	if err := l.Emit("code", []byte{1}); err == nil {
		t.Fatalf("Emit on a section with children should fail")
	}
}

func TestCheckOverlapDetectsOverlappingFixedSections(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "a", Start: 0x1000, Size: -1})
	l.AddSection(Spec{Name: "b", Start: 0x1002, Size: -1})
	l.Emit("a", []byte{1, 2, 3, 4})
	l.Emit("b", []byte{5, 6})
	if _, err := l.Do(); err != nil {
		t.Fatalf("Do: %v", err)
	}
	overlaps := l.CheckOverlap()
	if len(overlaps) != 1 {
		t.Fatalf("CheckOverlap() = %d overlaps, want 1", len(overlaps))
	}
}

func TestAddSectionUnknownParent(t *testing.T) {
	l := New()
	if _, err := l.AddSection(Spec{Name: "a", Start: -1, Size: -1, Parent: "nope"}); err == nil {
		t.Fatalf("AddSection with an unknown parent should fail")
	}
}

func TestAddSectionStartBackwardFails(t *testing.T) {
	l := New()
	l.AddSection(Spec{Name: "a", Start: 0x1000, Size: -1})
	l.AddSection(Spec{Name: "b", Start: 0x0500, Size: -1})
	l.Emit("a", []byte{1, 2, 3, 4, 5, 6})
	if _, err := l.Do(); err == nil {
		t.Fatalf("a fixed section starting before the running cursor should fail layout")
	}
}
