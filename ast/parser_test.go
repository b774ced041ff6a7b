package ast

import "testing"

func parseOK(t *testing.T, src string) *Node {
	t.Helper()
	root, errs := Parse("test", src)
	if !errs.Empty() {
		t.Fatalf("unexpected parse errors for %q: %s", src, errs.Error())
	}
	return root
}

func TestParseLabelAndInstruction(t *testing.T) {
	root := parseOK(t, "start:\n  lda #1\n  sta $d020\n")
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 top-level nodes, got %d", len(root.Children))
	}
	if root.Children[0].Kind != KindLabel || root.Children[0].Str != "start" {
		t.Errorf("first node = %+v, want label %q", root.Children[0], "start")
	}
	lda := root.Children[1]
	if lda.Kind != KindInstruction || lda.Str != "lda" || lda.Op != "immediate" {
		t.Errorf("lda node = %+v", lda)
	}
	sta := root.Children[2]
	if sta.Kind != KindInstruction || sta.Op != "absolute" {
		t.Errorf("sta node = %+v", sta)
	}
}

func TestParseAssignment(t *testing.T) {
	root := parseOK(t, "x = 1 + 2\n")
	if len(root.Children) != 1 || root.Children[0].Kind != KindAssign {
		t.Fatalf("expected a single assign node, got %+v", root.Children)
	}
	rhs := root.Children[0].Children[0]
	if rhs.Kind != KindBinary || rhs.Op != "+" {
		t.Errorf("rhs = %+v, want binary +", rhs)
	}
}

func TestParseIndexedLabel(t *testing.T) {
	root := parseOK(t, "table[3] = 42\n")
	n := root.Children[0]
	if n.Kind != KindIndexedLabel || n.Str != "table" {
		t.Fatalf("node = %+v", n)
	}
	if len(n.Children) != 2 {
		t.Fatalf("expected index expr + value, got %d children", len(n.Children))
	}
}

func TestParseMetaWithBlock(t *testing.T) {
	root := parseOK(t, `!section "code", start=$0800 { nop }`)
	n := root.Children[0]
	if n.Kind != KindMeta || n.Str != "section" {
		t.Fatalf("node = %+v", n)
	}
	// last child is the block
	block := n.Children[len(n.Children)-1]
	if block.Kind != KindBlock {
		t.Fatalf("expected trailing block, got %+v", block)
	}
	if len(block.Children) != 1 || block.Children[0].Str != "nop" {
		t.Errorf("block body = %+v", block.Children)
	}
}

func TestParseMetaNamedArg(t *testing.T) {
	root := parseOK(t, `!section "code", in=parent`)
	n := root.Children[0]
	if len(n.Children) != 2 {
		t.Fatalf("expected 2 args, got %d", len(n.Children))
	}
	named := n.Children[1]
	if named.Kind != KindAssign || named.Str != "in" {
		t.Errorf("second arg = %+v, want named arg `in`", named)
	}
}

func TestParseMacroCall(t *testing.T) {
	root := parseOK(t, "fillrow(1, 2)\n")
	n := root.Children[0]
	if n.Kind != KindMacroCall || n.Str != "fillrow" {
		t.Fatalf("node = %+v", n)
	}
	if len(n.Children) != 2 {
		t.Fatalf("expected 2 call args, got %d", len(n.Children))
	}
}

func TestParseBitTestMnemonicOperandPair(t *testing.T) {
	root := parseOK(t, "rmb0 $20, done\n")
	n := root.Children[0]
	if n.Kind != KindInstruction || n.Str != "rmb0" {
		t.Fatalf("node = %+v", n)
	}
	if len(n.Children) != 2 {
		t.Fatalf("expected a (zp, target) operand pair, got %d children", len(n.Children))
	}
}

func TestParseIndirectAddressing(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"jmp ($1000)\n", "indirect"},
		{"lda ($20,x)\n", "indirect-x"},
		{"lda ($20),y\n", "indirect-y"},
	}
	for _, c := range cases {
		root := parseOK(t, c.src)
		n := root.Children[0]
		if n.Op != c.want {
			t.Errorf("%q: Op = %q, want %q", c.src, n.Op, c.want)
		}
	}
}

func TestParseImplicitOperand(t *testing.T) {
	root := parseOK(t, "nop\nrts\n")
	for _, n := range root.Children {
		if n.Op != "implicit" {
			t.Errorf("%q: Op = %q, want implicit", n.Str, n.Op)
		}
	}
}

func TestParseIfElseif(t *testing.T) {
	root := parseOK(t, "!if a { nop } !elseif b { rts } !else { brk }")
	n := root.Children[0]
	if n.Kind != KindIf || n.Str != "if" {
		t.Fatalf("node = %+v", n)
	}
	// children: cond, block, elseif-branch, else-block
	if len(n.Children) != 4 {
		t.Fatalf("expected cond+block+elseif+else, got %d children", len(n.Children))
	}
}

func TestWalkPrePostOrder(t *testing.T) {
	root := parseOK(t, "x = 1\ny = 2\n")
	var order []Kind
	root.Walk(func(n *Node) bool {
		order = append(order, n.Kind)
		return true
	}, nil)
	if len(order) == 0 || order[0] != KindProgram {
		t.Fatalf("expected traversal to start at the program node, got %v", order)
	}
}

func TestWalkVetoSkipsSubtree(t *testing.T) {
	root := parseOK(t, "x = 1\ny = 2\n")
	visited := 0
	root.Walk(func(n *Node) bool {
		visited++
		return n.Kind != KindAssign // stop descending into assign nodes
	}, nil)
	// program + 2 assigns, never descending into their rhs
	if visited != 3 {
		t.Errorf("visited = %d, want 3 (veto should skip descent)", visited)
	}
}
