package ast

import "testing"

func TestKindStringKnownAndUnknown(t *testing.T) {
	if KindLabel.String() != "label" {
		t.Errorf("KindLabel.String() = %q, want %q", KindLabel.String(), "label")
	}
	if got := Kind(9999).String(); got != "unknown" {
		t.Errorf("unknown kind String() = %q, want %q", got, "unknown")
	}
}

func TestNodeAddChaining(t *testing.T) {
	n := NewNode(KindBlock, 1, Span{0, 0})
	a := NewNode(KindNumber, 1, Span{0, 0})
	b := NewNode(KindNumber, 2, Span{1, 0})
	n.Add(a).Add(b)
	if len(n.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(n.Children))
	}
	if n.Children[0] != a || n.Children[1] != b {
		t.Error("Add did not append in call order")
	}
}

func TestWalkPostOrder(t *testing.T) {
	root := NewNode(KindBlock, 1, Span{})
	leaf := NewNode(KindNumber, 1, Span{})
	root.Add(leaf)

	var post []Kind
	root.Walk(nil, func(n *Node) { post = append(post, n.Kind) })
	if len(post) != 2 || post[0] != KindNumber || post[1] != KindBlock {
		t.Errorf("post order = %v, want [number block] (children before parent)", post)
	}
}
