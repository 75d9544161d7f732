package smt

import "testing"

func TestFoldHashesSingleNodePassthrough(t *testing.T) {
	h := ValueHash([]byte("solo"))
	got, err := FoldHashes([]Hash{h}, []byte{0}, 0)
	if err != nil {
		t.Fatalf("FoldHashes: %v", err)
	}
	if got != h {
		t.Fatalf("single-node fold = %x, want passthrough %x", got, h)
	}
}

func TestFoldHashesBalancedPair(t *testing.T) {
	a, b := ValueHash([]byte("a")), ValueHash([]byte("b"))
	got, err := FoldHashes([]Hash{a, b}, []byte{1, 1}, 1)
	if err != nil {
		t.Fatalf("FoldHashes: %v", err)
	}
	if want := BranchHash(a, b); got != want {
		t.Fatalf("fold = %x, want %x", got, want)
	}
}

func TestFoldHashesRaggedStructure(t *testing.T) {
	// structure [1,2,2] describes a tree where leaf 0 sits at depth 1
	// (sibling to the branch of leaves 1 and 2, which sit at depth 2).
	l0, l1, l2 := ValueHash([]byte("0")), ValueHash([]byte("1")), ValueHash([]byte("2"))
	got, err := FoldHashes([]Hash{l0, l1, l2}, []byte{1, 2, 2}, 2)
	if err != nil {
		t.Fatalf("FoldHashes: %v", err)
	}
	want := BranchHash(l0, BranchHash(l1, l2))
	if got != want {
		t.Fatalf("ragged fold = %x, want %x", got, want)
	}
}

func TestFoldHashesRejectsLengthMismatch(t *testing.T) {
	if _, err := FoldHashes([]Hash{{}, {}}, []byte{1}, 1); err == nil {
		t.Fatalf("expected error on hash/structure length mismatch")
	}
}

func TestFoldHashesRejectsEmptyInput(t *testing.T) {
	if _, err := FoldHashes(nil, nil, 0); err == nil {
		t.Fatalf("expected error on empty input")
	}
}

func TestFoldHashesRejectsUnpairedNode(t *testing.T) {
	// A lone depth-2 entry with no sibling to pair against at height 2.
	if _, err := FoldHashes([]Hash{{}, {}, {}}, []byte{1, 1, 2}, 2); err == nil {
		t.Fatalf("expected error on unpaired node at fold height")
	}
}
