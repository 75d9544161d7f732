package smt

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEmptySubTreeRootIsEmptyHash(t *testing.T) {
	st := newEmptySubTree()
	if st.Root != EmptyHash() {
		t.Fatalf("empty subtree root = %x, want EmptyHash", st.Root)
	}
	if len(st.Nodes) != 1 || st.Nodes[0].Kind != KindEmpty {
		t.Fatalf("empty subtree must hold exactly one Empty node")
	}
}

func TestSubTreeEncodeDecodeRoundTrip(t *testing.T) {
	const K = 32
	leafA := NewLeafNode(bytes.Repeat([]byte{0x01}, K), ValueHash([]byte("a")))
	leafB := NewLeafNode(bytes.Repeat([]byte{0x02}, K), ValueHash([]byte("b")))
	st, err := newSubTree([]Node{leafA, leafB}, []byte{1, 1})
	if err != nil {
		t.Fatalf("newSubTree: %v", err)
	}
	wantRoot := BranchHash(leafA.Hash(), leafB.Hash())
	if st.Root != wantRoot {
		t.Fatalf("subtree root = %x, want %x", st.Root, wantRoot)
	}

	encoded, err := st.Encode(K)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[0] != byte(len(st.Structure)-1) {
		t.Fatalf("encoded L byte = %d, want %d", encoded[0], len(st.Structure)-1)
	}

	decoded, err := DecodeSubTree(encoded, K)
	if err != nil {
		t.Fatalf("DecodeSubTree: %v", err)
	}
	if decoded.Root != st.Root {
		t.Fatalf("decoded root = %x, want %x", decoded.Root, st.Root)
	}
	if !bytes.Equal(decoded.Structure, st.Structure) {
		t.Fatalf("decoded structure = %v, want %v", decoded.Structure, st.Structure)
	}
}

func TestSubTreeSingleNodeFoldsToItself(t *testing.T) {
	// Invariant 5 of the data model: a one-node subtree's root is the node's
	// own hash, never a branch hash of it against itself.
	leaf := NewLeafNode(bytes.Repeat([]byte{0x09}, 32), ValueHash([]byte("solo")))
	st, err := newSubTree([]Node{leaf}, []byte{0})
	if err != nil {
		t.Fatalf("newSubTree: %v", err)
	}
	if st.Root != leaf.Hash() {
		t.Fatalf("single-node subtree root = %x, want leaf hash %x", st.Root, leaf.Hash())
	}
}

func TestDecodeSubTreeRejectsTrailingBytes(t *testing.T) {
	st := newEmptySubTree()
	encoded, err := st.Encode(32)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	encoded = append(encoded, 0xff)
	if _, err := DecodeSubTree(encoded, 32); err == nil {
		t.Fatalf("expected error decoding subtree with trailing bytes")
	}
}

// TestDecodeSubTreeMatchesReferenceVector pins the wire decoder against
// the host project's own encoded 3-leaf subtree: decoding it must recover
// both the documented structure and the documented root hash.
func TestDecodeSubTreeMatchesReferenceVector(t *testing.T) {
	const encodedHex = "05030302020303001f930f4f669738b026406a872c24db29238731868957ae1de0e5a68bb0cf7da633e508533a13da9c33fc64eb78b18bd0646c82d6316697dece0aee5a3a92e45700082e6af17a61852d01dfc18e859c20b0b974472bf6169295c36ce1380c2550e16c16babfe7d3204f61852d100f553276ad154921988de3797622091f0581884b008b647996849b70889d2a382d8fa2f42405c3bca57189de0be52c92bbc03f0cd21194ddd776cf387a81d0117b6288e6a724ec14a58cdde3c196292191da360da800ec66ad4b484153de040869f8833a30a8fcde4fdf8fcbd78d33c2fb2182dd8ffa3b311d3a72a9aec8560c56c68d665ad54c5644d40ea4fc7ed914d4eea5da3c0400e93bd78ce150412056a9076cf58977ff1a697b1932abdd52d7b978fce69186d3a9cb7274eceac6b0807ce4db0763dc596cd00e59177172de6b5dd1593b33a78500c8c4673053da259999cbc9502aef75c3c0b84bce42b1d1a2d437df88d32b737bd36e7a6410939ac431914de947353f06bbbfc31c86609ec291ed9e13b665f86a"
	const wantRootHex = "7a208dc2a21cb829e5fa4dc7d876bef8e52ddd23ae5ea24c2567b264bcd91a23"
	wantStructure := []byte{3, 3, 2, 2, 3, 3}

	encoded, err := hex.DecodeString(encodedHex)
	if err != nil {
		t.Fatalf("bad hex literal: %v", err)
	}
	wantRoot, err := hex.DecodeString(wantRootHex)
	if err != nil {
		t.Fatalf("bad hex literal: %v", err)
	}

	st, err := DecodeSubTree(encoded, 32)
	if err != nil {
		t.Fatalf("DecodeSubTree: %v", err)
	}
	if !bytes.Equal(st.Structure, wantStructure) {
		t.Fatalf("structure = %v, want %v", st.Structure, wantStructure)
	}
	if !bytesEqualHash(st.Root, wantRoot) {
		t.Fatalf("root = %x, want %x", st.Root, wantRoot)
	}
}

func TestValidateStructure(t *testing.T) {
	if err := validateStructure([]byte{0}, 8); err != nil {
		t.Fatalf("structure [0] should be valid at any height: %v", err)
	}
	if err := validateStructure([]byte{1, 1}, 8); err != nil {
		t.Fatalf("structure [1,1] should be valid: %v", err)
	}
	if err := validateStructure([]byte{1, 2, 2}, 8); err != nil {
		t.Fatalf("structure [1,2,2] should be valid: %v", err)
	}
	if err := validateStructure([]byte{1, 1, 1}, 8); err == nil {
		t.Fatalf("structure [1,1,1] sums past 2^H and should be rejected")
	}
	if err := validateStructure([]byte{9}, 8); err == nil {
		t.Fatalf("structure entry exceeding H should be rejected")
	}
}
