// This is free and unencumbered software released into the public domain.
//
// Anyone is free to copy, modify, publish, use, compile, sell, or
// distribute this software, either in source code form or as a compiled
// binary, for any purpose, commercial or non-commercial, and by any
// means.
//
// In jurisdictions that recognize copyright laws, the author or authors
// of this software dedicate any and all copyright interest in the
// software to the public domain. We make this dedication for the benefit
// of the public at large and to the detriment of our heirs and
// successors. We intend this dedication to be an overt act of
// relinquishment in perpetuity of all present and future rights to this
// software under copyright law.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
// IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
// OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
// ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.
//
// For more information, please refer to <https://unlicense.org>

package smt

// SubTree is a bounded fragment of the logical tree, of depth at most H.
// Structure[i] gives the in-subtree depth (0..=H) of Nodes[i]; both slices
// run in left-to-right leaf order. Root is the folded hash of the whole
// fragment.
type SubTree struct {
	Structure []byte
	Nodes     []Node
	Root      Hash
}

// newEmptySubTree returns the canonical empty subtree: structure [0], a
// single Empty node, root == EmptyHash().
func newEmptySubTree() *SubTree {
	return &SubTree{
		Structure: []byte{0},
		Nodes:     []Node{NewEmptyNode()},
		Root:      EmptyHash(),
	}
}

// newSubTree builds a SubTree from nodes/structure already known to satisfy
// the full-binary-tree invariant, computing its root via FoldHashes.
func newSubTree(nodes []Node, structure []byte) (*SubTree, error) {
	if len(nodes) != len(structure) || len(nodes) == 0 {
		return nil, newErr(Unknown, "subtree nodes/structure length mismatch")
	}
	height := 0
	for _, d := range structure {
		if int(d) > height {
			height = int(d)
		}
	}
	hashes := make([]Hash, len(nodes))
	for i, n := range nodes {
		hashes[i] = n.Hash()
	}
	root, err := FoldHashes(hashes, structure, height)
	if err != nil {
		return nil, err
	}
	return &SubTree{Structure: structure, Nodes: nodes, Root: root}, nil
}

// Encode renders the subtree in its canonical wire form:
//
//	byte 0        : L = len(structure) - 1
//	bytes 1..L+1  : structure vector (length L+1)
//	bytes L+2..   : concatenated node.serialized_form, in order
func (s *SubTree) Encode(keyLength int) ([]byte, error) {
	if len(s.Structure) == 0 || len(s.Structure) != len(s.Nodes) {
		return nil, newErr(InvalidInput, "cannot encode subtree with mismatched structure/nodes")
	}
	L := len(s.Structure) - 1
	size := 1 + len(s.Structure)
	for _, n := range s.Nodes {
		size += n.serializedLen(keyLength)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, byte(L))
	buf = append(buf, s.Structure...)
	var err error
	for _, n := range s.Nodes {
		buf, err = n.appendSerialized(buf, keyLength)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// DecodeSubTree parses the canonical wire form produced by Encode, then
// recomputes Root via FoldHashes so a caller never trusts an unverified
// root that happened to be embedded alongside the bytes (the wire form
// carries no root field at all — it is always recomputed).
func DecodeSubTree(data []byte, keyLength int) (*SubTree, error) {
	if len(data) == 0 {
		return nil, newErr(InvalidInput, "empty subtree encoding")
	}
	L := int(data[0])
	structEnd := 1 + L + 1
	if structEnd > len(data) {
		return nil, newErr(InvalidInput, "truncated structure vector")
	}
	structure := append([]byte(nil), data[1:structEnd]...)

	nodes := make([]Node, 0, len(structure))
	offset := structEnd
	for range structure {
		n, consumed, err := decodeNode(data[offset:], keyLength)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		offset += consumed
	}
	if offset != len(data) {
		return nil, newErr(InvalidInput, "trailing bytes after subtree encoding")
	}
	return newSubTree(nodes, structure)
}

// validateStructure checks invariants 2 and 3 of the data model: every
// depth is within [0, H], and the structure vector is a valid full binary
// tree traversal (the reciprocal powers of two sum to exactly 1).
func validateStructure(structure []byte, h int) error {
	if len(structure) == 0 {
		return newErr(InvalidInput, "empty structure vector")
	}
	// Sum 2^(H-d) over a height-H binary tree equals 2^H iff the leaves
	// form a valid full binary tree; comparing integer counts at depth H
	// avoids floating point entirely.
	var total uint64
	for _, d := range structure {
		if int(d) > h {
			return newErr(InvalidInput, "structure entry exceeds subtree height")
		}
		total += uint64(1) << uint(h-int(d))
	}
	if total != uint64(1)<<uint(h) {
		return newErr(InvalidInput, "structure vector is not a valid full binary tree traversal")
	}
	return nil
}
