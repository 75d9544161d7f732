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

import "bytes"

// NodeKind tags the four variants a Node can take. It is a plain tagged
// union, not an interface hierarchy: the commit and proof engines switch on
// Kind rather than dispatching through method sets, matching the source
// algorithm's NodeKind enum.
type NodeKind uint8

const (
	// KindEmpty carries no key or value; its hash is always EmptyHash().
	KindEmpty NodeKind = iota
	// KindLeaf carries (key, valueHash); its hash is LeafHash(key, valueHash).
	KindLeaf
	// KindStub is an opaque pointer into the store; its hash is the
	// referenced subtree's root.
	KindStub
	// KindTemp is an internal-only placeholder used while calculateSubtree
	// folds a fragment back under height H. It never serializes and never
	// appears in a subtree returned to a caller.
	KindTemp
)

// Node is a single entry of a SubTree's nodes slice. Only the fields
// relevant to Kind are meaningful; the rest are zero.
type Node struct {
	Kind NodeKind

	// Leaf fields.
	Key       []byte
	ValueHash Hash

	// Stub field: the referenced subtree's root hash.
	StubHash Hash

	// Temp fields: room for a deferred (nodes, structure) fragment.
	// calculateSubtree leaves them nil and keeps each deferred fragment in
	// its deque instead.
	TempNodes     []Node
	TempStructure []byte

	hash    Hash
	hashSet bool
}

// NewEmptyNode returns a fresh Empty node.
func NewEmptyNode() Node {
	return Node{Kind: KindEmpty, hash: EmptyHash(), hashSet: true}
}

// NewLeafNode returns a Leaf node for the given key and already-hashed
// value.
func NewLeafNode(key []byte, valueHash Hash) Node {
	k := make([]byte, len(key))
	copy(k, key)
	return Node{Kind: KindLeaf, Key: k, ValueHash: valueHash, hash: LeafHash(k, valueHash[:]), hashSet: true}
}

// NewStubNode returns a Stub node pointing at a subtree by root hash.
func NewStubNode(root Hash) Node {
	return Node{Kind: KindStub, StubHash: root, hash: root, hashSet: true}
}

// newTempNode returns a Temp placeholder carrying the given fragment
// fields. Its Hash must never be read; calculateSubtree always realizes or
// splices it before the subtree escapes to a caller.
func newTempNode(nodes []Node, structure []byte) Node {
	return Node{Kind: KindTemp, TempNodes: nodes, TempStructure: structure}
}

// Hash returns the node's hash. Valid for Empty, Leaf and Stub; for a Temp
// node it returns the zero Hash rather than panicking.
func (n Node) Hash() Hash {
	if n.hashSet {
		return n.hash
	}
	switch n.Kind {
	case KindEmpty:
		return EmptyHash()
	case KindLeaf:
		return LeafHash(n.Key, n.ValueHash[:])
	case KindStub:
		return n.StubHash
	default:
		return Hash{}
	}
}

// IsSameKey reports whether a Leaf node's key equals k.
func (n Node) IsSameKey(k []byte) bool {
	return n.Kind == KindLeaf && bytes.Equal(n.Key, k)
}

// serializedLen returns the on-disk length of the node's serialized form,
// given the tree's key length K.
func (n Node) serializedLen(keyLength int) int {
	switch n.Kind {
	case KindEmpty:
		return 1
	case KindLeaf:
		return 1 + keyLength + 32
	case KindStub:
		return 1 + 32
	default:
		return 0
	}
}

// appendSerialized appends the node's canonical wire form to buf.
func (n Node) appendSerialized(buf []byte, keyLength int) ([]byte, error) {
	switch n.Kind {
	case KindEmpty:
		return append(buf, prefixEmpty), nil
	case KindLeaf:
		if len(n.Key) != keyLength {
			return nil, newErr(InvalidInput, "leaf key length mismatch")
		}
		buf = append(buf, prefixLeaf)
		buf = append(buf, n.Key...)
		buf = append(buf, n.ValueHash[:]...)
		return buf, nil
	case KindStub:
		buf = append(buf, 0x01)
		buf = append(buf, n.StubHash[:]...)
		return buf, nil
	default:
		return nil, newErr(Unknown, "attempted to serialize a Temp node")
	}
}

// decodeNode reads one node's wire form from data, returning the node and
// the number of bytes consumed.
func decodeNode(data []byte, keyLength int) (Node, int, error) {
	if len(data) == 0 {
		return Node{}, 0, newErr(InvalidInput, "truncated node: no prefix byte")
	}
	switch data[0] {
	case prefixEmpty:
		return NewEmptyNode(), 1, nil
	case prefixLeaf:
		want := 1 + keyLength + 32
		if len(data) < want {
			return Node{}, 0, newErr(InvalidInput, "truncated leaf node")
		}
		key := append([]byte(nil), data[1:1+keyLength]...)
		var vh Hash
		copy(vh[:], data[1+keyLength:want])
		return NewLeafNode(key, vh), want, nil
	case 0x01:
		want := 1 + 32
		if len(data) < want {
			return Node{}, 0, newErr(InvalidInput, "truncated stub node")
		}
		var root Hash
		copy(root[:], data[1:want])
		return NewStubNode(root), want, nil
	default:
		return Node{}, 0, newErr(InvalidInput, "unknown node prefix byte")
	}
}
