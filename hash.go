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

import "crypto/sha256"

// Domain separation prefixes. Fixed, never configurable: two trees that
// disagree on these bytes are not wire-compatible regardless of key length
// or subtree height.
const (
	prefixLeaf   byte = 0x00
	prefixBranch byte = 0x01
	prefixEmpty  byte = 0x02
)

// keyHashPrefixLen is the number of leading bytes of a raw key kept in the
// clear by KeyHash, preserving prefix locality for the backing store.
const keyHashPrefixLen = 6

// Hash is a 32-byte SHA-256 digest.
type Hash [32]byte

// EmptyHash is the distinguished hash of the empty subtree: SHA-256 of the
// empty byte string, not a branch hash of anything.
func EmptyHash() Hash {
	return Hash(sha256.Sum256(nil))
}

// LeafHash hashes a leaf node: SHA-256(0x00 || key || valueHash).
func LeafHash(key []byte, valueHash []byte) Hash {
	h := sha256.New()
	h.Write([]byte{prefixLeaf})
	h.Write(key)
	h.Write(valueHash)
	var out Hash
	h.Sum(out[:0])
	return out
}

// BranchHash hashes an internal node: SHA-256(0x01 || left || right).
func BranchHash(left, right Hash) Hash {
	h := sha256.New()
	h.Write([]byte{prefixBranch})
	h.Write(left[:])
	h.Write(right[:])
	var out Hash
	h.Sum(out[:0])
	return out
}

// ValueHash hashes an opaque value: SHA-256(value).
func ValueHash(value []byte) Hash {
	return Hash(sha256.Sum256(value))
}

// KeyHash hashes a raw key, keeping the first keyHashPrefixLen bytes in the
// clear and hashing the remainder: key[0:6] || SHA-256(key[6:]). A key
// shorter than that is zero-padded to keyHashPrefixLen bytes. It is applied
// only by callers that hand raw keys to a Batch (Set, Delete,
// NewBatchFromRaw, NewBatchFromWriter); commitRoot always receives keys
// already in this form.
func KeyHash(key []byte) []byte {
	out := make([]byte, 0, keyHashPrefixLen+sha256.Size)
	if len(key) <= keyHashPrefixLen {
		out = append(out, key...)
		out = append(out, make([]byte, keyHashPrefixLen-len(key))...)
		rest := sha256.Sum256(nil)
		return append(out, rest[:]...)
	}
	out = append(out, key[:keyHashPrefixLen]...)
	rest := sha256.Sum256(key[keyHashPrefixLen:])
	return append(out, rest[:]...)
}

// defaultHashTable memoizes DefaultHashAtDepth(d) = branch_hash(h, h)
// iterated from EmptyHash(), up to the deepest depth a tree configuration
// ever needs (one entry per bit of the key, plus one).
type defaultHashTable struct {
	levels []Hash
}

func newDefaultHashTable(maxDepth int) *defaultHashTable {
	levels := make([]Hash, maxDepth+1)
	levels[0] = EmptyHash()
	for d := 1; d <= maxDepth; d++ {
		levels[d] = BranchHash(levels[d-1], levels[d-1])
	}
	return &defaultHashTable{levels: levels}
}

// at returns the default hash for an empty subtree of height d, i.e. the
// hash every absent key's sibling at depth d collapses to.
func (t *defaultHashTable) at(d int) Hash {
	if d < 0 {
		d = 0
	}
	if d >= len(t.levels) {
		// Extend lazily; this only happens for a misconfigured key
		// length larger than anticipated at construction time.
		for i := len(t.levels); i <= d; i++ {
			t.levels = append(t.levels, BranchHash(t.levels[i-1], t.levels[i-1]))
		}
	}
	return t.levels[d]
}
