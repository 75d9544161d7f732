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

import "context"

// Tree is a handle onto a sparse Merkle tree living in a Store: just the
// current root hash plus the Config every subtree it touches must agree
// on. It carries no cache and no in-memory node graph of its own — Commit
// and Prove read and write through to Store on every call, matching the
// stateless, FFI-friendly shape the engine was built for.
type Tree struct {
	root Hash
	cfg  *Config
}

// New returns a Tree rooted at root (EmptyHash() for a brand new tree),
// configured by opts (see WithKeyLength, WithSubtreeHeight).
func New(root Hash, opts ...Option) (*Tree, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &Tree{root: root, cfg: cfg}, nil
}

// Root returns the tree's current root hash.
func (t *Tree) Root() Hash { return t.root }

// Config returns the tree's configuration.
func (t *Tree) Config() *Config { return t.cfg }

// Commit applies b against store, advances the tree to the resulting root,
// and returns that root. b's entries must already be sorted or not —
// Batch.Entries and commitRoot both sort defensively.
func (t *Tree) Commit(ctx context.Context, store Store, b *Batch) (Hash, error) {
	newRoot, err := commitRoot(ctx, store, t.cfg, t.root, b.Entries())
	if err != nil {
		return Hash{}, err
	}
	t.root = newRoot
	return newRoot, nil
}

// CommitUpdates is Commit for callers that already hold a sorted or
// unsorted []Update rather than a Batch.
func (t *Tree) CommitUpdates(ctx context.Context, store Store, updates []Update) (Hash, error) {
	newRoot, err := commitRoot(ctx, store, t.cfg, t.root, updates)
	if err != nil {
		return Hash{}, err
	}
	t.root = newRoot
	return newRoot, nil
}

// Prove produces a Proof for queries (already-hashed keys) against the
// tree's current root.
func (t *Tree) Prove(ctx context.Context, store Store, queries [][]byte) (*Proof, error) {
	return Prove(ctx, store, t.cfg, t.root, queries)
}

// Verify checks proof against the tree's current root and key length.
func (t *Tree) Verify(queries [][]byte, proof *Proof) (bool, error) {
	return Verify(queries, proof, t.root[:], t.cfg.KeyLength)
}
