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

// Store is the only dependency the engine has on the outside world: a
// content-addressed get/set/delete over serialized subtrees, keyed by their
// root hash. Durability, crash-consistency and concurrent multi-writer
// access are the implementation's problem, not the engine's (see
// storage/pebblestore and storage/memstore for two such implementations).
type Store interface {
	// Get returns the serialized subtree stored under key, or (nil, nil)
	// if absent. Any I/O failure must be returned as a plain error; the
	// engine wraps it as ErrUnknown.
	Get(ctx context.Context, key []byte) ([]byte, error)
	// Set writes value under key, overwriting any prior value.
	Set(ctx context.Context, key []byte, value []byte) error
	// Delete removes key. A no-op if key is absent.
	Delete(ctx context.Context, key []byte) error
}

// getSubtree loads and decodes the subtree stored under root. A root equal
// to EmptyHash synthesizes the canonical empty subtree without a store
// read.
func getSubtree(ctx context.Context, store Store, root Hash, cfg *Config) (*SubTree, error) {
	if root == EmptyHash() {
		return newEmptySubTree(), nil
	}
	raw, err := store.Get(ctx, root[:])
	if err != nil {
		return nil, wrapErr(Unknown, "store get failed", err)
	}
	if raw == nil {
		return nil, newErr(NotFound, "subtree root not present in store")
	}
	st, err := DecodeSubTree(raw, cfg.KeyLength)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// putSubtree persists a subtree under its own root hash, encoding it with
// the tree's key length.
func putSubtree(ctx context.Context, store Store, st *SubTree, cfg *Config) error {
	raw, err := st.Encode(cfg.KeyLength)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, st.Root[:], raw); err != nil {
		return wrapErr(Unknown, "store set failed", err)
	}
	return nil
}

// deleteSubtree removes a superseded subtree, skipping the empty root
// (which is never actually stored). It does not check whether the subtree
// is still referenced elsewhere.
func deleteSubtree(ctx context.Context, store Store, root Hash) error {
	if root == EmptyHash() {
		return nil
	}
	if err := store.Delete(ctx, root[:]); err != nil {
		return wrapErr(Unknown, "store delete failed", err)
	}
	return nil
}
