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

// Package subtreecache is a read-through byte-cache of encoded subtrees in
// front of any smt.Store, backed by github.com/VictoriaMetrics/fastcache —
// the same cache go-ethereum's core/state/snapshot layer uses in front of
// its trie node store. It plays the role Trillian's
// storage/cache.SubtreeCache plays for proto-encoded Merkle subtrees,
// adapted here to content-addressed SMT subtree records: a fixed-size,
// sharded, GC-friendly byte cache rather than an unbounded Go map.
//
// Snapshot/Restore give a caller (cmd/smtctl's "commit --dry-run" in
// particular) a way to discard a speculative commit's cache effects without
// touching the underlying Store, mirroring the generation-counter snapshot
// discipline of the original implementation's StateWriter.
package subtreecache

import (
	"context"
	"sync"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/log"
)

// Store is the minimal backing interface Cache requires — smt.Store's
// shape, restated here so this package doesn't import the core package
// purely for an interface declaration.
type Store interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error
}

// Cache wraps a Store with a fastcache-backed read-through cache of encoded
// subtree bytes. fastcache supports neither cloning nor iteration (it is
// deliberately opaque, to stay GC-friendly), so Snapshot/Restore use a
// single dirty overlay in front of the long-lived cache rather than a true
// generation history: every write after Snapshot lands in a fresh overlay,
// and Restore drops that overlay wholesale. This covers cmd/smtctl's
// "commit --dry-run" use case (one speculative commit at a time); it does
// not support nested or concurrent snapshots, unlike the original
// StateWriter's indexed backup map.
type Cache struct {
	back Store
	base *fastcache.Cache
	log  log.Logger

	mu      sync.Mutex
	overlay *fastcache.Cache // non-nil while a Snapshot is outstanding
	gen     uint32
}

// New wraps back with a cache capped at maxBytes.
func New(back Store, maxBytes int) *Cache {
	return &Cache{
		back: back,
		base: fastcache.New(maxBytes),
		log:  log.New("component", "subtreecache"),
	}
}

// Get implements smt.Store: a cache hit (overlay first, then base) returns
// immediately; a miss falls through to the backing store and populates the
// active layer.
func (c *Cache) Get(ctx context.Context, key []byte) ([]byte, error) {
	active, base := c.layers()
	if active != nil {
		if v, ok := active.HasGet(nil, key); ok {
			return v, nil
		}
	}
	if v, ok := base.HasGet(nil, key); ok {
		return v, nil
	}
	v, err := c.back.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if v != nil {
		c.writeLayer().Set(key, v)
	}
	return v, nil
}

// Set implements smt.Store, writing through to the backing store and
// updating the active cache layer.
func (c *Cache) Set(ctx context.Context, key, value []byte) error {
	if err := c.back.Set(ctx, key, value); err != nil {
		return err
	}
	c.writeLayer().Set(key, value)
	return nil
}

// Delete implements smt.Store, writing through to the backing store and
// evicting the cached entry from every layer.
func (c *Cache) Delete(ctx context.Context, key []byte) error {
	if err := c.back.Delete(ctx, key); err != nil {
		return err
	}
	active, base := c.layers()
	if active != nil {
		active.Del(key)
	}
	base.Del(key)
	return nil
}

func (c *Cache) layers() (active, base *fastcache.Cache) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlay, c.base
}

func (c *Cache) writeLayer() *fastcache.Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return c.overlay
	}
	return c.base
}

// Snapshot opens a dirty overlay in front of the current cache contents and
// returns a generation token identifying it. The backing store is
// untouched. Only one snapshot may be outstanding at a time.
func (c *Cache) Snapshot() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return 0, errSnapshotInProgress
	}
	c.gen++
	c.overlay = fastcache.New(1024 * 1024)
	c.log.Debug("cache snapshot taken", "generation", c.gen)
	return c.gen, nil
}

// Restore discards the overlay opened by Snapshot, returning the cache to
// the state it held beforehand. The backing store is untouched — Restore
// only ever affects what subtreecache has cached, never what has actually
// been committed.
func (c *Cache) Restore(idx uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil || idx != c.gen {
		return errInvalidGeneration
	}
	c.overlay = nil
	c.log.Debug("cache restored", "generation", idx)
	return nil
}

// Commit closes the overlay opened by Snapshot without discarding its
// writes: every write made while the snapshot was outstanding already went
// through to the backing store (Set/Delete always write through), so
// dropping the overlay costs nothing but a cache miss the next time one of
// those keys is read — fastcache supports neither iteration nor merge, so a
// true fold of the overlay into base isn't possible, only this write-through
// equivalent of one.
func (c *Cache) Commit(idx uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil || idx != c.gen {
		return errInvalidGeneration
	}
	c.overlay = nil
	return nil
}

type cacheError string

func (e cacheError) Error() string { return string(e) }

const (
	errInvalidGeneration  = cacheError("subtreecache: unknown or already-closed snapshot generation")
	errSnapshotInProgress = cacheError("subtreecache: a snapshot is already outstanding")
)
