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

// Package pebblestore implements smt.Store over a github.com/cockroachdb/pebble
// database, the Go analogue of the original implementation's RocksDB-backed
// SmtDB: an embedded LSM engine, content-addressed by subtree root hash.
// Store.Set and Store.Delete write through immediately with pebble.Sync;
// WriteBatch stages writes through a pebble.Batch for a single atomic
// commit, the way SmtDB stages writes through a rocksdb.WriteBatch.
package pebblestore

import (
	"context"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/log"

	"github.com/chainkit/smt/internal/wire"
)

// Store is a Pebble-backed smt.Store. Keys are namespaced through
// internal/wire so a subtree's content-addressed record can never collide
// with a bookkeeping record (e.g. a named root pointer) sharing the same
// Pebble keyspace.
type Store struct {
	db  *pebble.DB
	log log.Logger
}

// Open opens (or creates) a Pebble database at dir and wraps it as a Store.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, log: log.New("component", "pebblestore")}
	s.log.Info("opened pebble store", "dir", dir)
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.log.Info("closing pebble store")
	return s.db.Close()
}

// Get implements smt.Store. A missing key returns (nil, nil), matching the
// convention smt.Store documents.
func (s *Store) Get(_ context.Context, key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(wire.ContentKey(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	if cerr := closer.Close(); cerr != nil {
		return nil, cerr
	}
	return out, nil
}

// Set implements smt.Store.
func (s *Store) Set(_ context.Context, key, value []byte) error {
	return s.db.Set(wire.ContentKey(key), value, pebble.Sync)
}

// Delete implements smt.Store.
func (s *Store) Delete(_ context.Context, key []byte) error {
	return s.db.Delete(wire.ContentKey(key), pebble.Sync)
}

// PutRoot persists name as a pointer to root, under the metadata namespace
// so it never collides with a content-addressed subtree record.
func (s *Store) PutRoot(name string, root []byte) error {
	s.log.Debug("updating root pointer", "name", name, "root", root)
	return s.db.Set(wire.MetaKey(name), root, pebble.Sync)
}

// GetRoot reads back a root pointer previously stored by PutRoot. Returns
// (nil, nil) if name was never set.
func (s *Store) GetRoot(name string) ([]byte, error) {
	v, closer, err := s.db.Get(wire.MetaKey(name))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, closer.Close()
}

// WriteBatch stages puts and deletes against a Store, then commits them
// atomically — the Go analogue of the original's SmtDB.batch
// (rocksdb::WriteBatch) staging discipline. It also implements
// smt.BatchSource so it can feed smt.NewBatchFromWriter directly: replaying
// "what this transaction changed in the application's own store" into an
// SMT update batch.
type WriteBatch struct {
	db  *pebble.DB
	b   *pebble.Batch
	ops []batchOp
}

type batchOp struct {
	key   []byte
	value []byte // nil marks a delete
}

// NewWriteBatch returns an empty WriteBatch against s.
func (s *Store) NewWriteBatch() *WriteBatch {
	return &WriteBatch{db: s.db, b: s.db.NewBatch()}
}

// Put stages a content-namespaced write.
func (w *WriteBatch) Put(key, value []byte) {
	w.ops = append(w.ops, batchOp{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

// Delete stages a content-namespaced delete.
func (w *WriteBatch) Delete(key []byte) {
	w.ops = append(w.ops, batchOp{key: append([]byte(nil), key...), value: nil})
}

// Each implements smt.BatchSource, replaying every staged op in the order it
// was recorded.
func (w *WriteBatch) Each(visit func(key, value []byte)) {
	for _, op := range w.ops {
		visit(op.key, op.value)
	}
}

// Commit applies every staged op to the underlying database atomically.
func (w *WriteBatch) Commit() error {
	for _, op := range w.ops {
		k := wire.ContentKey(op.key)
		if op.value == nil {
			if err := w.b.Delete(k, nil); err != nil {
				return err
			}
			continue
		}
		if err := w.b.Set(k, op.value, nil); err != nil {
			return err
		}
	}
	return w.b.Commit(pebble.Sync)
}
