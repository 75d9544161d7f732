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

import "sort"

// Update is a single (keyHash, valueHash) pair destined for Commit. An
// empty ValueHash signals deletion of KeyHash.
type Update struct {
	KeyHash   []byte
	ValueHash []byte
}

// Batch is a typed builder for the update set passed to Commit. It resolves
// spec.md's open question of whether Commit takes raw or already-hashed
// keys: both are supported here, through the two constructors below, while
// the low-level Commit function itself always takes pre-hashed pairs.
//
// Mirrors the source's UpdateData: NewBatch/NewBatchFromRaw corresponds to
// UpdateData::new_with_hash, and NewBatchFromWriter to the
// rocksdb::WriteBatchIterator adapter that builds an UpdateData from an
// arbitrary application write batch.
type Batch struct {
	entries []Update
}

// NewBatch returns an empty Batch.
func NewBatch() *Batch {
	return &Batch{}
}

// NewBatchFromHashed builds a Batch directly from already-hashed
// (keyHash, valueHash) pairs, performing no hashing of its own.
func NewBatchFromHashed(pairs []Update) *Batch {
	b := &Batch{entries: make([]Update, len(pairs))}
	copy(b.entries, pairs)
	return b
}

// NewBatchFromRaw builds a Batch from raw keys and values, hashing each
// through KeyHash/ValueHash before storing it.
func NewBatchFromRaw(kv map[string][]byte) *Batch {
	b := &Batch{entries: make([]Update, 0, len(kv))}
	for k, v := range kv {
		b.entries = append(b.entries, Update{
			KeyHash:   KeyHash([]byte(k)),
			ValueHash: hashOrEmpty(v),
		})
	}
	return b
}

func hashOrEmpty(v []byte) []byte {
	if len(v) == 0 {
		return nil
	}
	h := ValueHash(v)
	return h[:]
}

// Set stages a raw (key, value) pair, hashing both.
func (b *Batch) Set(key, value []byte) {
	b.entries = append(b.entries, Update{KeyHash: KeyHash(key), ValueHash: hashOrEmpty(value)})
}

// SetHashed stages an already-hashed (keyHash, valueHash) pair.
func (b *Batch) SetHashed(keyHash, valueHash []byte) {
	b.entries = append(b.entries, Update{KeyHash: append([]byte(nil), keyHash...), ValueHash: append([]byte(nil), valueHash...)})
}

// Delete stages a deletion of a raw key.
func (b *Batch) Delete(key []byte) {
	b.entries = append(b.entries, Update{KeyHash: KeyHash(key), ValueHash: nil})
}

// DeleteHashed stages a deletion of an already-hashed key.
func (b *Batch) DeleteHashed(keyHash []byte) {
	b.entries = append(b.entries, Update{KeyHash: append([]byte(nil), keyHash...), ValueHash: nil})
}

// Len reports the number of staged updates, before dedup/sort.
func (b *Batch) Len() int { return len(b.entries) }

// Entries returns the staged updates sorted ascending by KeyHash (stable,
// lexicographic), the order Commit requires. Later entries for the same
// key win, matching last-write-wins batch semantics.
func (b *Batch) Entries() []Update {
	byKey := make(map[string]Update, len(b.entries))
	order := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		k := string(e.KeyHash)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = e
	}
	out := make([]Update, len(order))
	for i, k := range order {
		out[i] = byKey[k]
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].KeyHash) < string(out[j].KeyHash)
	})
	return out
}

// BatchSource is the minimal shape the original implementation's
// rocksdb.WriteBatchIterator adapter consumed: an arbitrary sequence of
// puts/deletes recorded by the host application against its own store,
// replayed here to build a Batch of SMT updates. storage/pebblestore's
// write batches satisfy this interface directly.
type BatchSource interface {
	// Each iterates every staged operation in insertion order, calling
	// visit once per operation: value non-nil for a write, nil for a
	// deletion.
	Each(visit func(key, value []byte))
}

// NewBatchFromWriter drains a BatchSource into a Batch, hashing raw keys
// and values as it goes. This is the Go analogue of the original's
// WriteBatchIterator-driven UpdateData construction: it turns "what changed
// in this block" against the host's own store into an SMT update set.
func NewBatchFromWriter(src BatchSource) *Batch {
	b := NewBatch()
	src.Each(func(key, value []byte) {
		if value == nil {
			b.Delete(key)
			return
		}
		b.Set(key, value)
	})
	return b
}
