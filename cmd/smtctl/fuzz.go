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

package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/log"

	"github.com/chainkit/smt"
	"github.com/chainkit/smt/storage/memstore"
)

// runFuzz is adapted from the teacher's cmd/fuzzinsertstemordered: instead
// of comparing two insertion strategies' polynomial commitments, it checks
// the two properties that matter for this data model — commit order
// independence, and prove/verify round-tripping — against random batches,
// for a fixed number of iterations, returning an error at the first
// mismatch.
func runFuzz(iterations, batchSize int) error {
	lg := log.New("cmd", "fuzz")
	for attempt := 0; attempt < iterations; attempt++ {
		keys := make([][]byte, batchSize)
		values := make([][]byte, batchSize)
		for i := range keys {
			k := make([]byte, 20)
			v := make([]byte, 32)
			if _, err := rand.Read(k); err != nil {
				return err
			}
			if _, err := rand.Read(v); err != nil {
				return err
			}
			keys[i], values[i] = k, v
		}

		forward := smt.NewBatch()
		reversed := smt.NewBatch()
		for i := range keys {
			forward.Set(keys[i], values[i])
			reversed.Set(keys[len(keys)-1-i], values[len(keys)-1-i])
		}

		ctx := context.Background()
		storeA, storeB := memstore.New(), memstore.New()

		treeA, err := smt.New(smt.EmptyHash())
		if err != nil {
			return err
		}
		treeB, err := smt.New(smt.EmptyHash())
		if err != nil {
			return err
		}
		rootA, err := treeA.Commit(ctx, storeA, forward)
		if err != nil {
			return fmt.Errorf("attempt %d: forward commit: %w", attempt, err)
		}
		rootB, err := treeB.Commit(ctx, storeB, reversed)
		if err != nil {
			return fmt.Errorf("attempt %d: reversed commit: %w", attempt, err)
		}
		if rootA != rootB {
			return fmt.Errorf("attempt %d: commit order dependence: %x vs %x", attempt, rootA, rootB)
		}

		sortedKeys := append([][]byte(nil), keys...)
		sort.Slice(sortedKeys, func(i, j int) bool { return bytes.Compare(sortedKeys[i], sortedKeys[j]) < 0 })

		queries := make([][]byte, len(sortedKeys))
		for i, k := range sortedKeys {
			queries[i] = smt.KeyHash(k)
		}
		proof, err := treeA.Prove(ctx, storeA, queries)
		if err != nil {
			return fmt.Errorf("attempt %d: prove: %w", attempt, err)
		}
		ok, err := treeA.Verify(queries, proof)
		if err != nil || !ok {
			return fmt.Errorf("attempt %d: verify failed: ok=%v err=%v", attempt, ok, err)
		}

		if attempt%10 == 0 {
			lg.Info("fuzz progress", "attempt", attempt, "root", rootA)
		}
	}
	lg.Info("fuzz completed with no mismatches", "iterations", iterations)
	return nil
}
