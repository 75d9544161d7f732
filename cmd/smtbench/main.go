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

// Command smtbench is adapted from the teacher's benchs/main.go: the same
// pprof CPU/heap profiling harness, driving Commit and Prove over a
// Pebble-backed store instead of bulk inserts into an in-memory verkle
// tree.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/chainkit/smt"
	"github.com/chainkit/smt/storage/pebblestore"
)

func main() {
	benchmarkCommitThenProve()
}

func benchmarkCommitThenProve() {
	f, _ := os.Create("cpu.prof")
	g, _ := os.Create("mem.prof")
	_ = pprof.StartCPUProfile(f)
	defer pprof.StopCPUProfile()
	defer func() { _ = pprof.WriteHeapProfile(g) }()

	// Number of existing leaves in the tree.
	n := 1_000_000
	// Leaves to be committed afterwards.
	toInsert := 10_000
	total := n + toInsert

	dir, err := os.MkdirTemp("", "smtbench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	for run := 0; run < 4; run++ {
		keys := make([][]byte, n)
		toInsertKeys := make([][]byte, toInsert)
		value := []byte("value")

		for i := 0; i < total; i++ {
			key := make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				panic(err)
			}
			if i < n {
				keys[i] = key
			} else {
				toInsertKeys[i-n] = key
			}
		}
		fmt.Printf("Generated key set %d\n", run)

		for attempt := 0; attempt < 5; attempt++ {
			storeDir := filepath.Join(dir, fmt.Sprintf("run-%d-%d", run, attempt))
			store, err := pebblestore.Open(storeDir)
			if err != nil {
				panic(err)
			}

			tr, err := smt.New(smt.EmptyHash())
			if err != nil {
				panic(err)
			}
			ctx := context.Background()

			b := smt.NewBatch()
			for _, k := range keys {
				b.Set(k, value)
			}
			if _, err := tr.Commit(ctx, store, b); err != nil {
				panic(err)
			}

			start := time.Now()
			b2 := smt.NewBatch()
			for _, k := range toInsertKeys {
				b2.Set(k, value)
			}
			if _, err := tr.Commit(ctx, store, b2); err != nil {
				panic(err)
			}
			elapsed := time.Since(start)
			fmt.Printf("Took %v to commit %d leaves\n", elapsed, toInsert)

			queries := make([][]byte, 0, 1000)
			for i, k := range toInsertKeys {
				if i >= 1000 {
					break
				}
				queries = append(queries, smt.KeyHash(k))
			}
			proveStart := time.Now()
			if _, err := tr.Prove(ctx, store, queries); err != nil {
				panic(err)
			}
			fmt.Printf("Took %v to prove %d keys\n", time.Since(proveStart), len(queries))

			store.Close()
		}
	}
}
