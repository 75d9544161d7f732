package smt

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

func TestTreeCommitProveVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	tr, err := New(EmptyHash())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Root() != EmptyHash() {
		t.Fatalf("fresh tree must start at EmptyHash")
	}

	b := NewBatch()
	b.Set([]byte("alpha"), []byte("1"))
	b.Set([]byte("bravo"), []byte("2"))
	b.Set([]byte("charlie"), []byte("3"))
	root, err := tr.Commit(ctx, store, b)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if root != tr.Root() {
		t.Fatalf("Commit's returned root must match Tree.Root() afterward")
	}
	if root == EmptyHash() {
		t.Fatalf("committing non-empty batch must move the root")
	}

	queries := [][]byte{KeyHash([]byte("alpha")), KeyHash([]byte("nope"))}
	proof, err := tr.Prove(ctx, store, queries)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := tr.Verify(queries, proof)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("Verify rejected a proof produced by the same tree")
	}
}

func TestTreeCommitUpdatesMatchesCommit(t *testing.T) {
	ctx := context.Background()
	storeA := newMemStore()
	storeB := newMemStore()

	trA, err := New(EmptyHash())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trB, err := New(EmptyHash())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	b := NewBatch()
	b.Set([]byte("x"), []byte("y"))
	rootA, err := trA.Commit(ctx, storeA, b)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	rootB, err := trB.CommitUpdates(ctx, storeB, b.Entries())
	if err != nil {
		t.Fatalf("CommitUpdates: %v", err)
	}
	if rootA != rootB {
		t.Fatalf("Commit and CommitUpdates diverged: %x vs %x", rootA, rootB)
	}
}

func TestTreeVerifyDetectsForeignProof(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	tr1, err := New(EmptyHash())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := NewBatch()
	b.Set([]byte("alpha"), []byte("1"))
	if _, err := tr1.Commit(ctx, store, b); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	query := [][]byte{KeyHash([]byte("alpha"))}
	proof, err := tr1.Prove(ctx, store, query)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}

	tr2, err := New(EmptyHash())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ok, err := tr2.Verify(query, proof)
	if ok {
		t.Fatalf("Verify accepted tr1's proof against tr2's (empty) root")
	}
	if err == nil {
		t.Fatalf("expected an error verifying a proof against the wrong tree")
	}
}

// TestTreeConcurrentCommitsAgainstSharedStore drives several independent
// trees committing into one shared Store at once. memStore's locking is
// the only thing standing between this and a data race, so this is run
// under -race in CI; errgroup.Group collects the first goroutine's error
// (if any) rather than requiring ad hoc channel plumbing.
func TestTreeConcurrentCommitsAgainstSharedStore(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	const n = 8
	trees := make([]*Tree, n)
	for i := range trees {
		tr, err := New(EmptyHash())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		trees[i] = tr
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			b := NewBatch()
			b.Set([]byte(fmt.Sprintf("tree-%d-key-a", i)), []byte("1"))
			b.Set([]byte(fmt.Sprintf("tree-%d-key-b", i)), []byte("2"))
			if _, err := trees[i].Commit(ctx, store, b); err != nil {
				return fmt.Errorf("tree %d: commit: %w", i, err)
			}
			query := [][]byte{KeyHash([]byte(fmt.Sprintf("tree-%d-key-a", i)))}
			proof, err := trees[i].Prove(ctx, store, query)
			if err != nil {
				return fmt.Errorf("tree %d: prove: %w", i, err)
			}
			ok, err := trees[i].Verify(query, proof)
			if err != nil {
				return fmt.Errorf("tree %d: verify: %w", i, err)
			}
			if !ok {
				return fmt.Errorf("tree %d: verify rejected its own proof", i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent commit/prove/verify: %v", err)
	}

	seen := make(map[Hash]int)
	for i, tr := range trees {
		if tr.Root() == EmptyHash() {
			t.Fatalf("tree %d: committing a non-empty batch must move the root", i)
		}
		seen[tr.Root()]++
	}
	if len(seen) != n {
		t.Fatalf("expected %d distinct roots from %d independently-keyed trees, got %d", n, n, len(seen))
	}
}
