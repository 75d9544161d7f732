package subtreecache

import (
	"context"
	"testing"

	"github.com/chainkit/smt/storage/memstore"
)

func TestCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	back := memstore.New()
	c := New(back, 1<<20)

	if err := c.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := c.Get(ctx, []byte("k"))
	if err != nil || string(v) != "v" {
		t.Fatalf("Get = (%s, %v), want (v, nil)", v, err)
	}
	// The backing store must also have received the write.
	backVal, err := back.Get(ctx, []byte("k"))
	if err != nil || string(backVal) != "v" {
		t.Fatalf("backing store did not receive write-through: (%s, %v)", backVal, err)
	}
}

func TestCacheSnapshotRestoreDiscardsNothingFromBackingStore(t *testing.T) {
	ctx := context.Background()
	back := memstore.New()
	c := New(back, 1<<20)

	if err := c.Set(ctx, []byte("pre"), []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	gen, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := c.Set(ctx, []byte("during"), []byte("2")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Restore(gen); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	// Writes always go through to the backing store regardless of the
	// cache overlay — Restore only affects what subtreecache has cached.
	v, err := back.Get(ctx, []byte("during"))
	if err != nil || string(v) != "2" {
		t.Fatalf("backing store should still see the write made during the snapshot: (%s, %v)", v, err)
	}
	// Post-restore reads should still resolve (via the backing store).
	v, err = c.Get(ctx, []byte("pre"))
	if err != nil || string(v) != "1" {
		t.Fatalf("Get(pre) after restore = (%s, %v), want (1, nil)", v, err)
	}
}

func TestCacheSnapshotRejectsNesting(t *testing.T) {
	back := memstore.New()
	c := New(back, 1<<20)
	if _, err := c.Snapshot(); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	if _, err := c.Snapshot(); err == nil {
		t.Fatalf("expected an error opening a nested snapshot")
	}
}

func TestCacheRestoreRejectsStaleGeneration(t *testing.T) {
	back := memstore.New()
	c := New(back, 1<<20)
	gen, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if err := c.Restore(gen); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := c.Restore(gen); err == nil {
		t.Fatalf("expected an error restoring an already-closed generation")
	}
}
