package memstore

import (
	"context"
	"testing"
)

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	if v, err := s.Get(ctx, []byte("k")); err != nil || v != nil {
		t.Fatalf("Get on empty store = (%v, %v), want (nil, nil)", v, err)
	}
	if err := s.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := s.Get(ctx, []byte("k"))
	if err != nil || string(v) != "v" {
		t.Fatalf("Get after Set = (%s, %v), want (v, nil)", v, err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if err := s.Delete(ctx, []byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if v, err := s.Get(ctx, []byte("k")); err != nil || v != nil {
		t.Fatalf("Get after Delete = (%v, %v), want (nil, nil)", v, err)
	}
}

func TestStoreGetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ := s.Get(ctx, []byte("k"))
	v[0] = 'x'
	v2, _ := s.Get(ctx, []byte("k"))
	if string(v2) != "v" {
		t.Fatalf("mutating a returned value must not affect the store, got %q", v2)
	}
}
