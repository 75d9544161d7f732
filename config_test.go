package smt

import "testing"

func TestNewConfigDefaults(t *testing.T) {
	c, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.KeyLength != DefaultKeyLength || c.SubtreeHeight != DefaultSubtreeHeight {
		t.Fatalf("defaults = (%d,%d), want (%d,%d)", c.KeyLength, c.SubtreeHeight, DefaultKeyLength, DefaultSubtreeHeight)
	}
	if c.totalDepthBits() != DefaultKeyLength*8 {
		t.Fatalf("totalDepthBits = %d, want %d", c.totalDepthBits(), DefaultKeyLength*8)
	}
}

func TestNewConfigRejectsBadSubtreeHeight(t *testing.T) {
	for _, h := range []int{0, 1, 2, 3, 5, 6, 7, 9, 16} {
		if _, err := NewConfig(WithSubtreeHeight(h)); err == nil {
			t.Fatalf("subtree height %d should be rejected", h)
		}
	}
	for _, h := range []int{4, 8} {
		if _, err := NewConfig(WithSubtreeHeight(h)); err != nil {
			t.Fatalf("subtree height %d should be accepted: %v", h, err)
		}
	}
}

func TestNewConfigRejectsNonPositiveKeyLength(t *testing.T) {
	// With H in {4, 8}, KeyLength*8 is always a multiple of H, so the
	// alignment check cannot trip; this test covers the key-length check.
	if _, err := NewConfig(WithKeyLength(0)); err == nil {
		t.Fatalf("zero key length should be rejected")
	}
	if _, err := NewConfig(WithKeyLength(-1)); err == nil {
		t.Fatalf("negative key length should be rejected")
	}
}

func TestDefaultHashAtDepthMatchesIteratedBranchHash(t *testing.T) {
	c, err := NewConfig(WithKeyLength(4), WithSubtreeHeight(4))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	want := EmptyHash()
	for d := 0; d <= c.totalDepthBits(); d++ {
		if c.DefaultHashAtDepth(d) != want {
			t.Fatalf("DefaultHashAtDepth(%d) = %x, want %x", d, c.DefaultHashAtDepth(d), want)
		}
		want = BranchHash(want, want)
	}
}
