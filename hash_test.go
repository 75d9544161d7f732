package smt

import "testing"

func TestEmptyHashIsSHA256OfNothing(t *testing.T) {
	got := EmptyHash()
	want := Hash{0xe3, 0xb0, 0xc4, 0x42, 0x98, 0xfc, 0x1c, 0x14, 0x9a, 0xfb, 0xf4, 0xc8, 0x99, 0x6f, 0xb9, 0x24,
		0x27, 0xae, 0x41, 0xe4, 0x64, 0x9b, 0x93, 0x4c, 0xa4, 0x95, 0x99, 0x1b, 0x78, 0x52, 0xb8, 0x55}
	if got != want {
		t.Fatalf("EmptyHash = %x, want %x", got, want)
	}
}

func TestLeafBranchHashesAreDomainSeparated(t *testing.T) {
	key := make([]byte, 32)
	vh := ValueHash([]byte("value"))
	leaf := LeafHash(key, vh[:])
	branch := BranchHash(leaf, leaf)
	empty := EmptyHash()
	if leaf == branch || leaf == empty || branch == empty {
		t.Fatalf("leaf/branch/empty hashes collided: leaf=%x branch=%x empty=%x", leaf, branch, empty)
	}
}

func TestKeyHashKeepsClearPrefix(t *testing.T) {
	key := []byte("0123456789abcdef")
	kh := KeyHash(key)
	if len(kh) != keyHashPrefixLen+32 {
		t.Fatalf("KeyHash length = %d, want %d", len(kh), keyHashPrefixLen+32)
	}
	for i := 0; i < keyHashPrefixLen; i++ {
		if kh[i] != key[i] {
			t.Fatalf("KeyHash prefix byte %d = %x, want %x", i, kh[i], key[i])
		}
	}
}

func TestKeyHashShortKeyPadsPrefix(t *testing.T) {
	kh := KeyHash([]byte("ab"))
	if len(kh) != keyHashPrefixLen+32 {
		t.Fatalf("KeyHash length = %d, want %d", len(kh), keyHashPrefixLen+32)
	}
	if kh[0] != 'a' || kh[1] != 'b' {
		t.Fatalf("KeyHash short-key prefix = %x", kh[:2])
	}
}

func TestDefaultHashTableMonotonic(t *testing.T) {
	tbl := newDefaultHashTable(16)
	if tbl.at(0) != EmptyHash() {
		t.Fatalf("DefaultHashAtDepth(0) must be EmptyHash")
	}
	for d := 1; d <= 16; d++ {
		want := BranchHash(tbl.at(d-1), tbl.at(d-1))
		if tbl.at(d) != want {
			t.Fatalf("DefaultHashAtDepth(%d) not derived from depth %d via BranchHash", d, d-1)
		}
	}
}

func TestDefaultHashTableExtendsLazily(t *testing.T) {
	tbl := newDefaultHashTable(2)
	got := tbl.at(10)
	want := EmptyHash()
	for i := 0; i < 10; i++ {
		want = BranchHash(want, want)
	}
	if got != want {
		t.Fatalf("lazily extended DefaultHashAtDepth(10) = %x, want %x", got, want)
	}
}
