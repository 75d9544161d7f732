package main

import (
	"testing"

	"github.com/chainkit/smt"
)

func TestJSONProofRoundTrip(t *testing.T) {
	var sib smt.Hash
	sib[0] = 0xab
	p := &smt.Proof{
		SiblingHashes: []smt.Hash{sib},
		Queries: []smt.QueryProof{
			{Key: []byte("key-one"), Value: []byte("value-one"), Bitmap: []byte{0x80}},
			{Key: []byte("key-two"), Value: nil, Bitmap: []byte{0x00}},
		},
	}

	jp := toJSONProof(p)
	back, queries, err := jp.toProof()
	if err != nil {
		t.Fatalf("toProof: %v", err)
	}
	if len(back.SiblingHashes) != 1 || back.SiblingHashes[0] != sib {
		t.Fatalf("sibling hash round trip mismatch")
	}
	if len(queries) != 2 || string(queries[0]) != "key-one" || string(queries[1]) != "key-two" {
		t.Fatalf("query key round trip mismatch: %v", queries)
	}
	if string(back.Queries[0].Value) != "value-one" {
		t.Fatalf("inclusion value round trip mismatch: %q", back.Queries[0].Value)
	}
	if len(back.Queries[1].Value) != 0 {
		t.Fatalf("exclusion value round trip should stay empty, got %q", back.Queries[1].Value)
	}
}
