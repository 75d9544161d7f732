package wire

import (
	"bytes"
	"testing"
)

func TestContentAndMetaKeysAreNamespaceDisjoint(t *testing.T) {
	root := bytes.Repeat([]byte{0xaa}, 32)
	ck := ContentKey(root)
	mk := MetaKey("root:main")
	if ck[0] == mk[0] {
		t.Fatalf("content and meta keys must use different prefix bytes")
	}
	if !bytes.Equal(ck[1:], root) {
		t.Fatalf("ContentKey must carry the root hash verbatim after its prefix")
	}
}

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 300, 1 << 20, 1<<32 - 1} {
		buf := PutVarint(nil, v)
		got, n, err := ReadVarint(buf, 0)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v || n != len(buf) {
			t.Fatalf("round trip %d: got %d consuming %d, want %d consuming %d", v, got, n, v, len(buf))
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutRecord(buf, []byte("hello"))
	buf = PutRecord(buf, []byte(""))
	buf = PutRecord(buf, []byte("world"))

	v1, n1, err := ReadRecord(buf, 0)
	if err != nil || string(v1) != "hello" {
		t.Fatalf("first record = (%q, %v)", v1, err)
	}
	v2, n2, err := ReadRecord(buf, n1)
	if err != nil || string(v2) != "" {
		t.Fatalf("second record = (%q, %v)", v2, err)
	}
	v3, _, err := ReadRecord(buf, n1+n2)
	if err != nil || string(v3) != "world" {
		t.Fatalf("third record = (%q, %v)", v3, err)
	}
}

func TestReadVarintRejectsTruncatedInput(t *testing.T) {
	if _, _, err := ReadVarint([]byte{0x80, 0x80}, 0); err == nil {
		t.Fatalf("expected error reading a varint that never terminates within the buffer")
	}
}

func TestReadRecordRejectsLengthPastBuffer(t *testing.T) {
	buf := PutVarint(nil, 100)
	buf = append(buf, []byte("short")...)
	if _, _, err := ReadRecord(buf, 0); err == nil {
		t.Fatalf("expected error reading a record whose declared length exceeds the buffer")
	}
}
