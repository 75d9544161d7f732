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

// Package wire namespaces keys within a single Pebble keyspace so
// content-addressed subtree records never collide with the store's own
// bookkeeping (e.g. a named root pointer). It intentionally does not touch
// subtree wire encoding itself — that layout is fixed byte-exact by the core
// package and must never be routed through a generic codec.
//
// The varint reader/writer below is a direct port of the original SMT
// implementation's length-prefixing scheme (a protobuf-style
// tag/length/value record), available for metadata records. Content
// records, and pebblestore's named root pointer, are namespaced by a single
// prefix byte and stored verbatim.
package wire

import "errors"

const (
	// PrefixContent namespaces a content-addressed subtree record, keyed by
	// its own root hash.
	PrefixContent byte = 0x00
	// PrefixMeta namespaces a small bookkeeping record, keyed by an
	// application-chosen name (e.g. "root:main").
	PrefixMeta byte = 0x01
)

// ContentKey returns the namespaced store key for a subtree root hash.
func ContentKey(root []byte) []byte {
	out := make([]byte, 0, len(root)+1)
	out = append(out, PrefixContent)
	return append(out, root...)
}

// MetaKey returns the namespaced store key for a bookkeeping record name.
func MetaKey(name string) []byte {
	out := make([]byte, 0, len(name)+1)
	out = append(out, PrefixMeta)
	return append(out, []byte(name)...)
}

var (
	// ErrTruncated means a varint-prefixed record ended before its declared
	// length.
	ErrTruncated = errors.New("wire: truncated varint record")
	// ErrOverflow means a varint exceeded 32 bits without terminating.
	ErrOverflow = errors.New("wire: varint did not terminate")
)

// PutVarint appends value to buf as a base-128 varint (LSB group first,
// continuation bit set on every byte but the last), the same encoding the
// original implementation's Writer.write_varint used for its record
// lengths.
func PutVarint(buf []byte, value uint32) []byte {
	for value > 0x7f {
		buf = append(buf, byte(value&0x7f)|0x80)
		value >>= 7
	}
	return append(buf, byte(value))
}

// ReadVarint decodes a varint from data starting at offset, returning the
// value and the number of bytes consumed.
func ReadVarint(data []byte, offset int) (uint32, int, error) {
	var result uint32
	shift := uint(0)
	i := offset
	for shift < 32 {
		if i >= len(data) {
			return 0, 0, ErrTruncated
		}
		b := data[i]
		i++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i - offset, nil
		}
		shift += 7
	}
	return 0, 0, ErrOverflow
}

// PutRecord appends value length-prefixed by PutVarint, so a bookkeeping
// value's length never has to be inferred from the surrounding key.
// pebblestore's PutRoot does not use it: it stores the root bytes verbatim.
func PutRecord(buf []byte, value []byte) []byte {
	buf = PutVarint(buf, uint32(len(value)))
	return append(buf, value...)
}

// ReadRecord decodes one PutRecord-encoded value starting at offset,
// returning the value and the number of bytes consumed.
func ReadRecord(data []byte, offset int) ([]byte, int, error) {
	length, n, err := ReadVarint(data, offset)
	if err != nil {
		return nil, 0, err
	}
	start := offset + n
	end := start + int(length)
	if end > len(data) {
		return nil, 0, ErrTruncated
	}
	return data[start:end], end - offset, nil
}
