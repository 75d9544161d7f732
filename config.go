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

package smt

import "fmt"

const (
	// DefaultKeyLength is the key length (in bytes) used when a Config
	// isn't told otherwise: the length KeyHash produces (its clear prefix
	// plus a SHA-256 digest), so raw-key batches commit into a default tree.
	DefaultKeyLength = keyHashPrefixLen + 32
	// DefaultSubtreeHeight is the subtree height used when a Config isn't
	// told otherwise.
	DefaultSubtreeHeight = 8
)

// Config carries the two parameters that every subtree in a Tree instance
// must agree on (key length and subtree height) plus the memoized
// default-hash-at-depth table derived from them. It is built once per Tree
// via New, mirroring the teacher's pattern of computing an expensive,
// immutable configuration struct a single time and sharing it read-only
// afterward — except here each Tree owns its own Config rather than a
// single process-wide singleton, since key length and subtree height are
// deployment choices, not universal constants.
type Config struct {
	KeyLength     int
	SubtreeHeight int

	defaults *defaultHashTable
}

// Option configures a Config at construction time.
type Option func(*Config)

// WithKeyLength overrides the key length, in bytes.
func WithKeyLength(k int) Option {
	return func(c *Config) { c.KeyLength = k }
}

// WithSubtreeHeight overrides the subtree height H. Only 4 and 8 are valid
// per the data model; NewConfig validates this.
func WithSubtreeHeight(h int) Option {
	return func(c *Config) { c.SubtreeHeight = h }
}

// NewConfig builds a Config, applying opts over the defaults, and
// validates the result.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		KeyLength:     DefaultKeyLength,
		SubtreeHeight: DefaultSubtreeHeight,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.KeyLength <= 0 {
		return nil, newErr(InvalidInput, fmt.Sprintf("invalid key length %d", c.KeyLength))
	}
	if c.SubtreeHeight != 4 && c.SubtreeHeight != 8 {
		return nil, newErr(InvalidInput, fmt.Sprintf("subtree height must be 4 or 8, got %d", c.SubtreeHeight))
	}
	if c.KeyLength*8%c.SubtreeHeight != 0 {
		return nil, newErr(InvalidInput, "key length in bits must be a multiple of the subtree height")
	}
	c.defaults = newDefaultHashTable(c.KeyLength * 8)
	return c, nil
}

// totalDepthBits is the full key-bit depth of the logical tree.
func (c *Config) totalDepthBits() int {
	return c.KeyLength * 8
}

// DefaultHashAtDepth returns the hash of an empty subtree of height d,
// obtained by iterating BranchHash(h, h) starting from EmptyHash(). The
// table is computed once at Config construction and read-only thereafter.
func (c *Config) DefaultHashAtDepth(d int) Hash {
	return c.defaults.at(d)
}
