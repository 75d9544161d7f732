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

import (
	"errors"
	"fmt"
)

// Kind classifies an SMTError the way the engine's callers need to branch on
// it: corrupted input, a hash the store couldn't resolve, a proof that
// disagrees with its root, or an opaque store failure.
type Kind int

const (
	// InvalidInput covers malformed subtree bytes, an inconsistent key
	// length, or a batch that doesn't match the tree's configuration.
	InvalidInput Kind = iota
	// NotFound means the store returned nothing for a hash the tree
	// expected to resolve — a corrupted store or a foreign root.
	NotFound
	// InvalidRoot means proof verification disagreed with the expected
	// root.
	InvalidRoot
	// Unknown wraps a store I/O failure or an internal consistency
	// assertion that should never trip in a correct implementation.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case NotFound:
		return "not found"
	case InvalidRoot:
		return "invalid root"
	case Unknown:
		return "unknown"
	default:
		return "unrecognized error kind"
	}
}

// SMTError is the single error type returned across the package's public
// API. It carries a Kind so callers can branch with errors.As, and wraps the
// underlying cause (if any) so errors.Is/Unwrap keep working through it.
type SMTError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *SMTError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("smt: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("smt: %s: %s", e.Kind, e.Msg)
}

func (e *SMTError) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) error {
	return &SMTError{Kind: kind, Msg: msg}
}

func wrapErr(kind Kind, msg string, err error) error {
	return &SMTError{Kind: kind, Msg: msg, Err: err}
}

// ErrInvalidInput, ErrNotFound, ErrInvalidRoot and ErrUnknown are sentinels
// usable with errors.Is against any SMTError of the matching Kind.
var (
	ErrInvalidInput = &SMTError{Kind: InvalidInput, Msg: "sentinel"}
	ErrNotFound     = &SMTError{Kind: NotFound, Msg: "sentinel"}
	ErrInvalidRoot  = &SMTError{Kind: InvalidRoot, Msg: "sentinel"}
	ErrUnknown      = &SMTError{Kind: Unknown, Msg: "sentinel"}
)

// Is lets errors.Is(err, ErrNotFound) succeed for any SMTError sharing the
// same Kind, regardless of message or wrapped cause.
func (e *SMTError) Is(target error) bool {
	t, ok := target.(*SMTError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf reports the Kind of err if it is (or wraps) an *SMTError, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var se *SMTError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
