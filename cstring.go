package meos

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tingold/orb-meos/native"
)

// cString checks that s can cross the native boundary as a C string.
func cString(s string) (string, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return "", fmt.Errorf("%w: NUL byte at offset %d", ErrFFIString, i)
	}
	return s, nil
}

// takeString copies the native string at p and frees it.
func takeString(n native.Native, p native.Ptr) (string, error) {
	b := n.CopyCString(p)
	n.Free(p)
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: output is not valid UTF-8", ErrFFIString)
	}
	return string(b), nil
}

// takeBytes copies size bytes at p and frees the buffer.
func takeBytes(n native.Native, p native.Ptr, size int) []byte {
	b := n.CopyBytes(p, size)
	n.Free(p)
	return b
}

// nativeError wraps sentinel with the reason reported by the native
// library, if any.
func nativeError(n native.Native, sentinel error, what string) error {
	if cause := n.LastError(); cause != nil {
		return fmt.Errorf("%w: %s: %w", sentinel, what, cause)
	}
	return fmt.Errorf("%w: %s", sentinel, what)
}
