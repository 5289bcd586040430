package format

import "errors"

var (
	// ErrSignatureMismatch indicates a header had an unexpected magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a header.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrMisaligned indicates a header offset that breaks header alignment.
	ErrMisaligned = errors.New("format: misaligned header")
)
