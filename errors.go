package zplgraphic

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStreamClosed is returned by a Stream that has already produced its
// output, failed or been aborted.
var ErrStreamClosed = errors.New("zplgraphic: stream is closed")

// DecodeError reports input bytes that are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("zplgraphic: decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RangeError reports a repeat count outside of what a repeat code can express.
type RangeError struct {
	Count int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("zplgraphic: repeat count %d out of range [1, %d]", e.Count, MaxRepeatCount)
}

// InvariantError signals a defect in bit packing or row scanning. It is never
// caused by bad input bytes.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "zplgraphic: invariant violated: " + e.Msg
}

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// FormatError reports malformed ZPL graphic data handed to the parser.
type FormatError struct {
	Offset int
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("zplgraphic: malformed graphic at offset %d: %s", e.Offset, e.Msg)
}
