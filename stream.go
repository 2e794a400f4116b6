package zplgraphic

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Stream accumulates the chunks of one encoded image and converts them when
// the input ends. A Stream produces exactly one output or one error.
type Stream struct {
	ctx  context.Context
	conv *Converter
	out  io.Writer

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewStream returns a Stream writing the converted commands to out on Close.
func (c *Converter) NewStream(ctx context.Context, out io.Writer) *Stream {
	return &Stream{ctx: ctx, conv: c, out: out}
}

// Write buffers p. It fails with ErrStreamClosed once the stream has
// finished.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	return s.buf.Write(p)
}

// Close signals the end of input, converts the buffered bytes and writes the
// result. The buffer is released whatever the outcome.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.closed = true

	data := s.buf.Bytes()
	zpl, err := s.conv.Convert(s.ctx, data)
	s.reset()
	if err != nil {
		return err
	}
	_, err = io.WriteString(s.out, zpl)
	return err
}

// Abort discards the buffered input without converting it.
func (s *Stream) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.reset()
}

func (s *Stream) reset() {
	s.buf = bytes.Buffer{}
}
