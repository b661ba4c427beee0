package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultMaxFrameSize bounds a single frame so a peer that never sends a
	// newline cannot grow the buffer without limit.
	DefaultMaxFrameSize = 1 << 20

	// defaultReadSize is the size of the underlying read buffer.
	defaultReadSize = 32 * 1024
)

// ErrFrameTooLarge is returned by Reassembler.Next when a frame exceeds the
// configured maximum size.
var ErrFrameTooLarge = errors.New("stream frame exceeds maximum size")

// ReassemblerOption configures a Reassembler.
type ReassemblerOption func(*Reassembler)

// WithMaxFrameSize sets the maximum frame length in bytes, excluding the
// terminating newline. Values <= 0 keep the default.
func WithMaxFrameSize(n int) ReassemblerOption {
	return func(r *Reassembler) {
		if n > 0 {
			r.maxFrameSize = n
		}
	}
}

// Reassembler turns an arbitrarily fragmented byte stream into complete
// newline-terminated frames. Transport chunk boundaries are invisible to the
// caller: a line split across reads, or several lines delivered in one read,
// yields the same frame sequence.
//
// Splitting happens on the '\n' byte, which never appears inside a UTF-8
// multi-byte sequence, so a rune split across reads stays buffered until the
// rest of its line arrives and is never decoded partially.
//
// Frames are returned without the trailing '\n'; any '\r' is preserved.
// Joining all frames with '\n' reproduces the input exactly (a final frame is
// yielded for non-empty trailing content without a newline).
//
// A Reassembler belongs to a single upstream response and is not safe for
// concurrent use.
type Reassembler struct {
	reader       *bufio.Reader
	buf          []byte
	maxFrameSize int
	frames       int
	done         bool
}

// NewReassembler creates a Reassembler reading from r.
func NewReassembler(r io.Reader, opts ...ReassemblerOption) *Reassembler {
	ra := &Reassembler{
		reader:       bufio.NewReaderSize(r, defaultReadSize),
		maxFrameSize: DefaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(ra)
	}
	return ra
}

// Next returns the next complete frame.
//
// The returned slice is only valid until the next call to Next. At the end
// of input Next returns nil, io.EOF. Read errors from the underlying reader
// are returned unchanged; once Next has returned an error every later call
// returns io.EOF.
func (r *Reassembler) Next(ctx context.Context) ([]byte, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		r.done = true
		return nil, err
	}

	r.buf = r.buf[:0]
	for {
		chunk, err := r.reader.ReadSlice('\n')
		r.buf = append(r.buf, chunk...)

		switch {
		case err == nil:
			frame := r.buf[:len(r.buf)-1]
			if len(frame) > r.maxFrameSize {
				return nil, r.tooLarge(len(frame))
			}
			r.frames++
			return frame, nil

		case errors.Is(err, bufio.ErrBufferFull):
			if len(r.buf) > r.maxFrameSize {
				return nil, r.tooLarge(len(r.buf))
			}

		case errors.Is(err, io.EOF):
			r.done = true
			if len(r.buf) == 0 {
				return nil, io.EOF
			}
			if len(r.buf) > r.maxFrameSize {
				return nil, r.tooLarge(len(r.buf))
			}
			r.frames++
			return r.buf, nil

		default:
			r.done = true
			return nil, err
		}
	}
}

// Frames returns the number of frames yielded so far.
func (r *Reassembler) Frames() int {
	return r.frames
}

func (r *Reassembler) tooLarge(size int) error {
	r.done = true
	return fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, size, r.maxFrameSize)
}
