// Package cursor provides a uniform reader/writer over an in-memory
// buffer or a streaming source, tracking position across reads and
// writes: callers ask for exact-length reads and get a typed error on
// short reads instead of a raw io.ErrUnexpectedEOF.
package cursor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fox-it/dissect.cstruct/pkg/cstruct/cerrors"
)

// Cursor wraps a byte source for reading, a byte sink for writing, or
// both, and tracks the current byte-aligned position. Bit-level state
// for bitfield runs is held by the structure reader/writer (see the
// types package), not here: a Cursor only ever moves whole bytes.
type Cursor struct {
	r   io.Reader
	w   io.Writer
	pos int64
}

// NewReader wraps an arbitrary io.Reader for sequential reads. If r also
// implements io.Seeker, Seek works; otherwise Seek fails for anything but
// a no-op SeekCurrent(0).
func NewReader(r io.Reader) *Cursor {
	return &Cursor{r: r}
}

// NewReaderBytes wraps an in-memory buffer, which is always seekable.
func NewReaderBytes(b []byte) *Cursor {
	return &Cursor{r: bytes.NewReader(b)}
}

// NewWriter wraps an arbitrary io.Writer for sequential writes.
func NewWriter(w io.Writer) *Cursor {
	return &Cursor{w: w}
}

// NewWriterBuffer allocates a fresh in-memory sink and returns both the
// cursor and the underlying buffer, so callers can read back the bytes
// written through it.
func NewWriterBuffer() (*Cursor, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWriter(buf), buf
}

// Tell returns the current byte offset.
func (c *Cursor) Tell() int64 { return c.pos }

// Seek repositions the cursor, following io.Seeker semantics. It fails
// if the underlying source does not support seeking.
func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	s, ok := c.r.(io.Seeker)
	if !ok {
		if whence == io.SeekCurrent && offset == 0 {
			return c.pos, nil
		}
		return 0, fmt.Errorf("cursor: underlying source does not support seeking")
	}
	n, err := s.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	c.pos = n
	return n, nil
}

// ReadExact reads exactly n bytes, returning a Truncated error wrapping
// the underlying short-read cause if fewer were available.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("cursor: negative read length %d", n)
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(c.r, buf)
	c.pos += int64(read)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Truncated, err,
			"expected %d bytes at offset %d, got %d", n, c.pos-int64(read), read)
	}
	return buf, nil
}

// ReadByte reads a single byte, satisfying io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	b, err := c.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Write writes p to the underlying sink, advancing the position.
func (c *Cursor) Write(p []byte) (int, error) {
	if c.w == nil {
		return 0, fmt.Errorf("cursor: not writable")
	}
	n, err := c.w.Write(p)
	c.pos += int64(n)
	return n, err
}
