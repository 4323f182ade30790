package objfile

import (
	"compress/zlib"
	"errors"
	"io"
	"strconv"

	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/format/config"
)

// ErrOverflow is returned when more content is written than was
// declared in WriteHeader.
var ErrOverflow = errors.New("objfile: declared size exceeded")

// ErrNegativeSize is returned by WriteHeader for a negative size.
var ErrNegativeSize = errors.New("objfile: negative object size")

// Writer encodes and zlib-deflates loose object file content.
type Writer struct {
	zw      *zlib.Writer
	hasher  plumbing.Hasher
	pending int64
}

// NewWriter returns a new Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zlib.NewWriter(w)}
}

// WriteHeader writes the "<type> <size>\x00" header. It must be called
// exactly once, before any call to Write.
func (w *Writer) WriteHeader(t plumbing.ObjectType, size int64) error {
	if !t.Valid() {
		return plumbing.ErrInvalidType
	}
	if size < 0 {
		return ErrNegativeSize
	}

	w.pending = size
	w.hasher = plumbing.NewHasher(config.DefaultObjectFormat, t, size)

	header := append(t.Bytes(), ' ')
	header = append(header, strconv.FormatInt(size, 10)...)
	header = append(header, 0)

	_, err := w.zw.Write(header)
	return err
}

// Write implements io.Writer. It refuses to write past the size
// declared in WriteHeader, returning ErrOverflow together with the
// number of bytes it did accept.
func (w *Writer) Write(p []byte) (int, error) {
	if w.pending <= 0 && len(p) > 0 {
		return 0, ErrOverflow
	}

	overflow := false
	n := len(p)
	if int64(n) > w.pending {
		n = int(w.pending)
		overflow = true
	}

	written, err := w.zw.Write(p[:n])
	w.pending -= int64(written)
	if err != nil {
		return written, err
	}

	w.hasher.Write(p[:written])

	if overflow {
		return written, ErrOverflow
	}

	return written, nil
}

// Hash returns the object hash computed over the header and all
// content written so far.
func (w *Writer) Hash() plumbing.Hash {
	return w.hasher.Sum()
}

// Close flushes and closes the underlying zlib writer.
func (w *Writer) Close() error {
	return w.zw.Close()
}
