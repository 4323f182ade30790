// Package objfile implements the loose object file format: a zlib
// deflated blob whose plaintext is "<type> <size>\x00<content>", the
// same encoding git writes under .git/objects/xx/yyyy...
package objfile

import (
	"bufio"
	"compress/zlib"
	"errors"
	"io"
	"strconv"

	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/format/config"
)

// ErrHeader is returned when the "<type> <size>\x00" header cannot be
// parsed.
var ErrHeader = errors.New("objfile: invalid header")

// Reader reads and decodes loose object file content.
type Reader struct {
	zr     io.ReadCloser
	br     *bufio.Reader
	hasher plumbing.Hasher
	multi  io.Reader
}

// NewReader returns a new Reader reading from r. It does not read the
// header; call Header for that.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}

	return &Reader{
		zr: zr,
		br: bufio.NewReader(zr),
	}, nil
}

// Header reads and parses the object header, returning the object's
// type and declared content size. It must be called exactly once,
// before any call to Read.
func (r *Reader) Header() (t plumbing.ObjectType, size int64, err error) {
	typ, err := r.br.ReadString(' ')
	if err != nil {
		return plumbing.InvalidObject, 0, ErrHeader
	}
	typ = typ[:len(typ)-1]

	t, err = plumbing.ParseObjectType(typ)
	if err != nil {
		return plumbing.InvalidObject, 0, ErrHeader
	}

	sizeField, err := r.br.ReadString(0)
	if err != nil {
		return t, 0, ErrHeader
	}
	sizeField = sizeField[:len(sizeField)-1]

	size, err = strconv.ParseInt(sizeField, 10, 64)
	if err != nil {
		return t, 0, ErrHeader
	}

	r.hasher = plumbing.NewHasher(config.DefaultObjectFormat, t, size)
	r.multi = io.TeeReader(r.br, r.hasher)

	return t, size, nil
}

// Read implements io.Reader, returning the object's decompressed
// content. Header must have been called first.
func (r *Reader) Read(p []byte) (int, error) {
	if r.multi == nil {
		return 0, errors.New("objfile: Read called before Header")
	}

	return r.multi.Read(p)
}

// Hash returns the object hash computed over everything read so far,
// including the header. It is only accurate once the full content has
// been read.
func (r *Reader) Hash() plumbing.Hash {
	return r.hasher.Sum()
}

// Close releases the underlying zlib reader.
func (r *Reader) Close() error {
	return r.zr.Close()
}
