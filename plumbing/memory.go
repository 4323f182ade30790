package plumbing

import (
	"bytes"
	"io"

	format "github.com/coreforge/gitcore/plumbing/format/config"
)

// MemoryObject is an implementation of EncodedObject that keeps all the
// information in memory.
type MemoryObject struct {
	t    ObjectType
	h    Hash
	cont []byte
	sz   int64
}

// NewMemoryObject returns a new, empty MemoryObject using the given object
// format as its hash algorithm.
func NewMemoryObject(oh *ObjectHasher) *MemoryObject {
	return &MemoryObject{}
}

// Hash returns the object hash, calculated on-demand the first time it's
// called, unless SetSize or Write have not been called yet, in which case
// the hash is not fully known and ZeroHash is returned.
func (o *MemoryObject) Hash() Hash {
	if o.h.IsZero() && o.sz == int64(len(o.cont)) {
		hasher := NewHasher(format.UnsetObjectFormat, o.t, o.sz)
		hasher.Write(o.cont)
		o.h = hasher.Sum()
	}

	return o.h
}

// Type returns the object type of the object.
func (o *MemoryObject) Type() ObjectType { return o.t }

// SetType sets the object type of the object.
func (o *MemoryObject) SetType(t ObjectType) { o.t = t }

// Size returns the size, in bytes, of the object's content.
func (o *MemoryObject) Size() int64 { return o.sz }

// SetSize sets the object size of the object.
func (o *MemoryObject) SetSize(s int64) { o.sz = s }

// Reader returns an io.ReadCloser used to read the object's content. If the
// content can be fully read in memory, the returned reader also implements
// io.Seeker.
func (o *MemoryObject) Reader() (io.ReadCloser, error) {
	return &seekableReader{Reader: bytes.NewReader(o.cont)}, nil
}

// seekableReader adapts a *bytes.Reader into an io.ReadCloser that still
// exposes Seek, without exposing Write.
type seekableReader struct {
	*bytes.Reader
}

func (seekableReader) Close() error { return nil }

// Writer returns an io.WriteCloser used to write the object's content.
func (o *MemoryObject) Writer() (io.WriteCloser, error) {
	return o, nil
}

// Write appends p to the object's content and keeps o.sz in sync.
func (o *MemoryObject) Write(p []byte) (n int, err error) {
	o.cont = append(o.cont, p...)
	o.sz = int64(len(o.cont))

	return len(p), nil
}

// Close implements io.Closer.
func (o *MemoryObject) Close() error { return nil }
