package packfile

import (
	"fmt"
	"io"
	"sync"

	billy "github.com/go-git/go-billy/v5"

	"github.com/coreforge/gitcore/plumbing"
	"github.com/coreforge/gitcore/plumbing/cache"
	"github.com/coreforge/gitcore/plumbing/format/idxfile"
	"github.com/coreforge/gitcore/plumbing/storer"
	"github.com/coreforge/gitcore/utils/ioutil"
	gogitsync "github.com/coreforge/gitcore/utils/sync"
)

// ErrInvalidObject is returned by Get when an invalid object is
// found in the packfile.
var ErrInvalidObject = NewError("invalid git object")

// Packfile allows retrieving information from inside a packfile.
type Packfile struct {
	idxfile.Index
	fs    billy.Filesystem
	file  billy.File
	s     *Scanner
	cache cache.Object
	id    plumbing.Hash
	m     sync.Mutex

	objectIdSize int

	once    sync.Once
	onceErr error
}

// NewPackfile returns a packfile representation for the given packfile
// file. The index, filesystem and cache are set via PackfileOptions.
func NewPackfile(file billy.File, opts ...PackfileOption) *Packfile {
	p := &Packfile{
		file: file,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Packfile) init() error {
	p.once.Do(func() {
		if p.file == nil {
			p.onceErr = fmt.Errorf("packfile: file is not set")
			return
		}

		if p.Index == nil {
			p.onceErr = fmt.Errorf("packfile: index is not set")
			return
		}

		p.s = NewScanner(p.file)
		if p.objectIdSize > 0 {
			p.s.objectIDSize = p.objectIdSize
		}

		if p.cache == nil {
			p.cache = cache.NewObjectLRUDefault()
		}
	})

	return p.onceErr
}

// Get retrieves the encoded object in the packfile with the given hash.
func (p *Packfile) Get(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	return p.get(h)
}

func (p *Packfile) get(h plumbing.Hash) (plumbing.EncodedObject, error) {
	if obj, ok := p.cache.Get(h); ok {
		return obj, nil
	}

	offset, err := p.FindOffset(h)
	if err != nil {
		return nil, err
	}

	oh, err := p.headerFromOffset(offset)
	if err != nil {
		return nil, err
	}

	return p.objectFromHeader(oh)
}

// GetByOffset retrieves the encoded object from the packfile at the given
// offset.
func (p *Packfile) GetByOffset(o int64) (plumbing.EncodedObject, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	return p.getByOffset(o)
}

func (p *Packfile) getByOffset(o int64) (plumbing.EncodedObject, error) {
	h, err := p.FindHash(o)
	if err != nil {
		return nil, err
	}

	return p.get(h)
}

// GetSizeByOffset retrieves the size of the encoded object from the
// packfile with the given offset. For delta objects this is the size of
// the resolved object, not of the delta itself.
func (p *Packfile) GetSizeByOffset(o int64) (int64, error) {
	if err := p.init(); err != nil {
		return 0, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	oh, err := p.headerFromOffset(o)
	if err != nil {
		return 0, err
	}

	return p.objectSize(oh)
}

func (p *Packfile) objectSize(oh *ObjectHeader) (int64, error) {
	if !oh.Type.IsDelta() {
		return oh.Size, nil
	}

	buf := gogitsync.GetBytesBuffer()
	defer gogitsync.PutBytesBuffer(buf)

	if err := p.s.WriteObject(oh, buf); err != nil {
		return 0, err
	}

	delta := buf.Bytes()
	if len(delta) == 0 {
		return 0, ErrInvalidObject.AddDetails("empty delta at offset %d", oh.Offset)
	}

	// The delta data starts with the base size and the resolved target
	// size, both variable-length encoded.
	_, delta, err := decodeSize(delta[0], delta[1:])
	if err != nil {
		return 0, err
	}
	if len(delta) == 0 {
		return 0, ErrInvalidObject.AddDetails("truncated delta at offset %d", oh.Offset)
	}

	sz, _, err := decodeSize(delta[0], delta[1:])
	if err != nil {
		return 0, err
	}

	return int64(sz), nil
}

// GetAll returns an iterator with every encoded object in the packfile.
// The iterator returned is not thread-safe, it should be used in the same
// thread as the Packfile instance.
func (p *Packfile) GetAll() (storer.EncodedObjectIter, error) {
	return p.GetByType(plumbing.AnyObject)
}

// GetByType returns an iterator over the encoded objects of the given
// type, in packfile offset order. Delta objects are resolved to their
// final type before the filter applies.
func (p *Packfile) GetByType(typ plumbing.ObjectType) (storer.EncodedObjectIter, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	switch typ {
	case plumbing.AnyObject,
		plumbing.BlobObject,
		plumbing.TreeObject,
		plumbing.CommitObject,
		plumbing.TagObject:
		entries, err := p.EntriesByOffset()
		if err != nil {
			return nil, err
		}

		return &objectIter{
			p:    p,
			typ:  typ,
			iter: entries,
		}, nil
	default:
		return nil, plumbing.ErrInvalidType
	}
}

func (p *Packfile) headerFromOffset(offset int64) (*ObjectHeader, error) {
	if err := p.s.SeekFromStart(offset); err != nil {
		return nil, err
	}

	if !p.s.Scan() {
		if err := p.s.Error(); err != nil {
			return nil, err
		}
		return nil, plumbing.ErrObjectNotFound
	}

	data := p.s.Data()
	oh := data.Value().(ObjectHeader)
	return &oh, nil
}

func (p *Packfile) objectFromHeader(oh *ObjectHeader) (plumbing.EncodedObject, error) {
	if oh == nil {
		return nil, plumbing.ErrObjectNotFound
	}

	// Non-delta objects backed by a filesystem don't need to be held in
	// memory: hand out a lazy FSObject that inflates on demand.
	if !oh.Type.IsDelta() && p.fs != nil {
		fs := NewFSObject(
			oh.Hash,
			oh.Type,
			oh.ContentOffset,
			oh.Size,
			p.Index,
			p.fs,
			p.file,
			p.file.Name(),
			p.cache,
		)

		p.cache.Put(fs)
		return fs, nil
	}

	return p.getMemoryObject(oh)
}

func (p *Packfile) getMemoryObject(oh *ObjectHeader) (obj plumbing.EncodedObject, err error) {
	mo := new(plumbing.MemoryObject)
	mo.SetSize(oh.Size)
	mo.SetType(oh.Type)

	w, err := mo.Writer()
	if err != nil {
		return nil, err
	}
	defer ioutil.CheckClose(w, &err)

	switch oh.Type {
	case plumbing.CommitObject, plumbing.TreeObject, plumbing.BlobObject, plumbing.TagObject:
		if err := p.s.WriteObject(oh, w); err != nil {
			return nil, err
		}
	case plumbing.REFDeltaObject, plumbing.OFSDeltaObject:
		var parent plumbing.EncodedObject
		switch oh.Type {
		case plumbing.REFDeltaObject:
			parent, err = p.get(oh.Reference)
		case plumbing.OFSDeltaObject:
			parent, err = p.getByOffset(oh.OffsetReference)
		}
		if err != nil {
			return nil, fmt.Errorf("cannot find base object: %w", err)
		}

		buf := gogitsync.GetBytesBuffer()
		defer gogitsync.PutBytesBuffer(buf)

		if err := p.s.WriteObject(oh, buf); err != nil {
			return nil, err
		}

		mo.SetType(parent.Type())
		if err := ApplyDelta(mo, parent, buf.Bytes()); err != nil {
			return nil, err
		}

		p.cache.Put(mo)
	default:
		return nil, ErrInvalidObject.AddDetails("type %q", oh.Type)
	}

	return mo, nil
}

// getObjectContent returns a reader over the inflated content of the
// object stored at the given offset, resolving deltas as needed.
func (p *Packfile) getObjectContent(offset int64) (io.ReadCloser, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	p.m.Lock()
	defer p.m.Unlock()

	oh, err := p.headerFromOffset(offset)
	if err != nil {
		return nil, err
	}

	obj, err := p.objectFromHeader(oh)
	if err != nil {
		return nil, err
	}

	return obj.Reader()
}

// ID returns the ID of the packfile, which is the checksum at the end of it.
func (p *Packfile) ID() (plumbing.Hash, error) {
	if err := p.init(); err != nil {
		return plumbing.ZeroHash, err
	}

	if !p.id.IsZero() {
		return p.id, nil
	}

	size := p.objectIdSize
	if size == 0 {
		size = p.s.objectIDSize
	}

	if _, err := p.file.Seek(-int64(size), io.SeekEnd); err != nil {
		return plumbing.ZeroHash, err
	}

	p.id.ResetBySize(size)
	if _, err := p.id.ReadFrom(p.file); err != nil {
		return plumbing.ZeroHash, err
	}

	return p.id, nil
}

// Scanner returns the packfile's Scanner.
func (p *Packfile) Scanner() (*Scanner, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	return p.s, nil
}

// Close the packfile and its resources.
func (p *Packfile) Close() error {
	if p.file == nil {
		return nil
	}

	return p.file.Close()
}
