package storer

import (
	"errors"
	"io"
	"time"

	"github.com/coreforge/gitcore/plumbing"
)

// ErrStop is used to stop a ForEach function in an Iter.
var ErrStop = errors.New("stop iter")

// EncodedObjectStorer generic storage of objects.
type EncodedObjectStorer interface {
	// NewEncodedObject creates a new object in blank.
	NewEncodedObject() plumbing.EncodedObject
	// SetEncodedObject saves an object into the storage, returning its Hash.
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	// EncodedObject gets an object by hash with the given ObjectType.
	// Implementations should return ErrObjectNotFound if an object is not
	// found.
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	// IterEncodedObjects returns an iterator for all the objects in the
	// storage with the given ObjectType.
	IterEncodedObjects(plumbing.ObjectType) (EncodedObjectIter, error)
	// HasEncodedObject returns ErrObjNotFound if the object doesn't
	// exist. If the object exists, it returns nil.
	HasEncodedObject(plumbing.Hash) error
	// EncodedObjectSize returns the plaintext size of the encoded object.
	EncodedObjectSize(plumbing.Hash) (int64, error)
}

// DeltaObjectStorer is implemented by storers that can return objects as
// delta objects, without resolving the base.
type DeltaObjectStorer interface {
	DeltaObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
}

// Transaction is used to atomically save multiple objects.
type Transaction interface {
	SetEncodedObject(plumbing.EncodedObject) (plumbing.Hash, error)
	EncodedObject(plumbing.ObjectType, plumbing.Hash) (plumbing.EncodedObject, error)
	Commit() error
	Rollback() error
}

// Transactioner is an optional method for a storer, allowing transactions
// to be used to save multiple objects atomically.
type Transactioner interface {
	Begin() Transaction
}

// PackfileWriter is implemented by storers that support direct write of
// packfiles. Storers implementing this interface will receive calls of
// the content of the packfiles directly as two bytes streams are
// copied from one side to the other.
type PackfileWriter interface {
	// PackfileWriter returns a writer for writing a packfile to disk.
	PackfileWriter() (io.WriteCloser, error)
}

// RawObjectWriter is implemented by storers able to write objects given
// their type and size, using the returned WriteCloser to write the
// uncompressed content.
type RawObjectWriter interface {
	RawObjectWriter(typ plumbing.ObjectType, size int64) (io.WriteCloser, error)
}

// LooseObjectStorer is implemented by storers that manage loose objects,
// allowing inspection and removal of objects that would otherwise never
// be packed.
type LooseObjectStorer interface {
	// LooseObjectTime looks up the mtime associated with the
	// loose object (if any).
	LooseObjectTime(plumbing.Hash) (time.Time, error)
	// DeleteLooseObject deletes a loose object if it exists.
	DeleteLooseObject(plumbing.Hash) error
}

// PackedObjectStorer is implemented by storers that manage packfiles,
// allowing to list them and purge the ones that are no longer needed.
type PackedObjectStorer interface {
	// ObjectPacks returns the list of packs in the repository.
	ObjectPacks() ([]plumbing.Hash, error)
	// DeleteOldObjectPackAndIndex deletes the requested packfile, and
	// any index/other associated files older than the given time, if
	// any.
	DeleteOldObjectPackAndIndex(plumbing.Hash, time.Time) error
}

// AlternatesStorer is implemented by storers that can register alternate
// object stores (equivalent of .git/objects/info/alternates).
type AlternatesStorer interface {
	AddAlternate(remote string) error
}

// EncodedObjectIter is a generic closable interface for iterating over
// objects.
type EncodedObjectIter interface {
	Next() (plumbing.EncodedObject, error)
	ForEach(func(plumbing.EncodedObject) error) error
	Close()
}

// EncodedObjectLookupIter implements EncodedObjectIter. It lazily fetches
// objects by hash from a given storer.
type EncodedObjectLookupIter struct {
	storage EncodedObjectStorer
	t       plumbing.ObjectType
	series  []plumbing.Hash
	pos     int
}

// NewEncodedObjectLookupIter returns an iterator that yields each object
// from the given series, fetched lazily from storage as it's traversed.
func NewEncodedObjectLookupIter(
	storage EncodedObjectStorer, t plumbing.ObjectType, series []plumbing.Hash,
) *EncodedObjectLookupIter {
	return &EncodedObjectLookupIter{storage: storage, t: t, series: series}
}

// Next returns the next object from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *EncodedObjectLookupIter) Next() (plumbing.EncodedObject, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}

	obj, err := iter.storage.EncodedObject(iter.t, iter.series[iter.pos])
	if err != nil {
		return nil, err
	}

	iter.pos++

	return obj, nil
}

// ForEach call the cb function for each object contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned. The iterator is
// closed.
func (iter *EncodedObjectLookupIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return forEachObjectIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *EncodedObjectLookupIter) Close() {
	iter.pos = len(iter.series)
}

// EncodedObjectSliceIter implements EncodedObjectIter by walking a slice
// of objects already held in memory.
type EncodedObjectSliceIter struct {
	series []plumbing.EncodedObject
}

// NewEncodedObjectSliceIter returns an object iterator for the given
// slice of objects.
func NewEncodedObjectSliceIter(series []plumbing.EncodedObject) *EncodedObjectSliceIter {
	return &EncodedObjectSliceIter{series: series}
}

// Next returns the next object from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *EncodedObjectSliceIter) Next() (plumbing.EncodedObject, error) {
	if len(iter.series) == 0 {
		return nil, io.EOF
	}

	obj := iter.series[0]
	iter.series = iter.series[1:]

	return obj, nil
}

// ForEach call the cb function for each object contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned.
func (iter *EncodedObjectSliceIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return forEachObjectIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *EncodedObjectSliceIter) Close() {
	iter.series = nil
}

// MultiEncodedObjectIter chains together several object iterators,
// exhausting each one in order before moving on to the next.
type MultiEncodedObjectIter struct {
	iters []EncodedObjectIter
}

// NewMultiEncodedObjectIter returns an iterator that traverses the given
// iterators in order, as if they were a single one.
func NewMultiEncodedObjectIter(iters []EncodedObjectIter) *MultiEncodedObjectIter {
	return &MultiEncodedObjectIter{iters: iters}
}

// Next returns the next object from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *MultiEncodedObjectIter) Next() (plumbing.EncodedObject, error) {
	for len(iter.iters) > 0 {
		obj, err := iter.iters[0].Next()
		if err == io.EOF {
			iter.iters[0].Close()
			iter.iters = iter.iters[1:]

			continue
		}

		return obj, err
	}

	return nil, io.EOF
}

// ForEach call the cb function for each object contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned.
func (iter *MultiEncodedObjectIter) ForEach(cb func(plumbing.EncodedObject) error) error {
	return forEachObjectIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *MultiEncodedObjectIter) Close() {
	for _, i := range iter.iters {
		i.Close()
	}

	iter.iters = nil
}

func forEachObjectIter(iter EncodedObjectIter, cb func(plumbing.EncodedObject) error) error {
	defer iter.Close()

	for {
		obj, err := iter.Next()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return err
		}

		if err := cb(obj); err != nil {
			if err == ErrStop {
				return nil
			}

			return err
		}
	}
}
