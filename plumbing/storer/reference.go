package storer

import (
	"io"

	"github.com/coreforge/gitcore/plumbing"
)

// ReferenceStorer is a generic storage of references.
type ReferenceStorer interface {
	SetReference(*plumbing.Reference) error
	// CheckAndSetReference sets the reference `new`, but if `old` is
	// not `nil`, it first checks that the current stored value for
	// `old.Name()` matches the given reference value in `old`. If not,
	// it returns an error and doesn't update `new`.
	CheckAndSetReference(new, old *plumbing.Reference) error
	Reference(plumbing.ReferenceName) (*plumbing.Reference, error)
	IterReferences() (ReferenceIter, error)
	RemoveReference(plumbing.ReferenceName) error
	CountLooseRefs() (int, error)
	PackRefs() error
}

// ReferenceIter is a generic closable interface for iterating over
// references.
type ReferenceIter interface {
	Next() (*plumbing.Reference, error)
	ForEach(func(*plumbing.Reference) error) error
	Close()
}

// ReferenceSliceIter implements ReferenceIter for a slice of references.
type ReferenceSliceIter struct {
	series []*plumbing.Reference
	pos    int
}

// NewReferenceSliceIter returns a reference iterator for the given slice
// of objects.
func NewReferenceSliceIter(series []*plumbing.Reference) *ReferenceSliceIter {
	return &ReferenceSliceIter{series: series}
}

// Next returns the next reference from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *ReferenceSliceIter) Next() (*plumbing.Reference, error) {
	if iter.pos >= len(iter.series) {
		return nil, io.EOF
	}

	obj := iter.series[iter.pos]
	iter.pos++

	return obj, nil
}

// ForEach call the cb function for each reference contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned.
func (iter *ReferenceSliceIter) ForEach(cb func(*plumbing.Reference) error) error {
	return forEachReferenceIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *ReferenceSliceIter) Close() {
	iter.pos = len(iter.series)
}

// ReferenceFilteredIter is a reference iterator which applies a filter
// over the wrapped iterator, only surfacing the references for which it
// returns true.
type ReferenceFilteredIter struct {
	f    func(r *plumbing.Reference) bool
	iter ReferenceIter
}

// NewReferenceFilteredIter returns a reference iterator for the given
// reference iterator with the given filter.
func NewReferenceFilteredIter(
	f func(r *plumbing.Reference) bool, iter ReferenceIter,
) *ReferenceFilteredIter {
	return &ReferenceFilteredIter{f, iter}
}

// Next returns the next reference from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *ReferenceFilteredIter) Next() (*plumbing.Reference, error) {
	for {
		r, err := iter.iter.Next()
		if err != nil {
			return nil, err
		}

		if iter.f(r) {
			return r, nil
		}
	}
}

// ForEach call the cb function for each reference contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned.
func (iter *ReferenceFilteredIter) ForEach(cb func(*plumbing.Reference) error) error {
	return forEachReferenceIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *ReferenceFilteredIter) Close() {
	iter.iter.Close()
}

// MultiReferenceIter chains together several reference iterators,
// exhausting each one in order before moving on to the next.
type MultiReferenceIter struct {
	iters []ReferenceIter
}

// NewMultiReferenceIter returns an iterator that traverses the given
// iterators in order, as if they were a single one.
func NewMultiReferenceIter(iters []ReferenceIter) *MultiReferenceIter {
	return &MultiReferenceIter{iters: iters}
}

// Next returns the next reference from the iterator. If the iterator has
// reached the end it will return io.EOF as an error.
func (iter *MultiReferenceIter) Next() (*plumbing.Reference, error) {
	for len(iter.iters) > 0 {
		r, err := iter.iters[0].Next()
		if err == io.EOF {
			iter.iters[0].Close()
			iter.iters = iter.iters[1:]

			continue
		}

		return r, err
	}

	return nil, io.EOF
}

// ForEach call the cb function for each reference contained on this iter
// until an error happens or the end of the iter is reached. If ErrStop is
// sent the iteration is stopped but no error is returned.
func (iter *MultiReferenceIter) ForEach(cb func(*plumbing.Reference) error) error {
	return forEachReferenceIter(iter, cb)
}

// Close releases any resources used by the iterator.
func (iter *MultiReferenceIter) Close() {
	for _, i := range iter.iters {
		i.Close()
	}

	iter.iters = nil
}

func forEachReferenceIter(iter ReferenceIter, cb func(*plumbing.Reference) error) error {
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

// ResolveReference resolves a symbolic reference to the hash reference it
// ultimately points to, following the chain of symbolic references.
func ResolveReference(s ReferenceStorer, n plumbing.ReferenceName) (*plumbing.Reference, error) {
	r, err := s.Reference(n)
	if err != nil || r == nil {
		return r, err
	}

	if r.Type() == plumbing.SymbolicReference {
		return ResolveReference(s, r.Target())
	}

	return r, nil
}
