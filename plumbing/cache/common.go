package cache

import "github.com/coreforge/gitcore/plumbing"

const (
	Byte FileSize = 1 << (iota * 10)
	KiByte
	MiByte
	GiByte
)

// FileSize represents the size in bytes of cached content.
type FileSize int64

// Object is a cache for storing and retrieving EncodedObject by hash,
// bounded by a maximum combined size with LRU eviction.
type Object interface {
	Put(o plumbing.EncodedObject)
	Get(k plumbing.Hash) (plumbing.EncodedObject, bool)
	Clear()
}

// Buffer is a cache for storing and retrieving raw byte slices keyed by
// an arbitrary int64 offset, bounded by a maximum combined size with LRU
// eviction.
type Buffer interface {
	Put(k int64, b []byte)
	Get(k int64) ([]byte, bool)
	Clear()
}
