// Package idxfile implements encoding and decoding of packfile .idx
// files version 2, which map object hashes to their offset and CRC32
// inside the corresponding packfile.
package idxfile

import (
	"io"
	"sort"

	"github.com/coreforge/gitcore/plumbing"
)

// VersionSupported is the only idx file version this package can read
// and write.
const VersionSupported = 2

// fanout is the number of entries in the fanout table: one per
// possible leading byte of an object hash.
const fanout = 256

// noMapping marks a fanout bucket with no entries in FanoutMapping.
const noMapping = -1

// idxHeader is the four magic bytes every version-2 idx file starts
// with, followed by the big-endian version number.
var idxHeader = []byte{255, 't', 'O', 'c'}

// Entry is a single object's position within a packfile.
type Entry struct {
	Hash   plumbing.Hash
	Offset uint64
	CRC32  uint32
}

// EntryIter iterates over the entries of an Index.
type EntryIter interface {
	Next() (*Entry, error)
	Close() error
}

// Index provides read access to a packfile's .idx data, regardless of
// whether it is held in memory or backed by a file.
type Index interface {
	// Contains reports whether h is present in the index.
	Contains(h plumbing.Hash) (bool, error)
	// FindOffset returns the packfile offset of h.
	FindOffset(h plumbing.Hash) (int64, error)
	// FindCRC32 returns the CRC32 of the object at h.
	FindCRC32(h plumbing.Hash) (uint32, error)
	// FindHash returns the hash of the object stored at the given
	// packfile offset.
	FindHash(offset int64) (plumbing.Hash, error)
	// Count returns the number of objects in the index.
	Count() (int64, error)
	// Entries iterates the index in hash order.
	Entries() (EntryIter, error)
	// EntriesByOffset iterates the index in packfile offset order.
	EntriesByOffset() (EntryIter, error)
}

// MemoryIndex is a fully in-memory Index, built either by decoding an
// .idx file or by a Writer observing a packfile decode.
type MemoryIndex struct {
	Version uint32

	Fanout        [fanout]uint32
	FanoutMapping [fanout]int

	Names    [][]byte
	CRC32    [][]byte
	Offset32 [][]byte
	Offset64 []byte

	PackfileChecksum plumbing.Hash
	IdxChecksum      plumbing.Hash

	hashSize int
}

// NewMemoryIndex returns an empty MemoryIndex for hashes of the given
// size (20 for SHA1, 32 for SHA256).
func NewMemoryIndex(hashSize int) *MemoryIndex {
	idx := &MemoryIndex{Version: VersionSupported, hashSize: hashSize}
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}
	return idx
}

func (idx *MemoryIndex) hashSizeOrDefault() int {
	if idx.hashSize != 0 {
		return idx.hashSize
	}
	return 20
}

func (idx *MemoryIndex) bucketFor(h plumbing.Hash) int {
	first := h.Bytes()[0]
	return idx.FanoutMapping[first]
}

func (idx *MemoryIndex) boundsFor(h plumbing.Hash) (lo, hi int) {
	first := int(h.Bytes()[0])
	if first > 0 {
		lo = int(idx.Fanout[first-1])
	}
	hi = int(idx.Fanout[first])
	return
}

func (idx *MemoryIndex) searchInBucket(bucket int, h plumbing.Hash) (int, bool) {
	if bucket == noMapping {
		return 0, false
	}

	hashSize := idx.hashSizeOrDefault()
	names := idx.Names[bucket]
	count := len(names) / hashSize
	want := h.Bytes()

	pos := sort.Search(count, func(i int) bool {
		return string(names[i*hashSize:(i+1)*hashSize]) >= string(want)
	})

	if pos >= count {
		return 0, false
	}

	if string(names[pos*hashSize:(pos+1)*hashSize]) != string(want) {
		return 0, false
	}

	return pos, true
}

// Contains implements Index.
func (idx *MemoryIndex) Contains(h plumbing.Hash) (bool, error) {
	bucket := idx.bucketFor(h)
	_, found := idx.searchInBucket(bucket, h)
	return found, nil
}

// FindOffset implements Index.
func (idx *MemoryIndex) FindOffset(h plumbing.Hash) (int64, error) {
	bucket := idx.bucketFor(h)
	pos, found := idx.searchInBucket(bucket, h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}

	off32 := readUint32(idx.Offset32[bucket], pos)
	if off32&0x80000000 != 0 {
		loIndex := int(off32 &^ 0x80000000)
		return int64(readUint64(idx.Offset64, loIndex)), nil
	}

	return int64(off32), nil
}

// FindCRC32 implements Index.
func (idx *MemoryIndex) FindCRC32(h plumbing.Hash) (uint32, error) {
	bucket := idx.bucketFor(h)
	pos, found := idx.searchInBucket(bucket, h)
	if !found {
		return 0, plumbing.ErrObjectNotFound
	}

	return readUint32(idx.CRC32[bucket], pos), nil
}

// FindHash implements Index, via a linear scan. Callers needing this
// on a hot path should prefer ReaderAtIndex with a reverse index.
func (idx *MemoryIndex) FindHash(offset int64) (plumbing.Hash, error) {
	iter, err := idx.Entries()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer iter.Close()

	for {
		e, err := iter.Next()
		if err == io.EOF {
			return plumbing.ZeroHash, plumbing.ErrObjectNotFound
		}
		if err != nil {
			return plumbing.ZeroHash, err
		}
		if int64(e.Offset) == offset {
			return e.Hash, nil
		}
	}
}

// Count implements Index.
func (idx *MemoryIndex) Count() (int64, error) {
	return int64(idx.Fanout[fanout-1]), nil
}

// Entries implements Index, iterating in hash order.
func (idx *MemoryIndex) Entries() (EntryIter, error) {
	return &memoryEntryIter{idx: idx, fanoutByte: -1, bucket: -1}, nil
}

// EntriesByOffset implements Index, iterating in packfile offset
// order.
func (idx *MemoryIndex) EntriesByOffset() (EntryIter, error) {
	all, err := idx.allEntries()
	if err != nil {
		return nil, err
	}

	sort.Sort(entriesByOffset(all))
	return &sliceEntryIter{entries: all}, nil
}

func (idx *MemoryIndex) allEntries() ([]*Entry, error) {
	iter, err := idx.Entries()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var all []*Entry
	for {
		e, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		all = append(all, e)
	}
	return all, nil
}

func readUint32(b []byte, pos int) uint32 {
	off := pos * 4
	return uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
}

func readUint64(b []byte, pos int) uint64 {
	off := pos * 8
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[off+i])
	}
	return v
}

type memoryEntryIter struct {
	idx        *MemoryIndex
	fanoutByte int
	bucket     int
	pos        int
}

func (i *memoryEntryIter) Next() (*Entry, error) {
	if i.fanoutByte >= fanout {
		return nil, io.EOF
	}

	hashSize := i.idx.hashSizeOrDefault()

	for i.bucket == -1 || i.pos*hashSize >= len(i.idx.Names[i.bucket]) {
		i.fanoutByte++
		i.pos = 0

		for i.fanoutByte < fanout && i.idx.FanoutMapping[i.fanoutByte] == noMapping {
			i.fanoutByte++
		}

		if i.fanoutByte >= fanout {
			return nil, io.EOF
		}

		i.bucket = i.idx.FanoutMapping[i.fanoutByte]
	}

	pos := i.pos
	bucket := i.bucket
	i.pos++

	var h plumbing.Hash
	h.ResetBySize(hashSize)
	_, _ = h.Write(i.idx.Names[bucket][pos*hashSize : (pos+1)*hashSize])

	off32 := readUint32(i.idx.Offset32[bucket], pos)
	offset := uint64(off32)
	if off32&0x80000000 != 0 {
		loIndex := int(off32 &^ 0x80000000)
		offset = readUint64(i.idx.Offset64, loIndex)
	}

	return &Entry{
		Hash:   h,
		Offset: offset,
		CRC32:  readUint32(i.idx.CRC32[bucket], pos),
	}, nil
}

func (i *memoryEntryIter) Close() error {
	i.fanoutByte = fanout
	return nil
}

type sliceEntryIter struct {
	entries []*Entry
	pos     int
}

func (i *sliceEntryIter) Next() (*Entry, error) {
	if i.pos >= len(i.entries) {
		return nil, io.EOF
	}
	e := i.entries[i.pos]
	i.pos++
	return e, nil
}

func (i *sliceEntryIter) Close() error {
	i.pos = len(i.entries)
	return nil
}

type entriesByOffset []*Entry

func (e entriesByOffset) Len() int           { return len(e) }
func (e entriesByOffset) Less(i, j int) bool { return e[i].Offset < e[j].Offset }
func (e entriesByOffset) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }
