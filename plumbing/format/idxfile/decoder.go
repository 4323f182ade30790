package idxfile

import (
	"bytes"
	"errors"
	"io"

	"github.com/coreforge/gitcore/utils/binary"
)

// ErrUnsupportedVersion is returned when the idx file declares a
// version this package does not know how to decode.
var ErrUnsupportedVersion = errors.New("idxfile: unsupported version")

// ErrMalformedIdxFile is returned when the idx file's header or
// trailer does not match the expected layout.
var ErrMalformedIdxFile = errors.New("idxfile: malformed idx file")

// Decoder reads a version-2 idx file and fills a MemoryIndex.
type Decoder struct {
	r io.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the full idx stream into idx.
func (d *Decoder) Decode(idx *MemoryIndex) error {
	flow := []func(*MemoryIndex) error{
		d.decodeHeader,
		d.decodeFanout,
		d.decodeHashes,
		d.decodeCRC32,
		d.decodeOffsets,
		d.decodeChecksums,
	}

	for _, f := range flow {
		if err := f(idx); err != nil {
			return err
		}
	}

	return nil
}

func (d *Decoder) decodeHeader(idx *MemoryIndex) error {
	header := make([]byte, len(idxHeader))
	if _, err := io.ReadFull(d.r, header); err != nil {
		return err
	}

	if !bytes.Equal(header, idxHeader) {
		return ErrMalformedIdxFile
	}

	version, err := binary.ReadUint32(d.r)
	if err != nil {
		return err
	}

	if version != VersionSupported {
		return ErrUnsupportedVersion
	}

	idx.Version = version
	return nil
}

func (d *Decoder) decodeFanout(idx *MemoryIndex) error {
	for i := range idx.FanoutMapping {
		idx.FanoutMapping[i] = noMapping
	}

	for i := 0; i < fanout; i++ {
		c, err := binary.ReadUint32(d.r)
		if err != nil {
			return err
		}
		idx.Fanout[i] = c
	}

	return nil
}

func (d *Decoder) countPerBucket(idx *MemoryIndex) []uint32 {
	counts := make([]uint32, fanout)
	var last uint32
	for i := 0; i < fanout; i++ {
		counts[i] = idx.Fanout[i] - last
		last = idx.Fanout[i]
	}
	return counts
}

func (d *Decoder) decodeHashes(idx *MemoryIndex) error {
	hashSize := idx.hashSizeOrDefault()
	counts := d.countPerBucket(idx)

	bucket := 0
	for i := 0; i < fanout; i++ {
		if counts[i] == 0 {
			continue
		}

		buf := make([]byte, int(counts[i])*hashSize)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}

		idx.Names = append(idx.Names, buf)
		idx.FanoutMapping[i] = bucket
		bucket++
	}

	return nil
}

func (d *Decoder) decodeCRC32(idx *MemoryIndex) error {
	counts := d.countPerBucket(idx)

	for i := 0; i < fanout; i++ {
		if counts[i] == 0 {
			continue
		}

		buf := make([]byte, int(counts[i])*4)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}

		idx.CRC32 = append(idx.CRC32, buf)
	}

	return nil
}

func (d *Decoder) decodeOffsets(idx *MemoryIndex) error {
	counts := d.countPerBucket(idx)

	var total64 int
	for i := 0; i < fanout; i++ {
		if counts[i] == 0 {
			continue
		}

		buf := make([]byte, int(counts[i])*4)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}

		idx.Offset32 = append(idx.Offset32, buf)

		for j := 0; j < int(counts[i]); j++ {
			if readUint32(buf, j)&0x80000000 != 0 {
				total64++
			}
		}
	}

	if total64 > 0 {
		buf := make([]byte, total64*8)
		if _, err := io.ReadFull(d.r, buf); err != nil {
			return err
		}
		idx.Offset64 = buf
	}

	return nil
}

func (d *Decoder) decodeChecksums(idx *MemoryIndex) error {
	hashSize := idx.hashSizeOrDefault()

	packChecksum := make([]byte, hashSize)
	if _, err := io.ReadFull(d.r, packChecksum); err != nil {
		return err
	}
	idx.PackfileChecksum.ResetBySize(hashSize)
	_, _ = idx.PackfileChecksum.Write(packChecksum)

	idxChecksum := make([]byte, hashSize)
	if _, err := io.ReadFull(d.r, idxChecksum); err != nil {
		return err
	}
	idx.IdxChecksum.ResetBySize(hashSize)
	_, _ = idx.IdxChecksum.Write(idxChecksum)

	return nil
}
