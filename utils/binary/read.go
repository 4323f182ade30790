package binary

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/coreforge/gitcore/plumbing"
)

// sniffLen is how many leading bytes IsBinary inspects looking for a
// NUL byte, mirroring git's own buffer_is_binary heuristic.
const sniffLen = 8000

// Read reads into each of data, in order, using BigEndian byte order.
// See https://golang.org/pkg/encoding/binary/#Read
func Read(r io.Reader, data ...interface{}) error {
	for _, v := range data {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return err
		}
	}

	return nil
}

// ReadUntil reads from r one byte at a time until delim is found,
// returning everything read before it.
func ReadUntil(r io.Reader, delim byte) ([]byte, error) {
	var buf [1]byte
	value := make([]byte, 0, 16)

	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}

		if buf[0] == delim {
			return value, nil
		}

		value = append(value, buf[0])
	}
}

// ReadUntilFromBufioReader is like ReadUntil but takes advantage of a
// *bufio.Reader's own buffering.
func ReadUntilFromBufioReader(r *bufio.Reader, delim byte) ([]byte, error) {
	value, err := r.ReadBytes(delim)
	if err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(value, []byte{delim}), nil
}

// ReadVariableWidthInt reads the variable width, continuation-bit
// encoded integer used for OFS_DELTA base offsets in packfiles.
func ReadVariableWidthInt(r io.Reader) (int64, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	var value = int64(buf[0] & 0x7f)
	for buf[0]&0x80 != 0 {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}

		value = ((value + 1) << 7) | int64(buf[0]&0x7f)
	}

	return value, nil
}

// ReadUint32 reads a BigEndian uint32 from r.
func ReadUint32(r io.Reader) (uint32, error) {
	var v uint32
	if err := Read(r, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadUint16 reads a BigEndian uint16 from r.
func ReadUint16(r io.Reader) (uint16, error) {
	var v uint16
	if err := Read(r, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// ReadHash reads size bytes from r into a plumbing.Hash.
func ReadHash(r io.Reader, size int) (plumbing.Hash, error) {
	var h plumbing.Hash
	h.ResetBySize(size)

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return h, err
	}

	_, _ = h.Write(buf)
	return h, nil
}

// IsBinary reports whether the first sniffLen bytes read from r
// contain a NUL byte, the same heuristic git itself uses to decide
// whether a blob is text.
func IsBinary(r io.Reader) (bool, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}

	return bytes.IndexByte(buf[:n], 0) != -1, nil
}
