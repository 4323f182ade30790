// Package filemode implements the file modes used by git, including
// the conversions to and from the os.FileMode values used by the Go
// standard library.
package filemode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// A FileMode represents the access mode of a tree entry, as used and
// defined by Git. Only a few patterns are valid, and they are defined
// as constants below this type.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0o040000
	Regular    FileMode = 0o100644
	Deprecated FileMode = 0o100664
	Executable FileMode = 0o100755
	Symlink    FileMode = 0o120000
	Submodule  FileMode = 0o160000
)

// New takes the octal string representation of a FileMode and returns
// the FileMode and a nil error. It returns an error if the string
// cannot be parsed as an octal number.
func New(s string) (FileMode, error) {
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("invalid mode %q: %w", s, err)
	}

	return FileMode(n), nil
}

// NewFromOSFileMode returns the FileMode that corresponds to the given
// os.FileMode, following the same rules applied by git when adding
// contents to a repository. An error is returned when the os.FileMode
// has no git equivalent.
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	switch {
	case m&os.ModeNamedPipe != 0:
		return Empty, errors.New("no equivalent file mode: named pipe")
	case m&os.ModeSocket != 0:
		return Empty, errors.New("no equivalent file mode: socket")
	case m&os.ModeDevice != 0:
		return Empty, errors.New("no equivalent file mode: device")
	case m&os.ModeCharDevice != 0:
		return Empty, errors.New("no equivalent file mode: char device")
	case m&os.ModeTemporary != 0:
		return Empty, errors.New("no equivalent file mode: temporary file")
	}

	if m.IsRegular() {
		if isExecutableByAny(m) {
			return Executable, nil
		}

		return Regular, nil
	}

	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	return Empty, fmt.Errorf("no equivalent file mode: %s", m)
}

func isExecutableByAny(m os.FileMode) bool {
	return m&0o111 != 0
}

// Bytes returns the FileMode as a little-endian encoded 4-byte slice.
func (m FileMode) Bytes() []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(m))

	return b
}

// IsMalformed returns true if the FileMode does not correspond to any
// valid git mode.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// String returns the FileMode as an octal string, zero-padded to
// represent a 32-bit value.
func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsRegular returns if the FileMode represents that of a regular file,
// that is, Regular or Deprecated.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile returns if the FileMode represents that of a file, that is,
// Regular, Deprecated, Executable or Symlink.
func (m FileMode) IsFile() bool {
	switch m {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// ToOSFileMode returns the os.FileMode that corresponds to the current
// FileMode, or an error if the FileMode is malformed and has no
// equivalent.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir, Submodule:
		return os.ModePerm | os.ModeDir, nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	case Regular, Deprecated:
		return os.FileMode(0o644), nil
	case Executable:
		return os.FileMode(0o755), nil
	default:
		return os.FileMode(0), fmt.Errorf("malformed file mode: %s", m)
	}
}
