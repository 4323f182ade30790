// Package sideband implements the side-band and side-band-64k
// multiplexing used to interleave pack data with progress and error
// messages on a single connection during pack transfer.
package sideband

import (
	"errors"
	"fmt"
	"io"

	"github.com/coreforge/gitcore/plumbing/format/pktline"
)

// Channel identifies which of the three side-band streams a packet
// belongs to.
type Channel byte

const (
	// PackData carries raw pack bytes.
	PackData Channel = 1
	// ProgressMessage carries human-readable progress text.
	ProgressMessage Channel = 2
	// ErrorMessage terminates the stream with a fatal error.
	ErrorMessage Channel = 3
)

// WithPayload prefixes p with the channel byte, producing the raw
// bytes of one side-band packet.
func (c Channel) WithPayload(p []byte) []byte {
	payload := make([]byte, 0, len(p)+1)
	payload = append(payload, byte(c))
	return append(payload, p...)
}

func (c Channel) String() string {
	switch c {
	case PackData:
		return "pack"
	case ProgressMessage:
		return "progress"
	case ErrorMessage:
		return "error"
	default:
		return "unknown"
	}
}

// Type selects which side-band variant a Demuxer or Muxer speaks. The
// two variants differ in the client capability that negotiated them;
// wire framing is identical.
type Type int

const (
	// Sideband is the "side-band" capability.
	Sideband Type = iota
	// Sideband64k is the "side-band-64k" capability.
	Sideband64k
)

// MaxPackedSize bounds the payload (channel byte included) a Demuxer
// will accept in a single packet, and the content a Muxer packs into
// one.
const MaxPackedSize = 1000

// ErrMaxPackedExceeded is returned when an incoming packet is larger
// than MaxPackedSize.
var ErrMaxPackedExceeded = errors.New("sideband: max packed size exceeded")

// Progress is anything that wants the progress messages
// demultiplexed out of a side-band stream.
type Progress io.Writer

// Demuxer is an io.Reader that yields only the PackData channel's
// bytes from a side-band-multiplexed stream. Progress channel
// messages are forwarded to Progress, if set, rather than returned;
// an error channel message aborts the read with an error.
type Demuxer struct {
	t       Type
	r       io.Reader
	pending []byte

	// Progress, if set, receives ProgressMessage channel content as
	// it is demultiplexed.
	Progress io.Writer
}

// NewDemuxer returns a Demuxer reading from r.
func NewDemuxer(t Type, r io.Reader) *Demuxer {
	return &Demuxer{t: t, r: r}
}

// Read implements io.Reader, returning only PackData bytes.
func (d *Demuxer) Read(p []byte) (int, error) {
	if len(d.pending) == 0 {
		if err := d.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *Demuxer) fill() error {
	for {
		l, full, err := pktline.ReadPacket(d.r)
		if err != nil {
			return err
		}

		if l == pktline.Flush {
			return io.EOF
		}

		if len(full) > MaxPackedSize {
			return ErrMaxPackedExceeded
		}

		if len(full) == 0 {
			continue
		}

		ch := Channel(full[0])
		content := full[1:]

		switch ch {
		case PackData:
			d.pending = content
			return nil
		case ProgressMessage:
			if d.Progress != nil {
				if _, err := d.Progress.Write(content); err != nil {
					return err
				}
			}
		case ErrorMessage:
			return fmt.Errorf("unexpected error: %s", content)
		default:
			return fmt.Errorf("unknown channel %s", full)
		}
	}
}
