package sideband

import (
	"io"

	"github.com/coreforge/gitcore/plumbing/format/pktline"
)

// Muxer is an io.Writer that packs everything written to it onto the
// PackData channel, splitting it into packets no larger than
// MaxPackedSize.
type Muxer struct {
	t Type
	w io.Writer
}

// NewMuxer returns a Muxer writing to w.
func NewMuxer(t Type, w io.Writer) *Muxer {
	return &Muxer{t: t, w: w}
}

// Write implements io.Writer, chunking p across one or more PackData
// packets.
func (m *Muxer) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > MaxPackedSize-1 {
			chunk = chunk[:MaxPackedSize-1]
		}

		n, err := m.WriteChannel(PackData, chunk)
		written += n
		if err != nil {
			return written, err
		}

		p = p[len(chunk):]
	}

	return written, nil
}

// WriteChannel sends p as a single packet on channel c.
func (m *Muxer) WriteChannel(c Channel, p []byte) (int, error) {
	if _, err := pktline.WritePacket(m.w, c.WithPayload(p)); err != nil {
		return 0, err
	}

	return len(p), nil
}
