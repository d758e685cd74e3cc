// Package mpegsys implements the MPEG-1 system-stream pack scanner: it
// walks an input stream at the pack/PES-packet level and produces a lazy
// sequence of 2324-byte Form 2 payloads, each tagged with the elementary
// stream id of its last packet and whether the stream has ended.
//
// The scanning algorithm is grounded on the pack-reassembly loop used by
// the original VCD filesystem builder: read_tag/copy_tag/read_mpeg_sec.
package mpegsys

import (
	"bufio"
	"errors"
	"io"

	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// ErrIllegalTag identifies a tag encountered mid-stream that is neither a
// pack start code nor a recognized system/PES stream id. Callers can test
// for it with errors.Is to distinguish this (current-input-only) failure
// from a file that was never a valid MPEG system stream to begin with.
var ErrIllegalTag = errors.New("illegal MPEG tag mid-stream")

const (
	packStart       = 0x000001BA
	isoEndCode      = 0x000001B9
	systemHeaderTag = 0x000001BB
	pesMin          = 0x000001C0
	pesMax          = 0x000001FF
	tagRangeLow     = 0x000001B9
	tagRangeHigh    = 0x000001FF

	// RecordSize is the fixed size of every emitted pack payload.
	RecordSize = 2324
)

// Record is one scanned pack, ready to become a Form 2 payload.
type Record struct {
	// Payload is always exactly RecordSize bytes, zero-padded beyond the
	// bytes actually scanned.
	Payload [RecordSize]byte
	// LastStreamID is the elementary stream id of the last system
	// header or PES packet seen in this pack, or 0 if none was seen.
	LastStreamID byte
	// EndOfStream reports whether this was the final record of the
	// stream: the pack containing the ISO 11172 end code, the end code
	// alone when it did not fit in the preceding pack, or a pack cut
	// short by the end of the input.
	EndOfStream bool
}

// Scanner scans a single MPEG-1 system stream into Records. A Scanner is
// not safe for concurrent use and must not be reused after it reports
// EndOfStream or returns an error.
type Scanner struct {
	r        *bufio.Reader
	tag      uint32
	tagValid bool
	done     bool
}

// NewScanner wraps r for pack-level scanning.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// readTag fills the scanner's rolling 4-byte tag, skipping leading zero
// bytes until the upper 3 bytes form a non-zero value (the start-code
// prefix 0x000001 once a real tag is found).
func (s *Scanner) readTag() error {
	var tag uint32
	for i := 0; i < 4 || (tag&0xFFFFFF00) == 0; i++ {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		tag = (tag << 8) | uint32(b)
	}
	s.tag = tag
	s.tagValid = true
	return nil
}

func (s *Scanner) readU16() (uint16, error) {
	hi, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func copyTag(buf []byte, tag uint32) {
	buf[0] = byte(tag >> 24)
	buf[1] = byte(tag >> 16)
	buf[2] = byte(tag >> 8)
	buf[3] = byte(tag)
}

// Next scans the next pack from the stream. It returns io.EOF (with a nil
// Record) once the final record has already been emitted. A non-nil error
// other than io.EOF ends the scan of this stream. An error wrapping
// ErrIllegalTag means a bad tag followed at least one good pack header;
// any other error means the stream is empty, does not start with a pack
// start code, or holds a packet too large for one record.
func (s *Scanner) Next() (*Record, error) {
	if s.done {
		return nil, io.EOF
	}

	if !s.tagValid {
		if err := s.readTag(); err != nil {
			return nil, vcderrors.Wrap(vcderrors.TruncatedInput, err, "empty or unreadable MPEG file")
		}
		if s.tag != packStart {
			return nil, vcderrors.Errorf(vcderrors.InvalidInput, "not an MPEG system stream, starts with tag 0x%x", s.tag)
		}
	}

	rec := &Record{}
	copyTag(rec.Payload[:], s.tag)

	if s.tag == isoEndCode {
		s.done = true
		rec.EndOfStream = true
		return rec, nil
	}

	// s.tag must be the pack start code; read the 8 bytes following it.
	n, err := io.ReadFull(s.r, rec.Payload[4:12])
	if err != nil || n != 8 {
		s.done = true
		rec.EndOfStream = true
		return rec, nil
	}
	pos := 12

	for {
		if err := s.readTag(); err != nil {
			s.done = true
			rec.EndOfStream = true
			return rec, nil
		}

		if s.tag == packStart {
			// The tag is left set for the next call to start the
			// following pack.
			return rec, nil
		}

		if s.tag < tagRangeLow || s.tag > tagRangeHigh {
			s.done = true
			return nil, vcderrors.Wrapf(vcderrors.InvalidInput, ErrIllegalTag, "tag 0x%x", s.tag)
		}

		if s.tag == isoEndCode {
			if pos+4 <= RecordSize {
				copyTag(rec.Payload[pos:], s.tag)
				s.done = true
				rec.EndOfStream = true
			}
			// Otherwise the end code is deferred to the next call,
			// which will see s.tag==isoEndCode and emit it alone.
			return rec, nil
		}

		length, err := s.readU16()
		if err != nil {
			s.done = true
			rec.EndOfStream = true
			return rec, nil
		}

		if pos+4+2+int(length) > RecordSize {
			s.done = true
			return nil, vcderrors.Errorf(vcderrors.CapacityExceeded, "pack record too long for VCD (need %d bytes)", pos+4+2+int(length))
		}

		copyTag(rec.Payload[pos:], s.tag)
		pos += 4
		rec.Payload[pos] = byte(length >> 8)
		rec.Payload[pos+1] = byte(length)
		pos += 2

		if _, err := io.ReadFull(s.r, rec.Payload[pos:pos+int(length)]); err != nil {
			s.done = true
			rec.EndOfStream = true
			return rec, nil
		}

		if s.tag == systemHeaderTag && length == 9 {
			rec.LastStreamID = rec.Payload[pos+6]
		} else if s.tag >= pesMin && s.tag <= pesMax {
			rec.LastStreamID = byte(s.tag & 0xFF)
		}

		pos += int(length)
	}
}
