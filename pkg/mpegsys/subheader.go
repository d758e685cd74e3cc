package mpegsys

import "github.com/rjohanni/vcdtools/pkg/cdxa"

// Stream ids recognized when deriving sub-header flags for a pack.
const (
	VideoStreamID = 0xE0
	AudioStreamID = 0xC0
)

// SubHeaderFor derives the XA sub-header submode/coding bytes for a
// scanned record, following the fixed mapping from elementary stream id to
// VCD sub-header flags. If the record ends the stream, the end-of-record
// bit is OR'd into the submode.
func SubHeaderFor(file, channel byte, rec *Record) cdxa.SubHeader {
	var submode, coding byte
	switch rec.LastStreamID {
	case VideoStreamID:
		submode, coding = 0x62, 0x0F
	case AudioStreamID:
		submode, coding = 0x64, 0x7F
	default:
		submode, coding = 0x60, 0x00
	}
	if rec.EndOfStream {
		submode |= cdxa.SubmodeEOR
	}
	return cdxa.SubHeader{File: file, Channel: channel, Submode: submode, Coding: coding}
}
