// Package mplex implements the MPEG-1 system stream multiplexer: it reads
// an elementary MPEG-1 video stream and an MPEG-1 Layer II audio stream and
// interleaves them into the fixed 2324-byte packs a Video CD player expects.
//
// The clock arithmetic, frame extraction and pack layout are grounded on
// the reference multiplexer's open_m1v/get_m1v_frame/open_mp2/
// make_pack_header/make_system_header/write_pack_packet routines.
package mplex

import (
	"bufio"
	"io"

	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// maxFrameSize bounds a single extracted video frame (including any
// re-injected sequence header). Real frames are far smaller; this only
// guards against treating a non-MPEG file as one.
const maxFrameSize = 512 * 1024

// Ticks per frame for the two picture rates a Video CD uses (90000 Hz
// system clock divided by the nominal frame rate).
const (
	ticksPerFramePAL  = 3600 // 25.0 fps
	ticksPerFrameNTSC = 3003 // 29.97 fps
)

// VideoStream parses an MPEG-1 (or MPEG-2 video coded inside an MPEG-1
// system stream) elementary stream and extracts successive presentation
// frames in decode order.
type VideoStream struct {
	r *bufio.Reader

	BitRate400    int // video_bitrate, in units of 400 bit/s
	FrameRateCode int
	TicksPerFrame int
	TwoFields     bool // true for interlaced MPEG-2 video
	MPEG2         bool

	seqHdr []byte // Sequence Header (+ quantizer matrices, + sequence extension)

	lasttag       uint32
	prefix        []byte // bytes between the header and the first picture, replayed into frame 0
	gopStartFrame int
	frameNo       int
	seqHdrSeen    bool
	atEnd         bool
}

// OpenVideoStream reads and validates the Sequence Header from r, returning
// a VideoStream ready to extract frames via Next.
func OpenVideoStream(r io.Reader) (*VideoStream, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	hdr := make([]byte, 12)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, vcderrors.Wrap(vcderrors.TruncatedInput, err, "reading sequence header")
	}
	if hdr[0] != 0 || hdr[1] != 0 || hdr[2] != 1 || hdr[3] != 0xb3 {
		return nil, vcderrors.New(vcderrors.InvalidInput, "not an MPEG-1 video elementary stream (missing sequence header start code)")
	}

	v := &VideoStream{r: br}

	pos := 32
	pos += 12 // horizontal_size
	pos += 12 // vertical_size
	pos += 4  // aspect_ratio
	v.FrameRateCode = int(getbits(hdr, pos, 4))
	pos += 4
	v.BitRate400 = int(getbits(hdr, pos, 18))
	pos += 18 + 1 // + marker_bit
	pos += 10     // vbv_buffer_size

	switch v.FrameRateCode {
	case 3:
		v.TicksPerFrame = ticksPerFramePAL
	case 4:
		v.TicksPerFrame = ticksPerFrameNTSC
	default:
		return nil, vcderrors.Errorf(vcderrors.UnsupportedInput, "picture rate code %d not supported (only PAL/NTSC)", v.FrameRateCode)
	}

	if v.BitRate400 == 0 || v.BitRate400 == 0x3ffff {
		return nil, vcderrors.New(vcderrors.UnsupportedInput, "variable bitrate video is not supported")
	}

	v.seqHdr = append([]byte(nil), hdr...)

	last := hdr[len(hdr)-1]
	if last&2 != 0 { // load_intra_quantizer_matrix
		m, err := readN(br, 64)
		if err != nil {
			return nil, err
		}
		v.seqHdr = append(v.seqHdr, m...)
		last = m[len(m)-1]
	}
	if last&1 != 0 { // load_non_intra_quantizer_matrix
		m, err := readN(br, 64)
		if err != nil {
			return nil, err
		}
		v.seqHdr = append(v.seqHdr, m...)
	}

	// Replay every byte consumed between the header and the first
	// picture start code into frame 0 (this carries along a GOP header
	// or sequence extension that precedes it, if present).
	var lookahead []byte
	tag := uint32(0xffffffff)
	for tag != 0x100 {
		c, err := br.ReadByte()
		if err != nil {
			return nil, vcderrors.Wrap(vcderrors.TruncatedInput, err, "scanning for first picture")
		}
		tag = (tag << 8) | uint32(c)
		lookahead = append(lookahead, c)

		if tag == 0x1b5 && !v.MPEG2 {
			v.MPEG2 = true
			body, err := readN(br, 6)
			if err != nil {
				return nil, err
			}
			lookahead = append(lookahead, body...)
			ext := append([]byte{0, 0, 1, 0xb5}, body...)
			progressive := getbits(ext, 44, 1)
			v.TwoFields = progressive == 0
			v.seqHdr = append(v.seqHdr, ext...)
		}
	}
	// Trim the four bytes of the picture start code itself: Next's own
	// scan loop emits them from lasttag as frame 0's first bytes.
	if n := len(lookahead); n >= 4 {
		v.prefix = lookahead[:n-4]
	}
	v.lasttag = tag

	return v, nil
}

func readN(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, vcderrors.Wrap(vcderrors.TruncatedInput, err, "reading sequence header extension bytes")
	}
	return b, nil
}

func getbits(data []byte, bitpos, length int) uint32 {
	var res uint32
	for i := 0; i < length; i++ {
		byteIdx := (bitpos + i) >> 3
		bit := (bitpos + i) & 7
		res <<= 1
		if data[byteIdx]&(0x80>>uint(bit)) != 0 {
			res |= 1
		}
	}
	return res
}

// Frame is one extracted presentation unit: a run of video elementary
// stream bytes, possibly with a re-injected sequence header ahead of a
// GOP header that lacked one, plus the metadata needed to schedule its
// PTS/DTS.
type Frame struct {
	Data     []byte
	Seq      int  // display order, accumulated from gop_start_frame + temporal_reference
	No       int  // decode order
	Type     int  // 1=I, 2=P, 3=B
	Finished bool // true (with empty Data) once the stream is exhausted
}

// Next extracts the next frame from the stream. When the stream is
// exhausted it returns a Frame with Finished set and a nil error.
func (v *VideoStream) Next() (Frame, error) {
	if v.atEnd {
		return Frame{Finished: true}, nil
	}
	if v.lasttag == 0x1b7 {
		v.atEnd = true
		return Frame{Finished: true}, nil
	}

	buf := append([]byte(nil), v.prefix...)
	v.prefix = nil
	v.seqHdrSeen = false

	appendByte := func(b byte) error {
		buf = append(buf, b)
		if len(buf) >= maxFrameSize {
			return vcderrors.Errorf(vcderrors.CapacityExceeded, "MPEG video frame exceeds %d bytes - is this really an MPEG-1 elementary stream?", maxFrameSize)
		}
		return nil
	}

	seq := v.gopStartFrame
	no := v.frameNo
	v.frameNo++

	picHdrOffset := len(buf)

	for {
		if err := appendByte(byte(v.lasttag >> 24)); err != nil {
			return Frame{}, err
		}

		c, err := v.r.ReadByte()
		if err != nil {
			return Frame{}, vcderrors.Wrap(vcderrors.TruncatedInput, err, "reading MPEG video stream")
		}
		v.lasttag = (v.lasttag << 8) | uint32(c)

		if v.lasttag == 0x1b3 {
			v.seqHdrSeen = true
		}

		if v.lasttag == 0x1b8 {
			v.gopStartFrame = v.frameNo
			if !v.seqHdrSeen {
				for _, b := range v.seqHdr {
					if err := appendByte(b); err != nil {
						return Frame{}, err
					}
				}
			}
			v.seqHdrSeen = false
		}

		if v.lasttag == 0x100 || v.lasttag == 0x1b7 {
			break
		}
	}

	picHdr := buf[picHdrOffset:]
	temporalRef := int(getbits(picHdr, 32, 10))
	frameType := int(getbits(picHdr, 42, 3))

	return Frame{Data: buf, Seq: seq + temporalRef, No: no, Type: frameType}, nil
}
