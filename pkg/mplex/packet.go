package mplex

import "github.com/rjohanni/vcdtools/pkg/vcderrors"

// packSize is the payload size of one multiplexed pack: a Video CD's
// Form 2 payload capacity (2324 bytes), matching the sector size the
// scanner/ISO filesystem builder expect on re-ingest.
const packSize = 2324

// pack accumulates one outgoing pack: a pack header, optionally a system
// header or an elementary stream packet, and (on request) a padding
// packet filling out the remainder.
type pack struct {
	buf [packSize]byte
	n   int
}

func (p *pack) reset(systemClock int64, muxRate int) {
	p.n = 0
	p.put8(0, 0, 1, 0xba)
	ts := encodeTimestamp(markerSCR, systemClock)
	p.append(ts[:])
	p.putByte(0x80 | byte(muxRate>>15))
	p.putByte(byte(muxRate >> 7))
	p.putByte(0x01 | byte((muxRate&0x7f)<<1))
}

func (p *pack) put8(bs ...byte) { p.append(bs) }

func (p *pack) putByte(b byte) {
	p.buf[p.n] = b
	p.n++
}

func (p *pack) append(bs []byte) {
	copy(p.buf[p.n:], bs)
	p.n += len(bs)
}

// addSystemHeader appends an ISO 11172-1 system header describing either
// the audio or the video elementary stream's buffer bound.
func (p *pack) addSystemHeader(audio bool, muxRate int) {
	var streamID byte
	var audioBound, videoBound, bufferScale, bufferSize int
	if audio {
		streamID, audioBound, videoBound, bufferScale, bufferSize = 0xc0, 1, 0, 0, 32
	} else {
		streamID, audioBound, videoBound, bufferScale, bufferSize = 0xe0, 0, 1, 1, 46
	}

	p.put8(0, 0, 1, 0xbb)
	p.put8(0, 9) // header length
	p.putByte(0x80 | byte(muxRate>>15))
	p.putByte(byte(muxRate >> 7))
	p.putByte(0x01 | byte((muxRate&0x7f)<<1))
	p.putByte(byte(audioBound<<2) | 0 /*fixed*/ | 0 /*CSPS*/)
	p.putByte(0x20 | byte(videoBound)) // audio_lock=0, video_lock=0, marker=1
	p.putByte(0xff)
	p.putByte(streamID)
	p.putByte(0xc0 | byte(bufferScale<<5) | byte(bufferSize>>8))
	p.putByte(byte(bufferSize & 0xff))
}

// startPacket begins a PES packet with the given stream id, leaving two
// bytes for the packet_length field to be patched in by patchLength.
func (p *pack) startPacket(streamID byte) (lengthOffset int) {
	p.put8(0, 0, 1, streamID)
	lengthOffset = p.n
	p.put8(0, 0)
	return lengthOffset
}

func (p *pack) patchLength(lengthOffset int) {
	length := p.n - lengthOffset - 2
	p.buf[lengthOffset] = byte(length >> 8)
	p.buf[lengthOffset+1] = byte(length & 0xff)
}

// finish pads the pack to packSize with a padding packet (stream id
// 0xbe) when addPad is set and there is room, then returns the finished
// bytes. It panics if more than packSize bytes were written, which is a
// multiplexer logic error rather than a recoverable input problem.
func (p *pack) finish(addPad bool) []byte {
	if p.n > packSize {
		panic("mplex: pack exceeded fixed sector payload size")
	}
	if addPad && p.n <= packSize-8 {
		p.put8(0, 0, 1, 0xbe)
		length := packSize - p.n - 2
		p.putByte(byte(length >> 8))
		p.putByte(byte(length & 0xff))
		p.putByte(0x0f) // no timestamp in the padding packet
		for p.n < packSize {
			p.putByte(0xff)
		}
	}
	if p.n > packSize {
		panic("mplex: pack exceeded fixed sector payload size after padding")
	}
	return p.buf[:packSize]
}

// capacityCheck is invoked before writing variable-length elementary
// stream data into a pack, producing a typed error instead of a panic
// when a caller-supplied length is too large for this implementation's
// fixed buffers to prove safe.
func capacityCheck(n int) error {
	if n > packSize {
		return vcderrors.Errorf(vcderrors.CapacityExceeded, "requested write of %d bytes exceeds pack size %d", n, packSize)
	}
	return nil
}
