package mplex

import (
	"io"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// audioBufferSize models the compliant player's input buffer for audio
// packet scheduling, matching the reference multiplexer's constant.
const audioBufferSize = 4096

// audioBytesPerPacket is the payload a single audio PES packet carries,
// chosen so a pack's fixed 2324-byte payload has room for the PES header.
const audioBytesPerPacket = 2279

// maxVBufferTime bounds how far the video decoder buffer may run ahead of
// the system clock before a padding sector (or a skipped sector, for
// non-standard bitrates) is required.
const maxVBufferTime = 45000

// startClock is the system clock value stamped on the very first pack.
const startClock = 36000

// Stats summarizes a completed multiplex run.
type Stats struct {
	Packs            int
	MaxBufferOccupancyKB int
}

// Multiplexer combines one video elementary stream and one audio
// elementary stream into an MPEG-1 system stream of fixed-size packs.
type Multiplexer struct {
	Video *VideoStream
	Audio *AudioStream

	// sectorsPerSecond and muxRate take the standard Video CD rates
	// (75 sectors/sec with padding) when Video.BitRate400==2880 and
	// Audio.BitRateKbps==224; otherwise they are derived from the
	// streams' bitrates.
	sectorsPerSecond int
	muxRate          int
	usePaddingSectors bool
	tpf              int
	nfields          int

	Warnings []string
}

// NewMultiplexer derives the clock and mux-rate parameters from the
// opened video and audio streams.
func NewMultiplexer(v *VideoStream, a *AudioStream) *Multiplexer {
	m := &Multiplexer{Video: v, Audio: a}
	m.Warnings = append(m.Warnings, a.Warnings...)

	if v.BitRate400 == 2880 && a.BitRateKbps == 224 {
		m.sectorsPerSecond = 75
		m.usePaddingSectors = true
	} else {
		nsecps := (v.BitRate400*400+a.BitRateKbps*1000)/18400 + 1
		nsecps = (nsecps + 4) / 5
		nsecps = nsecps * 5
		m.sectorsPerSecond = nsecps
		m.usePaddingSectors = false
	}

	m.muxRate = m.sectorsPerSecond * 2352 / 50

	m.tpf = v.TicksPerFrame
	m.nfields = 1
	if v.TwoFields {
		m.nfields = 2
	}

	return m
}

// Run multiplexes the streams and writes the resulting system stream
// (a sequence of fixed 2324-byte packs, the last one followed by a
// terminator pack carrying the ISO 11172 end code) to w.
func (m *Multiplexer) Run(w io.Writer) (Stats, error) {
	videoStartTime := int64(72000)
	audioStartTime := int64(72000)
	lastBufferTime := videoStartTime

	systemClock := int64(startClock)
	tpsect := int64(90000 / m.sectorsPerSecond)

	var stats Stats
	var maxTimeDiff int64

	write := func(p *pack, addPad bool) error {
		data := p.finish(addPad)
		if _, err := w.Write(data); err != nil {
			return vcderrors.Wrap(vcderrors.IOError, err, "writing multiplexed pack")
		}
		stats.Packs++
		return nil
	}

	var p pack

	p.reset(systemClock, m.muxRate)
	p.addSystemHeader(true, m.muxRate)
	if err := write(&p, true); err != nil {
		return stats, err
	}

	systemClock += tpsect
	p.reset(systemClock, m.muxRate)
	p.addSystemHeader(false, m.muxRate)
	if err := write(&p, true); err != nil {
		return stats, err
	}

	var (
		numAudioPacks int
		audioEOF      bool
		needPadding   bool

		bytesOut     int
		curFrame     Frame
		savedRemnant []byte
	)

	numPacks := 2
	audioBuf := make([]byte, audioBytesPerPacket)

	for {
		systemClock += tpsect
		numPacks++

		p.reset(systemClock, m.muxRate)

		if needPadding {
			if err := write(&p, true); err != nil {
				return stats, err
			}
			common.LogWarn(common.WarnInsertedPadding, numPacks)
			needPadding = false
			continue
		}

		audioTime := int64(numAudioPacks*audioBytesPerPacket/(m.Audio.BitRateKbps/8))*90 + audioStartTime

		if !audioEOF && ((numAudioPacks == 0 && numPacks == 6) ||
			audioTime-systemClock <= int64(audioBufferSize-audioBytesPerPacket)*90/int64(m.Audio.BitRateKbps/8)) {

			lenOff := p.startPacket(0xc0)
			p.putByte(0x40)
			p.putByte(0x20)
			ts := encodeTimestamp(markerJustPTS, audioTime)
			p.append(ts[:])

			n, err := m.Audio.Read(audioBuf)
			if err != nil && err != io.EOF {
				return stats, vcderrors.Wrap(vcderrors.IOError, err, "reading audio stream")
			}
			p.append(audioBuf[:n])
			p.patchLength(lenOff)

			if n < audioBytesPerPacket {
				audioEOF = true
			}
			if err2 := write(&p, false); err2 != nil {
				return stats, err2
			}
			numAudioPacks++
			continue
		}

		lenOff := p.startPacket(0xe0)

		remlen := len(curFrame.Data) - bytesOut

		if remlen > packSize-34 {
			n := remlen
			if n > packSize-18 {
				n = packSize - 18
			}
			p.putByte(0x0f) // no timestamp
			if err := capacityCheck(p.n + n - 1); err != nil {
				return stats, err
			}
			p.append(curFrame.Data[bytesOut : bytesOut+n-1])
			bytesOut += n - 1
			p.patchLength(lenOff)
			if err := write(&p, false); err != nil {
				return stats, err
			}
			continue
		}

		savedRemnant = append(savedRemnant[:0], curFrame.Data[bytesOut:]...)

		nextFrame, err := m.Video.Next()
		if err != nil {
			return stats, err
		}

		if nextFrame.Finished {
			p.putByte(0x0f)
			p.append(savedRemnant)
			p.put8(0, 0, 1, 0xb7) // sequence end code
			p.patchLength(lenOff)
			if err := write(&p, false); err != nil {
				return stats, err
			}

			var term pack
			term.n = 0
			term.put8(0, 0, 1, 0xb9)
			for term.n < packSize {
				term.putByte(0x00)
			}
			if _, err := w.Write(term.buf[:packSize]); err != nil {
				return stats, vcderrors.Wrap(vcderrors.IOError, err, "writing terminator pack")
			}
			stats.Packs++

			stats.MaxBufferOccupancyKB = int(maxTimeDiff / 1200 * packSize / 1024)
			return stats, nil
		}

		curFrame = nextFrame
		bytesOut = 0

		if lastBufferTime <= systemClock {
			m.Warnings = append(m.Warnings, common.WarnBufferUnderrun)
			common.LogWarn(common.WarnBufferUnderrun)
		}

		if curFrame.Type == 1 || curFrame.Type == 2 { // I or P
			p.putByte(0x60)
			p.putByte(0x2e)
			pts := encodeTimestamp(markerPTS, int64(curFrame.Seq)*int64(m.tpf)/int64(m.nfields)+videoStartTime)
			p.append(pts[:])
			dts := encodeTimestamp(markerDTS, int64(curFrame.No)*int64(m.tpf)/int64(m.nfields)+videoStartTime)
			p.append(dts[:])
			lastBufferTime = int64(curFrame.No)*int64(m.tpf)/int64(m.nfields) + videoStartTime
		} else {
			pts := encodeTimestamp(markerJustPTS, int64(curFrame.Seq)*int64(m.tpf)/int64(m.nfields)+videoStartTime)
			p.append(pts[:])
			lastBufferTime = int64(curFrame.Seq)*int64(m.tpf)/int64(m.nfields) + videoStartTime
		}

		p.append(savedRemnant)
		bytesOut = 0
		for p.n < packSize && bytesOut < len(curFrame.Data) {
			take := packSize - p.n
			if take > len(curFrame.Data)-bytesOut {
				take = len(curFrame.Data) - bytesOut
			}
			p.append(curFrame.Data[bytesOut : bytesOut+take])
			bytesOut += take
		}

		p.patchLength(lenOff)
		if err := write(&p, false); err != nil {
			return stats, err
		}

		if lastBufferTime-systemClock > maxTimeDiff {
			maxTimeDiff = lastBufferTime - systemClock
		}

		needPadding = lastBufferTime-systemClock > maxVBufferTime
		if needPadding && !m.usePaddingSectors {
			systemClock += tpsect
			needPadding = false
		}
	}
}
