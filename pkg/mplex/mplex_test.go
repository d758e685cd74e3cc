package mplex

import (
	"bytes"
	"testing"
)

func TestNewMultiplexer_StandardVCDRatesUsePadding(t *testing.T) {
	v := &VideoStream{BitRate400: 2880, TicksPerFrame: ticksPerFramePAL}
	a := &AudioStream{BitRateKbps: 224}

	m := NewMultiplexer(v, a)

	if m.sectorsPerSecond != 75 {
		t.Errorf("sectorsPerSecond = %d, want 75", m.sectorsPerSecond)
	}
	if !m.usePaddingSectors {
		t.Error("expected padding sectors for the standard VCD bitrate combination")
	}
	wantMuxRate := 75 * 2352 / 50
	if m.muxRate != wantMuxRate {
		t.Errorf("muxRate = %d, want %d", m.muxRate, wantMuxRate)
	}
}

func TestNewMultiplexer_NonStandardRatesSkipPadding(t *testing.T) {
	v := &VideoStream{BitRate400: 2000, TicksPerFrame: ticksPerFrameNTSC}
	a := &AudioStream{BitRateKbps: 192}

	m := NewMultiplexer(v, a)

	if m.usePaddingSectors {
		t.Error("non-standard bitrates should skip sectors instead of padding")
	}
	if m.sectorsPerSecond%5 != 0 {
		t.Errorf("sectorsPerSecond = %d, want a multiple of 5", m.sectorsPerSecond)
	}
}

func TestNewMultiplexer_TwoFieldsDoublesFieldCount(t *testing.T) {
	v := &VideoStream{BitRate400: 2880, TicksPerFrame: ticksPerFramePAL, TwoFields: true}
	a := &AudioStream{BitRateKbps: 224}

	m := NewMultiplexer(v, a)

	if m.nfields != 2 {
		t.Errorf("nfields = %d, want 2", m.nfields)
	}
}

func TestNewMultiplexer_CarriesAudioWarnings(t *testing.T) {
	v := &VideoStream{BitRate400: 2880, TicksPerFrame: ticksPerFramePAL}
	a := &AudioStream{BitRateKbps: 224, Warnings: []string{"non-standard sample rate"}}

	m := NewMultiplexer(v, a)

	if len(m.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1 carried-over warning", m.Warnings)
	}
}

// firstPacketFlag scans a sequence of fixed-size packs for the first one
// whose elementary stream packet carries the given stream id, returning
// the byte immediately following its packet_length field (the no-
// timestamp marker 0x0f, or the first byte of a PTS/PTS+DTS stamp).
func firstPacketFlag(data []byte, streamID byte) (flag byte, found bool) {
	const pesFlagOffset = 12 + 4 + 2 // pack header + start code + packet_length
	for off := 0; off+packSize <= len(data); off += packSize {
		pk := data[off : off+packSize]
		if pk[12] == 0 && pk[13] == 0 && pk[14] == 1 && pk[15] == streamID {
			return pk[pesFlagOffset], true
		}
	}
	return 0, false
}

func TestMultiplexerRun_StampsPTSOnFirstVideoPack(t *testing.T) {
	hdr := seqHeader12(3, 2880)
	pic0 := buildPicture(0, 1, 0xaa, 4) // I frame
	pic1 := buildPicture(1, 2, 0xbb, 4) // P frame
	endCode := []byte{0, 0, 1, 0xb7}

	var videoData []byte
	videoData = append(videoData, hdr...)
	videoData = append(videoData, pic0...)
	videoData = append(videoData, pic1...)
	videoData = append(videoData, endCode...)

	v, err := OpenVideoStream(bytes.NewReader(videoData))
	if err != nil {
		t.Fatalf("OpenVideoStream() failed: %v", err)
	}

	audioHdr := []byte{0xff, 0xfc, 0xb0, 0x00} // Layer II, 224 kbit/s, 44.1 kHz, stereo
	audioData := append(append([]byte(nil), audioHdr...), make([]byte, 32)...)
	a, err := OpenAudioStream(bytes.NewReader(audioData))
	if err != nil {
		t.Fatalf("OpenAudioStream() failed: %v", err)
	}

	m := NewMultiplexer(v, a)

	var out bytes.Buffer
	if _, err := m.Run(&out); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	flag, found := firstPacketFlag(out.Bytes(), 0xe0)
	if !found {
		t.Fatal("no video packet found in multiplexed output")
	}
	if flag == 0x0f {
		t.Fatal("first video pack has no PTS/DTS stamp (frame 0 timestamp bug)")
	}
	if flag != 0x60 && flag != 0x61 {
		t.Errorf("first video pack flag byte = 0x%02x, want 0x60 or 0x61", flag)
	}
}
