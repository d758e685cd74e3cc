package mplex

import (
	"bufio"
	"io"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// bitrateIndex maps (3-layer, bit_rate_code) to kbit/s, per ISO 11172-3
// table B.1, for layers I/II/III (index 0/1/2 matching 3-layer).
var bitrateIndex = [3][16]int{
	{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
	{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
	{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
}

// AudioStream wraps an MPEG-1 Layer II elementary stream. Only the first
// frame header is inspected; its bit rate governs scheduling for the rest
// of the file, and the remaining bytes are read verbatim in fixed chunks.
type AudioStream struct {
	r *bufio.Reader

	BitRateKbps int
	Frequency   int // 0=44.1kHz, 1=48kHz, 2=32kHz
	Mode        int // 0=stereo, 1=joint stereo, 2=dual channel, 3=single channel

	Warnings []string
}

// OpenAudioStream reads and validates the first MPEG Layer II frame header
// from r. Non-fatal deviations from the Video CD audio profile (224
// kbit/s, 44.1 kHz, stereo) are reported via Warnings rather than failing.
func OpenAudioStream(r io.Reader) (*AudioStream, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var hdr [4]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, vcderrors.Wrap(vcderrors.TruncatedInput, err, "reading audio frame header")
	}
	header := uint32(hdr[0])<<24 | uint32(hdr[1])<<16 | uint32(hdr[2])<<8 | uint32(hdr[3])

	if header&0xfff80000 != 0xfff80000 {
		return nil, vcderrors.New(vcderrors.InvalidInput, "not an ISO 11172-3 audio elementary stream (missing sync/version bits)")
	}

	layer := int(header>>17) & 3
	bitRateCode := int(header>>12) & 0xf
	frequency := int(header>>10) & 3
	mode := int(header>>6) & 3

	if layer != 2 {
		return nil, vcderrors.Errorf(vcderrors.UnsupportedInput, "audio layer %d is not supported (only Layer II)", 3-layer+1)
	}

	bitRate := bitrateIndex[3-layer][bitRateCode]
	if bitRate == 0 {
		return nil, vcderrors.New(vcderrors.UnsupportedInput, "audio bitrate value is reserved/unsupported")
	}

	a := &AudioStream{r: br, BitRateKbps: bitRate, Frequency: frequency, Mode: mode}

	if bitRateCode != 11 {
		a.Warnings = append(a.Warnings, common.WarnNonStandardAudioBitrate)
	}
	if frequency != 0 {
		a.Warnings = append(a.Warnings, common.WarnNonStandardSampleRate)
	}
	if mode != 0 {
		a.Warnings = append(a.Warnings, common.WarnNonStandardAudioMode)
	}

	return a, nil
}

// Read fills buf from the audio stream, returning the number of bytes
// actually read (which may be less than len(buf) at end of file) along
// with io.EOF once nothing more remains.
func (a *AudioStream) Read(buf []byte) (int, error) {
	n, err := io.ReadFull(a.r, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}
