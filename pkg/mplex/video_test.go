package mplex

import (
	"bytes"
	"testing"

	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// seqHeader12 builds a minimal 12-byte MPEG-1 Sequence Header with the
// given frame_rate_code and bit_rate, and no quantizer matrices loaded.
func seqHeader12(frameRateCode, bitRate400 int) []byte {
	b := make([]byte, 12)
	b[0], b[1], b[2], b[3] = 0, 0, 1, 0xb3
	// bits 32.. : hsize(12) vsize(12) aspect(4) rate(4) bitrate(18) marker(1) vbv(10) cspf(1)
	bitpos := 32
	setbits := func(val, length int) {
		for i := length - 1; i >= 0; i-- {
			bit := (val >> uint(i)) & 1
			byteIdx := bitpos >> 3
			bitIdx := bitpos & 7
			if bit == 1 {
				b[byteIdx] |= 0x80 >> uint(bitIdx)
			}
			bitpos++
		}
	}
	setbits(352, 12)
	setbits(288, 12)
	setbits(1, 4)
	setbits(frameRateCode, 4)
	setbits(bitRate400, 18)
	setbits(1, 1)
	setbits(20, 10)
	setbits(0, 1)
	b[11] &^= 3 // no quantizer matrices
	return b
}

func TestOpenVideoStream_RejectsBadStartCode(t *testing.T) {
	data := make([]byte, 12)
	_, err := OpenVideoStream(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for missing sequence header start code")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.InvalidInput {
		t.Errorf("kind = %v, want InvalidInput", k)
	}
}

func TestOpenVideoStream_RejectsVariableBitrate(t *testing.T) {
	hdr := seqHeader12(3, 0x3ffff)
	data := append(hdr, 0, 0, 1, 0x00) // immediate picture start
	_, err := OpenVideoStream(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for variable bitrate video")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.UnsupportedInput {
		t.Errorf("kind = %v, want UnsupportedInput", k)
	}
}

func TestOpenVideoStream_RejectsUnsupportedFrameRate(t *testing.T) {
	hdr := seqHeader12(1, 1152*400/400)
	data := append(hdr, 0, 0, 1, 0x00)
	_, err := OpenVideoStream(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected error for unsupported frame rate code")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.UnsupportedInput {
		t.Errorf("kind = %v, want UnsupportedInput", k)
	}
}

func TestOpenVideoStream_PALRateAccepted(t *testing.T) {
	hdr := seqHeader12(3, 2880)
	data := append(hdr, 0, 0, 1, 0x00)
	v, err := OpenVideoStream(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenVideoStream() failed: %v", err)
	}
	if v.TicksPerFrame != ticksPerFramePAL {
		t.Errorf("TicksPerFrame = %d, want %d", v.TicksPerFrame, ticksPerFramePAL)
	}
}

// buildPicture returns a minimal picture_start_code + picture_header with
// the given temporal_reference and frame type, followed by filler bytes
// so it is distinguishable from the start code that follows it.
func buildPicture(temporalRef, frameType int, filler byte, fillerLen int) []byte {
	b := make([]byte, 6)
	b[0], b[1], b[2], b[3] = 0, 0, 1, 0x00
	bitpos := 32
	set := func(val, length int) {
		for i := length - 1; i >= 0; i-- {
			bit := (val >> uint(i)) & 1
			byteIdx := bitpos >> 3
			bitIdx := bitpos & 7
			if bit == 1 {
				b[byteIdx] |= 0x80 >> uint(bitIdx)
			}
			bitpos++
		}
	}
	set(temporalRef, 10)
	set(frameType, 3)
	for i := 0; i < fillerLen; i++ {
		b = append(b, filler)
	}
	return b
}

func TestVideoStream_ExtractsTwoFramesAndEnd(t *testing.T) {
	hdr := seqHeader12(3, 2880)
	pic0 := buildPicture(0, 1, 0xaa, 4)
	pic1 := buildPicture(1, 2, 0xbb, 4)
	endCode := []byte{0, 0, 1, 0xb7}

	var data []byte
	data = append(data, hdr...)
	data = append(data, pic0...)
	data = append(data, pic1...)
	data = append(data, endCode...)

	v, err := OpenVideoStream(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenVideoStream() failed: %v", err)
	}

	f0, err := v.Next()
	if err != nil {
		t.Fatalf("Next() frame 0 failed: %v", err)
	}
	if f0.Finished {
		t.Fatal("frame 0 reported finished")
	}
	if f0.Type != 1 {
		t.Errorf("frame 0 type = %d, want 1 (I)", f0.Type)
	}

	f1, err := v.Next()
	if err != nil {
		t.Fatalf("Next() frame 1 failed: %v", err)
	}
	if f1.Type != 2 {
		t.Errorf("frame 1 type = %d, want 2 (P)", f1.Type)
	}

	f2, err := v.Next()
	if err != nil {
		t.Fatalf("Next() at end failed: %v", err)
	}
	if !f2.Finished {
		t.Error("expected Finished after the sequence end code")
	}
}
