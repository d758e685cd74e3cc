package vcdbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

func TestMultiplex_RefusesToOverwriteExistingOutput(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out.mpg")
	if err := os.WriteFile(outPath, []byte("already here"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	_, err := Multiplex(filepath.Join(dir, "missing.m1v"), filepath.Join(dir, "missing.mp2"), outPath)
	if err == nil {
		t.Fatal("expected error when output already exists")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.InvalidInput {
		t.Errorf("kind = %v, want InvalidInput", k)
	}
}

func TestMultiplex_MissingVideoFileIsIOError(t *testing.T) {
	dir := t.TempDir()
	_, err := Multiplex(filepath.Join(dir, "missing.m1v"), filepath.Join(dir, "missing.mp2"), filepath.Join(dir, "out.mpg"))
	if err == nil {
		t.Fatal("expected error for a missing video input")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.IOError {
		t.Errorf("kind = %v, want IOError", k)
	}
}

// muxPackSize mirrors pkg/mplex's fixed pack payload size (unexported
// there), so this test can locate PES packets in the multiplexed output.
const muxPackSize = 2324

// seqHeader12 builds a minimal 12-byte MPEG-1 Sequence Header with the
// given frame_rate_code and bit_rate, and no quantizer matrices loaded.
func seqHeader12(frameRateCode, bitRate400 int) []byte {
	b := make([]byte, 12)
	b[0], b[1], b[2], b[3] = 0, 0, 1, 0xb3
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

// buildPicture returns a minimal picture_start_code + picture_header with
// the given temporal_reference and frame type, followed by filler bytes.
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

// firstPacketFlag scans fixed-size packs for the first one whose
// elementary stream packet carries streamID, returning the byte right
// after its packet_length field (0x0f for no timestamp, otherwise the
// first byte of a PTS/PTS+DTS stamp).
func firstPacketFlag(data []byte, streamID byte) (flag byte, found bool) {
	const pesFlagOffset = 12 + 4 + 2
	for off := 0; off+muxPackSize <= len(data); off += muxPackSize {
		pk := data[off : off+muxPackSize]
		if pk[12] == 0 && pk[13] == 0 && pk[14] == 1 && pk[15] == streamID {
			return pk[pesFlagOffset], true
		}
	}
	return 0, false
}

func TestMultiplex_StampsPTSOnFirstVideoPack(t *testing.T) {
	dir := t.TempDir()

	hdr := seqHeader12(3, 2880)
	pic0 := buildPicture(0, 1, 0xaa, 4) // I frame
	pic1 := buildPicture(1, 2, 0xbb, 4) // P frame
	endCode := []byte{0, 0, 1, 0xb7}

	var videoData []byte
	videoData = append(videoData, hdr...)
	videoData = append(videoData, pic0...)
	videoData = append(videoData, pic1...)
	videoData = append(videoData, endCode...)

	videoPath := filepath.Join(dir, "movie.m1v")
	if err := os.WriteFile(videoPath, videoData, 0o644); err != nil {
		t.Fatalf("WriteFile(video) failed: %v", err)
	}

	audioHdr := []byte{0xff, 0xfc, 0xb0, 0x00} // Layer II, 224 kbit/s, 44.1 kHz, stereo
	audioData := append(append([]byte(nil), audioHdr...), make([]byte, 32)...)
	audioPath := filepath.Join(dir, "movie.mp2")
	if err := os.WriteFile(audioPath, audioData, 0o644); err != nil {
		t.Fatalf("WriteFile(audio) failed: %v", err)
	}

	outPath := filepath.Join(dir, "movie.mpg")
	if _, err := Multiplex(videoPath, audioPath, outPath); err != nil {
		t.Fatalf("Multiplex() failed: %v", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile(output) failed: %v", err)
	}

	flag, found := firstPacketFlag(out, 0xe0)
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
