// Package vcdbuild wires the sector codec, image writer, pack scanner,
// filesystem builder and multiplexer together into the two end-to-end
// operations the CLI exposes: building a VCD image from MPEG system
// streams, and multiplexing a video/audio pair into one.
//
// The orchestration order is grounded on the original filesystem
// builder's main(): per-file pre-gap/leader/payload/trailer emission,
// then the filesystem, then the TOC.
package vcdbuild

import (
	"errors"
	"io"
	"os"

	"github.com/rjohanni/vcdtools/pkg/cdxa"
	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/isofs"
	"github.com/rjohanni/vcdtools/pkg/mpegsys"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
	"github.com/rjohanni/vcdtools/pkg/vcdimage"
)

const (
	maxInputFiles = 32

	preGapSectors   = 150
	leaderSectors   = 30
	trailerEmpty    = 40
	postGapSectors  = 4
	minPackPayloads = 150
)

// Builder synthesizes a VCD image from one or more MPEG-1 system streams.
type Builder struct {
	cfg isofs.VolumeConfig
}

// NewBuilder creates a Builder with the given volume configuration.
func NewBuilder(cfg isofs.VolumeConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Stats summarizes a completed image build.
type Stats struct {
	Tracks       int
	TotalSectors uint32
}

// trackResult records where one input file's track landed for the
// filesystem builder and the TOC writer.
type trackResult struct {
	name        string
	payloadLSN  uint32 // first payload (Form 2 data) sector
	sectorCount uint32 // payload sector count only, matching isofs.Track
	trackSize   int    // payload + leader + trailer, per the TOC size convention
}

// BuildImage reads each input MPEG-1 system stream and writes a single
// VCD image (vcd_image.bin) plus its TOC (vcd.toc) into dir. It returns
// TruncatedInput if any file does not contain at least 150 pack payloads,
// InvalidInput if there are no inputs or more than 32, and removes the
// partially-written output files on any fatal error.
func (b *Builder) BuildImage(dir string, inputs []string) (Stats, error) {
	if len(inputs) == 0 {
		return Stats{}, vcderrors.New(vcderrors.InvalidInput, common.ErrNoInputFiles)
	}
	if len(inputs) > maxInputFiles {
		return Stats{}, vcderrors.Errorf(vcderrors.InvalidInput, "%s (got %d, max %d)", common.ErrTooManyInputFiles, len(inputs), maxInputFiles)
	}

	imagePath := dir + "/vcd_image.bin"
	tocPath := dir + "/vcd.toc"

	w, err := vcdimage.New(imagePath)
	if err != nil {
		return Stats{}, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToCreateOutput)
	}

	results, err := b.writeTracks(w, inputs)
	if err != nil {
		w.Close()
		os.Remove(imagePath)
		return Stats{}, err
	}

	tracks := make([]isofs.Track, len(results))
	for i, r := range results {
		tracks[i] = isofs.Track{FirstLSN: r.payloadLSN, SectorCount: r.sectorCount}
	}

	fsBuilder := isofs.NewBuilder(b.cfg)
	if err := fsBuilder.Build(w, tracks); err != nil {
		w.Close()
		os.Remove(imagePath)
		return Stats{}, err
	}

	if err := w.Close(); err != nil {
		os.Remove(imagePath)
		return Stats{}, vcderrors.Wrap(vcderrors.IOError, err, "closing VCD image")
	}

	if err := writeTOC(tocPath, results); err != nil {
		os.Remove(imagePath)
		os.Remove(tocPath)
		return Stats{}, err
	}

	maxLSN, _ := w.MaxLSN()
	return Stats{Tracks: len(results), TotalSectors: maxLSN}, nil
}

// writeTracks emits pre-gap, leader, payload and trailer sectors for
// every input in turn, starting immediately after the fixed ISO
// filesystem region.
func (b *Builder) writeTracks(w *vcdimage.Writer, inputs []string) ([]trackResult, error) {
	extent := uint32(isofs.ISOFSBlocks)
	var results []trackResult

	zeroForm2 := make([]byte, cdxa.Form2DataSize)

	putForm2 := func(lsn uint32, file, channel, submode, coding byte, payload []byte) error {
		sub := cdxa.SubHeader{File: file, Channel: channel, Submode: submode, Coding: coding}
		padded := zeroForm2
		if payload != nil {
			padded = payload
		}
		sector := cdxa.Encode(cdxa.Mode2Form2, lsn, sub, padded)
		return w.Put(lsn, sector)
	}

	for n, path := range inputs {
		common.LogInfo(common.InfoCopyingFile, path)

		fileNum := byte(n + 1)

		f, err := os.Open(path)
		if err != nil {
			return nil, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToOpenInput)
		}

		for i := 0; i < preGapSectors; i++ {
			if err := putForm2(extent, 0, 0, 0x20, 0, nil); err != nil {
				f.Close()
				return nil, err
			}
			extent++
		}

		payloadLSN := extent

		for i := 0; i < leaderSectors; i++ {
			if err := putForm2(extent, fileNum, 0, 0x60, 0, nil); err != nil {
				f.Close()
				return nil, err
			}
			extent++
		}

		numPayload, aborted, err := writePayloads(f, extent, fileNum, putForm2)
		f.Close()
		if err != nil {
			return nil, err
		}
		extent += uint32(numPayload)

		if aborted {
			// An illegal tag mid-file excludes this track but does not
			// fail the whole build: the pre-gap/leader/partial-payload
			// sectors already written stay in the image, unreferenced
			// by any track, and we move on to the next input.
			common.LogError("%s: illegal MPEG tag, skipping this input", path)
			continue
		}

		if numPayload < minPackPayloads {
			return nil, vcderrors.Errorf(vcderrors.TruncatedInput, "%s: %s (got %d, need >= %d)", path, common.ErrTrackTooSmall, numPayload, minPackPayloads)
		}

		common.LogInfo(common.InfoDoneWithFile, path, numPayload)

		for i := 0; i < trailerEmpty; i++ {
			if err := putForm2(extent, fileNum, 0, 0x60, 0, nil); err != nil {
				return nil, err
			}
			extent++
		}
		if err := putForm2(extent, fileNum, 0, 0xe1, 0, nil); err != nil {
			return nil, err
		}
		extent++
		for i := 0; i < postGapSectors; i++ {
			if err := putForm2(extent, 0, 0, 0x20, 0, nil); err != nil {
				return nil, err
			}
			extent++
		}

		results = append(results, trackResult{
			name:        path,
			payloadLSN:  payloadLSN,
			sectorCount: uint32(numPayload),
			trackSize:   numPayload + leaderSectors + trailerEmpty + 1 + postGapSectors,
		})
	}

	return results, nil
}

// writePayloads scans file's MPEG system stream pack by pack, writing one
// Form 2 payload sector per pack starting at extent. It returns the
// number of payload sectors written and whether the scan was aborted by
// an illegal tag mid-file (aborted=true is not itself an error: the
// caller excludes this track but keeps the rest of the build). Any other
// scan error - including a file that was never a valid MPEG system
// stream to begin with - is fatal and fails the whole build.
func writePayloads(file io.Reader, extent uint32, fileNum byte, put func(lsn uint32, file, channel, submode, coding byte, payload []byte) error) (count int, aborted bool, err error) {
	scanner := mpegsys.NewScanner(file)

	for {
		rec, scanErr := scanner.Next()
		if scanErr == io.EOF {
			return count, false, nil
		}
		if scanErr != nil {
			if errors.Is(scanErr, mpegsys.ErrIllegalTag) {
				return count, true, nil
			}
			return count, false, scanErr
		}

		sub := mpegsys.SubHeaderFor(fileNum, 1, rec)

		if putErr := put(extent+uint32(count), sub.File, sub.Channel, sub.Submode, sub.Coding, rec.Payload[:]); putErr != nil {
			return count, false, putErr
		}
		count++

		if rec.EndOfStream {
			return count, false, nil
		}
	}
}
