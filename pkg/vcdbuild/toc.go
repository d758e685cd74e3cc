package vcdbuild

import (
	"fmt"
	"os"

	"github.com/rjohanni/vcdtools/pkg/cdxa"
	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/isofs"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// formatMSF renders a sector count as a cdrdao-style MM:SS:FF duration,
// at the fixed 75 sectors/second CD-ROM rate.
func formatMSF(sectors uint32) string {
	f := sectors % 75
	s := (sectors / 75) % 60
	m := sectors / (75 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", m, s, f)
}

// writeTOC writes the cdrdao-compatible TOC description for the image
// just built: track 1 is the fixed-size ISO filesystem, one track per
// input file follows with a byte offset into vcd_image.bin.
func writeTOC(path string, results []trackResult) error {
	f, err := os.Create(path)
	if err != nil {
		return vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToCreateOutput)
	}
	defer f.Close()

	fmt.Fprintln(f, "CD_ROM_XA")
	fmt.Fprintln(f)

	fmt.Fprintln(f, "// Track 1: ISO 9660 filesystem")
	fmt.Fprintln(f, "TRACK MODE2_RAW")
	fmt.Fprintf(f, "DATAFILE \"vcd_image.bin\" %s\n", formatMSF(isofs.ISOFSBlocks+preGapSectors))

	for i, r := range results {
		fmt.Fprintln(f)
		fmt.Fprintf(f, "// Track %d: %s\n", i+2, r.name)
		fmt.Fprintln(f, "TRACK MODE2_RAW")
		length := r.trackSize
		if i != len(results)-1 {
			length += preGapSectors
		}
		byteOffset := uint64(r.payloadLSN) * cdxa.SectorSize
		fmt.Fprintf(f, "DATAFILE \"vcd_image.bin\" #%d %s\n", byteOffset, formatMSF(uint32(length)))
	}

	common.LogInfo(common.InfoWroteTOC, path)
	return nil
}
