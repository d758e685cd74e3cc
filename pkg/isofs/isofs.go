// Package isofs synthesizes the ISO 9660 + CD-XA filesystem of a Video CD:
// the volume descriptors, path tables, directory records and the
// VCD-specific INFO.VCD/ENTRIES.VCD metadata files, all at the fixed
// sector addresses the Video CD standard requires.
//
// The layout and record formats are grounded on the original filesystem
// builder's add_dirent/make_ipd/make_path_tables/mk_vcd_iso_fs routines.
package isofs

import (
	"time"

	"github.com/rjohanni/vcdtools/pkg/cdxa"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
	"github.com/rjohanni/vcdtools/pkg/vcdimage"
)

// Fixed sector addresses, per the Video CD filesystem plan.
const (
	DirSize          = 2048 // ISO_DIR_SIZE
	PVDExtent        = 16
	TerminatorExtent = 17
	PathTableLExtent = 18
	PathTableMExtent = 19
	RootDirExtent    = 20
	firstOtherDir    = 21
	dirCeiling       = 150 // hard ceiling: other-directory extents must stay below this
	InfoVCDExtent    = 150
	EntriesVCDExtent = 151
	startFileExtent  = 210
	// ISOFSBlocks is the total size, in 2048-byte blocks, of the ISO
	// filesystem partition; MPEG track data begins immediately after it.
	ISOFSBlocks = 900

	dirFlagFile = 0
	dirFlagDir  = 2

	// fsSubmode is the sub-header submode written on every filesystem
	// sector: data, no video/audio flags.
	fsSubmode = cdxa.SubmodeData
)

// Track describes one MPEG track already placed in the image, as needed
// to populate the MPEGAV directory and ENTRIES.VCD.
type Track struct {
	// FirstLSN is the logical sector number of the track's first Form 2
	// payload sector.
	FirstLSN uint32
	// SectorCount is the number of Form 2 payload sectors in the track.
	SectorCount uint32
}

// VolumeConfig carries the caller-overridable strings and metadata that
// make up the Primary Volume Descriptor and INFO.VCD, defaulting to the
// values the reference VCD authoring tools have always used.
type VolumeConfig struct {
	SystemID      string
	VolumeID      string
	VolumeSetID   string
	PublisherID   string
	PreparerID    string
	ApplicationID string
	// AlbumID is the 16-byte, space-padded album identifier stored in
	// INFO.VCD.
	AlbumID string
	// BuildTime stamps the directory records and volume descriptor
	// timestamps. DefaultVolumeConfig sets this to time.Now().UTC().
	BuildTime time.Time
}

// DefaultVolumeConfig returns the conventional VCD identification strings.
func DefaultVolumeConfig() VolumeConfig {
	return VolumeConfig{
		SystemID:      "CD-RTOS CD-BRIDGE",
		VolumeID:      "LINUX VIDEO CD",
		VolumeSetID:   " ",
		PublisherID:   " ",
		PreparerID:    " ",
		ApplicationID: "CDI/CDI_VCD.APP;1",
		AlbumID:       "1",
		BuildTime:     time.Now().UTC(),
	}
}

// subdirRecord tracks a root-level subdirectory for path-table generation.
type subdirRecord struct {
	name   string
	extent uint32
}

// Builder synthesizes the ISO/VCD filesystem and writes it, sector by
// sector, through a vcdimage.Writer.
type Builder struct {
	cfg VolumeConfig
}

// NewBuilder creates a Builder with the given volume configuration.
func NewBuilder(cfg VolumeConfig) *Builder {
	return &Builder{cfg: cfg}
}

// Build synthesizes every filesystem sector for the given tracks and
// writes them through w. Tracks must be given in play order; track i is
// named AVSEQ%02d.DAT;1 with i+1 and carries XA file number i+1.
func (b *Builder) Build(w *vcdimage.Writer, tracks []Track) error {
	if len(tracks) == 0 {
		return vcderrors.New(vcderrors.InvalidInput, "no MPEG tracks given to filesystem builder")
	}

	root := make([]byte, DirSize)
	rootLen := 0
	addDirent(root, &rootLen, "\x00", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(root, &rootLen, "\x01", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)

	var subdirs []subdirRecord
	curDirExtent := uint32(RootDirExtent)

	nextDirExtent := func() (uint32, error) {
		curDirExtent++
		if curDirExtent >= dirCeiling {
			return 0, vcderrors.Errorf(vcderrors.CapacityExceeded, "too many directories for the fixed filesystem plan (extent %d >= %d)", curDirExtent, dirCeiling)
		}
		return curDirExtent, nil
	}

	// CDI directory: one stub file, CDI_VCD.APP;1, at sector 210.
	cdiExtent, err := nextDirExtent()
	if err != nil {
		return err
	}
	cdiStubExtent := uint32(startFileExtent)
	cdiDir := make([]byte, DirSize)
	cdiDirLen := 0
	addDirent(cdiDir, &cdiDirLen, "\x00", cdiExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(cdiDir, &cdiDirLen, "\x01", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(cdiDir, &cdiDirLen, "CDI_VCD.APP;1", cdiStubExtent, DirSize, dirFlagFile, 0, b.cfg.BuildTime)
	addDirent(root, &rootLen, "CDI", cdiExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	subdirs = append(subdirs, subdirRecord{"CDI", cdiExtent})

	// MPEGAV directory: one entry per track, pointing at its extent
	// outside the ISO filesystem proper.
	mpegavExtent, err := nextDirExtent()
	if err != nil {
		return err
	}
	mpegavDir := make([]byte, DirSize)
	mpegavDirLen := 0
	addDirent(mpegavDir, &mpegavDirLen, "\x00", mpegavExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(mpegavDir, &mpegavDirLen, "\x01", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	for i, tr := range tracks {
		name := avseqName(i + 1)
		size := tr.SectorCount * 2048
		addDirent(mpegavDir, &mpegavDirLen, name, tr.FirstLSN, size, dirFlagFile, i+1, b.cfg.BuildTime)
	}
	addDirent(root, &rootLen, "MPEGAV", mpegavExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	subdirs = append(subdirs, subdirRecord{"MPEGAV", mpegavExtent})

	// VCD directory: ENTRIES.VCD at 151, INFO.VCD at 150.
	vcdExtent, err := nextDirExtent()
	if err != nil {
		return err
	}
	vcdDir := make([]byte, DirSize)
	vcdDirLen := 0
	addDirent(vcdDir, &vcdDirLen, "\x00", vcdExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(vcdDir, &vcdDirLen, "\x01", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	addDirent(vcdDir, &vcdDirLen, "ENTRIES.VCD;1", EntriesVCDExtent, DirSize, dirFlagFile, 0, b.cfg.BuildTime)
	addDirent(vcdDir, &vcdDirLen, "INFO.VCD;1", InfoVCDExtent, DirSize, dirFlagFile, 0, b.cfg.BuildTime)
	addDirent(root, &rootLen, "VCD", vcdExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)
	subdirs = append(subdirs, subdirRecord{"VCD", vcdExtent})

	// Path tables, built directly from the subdirectories just recorded.
	pathL, pathM := buildPathTables(subdirs)

	infoVCD := buildInfoVCD(b.cfg.AlbumID)
	entriesVCD := buildEntriesVCD(tracks)

	pvd := b.buildPVD(len(pathL))
	terminator := buildTerminator()

	sub := cdxa.SubHeader{File: 0, Channel: 0, Submode: fsSubmode, Coding: 0}
	put := func(lsn uint32, data []byte) error {
		padded := make([]byte, DirSize)
		copy(padded, data)
		sector := cdxa.Encode(cdxa.Mode2Form1, lsn, sub, padded)
		return w.Put(lsn, sector)
	}

	if err := put(cdiExtent, cdiDir); err != nil {
		return err
	}
	if err := put(cdiStubExtent, make([]byte, DirSize)); err != nil {
		return err
	}
	if err := put(mpegavExtent, mpegavDir); err != nil {
		return err
	}
	if err := put(vcdExtent, vcdDir); err != nil {
		return err
	}
	if err := put(InfoVCDExtent, infoVCD); err != nil {
		return err
	}
	if err := put(EntriesVCDExtent, entriesVCD); err != nil {
		return err
	}
	if err := put(PathTableLExtent, pathL); err != nil {
		return err
	}
	if err := put(PathTableMExtent, pathM); err != nil {
		return err
	}
	if err := put(RootDirExtent, root); err != nil {
		return err
	}
	if err := put(PVDExtent, pvd); err != nil {
		return err
	}
	if err := put(TerminatorExtent, terminator); err != nil {
		return err
	}

	return nil
}

func avseqName(trackNum int) string {
	const digits = "0123456789"
	tens := trackNum / 10 % 10
	ones := trackNum % 10
	return "AVSEQ" + string(digits[tens]) + string(digits[ones]) + ".DAT;1"
}
