// Package vcdimage implements the random-access image writer that backs
// the sector codec: a sink indexed by logical sector number that zero-fills
// any gap on first write, mirroring the pre-gap handling of the original
// VCD filesystem and multiplex drivers.
package vcdimage

import (
	"os"

	"github.com/rjohanni/vcdtools/pkg/cdxa"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// Writer is a seekable sink for raw CD-XA sectors, indexed by logical
// sector number. The first write to any LSN beyond what has been written
// so far zero-fills the intervening gap with Mode 0 sectors.
type Writer struct {
	file      *os.File
	maxLSNSet bool
	maxLSN    uint32
}

// New opens path for writing, truncating any existing content.
func New(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, vcderrors.Wrap(vcderrors.IOError, err, "open image output")
	}
	return &Writer{file: f}, nil
}

// Close flushes and closes the backing file.
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return vcderrors.Wrap(vcderrors.IOError, err, "close image output")
	}
	return nil
}

// Put writes sector at the given logical sector number, zero-filling any
// gap between the highest LSN written so far and lsn. Sectors are written
// in place: writing the same lsn twice overwrites it.
func (w *Writer) Put(lsn uint32, sector [cdxa.SectorSize]byte) error {
	if !w.maxLSNSet || lsn >= w.maxLSN {
		start := uint32(0)
		if w.maxLSNSet {
			start = w.maxLSN
		}
		if lsn > start {
			if err := w.fillGap(start, lsn); err != nil {
				return err
			}
		}
		w.maxLSN = lsn + 1
		w.maxLSNSet = true
	}
	return w.writeAt(lsn, sector)
}

// fillGap zero-fills the Mode 0 sectors [start, end) in one syscall. Each
// sector's header still carries its own LSN-derived MSF address, so the
// sectors can't share one encoded template, but the whole run can still
// go out as a single WriteAt instead of one syscall per sector.
func (w *Writer) fillGap(start, end uint32) error {
	buf := make([]byte, int64(end-start)*int64(cdxa.SectorSize))
	for k := start; k < end; k++ {
		sector := cdxa.Encode(cdxa.Mode0, k, cdxa.SubHeader{}, nil)
		copy(buf[int64(k-start)*int64(cdxa.SectorSize):], sector[:])
	}

	offset := int64(start) * int64(cdxa.SectorSize)
	n, err := w.file.WriteAt(buf, offset)
	if err != nil {
		return vcderrors.Wrap(vcderrors.IOError, err, "write sector")
	}
	if n != len(buf) {
		return vcderrors.Errorf(vcderrors.IOError, "short write: wrote %d of %d bytes", n, len(buf))
	}
	return nil
}

// MaxLSN returns one past the highest logical sector number written so
// far (the number of sectors the image spans), and whether anything has
// been written at all.
func (w *Writer) MaxLSN() (lsn uint32, ok bool) {
	return w.maxLSN, w.maxLSNSet
}

func (w *Writer) writeAt(lsn uint32, sector [cdxa.SectorSize]byte) error {
	offset := int64(lsn) * int64(cdxa.SectorSize)
	n, err := w.file.WriteAt(sector[:], offset)
	if err != nil {
		return vcderrors.Wrap(vcderrors.IOError, err, "write sector")
	}
	if n != cdxa.SectorSize {
		return vcderrors.Errorf(vcderrors.IOError, "short write: wrote %d of %d bytes", n, cdxa.SectorSize)
	}
	return nil
}
