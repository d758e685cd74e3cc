package isofs

import "time"

// Both-endian integer encoders per ISO 9660 7.2/7.3 (referred to by their
// section numbers in the standard and in every mastering tool that
// implements them: 721/722/723 for 16-bit fields, 731/732/733 for 32-bit
// fields).

func put721(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func put722(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func put723(b []byte, v uint16) {
	put721(b[0:2], v)
	put722(b[2:4], v)
}

func put731(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func put732(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func put733(b []byte, v uint32) {
	put731(b[0:4], v)
	put732(b[4:8], v)
}

// addDirent appends one ISO 9660 directory record (with the CD-XA
// extension when xaFileNumber > 0) into dir at *pos, advancing *pos past
// it. dir must be pre-zeroed; the record itself only needs its non-zero
// fields set since the rest of the record's bytes are left at zero.
func addDirent(dir []byte, pos *int, name string, extent, size uint32, flags byte, xaFileNumber int, when time.Time) {
	nameBytes := []byte(name)
	namelen := len(nameBytes)

	baseLen := 33 + namelen
	paddedBase := baseLen
	if paddedBase%2 != 0 {
		paddedBase++
	}
	reclen := paddedBase
	if xaFileNumber > 0 {
		reclen += 14
	}

	start := *pos
	rec := dir[start : start+reclen]

	rec[0] = byte(reclen)
	rec[1] = 0 // extended attribute length
	put733(rec[2:10], extent)
	put733(rec[10:18], size)
	rec[18] = byte(when.Year() - 1900)
	rec[19] = byte(when.Month())
	rec[20] = byte(when.Day())
	rec[21] = byte(when.Hour())
	rec[22] = byte(when.Minute())
	rec[23] = byte(when.Second())
	rec[24] = 0 // GMT offset, in 15-minute units
	rec[25] = flags
	rec[26] = 0 // file unit size
	rec[27] = 0 // interleave
	put723(rec[28:32], 1)
	rec[32] = byte(namelen)
	copy(rec[33:33+namelen], nameBytes)

	if xaFileNumber > 0 {
		// The 14-byte CD-XA extension: 4 reserved bytes, the 5-byte
		// "0x15 0x55 X A fileNumber" marker, then 5 more reserved
		// bytes (already zero).
		ext := rec[paddedBase : paddedBase+14]
		ext[4] = 0x15
		ext[5] = 0x55
		ext[6] = 'X'
		ext[7] = 'A'
		ext[8] = byte(xaFileNumber)
	}

	*pos = start + reclen
}
