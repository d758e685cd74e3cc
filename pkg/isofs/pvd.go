package isofs

import "fmt"

// setStr writes s into b, space-padding (or truncating) to len(b) bytes,
// following the ISO 9660 convention for fixed-width a/d-character fields.
func setStr(b []byte, s string) {
	for i := range b {
		if i < len(s) {
			b[i] = s[i]
		} else {
			b[i] = ' '
		}
	}
}

// buildPVD synthesizes the Primary Volume Descriptor.
func (b *Builder) buildPVD(pathTableSize int) []byte {
	pvd := make([]byte, DirSize)

	pvd[0] = 1 // volume descriptor type: primary
	copy(pvd[1:6], "CD001")
	pvd[6] = 1 // version

	setStr(pvd[8:40], b.cfg.SystemID)
	setStr(pvd[40:72], b.cfg.VolumeID)

	put733(pvd[80:88], ISOFSBlocks)

	put723(pvd[120:124], 1) // volume set size
	put723(pvd[124:128], 1) // volume sequence number
	put723(pvd[128:132], 2048)

	put733(pvd[132:140], uint32(pathTableSize))
	put731(pvd[140:144], PathTableLExtent)
	put731(pvd[144:148], 0) // optional L path table: unused
	put732(pvd[148:152], PathTableMExtent)
	put732(pvd[152:156], 0) // optional M path table: unused

	rootLen := 0
	addDirent(pvd[156:190], &rootLen, "\x00", RootDirExtent, DirSize, dirFlagDir, 0, b.cfg.BuildTime)

	setStr(pvd[190:318], b.cfg.VolumeSetID)
	setStr(pvd[318:446], b.cfg.PublisherID)
	setStr(pvd[446:574], b.cfg.PreparerID)
	setStr(pvd[574:702], b.cfg.ApplicationID)

	setStr(pvd[702:739], " ")
	setStr(pvd[739:776], " ")
	setStr(pvd[776:813], " ")

	isoTime := fmt.Sprintf("%04d%02d%02d%02d%02d%02d00",
		b.cfg.BuildTime.Year(), int(b.cfg.BuildTime.Month()), b.cfg.BuildTime.Day(),
		b.cfg.BuildTime.Hour(), b.cfg.BuildTime.Minute(), b.cfg.BuildTime.Second())
	copy(pvd[813:830], isoTime)
	copy(pvd[830:847], isoTime)
	copy(pvd[847:864], "0000000000000000")
	copy(pvd[864:881], isoTime)

	pvd[881] = 1 // file structure version

	// "CD-XA001" at application-data offset 141, which lands at absolute
	// descriptor offset 1024 (bytes 1025..1032, 1-based).
	copy(pvd[1024:1032], "CD-XA001")

	return pvd
}

// buildTerminator synthesizes the Volume Descriptor Set Terminator.
func buildTerminator() []byte {
	term := make([]byte, DirSize)
	term[0] = 0xFF
	copy(term[1:6], "CD001")
	term[6] = 0x01
	return term
}

// buildPathTables synthesizes the L-type (little-endian) and M-type
// (big-endian) path tables from the root-level subdirectories, each
// pointing back at the root directory (parent number 1).
func buildPathTables(subdirs []subdirRecord) (pathL, pathM []byte) {
	pathL = make([]byte, DirSize)
	pathM = make([]byte, DirSize)
	pos := 0

	for _, d := range subdirs {
		nameLen := len(d.name)
		pathL[pos] = byte(nameLen)
		pathM[pos] = byte(nameLen)
		pos++
		pathL[pos] = 0 // extended attribute length
		pathM[pos] = 0
		pos++

		put731(pathL[pos:pos+4], d.extent)
		put732(pathM[pos:pos+4], d.extent)
		pos += 4

		put721(pathL[pos:pos+2], 1) // parent directory number: root
		put722(pathM[pos:pos+2], 1)
		pos += 2

		copy(pathL[pos:pos+nameLen], d.name)
		copy(pathM[pos:pos+nameLen], d.name)
		pos += nameLen

		if pos%2 != 0 {
			pos++
		}
	}

	return pathL[:pos], pathM[:pos]
}
