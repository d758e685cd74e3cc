// Package cdxa implements the CD-ROM XA raw sector codec: framing a Form 1
// or Form 2 payload into a 2352-byte sector with sync pattern, BCD MSF
// header, XA sub-header, EDC checksum and (Form 1 only) P/Q Reed-Solomon
// parity.
//
// The EDC and Reed-Solomon arithmetic are grounded on the same LFSR
// technique used by the CD-ROM XA mastering tools in this source tree:
// a CRC-32 lookup table for the checksum and a two-stage LFSR over GF(256)
// for the P and Q parity columns.
package cdxa

import "fmt"

const (
	// SectorSize is the size in bytes of one raw CD-XA sector.
	SectorSize = 2352
	// DataSize is the Form 1 user payload size.
	DataSize = 2048
	// Form2DataSize is the Form 2 user payload size.
	Form2DataSize = 2324
	// SyncSize is the length of the sync pattern at the start of a sector.
	SyncSize = 12
	// HeaderSize is the length of the MSF+mode header following sync.
	HeaderSize = 4
	// SubHeaderSize is the length of one copy of the XA sub-header.
	SubHeaderSize = 4
	// LeadInSectors is the 2-second lead-in offset added to every LSN to
	// produce the on-disc MSF address.
	LeadInSectors = 150
)

// sync is the fixed 12-byte CD-ROM sector sync pattern.
var sync = [SyncSize]byte{0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}

// Mode identifies which of the three sector shapes is being encoded.
type Mode int

const (
	// Mode0 is an all-zero data sector (used to fill gaps and pregaps).
	Mode0 Mode = iota
	// Mode2Form1 carries a 2048-byte payload protected by EDC + P/Q ECC.
	Mode2Form1
	// Mode2Form2 carries a 2324-byte payload protected by EDC only.
	Mode2Form2
)

// SubHeader is the 4-byte XA sub-header, written twice (bytes 16..19 and
// 20..23) in every Mode 2 sector.
type SubHeader struct {
	File    byte
	Channel byte
	Submode byte
	Coding  byte
}

// Submode bit meanings for SubHeader.Submode.
const (
	SubmodeEOR      = 1 << 0 // end of record
	SubmodeVideo    = 1 << 1
	SubmodeAudio    = 1 << 2
	SubmodeData     = 1 << 3
	SubmodeForm2    = 1 << 5 // 0 = Form 1, 1 = Form 2
	SubmodeRealTime = 1 << 6
	SubmodeEOF      = 1 << 7
)

// bytes returns the 4-byte on-disc encoding of the sub-header.
func (h SubHeader) bytes() [SubHeaderSize]byte {
	return [SubHeaderSize]byte{h.File, h.Channel, h.Submode, h.Coding}
}

// MSF is a CD minute/second/frame address encoded in packed BCD.
type MSF struct {
	Minute byte
	Second byte
	Frame  byte
}

// bcd encodes a value in [0,99] as packed binary-coded decimal.
func bcd(v byte) byte {
	return ((v / 10) << 4) | (v % 10)
}

// MSFFromLSN derives the on-disc BCD MSF address for a logical sector
// number, applying the fixed lead-in offset.
func MSFFromLSN(lsn uint32) MSF {
	total := lsn + LeadInSectors
	m := total / (75 * 60)
	s := (total / 75) % 60
	f := total % 75
	return MSF{Minute: bcd(byte(m)), Second: bcd(byte(s)), Frame: bcd(byte(f))}
}

// Encode frames a sector of the given mode at the given logical sector
// number. For Mode0, sub and payload are ignored and may be nil. For
// Mode2Form1 payload must be exactly DataSize bytes; for Mode2Form2 it must
// be exactly Form2DataSize bytes. Encode panics on malformed input: these
// are programmer errors, not runtime conditions.
func Encode(mode Mode, lsn uint32, sub SubHeader, payload []byte) [SectorSize]byte {
	switch mode {
	case Mode0:
		return encodeMode0(lsn)
	case Mode2Form1:
		if len(payload) != DataSize {
			panic(fmt.Sprintf("cdxa: Form 1 payload must be %d bytes, got %d", DataSize, len(payload)))
		}
		return encodeForm1(lsn, sub, payload)
	case Mode2Form2:
		if len(payload) != Form2DataSize {
			panic(fmt.Sprintf("cdxa: Form 2 payload must be %d bytes, got %d", Form2DataSize, len(payload)))
		}
		return encodeForm2(lsn, sub, payload)
	default:
		panic(fmt.Sprintf("cdxa: unknown mode %d", mode))
	}
}

func writeHeader(sector *[SectorSize]byte, lsn uint32, modeByte byte) {
	copy(sector[0:SyncSize], sync[:])
	msf := MSFFromLSN(lsn)
	sector[12] = msf.Minute
	sector[13] = msf.Second
	sector[14] = msf.Frame
	sector[15] = modeByte
}

func encodeMode0(lsn uint32) [SectorSize]byte {
	var sector [SectorSize]byte
	writeHeader(&sector, lsn, 0)
	return sector
}

func encodeForm1(lsn uint32, sub SubHeader, payload []byte) [SectorSize]byte {
	var sector [SectorSize]byte
	writeHeader(&sector, lsn, 2)

	subBytes := sub.bytes()
	copy(sector[16:20], subBytes[:])
	copy(sector[20:24], subBytes[:])
	copy(sector[24:24+DataSize], payload)

	// EDC covers the sub-header pair plus the 2048-byte payload: bytes
	// 16..2071 of the sector.
	edc := computeEDC(sector[16 : 24+DataSize])
	edcOffset := 24 + DataSize
	copy(sector[edcOffset:edcOffset+4], edc[:])

	// In Mode 2 Form 1 the P-parity follows the EDC directly.
	pOffset := edcOffset + 4

	// P-parity is computed over the header (treated as zero) + sub-header
	// + payload + EDC: bytes 12..2075 (2064 bytes).
	pInput := sector[12:pOffset]
	pParity := pParityLFSR(pInput)
	copy(sector[pOffset:pOffset+172], pParity)

	qOffset := pOffset + 172
	qInput := sector[12:qOffset]
	qParity := qParityLFSR(qInput)
	copy(sector[qOffset:qOffset+104], qParity)

	return sector
}

func encodeForm2(lsn uint32, sub SubHeader, payload []byte) [SectorSize]byte {
	var sector [SectorSize]byte
	writeHeader(&sector, lsn, 2)

	sub.Submode |= SubmodeForm2
	subBytes := sub.bytes()
	copy(sector[16:20], subBytes[:])
	copy(sector[20:24], subBytes[:])
	copy(sector[24:24+Form2DataSize], payload)

	edc := computeEDC(sector[16 : 24+Form2DataSize])
	edcOffset := 24 + Form2DataSize
	copy(sector[edcOffset:edcOffset+4], edc[:])

	return sector
}
