package cdxa

// This file implements the CD-ROM XA EDC and P/Q Reed-Solomon parity used
// by Mode 2 Form 1 sectors. The EDC is a reflected CRC-32 computed with a
// lookup table; the P and Q parity columns are produced by simulating the
// two-stage LFSR that a real CD mastering ASIC implements, rather than
// solving the Reed-Solomon parity equations directly.

// polyEDC is the reflected form of polynomial 0x8001801B used by CD-ROM
// XA's EDC, expressed in the convention the lookup table builder expects.
const polyEDC uint32 = 0xD8018001

var edcLUT [256]uint32

// gfLog and gfPow are the logarithm/exponentiation tables for GF(256) under
// the primitive polynomial 0x11D, extended to 509 entries so that
// multiplication never needs a modulo-255 reduction.
var (
	gfLog [256]byte
	gfPow [509]byte
)

func init() {
	for i := 0; i < 256; i++ {
		r := uint32(i)
		for j := 0; j < 8; j++ {
			if r&1 != 0 {
				r = (r >> 1) ^ polyEDC
			} else {
				r >>= 1
			}
		}
		edcLUT[i] = r
	}

	var b uint16 = 1
	for i := 0; i < 255; i++ {
		gfPow[i] = byte(b)
		gfLog[b] = byte(i)
		b <<= 1
		if b&0x100 != 0 {
			b ^= 0x11d
		}
	}
	for i := 255; i < 509; i++ {
		gfPow[i] = gfPow[i-255]
	}
}

// computeEDC computes the 32-bit EDC over data, returning it little-endian.
func computeEDC(data []byte) [4]byte {
	var edc uint32
	for _, b := range data {
		index := byte(edc) ^ b
		edc = (edc >> 8) ^ edcLUT[index]
	}
	return [4]byte{byte(edc), byte(edc >> 8), byte(edc >> 16), byte(edc >> 24)}
}

// gfMult multiplies two bytes in GF(256) via the log/pow tables.
func gfMult(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfPow[int(gfLog[a])+int(gfLog[b])]
}

// lfsrG1 and lfsrG0 are the generator-polynomial coefficients for the
// two-stage LFSR, shared by P and Q parity.
const (
	lfsrG1 = 3
	lfsrG0 = 2
)

func lfsrStep(dataLsb, dataMsb, r0Lsb, r0Msb, r1Lsb, r1Msb byte) (nr0Lsb, nr0Msb, nr1Lsb, nr1Msb byte) {
	feedbackLsb := dataLsb ^ r1Lsb
	feedbackMsb := dataMsb ^ r1Msb
	nr1Lsb = r0Lsb ^ gfMult(feedbackLsb, lfsrG1)
	nr1Msb = r0Msb ^ gfMult(feedbackMsb, lfsrG1)
	nr0Lsb = gfMult(feedbackLsb, lfsrG0)
	nr0Msb = gfMult(feedbackMsb, lfsrG0)
	return
}

// pParityLFSR computes the 172-byte P-parity for a Mode 2 Form 1 sector.
// sector must be the 2064-byte region starting at the MSF header (bytes
// 12..2075 of the full sector): header + sub-header + payload + EDC.
// The first 4 bytes (the header) are treated as zero for the
// purpose of the parity calculation, matching the CD-ROM XA convention
// that the P/Q parity protects sub-header and payload, not the address.
func pParityLFSR(sector []byte) []byte {
	if len(sector) != 2064 {
		panic("cdxa: P-parity input must be 2064 bytes")
	}
	parity := make([]byte, 172)

	for col := 0; col < 43; col++ {
		var r0Lsb, r0Msb, r1Lsb, r1Msb byte
		pos := 2 * col
		for row := 0; row < 24; row++ {
			dataLsb := sector[pos]
			dataMsb := sector[pos+1]
			if pos < 4 {
				dataLsb = 0
				if pos < 3 {
					dataMsb = 0
				}
			}
			r0Lsb, r0Msb, r1Lsb, r1Msb = lfsrStep(dataLsb, dataMsb, r0Lsb, r0Msb, r1Lsb, r1Msb)
			pos += 86
		}
		parity[col*2] = r1Lsb
		parity[col*2+1] = r1Msb
		parity[86+col*2] = r0Lsb
		parity[86+col*2+1] = r0Msb
	}
	return parity
}

// qParityLFSR computes the 104-byte Q-parity for a Mode 2 Form 1 sector.
// sector must be the 2236-byte region starting at the MSF header: header +
// sub-header + payload + EDC + P-parity.
func qParityLFSR(sector []byte) []byte {
	if len(sector) != 2236 {
		panic("cdxa: Q-parity input must be 2236 bytes")
	}
	parity := make([]byte, 104)

	for diag := 0; diag < 26; diag++ {
		var r0Lsb, r0Msb, r1Lsb, r1Msb byte
		pos := 2 * 43 * diag
		for step := 0; step < 43; step++ {
			if pos >= 2236 {
				pos -= 2236
			}
			dataLsb := sector[pos]
			dataMsb := sector[pos+1]
			if pos < 4 {
				dataLsb = 0
				if pos < 3 {
					dataMsb = 0
				}
			}
			r0Lsb, r0Msb, r1Lsb, r1Msb = lfsrStep(dataLsb, dataMsb, r0Lsb, r0Msb, r1Lsb, r1Msb)
			pos += 88
		}
		parity[diag*2] = r1Lsb
		parity[diag*2+1] = r1Msb
		parity[52+diag*2] = r0Lsb
		parity[52+diag*2+1] = r0Msb
	}
	return parity
}
