package mplex

// Marker nibbles distinguishing which 33-bit timestamp field a 5-byte
// encoding carries, per ISO 11172-1 clause 2.4.4.
const (
	markerDTS     = 1
	markerSCR     = 2
	markerJustPTS = 2
	markerPTS     = 3
)

// encodeTimestamp packs a 33-bit, 90kHz clock value into the standard
// 5-byte MPEG system-stream timestamp field:
// marker(4)|ts[32:30](3)|1|ts[29:15](15)|1|ts[14:0](15)|1.
func encodeTimestamp(marker byte, time int64) [5]byte {
	var b [5]byte
	t := uint64(time)
	b[0] = (marker << 4) | byte((t>>29)&0x6) | 1
	b[1] = byte((t & 0x3fc00000) >> 22)
	b[2] = byte((t&0x003f8000)>>14) | 1
	b[3] = byte((t & 0x7f80) >> 7)
	b[4] = byte((t&0x007f)<<1) | 1
	return b
}
