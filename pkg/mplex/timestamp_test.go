package mplex

import "testing"

func TestEncodeTimestamp_MarkerAndMarkerBits(t *testing.T) {
	tests := []struct {
		name   string
		marker byte
		time   int64
	}{
		{"SCR zero", markerSCR, 0},
		{"PTS small", markerPTS, 72000},
		{"DTS large", markerDTS, 1<<32 - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := encodeTimestamp(tt.marker, tt.time)
			if b[0]>>4 != tt.marker {
				t.Errorf("marker nibble = %d, want %d", b[0]>>4, tt.marker)
			}
			if b[0]&1 != 1 {
				t.Error("byte 0 marker bit not set")
			}
			if b[2]&1 != 1 {
				t.Error("byte 2 marker bit not set")
			}
			if b[4]&1 != 1 {
				t.Error("byte 4 marker bit not set")
			}
		})
	}
}

func TestEncodeTimestamp_DistinctForDistinctTimes(t *testing.T) {
	a := encodeTimestamp(markerPTS, 90000)
	b := encodeTimestamp(markerPTS, 90001)
	if a == b {
		t.Error("encoding of two different clock values should differ")
	}
}
