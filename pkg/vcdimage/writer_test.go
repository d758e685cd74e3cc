package vcdimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rjohanni/vcdtools/pkg/cdxa"
)

func TestWriter_ZeroFillsGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	payload := make([]byte, cdxa.Form2DataSize)
	for i := range payload {
		payload[i] = 0xAB
	}
	sector := cdxa.Encode(cdxa.Mode2Form2, 3, cdxa.SubHeader{Submode: cdxa.SubmodeData}, payload)

	if err := w.Put(3, sector); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if len(raw) != 4*cdxa.SectorSize {
		t.Fatalf("image length = %d, want %d", len(raw), 4*cdxa.SectorSize)
	}

	for lsn := uint32(0); lsn < 3; lsn++ {
		want := cdxa.Encode(cdxa.Mode0, lsn, cdxa.SubHeader{}, nil)
		got := raw[lsn*cdxa.SectorSize : (lsn+1)*cdxa.SectorSize]
		for i, b := range got {
			if b != want[i] {
				t.Fatalf("gap sector %d byte %d = %02x, want %02x", lsn, i, b, want[i])
			}
		}
	}

	got := raw[3*cdxa.SectorSize : 4*cdxa.SectorSize]
	for i, b := range got {
		if b != sector[i] {
			t.Fatalf("written sector byte %d = %02x, want %02x", i, b, sector[i])
		}
	}
}

func TestWriter_OverwriteBelowMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	w, err := New(path)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer w.Close()

	payload := make([]byte, cdxa.DataSize)
	first := cdxa.Encode(cdxa.Mode2Form1, 5, cdxa.SubHeader{Submode: cdxa.SubmodeData}, payload)
	if err := w.Put(5, first); err != nil {
		t.Fatalf("Put(5) failed: %v", err)
	}

	payload[0] = 0xFF
	second := cdxa.Encode(cdxa.Mode2Form1, 2, cdxa.SubHeader{Submode: cdxa.SubmodeData}, payload)
	if err := w.Put(2, second); err != nil {
		t.Fatalf("Put(2) failed: %v", err)
	}

	maxLSN, ok := w.MaxLSN()
	if !ok || maxLSN != 6 {
		t.Errorf("MaxLSN() = (%d, %v), want (6, true)", maxLSN, ok)
	}
}
