package vcdbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rjohanni/vcdtools/pkg/isofs"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

func TestLoadVolumeConfig_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadVolumeConfig("")
	if err != nil {
		t.Fatalf("LoadVolumeConfig(\"\") failed: %v", err)
	}
	want := isofs.DefaultVolumeConfig()
	if cfg.VolumeID != want.VolumeID || cfg.AlbumID != want.AlbumID {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadVolumeConfig_OverridesOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volume.yaml")
	yamlContent := "volume_id: MY VIDEO CD\nalbum_id: \"42\"\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	cfg, err := LoadVolumeConfig(path)
	if err != nil {
		t.Fatalf("LoadVolumeConfig() failed: %v", err)
	}
	if cfg.VolumeID != "MY VIDEO CD" {
		t.Errorf("VolumeID = %q, want overridden value", cfg.VolumeID)
	}
	if cfg.AlbumID != "42" {
		t.Errorf("AlbumID = %q, want overridden value", cfg.AlbumID)
	}

	defaults := isofs.DefaultVolumeConfig()
	if cfg.SystemID != defaults.SystemID {
		t.Errorf("SystemID = %q, want untouched default %q", cfg.SystemID, defaults.SystemID)
	}
}

func TestLoadVolumeConfig_MissingFileIsIOError(t *testing.T) {
	_, err := LoadVolumeConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing config file")
	}
	if k, _ := vcderrors.KindOf(err); k != vcderrors.IOError {
		t.Errorf("kind = %v, want IOError", k)
	}
}
