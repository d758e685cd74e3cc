package vcdbuild

import (
	"os"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/isofs"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
	"gopkg.in/yaml.v3"
)

// volumeOverrides is the subset of isofs.VolumeConfig an operator may
// override from a YAML file; fields left blank keep the default.
type volumeOverrides struct {
	SystemID      string `yaml:"system_id"`
	VolumeID      string `yaml:"volume_id"`
	VolumeSetID   string `yaml:"volume_set_id"`
	PublisherID   string `yaml:"publisher_id"`
	PreparerID    string `yaml:"preparer_id"`
	ApplicationID string `yaml:"application_id"`
	AlbumID       string `yaml:"album_id"`
}

// LoadVolumeConfig reads a YAML file of volume identification overrides and
// applies them on top of isofs.DefaultVolumeConfig. An empty path returns
// the defaults unchanged.
func LoadVolumeConfig(path string) (isofs.VolumeConfig, error) {
	cfg := isofs.DefaultVolumeConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToReadVolumeConfig)
	}

	var ov volumeOverrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return cfg, vcderrors.Wrap(vcderrors.InvalidInput, err, common.ErrFailedToReadVolumeConfig)
	}

	if ov.SystemID != "" {
		cfg.SystemID = ov.SystemID
	}
	if ov.VolumeID != "" {
		cfg.VolumeID = ov.VolumeID
	}
	if ov.VolumeSetID != "" {
		cfg.VolumeSetID = ov.VolumeSetID
	}
	if ov.PublisherID != "" {
		cfg.PublisherID = ov.PublisherID
	}
	if ov.PreparerID != "" {
		cfg.PreparerID = ov.PreparerID
	}
	if ov.ApplicationID != "" {
		cfg.ApplicationID = ov.ApplicationID
	}
	if ov.AlbumID != "" {
		cfg.AlbumID = ov.AlbumID
	}

	return cfg, nil
}
