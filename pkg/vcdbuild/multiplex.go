package vcdbuild

import (
	"os"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/mplex"
	"github.com/rjohanni/vcdtools/pkg/vcderrors"
)

// Multiplex reads a raw MPEG-1 video elementary stream and an MPEG Layer II
// audio elementary stream and writes a single VCD-compliant MPEG system
// stream to outPath. It refuses to overwrite an existing outPath.
func Multiplex(videoPath, audioPath, outPath string) (mplex.Stats, error) {
	if _, err := os.Stat(outPath); err == nil {
		return mplex.Stats{}, vcderrors.New(vcderrors.InvalidInput, common.ErrOutputAlreadyExists)
	}

	vf, err := os.Open(videoPath)
	if err != nil {
		return mplex.Stats{}, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToOpenInput)
	}
	defer vf.Close()

	af, err := os.Open(audioPath)
	if err != nil {
		return mplex.Stats{}, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToOpenInput)
	}
	defer af.Close()

	video, err := mplex.OpenVideoStream(vf)
	if err != nil {
		return mplex.Stats{}, err
	}
	common.LogInfo(common.InfoOpenedVideoStream, videoPath)

	audio, err := mplex.OpenAudioStream(af)
	if err != nil {
		return mplex.Stats{}, err
	}
	common.LogInfo(common.InfoOpenedAudioStream, audioPath)
	for _, w := range audio.Warnings {
		common.LogWarn("%s", w)
	}

	out, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return mplex.Stats{}, vcderrors.Wrap(vcderrors.IOError, err, common.ErrFailedToCreateOutput)
	}

	m := mplex.NewMultiplexer(video, audio)
	stats, err := m.Run(out)
	closeErr := out.Close()
	if err != nil {
		os.Remove(outPath)
		return mplex.Stats{}, err
	}
	if closeErr != nil {
		os.Remove(outPath)
		return mplex.Stats{}, vcderrors.Wrap(vcderrors.IOError, closeErr, "closing multiplexed output")
	}

	for _, w := range m.Warnings {
		common.LogWarn("%s", w)
	}
	common.LogInfo(common.InfoMuxComplete, stats.Packs, stats.MaxBufferOccupancyKB)

	return stats, nil
}
