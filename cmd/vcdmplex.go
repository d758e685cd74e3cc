package cmd

import (
	"fmt"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/vcdbuild"
	"github.com/spf13/cobra"
)

// vcdmplexCmd multiplexes a raw MPEG-1 video elementary stream and an
// MPEG Layer II audio elementary stream into one VCD-compliant system
// stream.
var vcdmplexCmd = &cobra.Command{
	Use:   "vcdmplex [video.m1v] [audio.mp2] [out.mpg]",
	Short: "Multiplex MPEG-1 video and audio into a VCD system stream",
	Long: `Multiplex a raw MPEG-1 video elementary stream and an MPEG Layer II
audio elementary stream into a single VCD-compliant MPEG-1 system stream.

Refuses to overwrite an existing output file.

Example:
  vcdtools vcdmplex movie.m1v movie.mp2 movie.mpg`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		common.SetVerboseMode(verbose)

		stats, err := vcdbuild.Multiplex(args[0], args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Printf("Wrote %s: %d packs, max buffer occupancy %d KB\n", args[2], stats.Packs, stats.MaxBufferOccupancyKB)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vcdmplexCmd)
}
