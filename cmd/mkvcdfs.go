package cmd

import (
	"fmt"

	"github.com/rjohanni/vcdtools/pkg/common"
	"github.com/rjohanni/vcdtools/pkg/vcdbuild"
	"github.com/spf13/cobra"
)

// mkvcdfsCmd builds a Video CD disc image from one or more MPEG-1 system
// streams, writing vcd_image.bin and vcd.toc into the current directory.
var mkvcdfsCmd = &cobra.Command{
	Use:   "mkvcdfs [file1.mpg file2.mpg ...]",
	Short: "Build a VCD disc image and TOC from MPEG-1 system streams",
	Long: `Build a Video CD disc image (vcd_image.bin) and its TOC description
(vcd.toc) from one to 32 MPEG-1 system stream files.

Each input becomes one playable track, in argument order. A track must
contain at least 150 packs of payload data.

Example:
  vcdtools mkvcdfs track01.mpg track02.mpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		common.SetVerboseMode(verbose)

		configPath, _ := cmd.Flags().GetString("album-config")
		volCfg, err := vcdbuild.LoadVolumeConfig(configPath)
		if err != nil {
			return err
		}

		builder := vcdbuild.NewBuilder(volCfg)
		stats, err := builder.BuildImage(".", args)
		if err != nil {
			return err
		}

		common.LogInfo(common.InfoWroteImage, "vcd_image.bin", stats.TotalSectors)
		fmt.Printf("Wrote vcd_image.bin and vcd.toc: %d track(s), %d sectors\n", stats.Tracks, stats.TotalSectors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkvcdfsCmd)
	mkvcdfsCmd.Flags().String("album-config", "", "YAML file of volume identification overrides")
}
