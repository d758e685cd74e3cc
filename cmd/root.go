// Package cmd provides the command-line interface for vcdtools.
// vcdtools is a small collection of utilities for authoring bit-exact
// Video CD disc images from MPEG-1 elementary streams.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vcdtools",
	Short: "Tools for authoring Video CD disc images",
	Long: `vcdtools - utilities for building Video CD disc images from raw
MPEG-1 elementary streams.

Currently supports:
  - mkvcdfs  build a VCD image + TOC from MPEG-1 system streams
  - vcdmplex multiplex an MPEG-1 video + MPEG Layer II audio stream
             into a single VCD-compliant system stream

Examples:
  vcdtools mkvcdfs track01.mpg track02.mpg
  vcdtools vcdmplex movie.m1v movie.mp2 movie.mpg`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
}
