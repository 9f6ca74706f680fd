package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.2.0"

var rootCmd = &cobra.Command{
	Use:   "filesweep",
	Short: "Find duplicate and near-duplicate files",
	Long: `FileSweep detects exact and near-duplicate files across mixed content:
arbitrary binaries by content hash, images by perceptual hash, and text by
semantic embedding when a local embedding model is available.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the filesweep version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("filesweep %s\n", version)
	},
}

func main() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
