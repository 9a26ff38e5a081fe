// cluster-matcher clusters every image of a batch by color and reports how well the
// best cluster recovers the region marked in its ground-truth mask.
//
// Usage:
//
//	cluster-matcher run [--config=matcher.yaml] [--images=DIR] [--masks=DIR] [--output=DIR]
//	cluster-matcher --version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cluster-matcher",
	Short: "Score unsupervised color clusters against ground-truth masks",
	Long: "cluster-matcher partitions each image into k color clusters, keeps the cluster\n" +
		"with the highest IoU against the image's mask and writes a CSV summary.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
