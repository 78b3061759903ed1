package cmd

import (
	"fmt"
	"os"

	"github.com/lecram2025/twitter-archive-combiner/internal"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	noCache bool
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "combiner",
	Short: "Merge multiple Twitter data exports into one archive",
	Long: `Merge multiple Twitter archive exports into one consolidated archive
that the bundled viewer can open unmodified.

Both export generations are supported: the modern manifest-driven format
and the legacy month-indexed format (pre-2019). Records are deduplicated
across archives, legacy tweets are converted to the modern shape, media
files are merged, and the manifest is regenerated with entries for both
old and new viewers.

Quick Start:
  combiner inspect ./archive-2023          # Summarize one archive
  combiner merge ./a ./b --out ./merged    # Merge two archives
  combiner verify ./merged                 # Check the merged output`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the archive descriptor cache")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openCache opens the descriptor cache unless disabled. Cache failures are
// never fatal; commands fall back to direct loads.
func openCache() *internal.DescriptorCache {
	if noCache {
		return nil
	}
	path, err := internal.DefaultCachePath()
	if err != nil {
		internal.LogWarn("descriptor cache unavailable: %v", err)
		return nil
	}
	cache, err := internal.OpenDescriptorCache(path)
	if err != nil {
		internal.LogWarn("descriptor cache unavailable: %v", err)
		return nil
	}
	return cache
}
