package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lecram2025/twitter-archive-combiner/internal"
	"github.com/spf13/cobra"
)

var (
	mergeOut    string
	writeReport bool
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge <archive>...",
	Short: "Merge archives into one output directory",
	Long: `Merge one or more archive directories into a consolidated archive.

Archives are processed oldest first. Records are deduplicated per category,
singleton account facts keep only the newest entry, legacy tweets are
converted to the modern shape, and media files are merged by name and size.

An archive that cannot be recognized or parsed is rejected individually;
the merge continues with the remaining archives. The output directory must
be empty: merges are not resumable into a prior partial run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mergeOut == "" {
			return fmt.Errorf("--out is required")
		}
		if err := ensureFreshOutputDir(mergeOut); err != nil {
			return err
		}

		cache := openCache()
		if cache != nil {
			defer cache.Close()
		}

		session := internal.NewMergeSession(mergeOut, func(message string) {
			internal.PrintInfo(message)
		})

		rejected := 0
		for _, path := range args {
			desc, err := internal.LoadDescriptorCached(cache, path)
			if err != nil {
				internal.PrintWarning(fmt.Sprintf("Rejected %s: %v", path, err))
				rejected++
				continue
			}
			session.AddDescriptor(desc)
		}

		if len(session.Archives()) == 0 {
			return fmt.Errorf("no usable archives among %d given", len(args))
		}
		if rejected > 0 {
			internal.PrintWarning(fmt.Sprintf("Continuing without %d rejected archive(s)", rejected))
		}

		if err := session.Run(); err != nil {
			internal.PrintError(fmt.Sprintf("Merge failed: %v", err))
			return err
		}

		if writeReport {
			reportPath := filepath.Join(mergeOut, "merge-report.yaml")
			if err := session.Report().Save(reportPath); err != nil {
				return err
			}
			internal.PrintInfo(fmt.Sprintf("Report written to %s", reportPath))
		}

		internal.PrintSuccess(fmt.Sprintf("Merged %d archive(s) into %s", len(session.Archives()), mergeOut))
		return nil
	},
}

// ensureFreshOutputDir rejects an output directory that already has
// content. A partially populated directory from an aborted run must be
// removed by the user first.
func ensureFreshOutputDir(path string) error {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot read output directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %s is not empty", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "Output directory for the merged archive")
	mergeCmd.Flags().BoolVar(&writeReport, "report", false, "Write merge-report.yaml into the output")
	_ = mergeCmd.MarkFlagRequired("out")
}
