package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/lecram2025/twitter-archive-combiner/internal"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <archive>",
	Short: "Check a merged archive's internal consistency",
	Long: `Verify a merged (or original) archive by checking:
  • The manifest parses and declares at least one category
  • Every declared data file exists and its record count matches the manifest
  • Every declared media directory exists
  • The viewer shell file is present

Useful after a merge to confirm the output is viewer-ready.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := args[0]
		fmt.Println(sectionStyle.Render("Archive Verification"))
		fmt.Println()

		desc, err := internal.LoadDescriptor(root)
		if err != nil {
			fmt.Println(failStyle.Render("✗ Manifest unreadable:"), err)
			return err
		}
		fmt.Println(successStyle.Render("✓ Manifest parsed"))

		problems := 0
		checkedFiles := 0
		for name, dataType := range desc.Manifest.DataTypes {
			for _, file := range dataType.Files {
				checkedFiles++
				path := filepath.Join(root, filepath.FromSlash(file.FileName))
				records := internal.LoadDataFile(path)
				declared, err := strconv.Atoi(file.Count)
				if err != nil {
					fmt.Println(warnStyle.Render(fmt.Sprintf("⚠ %s: non-numeric count %q", name, file.Count)))
					continue
				}
				if len(records) != declared {
					problems++
					fmt.Println(failStyle.Render(
						fmt.Sprintf("✗ %s: %s declares %d records, file has %d",
							name, file.FileName, declared, len(records))))
				}
			}

			if dataType.MediaDirectory != "" {
				info, err := os.Stat(filepath.Join(root, filepath.FromSlash(dataType.MediaDirectory)))
				if err != nil || !info.IsDir() {
					problems++
					fmt.Println(failStyle.Render(
						fmt.Sprintf("✗ %s: media directory %s missing", name, dataType.MediaDirectory)))
				}
			}
		}

		if checkedFiles == 0 {
			problems++
			fmt.Println(failStyle.Render("✗ Manifest declares no data files"))
		} else {
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Checked %d data file(s)", checkedFiles)))
		}

		if !desc.Legacy {
			if _, err := os.Stat(filepath.Join(root, "Your archive.html")); err != nil {
				fmt.Println(warnStyle.Render("⚠ Viewer shell file missing"))
			} else {
				fmt.Println(successStyle.Render("✓ Viewer shell present"))
			}
		}

		fmt.Println()
		if problems > 0 {
			fmt.Println(failStyle.Render(fmt.Sprintf("✗ %d problem(s) found", problems)))
			return fmt.Errorf("verification failed: %d problem(s) found", problems)
		}
		fmt.Println(successStyle.Render("✓ Archive looks consistent"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
