package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/lecram2025/twitter-archive-combiner/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var inspectFormat string

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	legacyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Summarize a single archive",
	Long: `Load one archive's configuration and print its identity and
per-category record counts. Works on both modern and legacy archives, and
on merged output.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cache := openCache()
		if cache != nil {
			defer cache.Close()
		}

		desc, err := internal.LoadDescriptorCached(cache, args[0])
		if err != nil {
			return err
		}
		summary := desc.Summarize()

		switch inspectFormat {
		case "yaml":
			data, err := yaml.Marshal(summary)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		case "text":
			printSummary(summary)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, yaml, json)", inspectFormat)
		}
	},
}

func printSummary(summary *internal.ArchiveSummary) {
	title := summary.Path
	if summary.Legacy {
		title += " " + legacyStyle.Render("(legacy format)")
	}
	fmt.Println(headerStyle.Render(title))

	fmt.Printf("%s %s (@%s)\n",
		labelStyle.Render("Account:"),
		valueStyle.Render(summary.DisplayName),
		summary.UserName)
	fmt.Printf("%s %s\n", labelStyle.Render("Account ID:"), summary.AccountID)
	fmt.Printf("%s %s\n", labelStyle.Render("Generated:"), summary.GenerationDate)
	if summary.IsPartial {
		fmt.Printf("%s yes\n", labelStyle.Render("Partial archive:"))
	}

	if len(summary.Categories) == 0 {
		fmt.Println(labelStyle.Render("No populated categories"))
		return
	}

	names := make([]string, 0, len(summary.Categories))
	for name := range summary.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, countStyle.Render(strconv.Itoa(summary.Categories[name])))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "text", "Output format (text, yaml, json)")
}
