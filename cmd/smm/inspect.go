package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"smm/internal/domain"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Inspect a mod archive without installing it",
	Long: `Open an archive, parse its mod descriptor, and report what installing
it would do. Nothing is written.

Examples:
  smm inspect ~/Downloads/Nexerelin_0.11.2b.zip`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	report, err := service.Inspect(args[0])
	if err != nil {
		return err
	}

	d := report.Descriptor
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Archive:\t%s\n", report.Label)
	fmt.Fprintf(w, "Descriptor:\t%s (parsed %s)\n", report.DescriptorName, report.Tier)
	fmt.Fprintf(w, "ID:\t%s\n", d.ID)
	fmt.Fprintf(w, "Name:\t%s\n", d.DisplayName())
	fmt.Fprintf(w, "Version:\t%s\n", d.Version)
	if d.Author != "" {
		fmt.Fprintf(w, "Author:\t%s\n", d.Author)
	}
	if d.GameVersion != "" {
		fmt.Fprintf(w, "Game version:\t%s\n", d.GameVersion)
	}
	for _, dep := range d.Dependencies {
		if dep.Version != "" {
			fmt.Fprintf(w, "Requires:\t%s %s\n", dep.ID, dep.Version)
		} else {
			fmt.Fprintf(w, "Requires:\t%s\n", dep.ID)
		}
	}
	fmt.Fprintf(w, "Contents:\t%d files, %s\n", report.Files, humanBytes(report.TotalSize))

	switch {
	case report.Installed == nil:
		fmt.Fprintf(w, "Installed:\tno\n")
	case report.Relation == domain.VersionNewer:
		fmt.Fprintf(w, "Installed:\t%s (archive is %s)\n", report.Installed.Version, colorGreen("newer"))
	case report.Relation == domain.VersionOlder:
		fmt.Fprintf(w, "Installed:\t%s (archive is %s)\n", report.Installed.Version, colorYellow("older"))
	default:
		fmt.Fprintf(w, "Installed:\t%s (archive is %s)\n", report.Installed.Version, report.Relation)
	}
	return w.Flush()
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
