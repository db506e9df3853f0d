package main

import (
	"context"
	"fmt"

	"smm/internal/core"

	"github.com/spf13/cobra"
)

var (
	installForce   bool
	installDryRun  bool
	installWorkers int
)

var installCmd = &cobra.Command{
	Use:   "install <archive>...",
	Short: "Install mods from archives",
	Long: `Install one or more mods straight from downloaded archives.

Each archive is inspected for a mod descriptor, matched against what is
already installed, and extracted into the mods directory with an atomic
swap. Archives that are not newer than the installed version are skipped
unless --force is given.

Examples:
  smm install ~/Downloads/Nexerelin_0.11.2b.zip
  smm install ~/Downloads/*.zip ~/Downloads/*.7z
  smm install --dry-run ~/Downloads/LazyLib.2.8.zip
  smm install --force ~/Downloads/LazyLib.2.7.zip`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "install even when not newer than the installed version")
	installCmd.Flags().BoolVarP(&installDryRun, "dry-run", "n", false, "decide everything, touch nothing")
	installCmd.Flags().IntVarP(&installWorkers, "workers", "w", 0, "parallel workers (default 4)")

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	results, err := service.Install(context.Background(), args, core.InstallOptions{
		Force:   installForce,
		DryRun:  installDryRun,
		Workers: installWorkers,
	})
	if err != nil {
		return err
	}

	rejected := 0
	for _, r := range results {
		printResult(r)
		if r.Outcome == core.OutcomeRejected {
			rejected++
		}
	}

	if installDryRun {
		fmt.Println("\nDry run: nothing was written.")
	}
	if rejected > 0 {
		return fmt.Errorf("%d of %d archive(s) failed", rejected, len(results))
	}
	return nil
}

// printResult renders one install outcome in the two-line style used
// throughout: status line, then indented details.
func printResult(r core.Result) {
	switch r.Outcome {
	case core.OutcomeInstalled:
		verb := "Installed"
		if r.Planned {
			verb = "Would install"
		}
		if r.Prior != nil {
			fmt.Printf("%s %s: %s %s (replaces %s)\n",
				colorGreen("✓"), verb, r.Descriptor.DisplayName(), r.Descriptor.Version, r.Prior.Version)
		} else {
			fmt.Printf("%s %s: %s %s\n",
				colorGreen("✓"), verb, r.Descriptor.DisplayName(), r.Descriptor.Version)
		}
		if verbose && r.InstallPath != "" {
			fmt.Printf("  → %s\n", r.InstallPath)
		}
	case core.OutcomeSkipped:
		fmt.Printf("%s Skipped: %s (%v)\n", colorYellow("-"), r.Source, r.Reason)
	default:
		fmt.Printf("%s Failed: %s (%v)\n", colorRed("✗"), r.Source, r.Reason)
	}

	for _, w := range r.Warnings {
		fmt.Printf("  %s %v\n", colorYellow("warning:"), w)
	}
}
