package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"smm/internal/core"
	"smm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	updateApply bool
	updateAuto  bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check installed mods for updates",
	Long: `Check each installed mod's version file against its remote master copy
and report mods with a newer release.

With --apply, updates that carry a direct download link are downloaded
and installed. Updates without a link are listed with their forum thread
so the player can fetch them by hand. Pinned mods are never checked.

Examples:
  smm update
  smm update --apply
  smm update --apply --auto`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateApply, "apply", false, "download and install the updates found")
	updateCmd.Flags().BoolVar(&updateAuto, "auto", false, "restrict to mods whose update policy is auto")

	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	ctx := context.Background()
	if verbose {
		ctx = context.WithValue(ctx, domain.UpdateProgressContextKey,
			domain.UpdateProgressFunc(func(n, total int, name string) {
				fmt.Fprintf(os.Stderr, "checking %d/%d: %s\n", n, total, name)
			}))
	}

	updates, checkErr := service.CheckUpdates(ctx)
	if checkErr != nil && len(updates) == 0 {
		return checkErr
	}
	if checkErr != nil {
		fmt.Fprintf(os.Stderr, "%s some mods could not be checked: %v\n", colorYellow("warning:"), checkErr)
	}

	if updateAuto {
		updates = core.AutoUpdatable(updates)
	}
	if len(updates) == 0 {
		fmt.Println("Everything is up to date.")
		return nil
	}

	if !updateApply {
		printUpdates(updates)
		fmt.Println("\nRun 'smm update --apply' to install them.")
		return nil
	}

	var progressFn core.ProgressFunc
	if verbose {
		progressFn = func(p core.DownloadProgress) {
			if p.TotalBytes > 0 {
				fmt.Fprintf(os.Stderr, "\rdownloading... %3.0f%%", p.Percentage)
			}
		}
	}

	failed := 0
	for _, outcome := range service.ApplyUpdates(ctx, updates, progressFn) {
		if verbose {
			fmt.Fprintln(os.Stderr)
		}
		mod := outcome.Update.InstalledMod
		switch {
		case outcome.Err != nil:
			failed++
			fmt.Printf("%s %s %s: %v\n", colorRed("✗"), mod.DisplayName(), outcome.Update.NewVersion, outcome.Err)
			if outcome.Update.DownloadURL == "" && outcome.Update.ThreadURL != "" {
				fmt.Printf("  get it at %s\n", outcome.Update.ThreadURL)
			}
		case outcome.Result != nil && outcome.Result.Outcome == core.OutcomeSkipped:
			fmt.Printf("%s Skipped %s: %v\n", colorYellow("-"), mod.DisplayName(), outcome.Result.Reason)
		default:
			fmt.Printf("%s Updated %s: %s → %s\n",
				colorGreen("✓"), mod.DisplayName(), mod.Version, outcome.Update.NewVersion)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d update(s) failed", failed)
	}
	return nil
}

func printUpdates(updates []domain.Update) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINSTALLED\tAVAILABLE\tPOLICY\tDOWNLOAD")
	for _, u := range updates {
		link := "manual"
		if u.DownloadURL != "" {
			link = "direct"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.InstalledMod.Key(), u.InstalledMod.DisplayName(), u.InstalledMod.Version,
			u.NewVersion, u.Policy, link)
	}
	w.Flush()
}
