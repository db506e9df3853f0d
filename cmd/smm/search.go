package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search installed mods",
	Long: `Search installed mods by name or id. Matching is fuzzy, so partial
and slightly misspelled queries still find their mod.

Examples:
  smm search nex
  smm search console commands`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	query := strings.Join(args, " ")
	matches, err := service.Search(query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Printf("No mods match %q.\n", query)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tENABLED")
	for _, m := range matches {
		enabled := ""
		if m.Mod.Enabled {
			enabled = colorGreen("✓")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Mod.Key(), m.Mod.DisplayName(), m.Mod.Version, enabled)
	}
	return w.Flush()
}
