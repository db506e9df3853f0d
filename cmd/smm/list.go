package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listEnabledOnly bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed mods",
	Long: `List the mods found in the mods directory, with their activation state.

The list is read straight from disk, so mods installed or removed by hand
show up here too.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listEnabledOnly, "enabled", "e", false, "show only enabled mods")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mods, issues, err := service.Mods()
	if err != nil {
		return err
	}

	shown := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tENABLED\tDIRECTORY")
	for _, m := range mods {
		if listEnabledOnly && !m.Enabled {
			continue
		}
		enabled := ""
		if m.Enabled {
			enabled = colorGreen("✓")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			m.Key(), m.DisplayName(), m.Version, enabled, filepath.Base(m.InstallPath))
		shown++
	}

	if shown == 0 {
		if listEnabledOnly {
			fmt.Println("No enabled mods.")
		} else {
			fmt.Println("No mods installed. Try: smm install <archive>")
		}
		return nil
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing list: %w", err)
	}

	if verbose {
		for _, issue := range issues {
			fmt.Printf("%s %s: %v\n", colorYellow("skipped:"), issue.Dir, issue.Err)
		}
	}
	return nil
}
