package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"smm/internal/storage/db"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [mod-id]",
	Short: "Show the install history",
	Long: `Show what was installed, replaced, and removed, newest first.
With a mod id, only that mod's history is shown.

Examples:
  smm history
  smm history nexerelin
  smm history --limit 50`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum entries to show")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	var entries []db.HistoryEntry
	if len(args) == 1 {
		entries, err = service.HistoryFor(args[0], historyLimit)
	} else {
		entries, err = service.History(historyLimit)
	}
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No history yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTION\tMOD\tVERSION")
	for _, e := range entries {
		version := e.Version
		if e.PriorVersion != "" {
			version = fmt.Sprintf("%s → %s", e.PriorVersion, e.Version)
		}
		name := e.Name
		if name == "" {
			name = e.ModID
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Action, name, version)
	}
	return w.Flush()
}
