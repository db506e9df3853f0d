package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <mod-id>",
	Aliases: []string{"rm", "uninstall"},
	Short:   "Remove an installed mod",
	Long: `Remove a mod's directory from the mods directory.

The directory is checked for deletability first and moved aside before
deletion, so a failure part way through leaves the mod intact. The mod is
also dropped from the enabled list.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mod, err := service.Remove(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s Removed %s %s\n", colorGreen("✓"), mod.DisplayName(), mod.Version)
	return nil
}
