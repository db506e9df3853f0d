package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var disableCmd = &cobra.Command{
	Use:   "disable <mod-id>",
	Short: "Disable an installed mod",
	Long: `Drop a mod from the game's enabled list without touching its files.

Disabled mods stay installed and can be re-enabled at any time.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisable,
}

func init() {
	rootCmd.AddCommand(disableCmd)
}

func runDisable(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mod, err := service.Disable(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s Disabled %s %s\n", colorGreen("✓"), mod.DisplayName(), mod.Version)
	return nil
}
