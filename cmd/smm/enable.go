package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <mod-id>",
	Short: "Enable an installed mod",
	Long: `Add a mod to the game's enabled list so it loads on the next launch.

The rest of the list is left exactly as the player ordered it.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnable,
}

func init() {
	rootCmd.AddCommand(enableCmd)
}

func runEnable(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mod, err := service.Enable(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s Enabled %s %s\n", colorGreen("✓"), mod.DisplayName(), mod.Version)
	return nil
}
