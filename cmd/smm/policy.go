package main

import (
	"fmt"

	"smm/internal/domain"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy <mod-id> [notify|auto|pin]",
	Short: "Show or set a mod's update policy",
	Long: `Control how 'smm update' treats a mod.

  notify   report available updates, apply only on request (default)
  auto     apply updates when 'smm update --apply --auto' runs
  pin      never check or update this mod

With only a mod id, the current policy is printed.

Examples:
  smm policy nexerelin
  smm policy nexerelin auto
  smm policy lazylib pin`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

func runPolicy(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if len(args) == 1 {
		policy, err := service.UpdatePolicy(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", args[0], policy)
		return nil
	}

	policy, ok := domain.ParseUpdatePolicy(args[1])
	if !ok {
		return fmt.Errorf("unknown policy %q, want notify, auto, or pin", args[1])
	}
	mod, err := service.SetUpdatePolicy(args[0], policy)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s update policy is now %s\n", colorGreen("✓"), mod.DisplayName(), policy)
	return nil
}
