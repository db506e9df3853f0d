package main

import (
	"fmt"
	"os"

	"smm/internal/core"
	"smm/internal/storage/config"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.4.1"

	// Global flags
	configDir  string
	configFile string
	stateDir   string
	modsDir    string
	verbose    bool
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smm",
	Short: "Starsector Mod Manager - archive-in, playable-mod-out",
	Long: `smm manages a Starsector mods directory: it installs mods straight from
downloaded archives (zip, 7z, rar, tar), recognizes what is already
installed, and keeps everything current through the mods' own version
checker files.

Use subcommands for operations. Run 'smm --help' for available commands.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/smm)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config-file", "", "explicit config file, absolute .yaml path")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state", "", "state directory for the database and archive cache (default: ~/.cache/smm)")
	rootCmd.PersistentFlags().StringVarP(&modsDir, "mods-dir", "m", "", "mods directory (default: mods_dir from config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
// NO_COLOR: if set (any value), color is disabled per https://no-color.org
func colorEnabled() bool {
	if noColor {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return true
}

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
)

// colorGreen returns s with green ANSI when color is enabled, otherwise s.
func colorGreen(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiGreen + s + ansiReset
}

// colorRed returns s with red ANSI when color is enabled, otherwise s.
func colorRed(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiRed + s + ansiReset
}

// colorYellow returns s with yellow ANSI when color is enabled, otherwise s.
func colorYellow(s string) string {
	if !colorEnabled() {
		return s
	}
	return ansiYellow + s + ansiReset
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the CLI logger. Engine diagnostics go to stderr and stay
// quiet unless --verbose raises the level.
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "smm"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// initService creates and initializes the core service
func initService() (*core.Service, error) {
	cfg, err := getServiceConfig()
	if err != nil {
		return nil, err
	}

	// Ensure directories exist
	if err := os.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.MkdirAll(cfg.StateDir, 0755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	return core.NewService(cfg)
}

// getServiceConfig returns the service configuration with defaults.
func getServiceConfig() (core.ServiceConfig, error) {
	cfg := core.ServiceConfig{
		ConfigDir: configDir,
		StateDir:  stateDir,
		ModsDir:   modsDir,
		Logger:    newLogger(),
	}

	if configFile != "" {
		path, err := config.ParseConfigPath(configFile)
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("--config-file: %w", err)
		}
		cfg.ConfigFile = path
	}

	if cfg.ConfigDir == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("config directory: %w", err)
		}
		cfg.ConfigDir = dir
	}
	if cfg.StateDir == "" {
		dir, err := config.DefaultStateDir()
		if err != nil {
			return core.ServiceConfig{}, fmt.Errorf("state directory: %w", err)
		}
		cfg.StateDir = dir
	}

	return cfg, nil
}

// closeService closes svc, downgrading close failures to a warning.
func closeService(svc *core.Service) {
	if err := svc.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
	}
}
