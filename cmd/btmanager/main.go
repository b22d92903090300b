package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/s0up4200/btmanager-go/internal/config"
	"github.com/s0up4200/btmanager-go/internal/logging"
	"github.com/s0up4200/btmanager-go/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "btmanager",
		Short: "BT Manager tags, throttles and pauses trackerless torrents",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(config.LoggingConfig{Level: "info", Format: "console"}, debug)
		},
	}

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Initialize a new config file",
		RunE:  runInit,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the scheduled BT manager service",
		RunE:  runService,
		Example: `  # Run on the configured cron schedule
  btmanager run

  # Run once right away, then keep following the schedule
  btmanager run --now`,
	}

	runNow bool

	applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Apply the policies once and exit",
		RunE:  runApply,
	}

	listCmd = &cobra.Command{
		Use:   "list [downloader]",
		Short: "List torrents with their classification and pending actions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
		Example: `  # Preview every configured downloader
  btmanager list

  # Preview a single downloader
  btmanager list qbit-local`,
	}

	inspectCmd = &cobra.Command{
		Use:   "inspect <file.torrent>...",
		Short: "Classify .torrent files without a downloader",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runInspect,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return version.CheckForUpdates(cmd.Context(), "s0up4200", "btmanager-go")
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	setupGroup := &cobra.Group{
		ID:    "setup",
		Title: "Configuration Commands:",
	}

	operationGroup := &cobra.Group{
		ID:    "operation",
		Title: "Policy Commands:",
	}

	rootCmd.AddGroup(setupGroup, operationGroup)

	initCmd.GroupID = "setup"
	inspectCmd.GroupID = "setup"
	runCmd.GroupID = "operation"
	applyCmd.GroupID = "operation"
	listCmd.GroupID = "operation"

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)

	runCmd.Flags().BoolVar(&runNow, "now", false, "perform a run immediately on start")
}

// loadConfig loads the config file and reconfigures logging from it
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.Load(cfgFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return nil, "", err
	}

	logging.Setup(cfg.Logging, debug)
	log.Debug().Str("path", path).Msg("loaded config file")
	return cfg, path, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		configDir, err := config.Dir()
		if err != nil {
			log.Error().Err(err).Msg("could not determine home directory")
			return err
		}
		if err := os.MkdirAll(configDir, 0755); err != nil {
			log.Error().Err(err).Str("dir", configDir).Msg("could not create config directory")
			return fmt.Errorf("could not create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		log.Error().Str("path", configPath).Msg("config file already exists")
		return fmt.Errorf("config file already exists at %s", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	data, err := config.Render(config.Default())
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Str("path", configPath).Msg("created new config file")
	log.Info().Msg("remember to set enabled: true and configure your downloaders")
	return nil
}
