// Command expharness compiles the optimization program and runs experiment
// campaigns against it, writing a results log, a reproducibility manifest and
// a summary table per campaign.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"expharness/internal/config"
	"expharness/internal/logging"
)

const needsConfig = "needs-config"

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string

	// Loaded by PersistentPreRunE for commands annotated with needsConfig.
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "expharness",
	Short: "Experiment harness for the set-selection optimization program",
	Long: `expharness builds the optimization program for the configured universe
size and runs parameter sweeps against it.

Each campaign produces three files in its results directory:
  *_results_<shape>.txt   program output per experiment, instance dump removed
  *_manifest_<shape>.txt  parameters and the exact command behind each experiment
  *_summary_<shape>.csv   one row per experiment and algorithm`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws, err := resolveWorkspace(workspace)
		if err != nil {
			return err
		}
		workspace = ws

		level := "info"
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(logging.Config{Level: level}); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		if cmd.Annotations[needsConfig] == "" {
			return nil
		}
		path := config.Resolve(workspace, configPath)
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logging.Initialize(loggingConfig(cfg)); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.Boot("Loaded configuration from %s (U_size=%d)", path, cfg.UniverseSize)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Configuration file, relative to the workspace")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(redactCmd)
}

func main() {
	// Interrupting a campaign stops it between experiments; the report files
	// keep everything recorded so far.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveWorkspace(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("invalid workspace: %w", err)
	}
	return abs, nil
}

// loggingConfig maps the config file's logging block onto the logger.
func loggingConfig(c *config.Config) logging.Config {
	lc := logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Categories: c.Logging.Categories,
	}
	if verbose {
		lc.Level = "debug"
	}
	if c.Logging.File {
		lc.Dir = config.Resolve(workspace, c.Paths.Logs)
	}
	return lc
}
