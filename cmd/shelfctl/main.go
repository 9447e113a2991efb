// Package main implements shelfctl, the maintenance CLI for a Shelfwise
// data directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/di"
)

var (
	configPath string
	envFile    string
	dataPath   string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "Maintenance commands for a Shelfwise data directory",
	Long: `shelfctl works directly on the database and search index of a Shelfwise
server. Stop the server first: the database is opened for writing.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "data directory (overrides config)")
}

// withContainer builds the same container the server uses, minus the HTTP
// server, and runs fn with a context cancelled on SIGINT or SIGTERM.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, injector *do.RootScope) error) error {
	opts := config.LoadOptions{ConfigPath: configPath, EnvFile: envFile}
	if dataPath != "" {
		opts.Overrides = map[string]any{"data.path": dataPath}
	}

	injector := di.NewContainer(opts)
	defer injector.Shutdown()

	if err := di.Bootstrap(injector); err != nil {
		return fmt.Errorf("open data directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, injector)
}
