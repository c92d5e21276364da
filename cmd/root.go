// Package cmd is the recipe-api command line: the server and its management commands.
package cmd

import (
	"fmt"
	"os"

	"recipe-restful/config"
	"recipe-restful/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	configDir string
	cfg       config.Config
	logger    *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "recipe-api",
		Short:             "Recipe management REST API",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync() // Make sure the buffer is flushed before the program exits
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "directory holding config.yaml (default . and ./config)")

	root.AddCommand(
		a.serveCmd(),
		a.waitForDBCmd(),
		a.migrateCmd(),
		a.createSuperuserCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var paths []string
	if a.configDir != "" {
		paths = append(paths, a.configDir)
	}
	cfg, err := config.Load(paths...)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	a.logger = logger
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug":
		return zap.NewDevelopment()
	case "info":
		return zap.NewProduction()
	default:
		cfg := zap.NewProductionConfig()
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
		return cfg.Build()
	}
}

func (a *app) openDB() (*gorm.DB, error) {
	return database.Open(a.cfg.Database, a.logger)
}

func (a *app) newProbe(name string, pinger database.Pinger) *database.Probe {
	return database.NewProbe(name, pinger, a.cfg.Database.WaitInterval, a.cfg.Database.PingTimeout, a.logger)
}
