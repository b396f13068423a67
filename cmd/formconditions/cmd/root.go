package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DEFRA/forms-designer-sub008/internal/core/config"
	"github.com/DEFRA/forms-designer-sub008/internal/core/logging"
)

// Version of the formconditions binary.
const Version = "0.1.0"

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:          "formconditions",
		Short:        "Form conditions model service",
		Long:         `formconditions stores, checks and renders the branching conditions of form definitions.`,
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&g.dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "json", "log format (json, text)")

	rootCmd.AddCommand(
		newServeCmd(g),
		newMigrateCmd(g),
		newRenderCmd(),
		newOperatorsCmd(),
	)
	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// load resolves configuration for cmd and builds its logger.
func (g *globalFlags) load(cmd *cobra.Command) (*config.ServiceConfig, *zap.Logger, error) {
	cfg, err := config.Load(g.configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
