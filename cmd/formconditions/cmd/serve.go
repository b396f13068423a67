package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
	"github.com/DEFRA/forms-designer-sub008/internal/core/api"
	"github.com/DEFRA/forms-designer-sub008/internal/core/db"
	"github.com/DEFRA/forms-designer-sub008/internal/core/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC conditions service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g)
		},
	}
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().String("data-dir", "./data", "directory for the audit log")
	return serveCmd
}

func runServe(cmd *cobra.Command, g *globalFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbURL, err := cfg.ResolvedDatabaseURL()
	if err != nil {
		return err
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	pending, err := db.PendingMigrations(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to check migrations: %w", err)
	}
	if len(pending) > 0 {
		return fmt.Errorf("migrations not applied (%s) - run 'formconditions migrate up' first", strings.Join(pending, ", "))
	}

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	var audit *api.AuditLog
	if cfg.AuditEnabled {
		if audit, err = api.NewAuditLog(cfg.DataDir, logger); err != nil {
			return err
		}
	}

	service, err := api.NewConditionsService(
		db.NewConditionStore(database, queries),
		db.NewFieldRegistry(queries),
		conditions.NewChecker(),
		audit,
		logger.Named("service"),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, logger.Named("grpc"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting formconditions service",
		zap.String("version", Version),
		zap.String("addr", cfg.Address()),
		zap.Bool("audit", cfg.AuditEnabled))
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(context.Background())
	}
}
