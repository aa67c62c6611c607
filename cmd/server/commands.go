package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"uptask/internal/config"
	"uptask/internal/logging"
	"uptask/internal/repository"
	"uptask/internal/server"
	"uptask/internal/tokens"

	"github.com/spf13/cobra"
)

const serviceName = "uptask"

type options struct {
	api bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "uptask",
		Short:         "UpTask project management API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().BoolVar(&opts.api, "api", false, "accept requests without an Origin header (curl, Postman)")

	root.AddCommand(serveCmd(opts), migrateCmd(), sweepTokensCmd())
	return root
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the token sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func migrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			m, err := repository.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer m.Close()

			if down {
				err = m.Down()
			} else {
				err = m.Up()
			}
			if err != nil {
				return err
			}
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			logger.Info("migrations complete", "version", version, "dirty", dirty, "down", down)
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back every migration")
	return cmd
}

func sweepTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-tokens",
		Short: "Delete expired confirmation and reset tokens once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			db, err := server.OpenDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			svc := tokens.NewService(repository.NewTokenRepository(db), cfg.TokenTTL, cfg.TokenDigits)
			removed, err := svc.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("expired tokens removed", "count", removed)
			return nil
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if opts.api {
		cfg.AllowAPIClients = true
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := server.Init(ctx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "server initialization failed", err)
		return err
	}
	return s.Run(ctx)
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg := config.Load()
	logger := logging.Setup(serviceName, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
