package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	projecthttp "github.com/fyrsmithlabs/projectchat/internal/http"
	"github.com/fyrsmithlabs/projectchat/internal/services"
	"github.com/fyrsmithlabs/projectchat/internal/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the projectchat web server",
		Long: `Start the projectchat web server.

The server shuts down gracefully on SIGINT or SIGTERM.

Examples:
  # Start with the configured address
  projectchat serve

  # Override the port
  projectchat serve --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger, err := newLogger(cfg, os.Stdout)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tel, err := telemetry.New(ctx, telemetry.FromConfig(cfg.Observability, version), logger.Named("telemetry"))
			if err != nil {
				return err
			}
			defer func() {
				if err := tel.Shutdown(context.Background()); err != nil {
					logger.Warn(context.Background(), "telemetry shutdown", zap.Error(err))
				}
			}()

			reg, err := services.Build(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := reg.Close(); err != nil {
					logger.Warn(context.Background(), "closing services", zap.Error(err))
				}
			}()

			srv, err := projecthttp.NewServer(reg, logger.Named("http"), &projecthttp.Config{
				Host:            cfg.Server.Host,
				Port:            cfg.Server.Port,
				ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
				ServiceName:     cfg.Observability.ServiceName,
				MetricsEnabled:  cfg.Observability.MetricsEnabled,
			})
			if err != nil {
				return err
			}

			if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info(context.Background(), "server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")
	return cmd
}
