package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/projectchat/internal/config"
	"github.com/fyrsmithlabs/projectchat/internal/logging"
	"github.com/fyrsmithlabs/projectchat/internal/services"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	configPath string
	serverURL  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "projectchat",
		Short: "Chat with an AI assistant about your projects",
		Long: `projectchat keeps a bounded chat session per project in memory and a
durable transcript per project in SQLite.

Configuration is read from ~/.config/projectchat/config.yaml and
PROJECTCHAT_* environment variables (for example PROJECTCHAT_LLM_API_KEY).`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(fmt.Sprintf("projectchat %s (commit %s, built %s)\n", version, gitCommit, buildDate))

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default ~/.config/projectchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", "http://127.0.0.1:5000", "projectchat server URL for remote commands")

	cmd.AddCommand(
		newServeCmd(opts),
		newProjectCmd(opts),
		newChatCmd(opts),
		newHealthCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads configuration for the command.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the application logger from cfg, writing to w.
func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	lc := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	lc.Level = level
	lc.Format = cfg.Logging.Format
	lc.Sampling.Enabled = cfg.Logging.Sampling
	lc.Fields = map[string]string{"service": cfg.Observability.ServiceName}
	return logging.NewLoggerTo(lc, w)
}

// withServices loads config, builds the services with a logger on the
// command's stderr, runs fn and closes everything.
func (o *rootOptions) withServices(cmd *cobra.Command, fn func(ctx context.Context, reg services.Registry) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reg, err := services.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	return fn(ctx, reg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "projectchat %s\n", version)
			fmt.Fprintf(out, "  Git commit: %s\n", gitCommit)
			fmt.Fprintf(out, "  Build date: %s\n", buildDate)
		},
	}
}
