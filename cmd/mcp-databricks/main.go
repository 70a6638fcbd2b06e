// Package main provides the entry point for the mcp-databricks server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/txn2/mcp-databricks/internal/server"
	"github.com/txn2/mcp-databricks/pkg/platform"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The root command serves, like serve.
func newRootCmd() *cobra.Command {
	opts := &server.Options{}

	root := &cobra.Command{
		Use:           "mcp-databricks",
		Short:         "MCP server for the Databricks control plane",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load() // no error if .env doesn't exist
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *opts)
		},
	}
	root.SetVersionTemplate(`{{printf "mcp-databricks version %s\n" .Version}}`)
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	addServeFlags(root, opts)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *opts)
		},
	}
	addServeFlags(serveCmd, opts)

	root.AddCommand(serveCmd, newVersionCmd(), newMigrateCmd(opts))
	return root
}

func addServeFlags(cmd *cobra.Command, opts *server.Options) {
	cmd.Flags().StringVar(&opts.Transport, "transport", "", "Transport type: stdio, http")
	cmd.Flags().StringVar(&opts.Address, "address", "", "Listen address for the http transport")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mcp-databricks",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcp-databricks version %s\n", server.Version)
		},
	}
}

func serve(ctx context.Context, opts server.Options) error {
	cfg, err := server.LoadConfig(opts)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by LoadConfig
	}
	setupLogging(cfg.Server.LogLevel)

	p, err := platform.New(platform.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("creating platform: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, p) //nolint:wrapcheck // server errors are already wrapped
}

// setupLogging installs a JSON handler on stderr; stdout carries the stdio
// transport.
func setupLogging(level string) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	})))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
