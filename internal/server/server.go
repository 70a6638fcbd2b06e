// Package server builds the platform from configuration and runs it on the
// configured transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-databricks/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 25 * time.Second
)

// Options are the command line settings that override configuration.
type Options struct {
	ConfigPath string
	Transport  string
	Address    string
}

// LoadConfig reads the config file when one is given and the environment
// otherwise, then applies command line overrides.
func LoadConfig(opts Options) (*platform.Config, error) {
	var (
		cfg *platform.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = platform.LoadConfig(opts.ConfigPath)
	} else {
		cfg, err = platform.ConfigFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.Transport != "" {
		cfg.Server.Transport = opts.Transport
	}
	if opts.Address != "" {
		cfg.Server.Address = opts.Address
	}
	if cfg.Server.Version == "" {
		cfg.Server.Version = Version
	}
	return cfg, nil
}

// Run starts p, serves until ctx is cancelled or the transport fails, and
// then stops p.
func Run(ctx context.Context, p *platform.Platform) error {
	if err := p.Start(ctx); err != nil {
		return err //nolint:wrapcheck // platform errors are already wrapped
	}

	cfg := p.Config()
	slog.Info("mcp-databricks starting",
		"name", cfg.Server.Name,
		"version", cfg.Server.Version,
		"transport", cfg.Server.Transport,
	)

	var serveErr error
	switch cfg.Server.Transport {
	case platform.TransportHTTP:
		serveErr = serveHTTP(ctx, p.HTTPHandler(), cfg.Server.Address)
	default:
		serveErr = p.MCPServer().Run(ctx, &mcp.StdioTransport{})
		if errors.Is(serveErr, context.Canceled) {
			serveErr = nil
		}
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		slog.Warn("platform shutdown failed", "error", err)
	}

	if serveErr != nil {
		return fmt.Errorf("serving %s: %w", cfg.Server.Transport, serveErr)
	}
	return nil
}

// serveHTTP serves handler on addr until ctx is cancelled, then drains
// in-flight requests.
func serveHTTP(ctx context.Context, handler http.Handler, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
