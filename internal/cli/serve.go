package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bazaar/internal/content"
	"github.com/roach88/bazaar/internal/engine"
	"github.com/roach88/bazaar/internal/httpapi"
	"github.com/roach88/bazaar/internal/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen    string
	RateLimit float64
	RateBurst int

	// CallIDs overrides the call ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CallIDs engine.CallIDGenerator

	// ready, when set, receives the bound address once the server listens.
	ready chan<- string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the market over HTTP",
		Long: `Start the single-writer engine and serve the market over HTTP.

Calls are POSTed to /v1/calls/{op} with the caller in the X-Bazaar-Principal
header; reads, the event feed, content and /metrics are served alongside.

Defaults come from BAZAAR_LISTEN, BAZAAR_RATE_LIMIT and BAZAAR_RATE_BURST.

Example:
  bazaar serve --db ./market.db --listen 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				opts.Listen = opts.Config.Listen
			}
			if !cmd.Flags().Changed("rate-limit") {
				opts.RateLimit = opts.Config.RateLimit
			}
			if !cmd.Flags().Changed("rate-burst") {
				opts.RateBurst = opts.Config.RateBurst
			}
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "HTTP listen address (default $BAZAAR_LISTEN)")
	cmd.Flags().Float64Var(&opts.RateLimit, "rate-limit", 0, "per-caller requests per second, 0 disables (default $BAZAAR_RATE_LIMIT)")
	cmd.Flags().IntVar(&opts.RateBurst, "rate-burst", 0, "per-caller burst (default $BAZAAR_RATE_BURST)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger := opts.logger(cmd.ErrOrStderr(), slog.LevelInfo)
	slog.SetDefault(logger)

	if opts.RateLimit < 0 || (opts.RateLimit > 0 && opts.RateBurst < 1) {
		return NewExitError(ExitCommandError, "rate limit must be non-negative with a burst of at least 1")
	}

	ids := opts.CallIDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	m := metrics.New()
	s, err := openSession(cmd, opts.RootOptions, engine.WithCallIDs(ids), engine.WithRecorder(m), engine.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	api := httpapi.New(s.engine,
		httpapi.WithContent(content.NewPersistent(s.store)),
		httpapi.WithMetrics(m),
		httpapi.WithRateLimit(opts.RateLimit, opts.RateBurst),
		httpapi.WithLogger(logger),
	)
	server := &http.Server{
		Addr:              opts.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- s.engine.Run(ctx)
	}()

	listener, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		cancel()
		<-engineErr
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	addr := listener.Addr().String()
	logger.Info("serving", "addr", addr, "db", opts.DB)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving market on http://%s\n", addr)
	if opts.ready != nil {
		opts.ready <- addr
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = WrapExitError(ExitFailure, "http server error", err)
		}
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown http server", "error", err)
	}
	if err := <-engineErr; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = WrapExitError(ExitFailure, "engine error", err)
	}

	logger.Info("server stopped gracefully")
	return runErr
}
