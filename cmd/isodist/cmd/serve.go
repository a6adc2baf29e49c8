package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/observability"
	"github.com/ChrisMcGann/IsoDist/pkg/server"
)

const shutdownTimeout = 5 * time.Second

var (
	// Flags for serve command
	listenAddr     string
	requestTimeout time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address (env ISODIST_ADDR)")
	serveCmd.Flags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "Per-request computation limit")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve isotope distributions over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  POST /distribution      compute a distribution from a JSON request
  GET  /elements          list element symbols
  GET  /elements/{symbol} isotopes of one element
  GET  /health            liveness
  GET  /metrics           Prometheus metrics

Variables from a .env file in the working directory are loaded first.
Traces, metrics and logs are exported over OTLP/HTTP when
OTEL_EXPORTER_OTLP_ENDPOINT is set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	if addr := os.Getenv("ISODIST_ADDR"); addr != "" && !cmd.Flags().Changed("addr") {
		listenAddr = addr
	}

	ctx := cmd.Context()
	log := logger

	if observability.ExportEnabled() {
		traceShutdown, err := observability.InitTracing(ctx)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(traceShutdown)

		metricShutdown, err := observability.InitMetrics(ctx)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(metricShutdown)

		var logShutdown func(context.Context) error
		log, logShutdown, err = observability.InitLogging(ctx, logger)
		if err != nil {
			return err
		}
		defer shutdownWithTimeout(logShutdown)
		defer observability.SyncLogger(log)

		log.Info("telemetry export enabled", zap.String("service", observability.ServiceName()))
	}

	handler, err := server.NewHandler(server.Config{
		Table:   table,
		ModDB:   modDB,
		Logger:  log,
		Timeout: requestTimeout,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.NewRouter(handler, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", zap.String("addr", listenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func shutdownWithTimeout(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
}
