package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bbernstein/laundrylocator/backend-go/internal/app"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/handler"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var version = "dev"

// newServer mounts the page routes and /metrics, instrumented with OpenTelemetry.
func newServer(addr string, a *app.App) *http.Server {
	r := handler.Mux(a.Handler.Routes())
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.Use(requestLogger)

	return &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(r, telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		route := ""
		if current := mux.CurrentRoute(r); current != nil {
			route = current.GetName()
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Dur("elapsed", time.Since(start)).
			Msg("Request served")
	})
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTracer, err := telemetry.InitTracer(version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Tracer shutdown failed")
		}
	}()

	telemetry.InitMetrics()
	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return err
	}
	srv := newServer(cfg.ListenAddr, a)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.ListenAddr).Str("env", cfg.Environment).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
