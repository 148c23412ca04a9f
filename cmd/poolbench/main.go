// Command poolbench exercises a jobpool.Pool with the classic thread pool smoke
// scenarios and reports the results as JSON log lines.
//
// Usage:
//
//	poolbench [-config bench.yaml] [-env .env]
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ygrebnov/jobpool"
	"github.com/ygrebnov/jobpool/internal/bench"
	"github.com/ygrebnov/jobpool/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML scenario file")
	envFile := flag.String("env", ".env", "dotenv file with POOLBENCH_* overrides")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}
	level, _ := cfg.Level()
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider metrics.Provider = metrics.NewNoopProvider()
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		provider = metrics.NewPrometheusProvider(reg, nil)
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdownServer(srv, logger)
	}

	p, err := jobpool.New(
		jobpool.WithLogger(logger),
		jobpool.WithMetrics(provider),
	)
	if err != nil {
		logger.Error("failed to create pool", "error", err)
		return 1
	}
	if err := p.Start(); err != nil {
		logger.Error("failed to start pool", "error", err)
		return 1
	}
	defer p.Stop()

	results, err := bench.Run(ctx, p, &cfg, logger)
	if err != nil {
		logger.Error("run aborted", "error", err)
		return 1
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	logger.Info("run finished", "scenarios", len(results), "failed", failed, "stats", p.Stats())
	if failed > 0 {
		return 1
	}
	return 0
}

func loadConfig(path, envFile string) (bench.Config, error) {
	cfg, err := bench.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := bench.LoadEnv(envFile); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
}
