// Command backoffd serves schedule previews for backoff configurations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/seb7887/gofw/backoff/config"
	"github.com/seb7887/gofw/backoff/ginsrv"
	"github.com/seb7887/gofw/backoff/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configDir := flag.String("config-dir", ".", "directory holding the config file")
	configName := flag.String("config", "backoffd", "config file name without extension")
	flag.Parse()

	if err := run(*configDir, *configName); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dir, name string) error {
	svc, err := config.Load[config.Service](dir, name)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	svc.Defaults()

	logger, err := newLogger(svc.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Reject a broken default schedule at startup rather than on every preview.
	if _, err := svc.Backoff.Build(); err != nil {
		return fmt.Errorf("default backoff: %w", err)
	}

	registry, _ := newRegistry()

	gin.SetMode(gin.ReleaseMode)
	preview := ginsrv.NewPreview(*svc, logger)
	router := ginsrv.SetupRouter(preview.Routes(registry),
		ginsrv.LoggerMiddleware(logger),
		ginsrv.ErrorFormatterMiddleware(),
		ginsrv.RecoveryMiddleware(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return ginsrv.Serve(ctx, svc.Addr, router, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// newRegistry holds the runtime collectors and the backoff_* retry series. The returned
// collector is the Recorder for retriers and HTTP retry policies running in this process.
func newRegistry() (*prometheus.Registry, *observability.MetricsCollector) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry, observability.NewMetricsCollector(registry)
}
