// Command flatstored runs the flatstore server: a flat network file store
// speaking a line-oriented protocol over TCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/mcrocce/flatstore/internal/logger"
	"github.com/mcrocce/flatstore/internal/metrics"
	"github.com/mcrocce/flatstore/internal/server"
	"github.com/mcrocce/flatstore/pkg/config"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	listen := pflag.StringP("listen", "l", "", "TCP address to listen on (overrides config)")
	storageRoot := pflag.StringP("root", "r", "", "Storage root directory (overrides config)")
	logLevel := pflag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	initConfig := pflag.Bool("init-config", false, "Write the default config file and exit")
	force := pflag.Bool("force", false, "Overwrite an existing config file with --init-config")
	pflag.Parse()

	if *initConfig {
		path, err := config.InitConfig(*force)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flatstored: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatstored: %v\n", err)
		os.Exit(1)
	}

	// CLI flags beat file and environment.
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *storageRoot != "" {
		cfg.Storage.Filesystem["root"] = *storageRoot
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		fmt.Fprintf(os.Stderr, "flatstored: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Log level set to: %s", cfg.Logging.Level)

	st, err := config.CreateStore(&cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	logger.Info("Storage root: %s", st.Root())

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = metrics.NewServer(cfg.Metrics.Port)
		metricsServer.Start()
	}

	srv := server.New(server.Config{
		ListenAddr:          cfg.Server.Listen,
		MaxConnections:      cfg.Server.MaxConnections,
		AcceptRatePerSecond: cfg.Server.AcceptRatePerSecond,
		AcceptBurst:         cfg.Server.AcceptBurst,
		ShutdownTimeout:     cfg.Server.ShutdownTimeout,
	}, st, metrics.NewServerMetrics())

	if err := srv.Listen(); err != nil {
		logger.Error("Failed to start server: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverDone := make(chan error, 1)
	go func() { serverDone <- srv.Serve(ctx) }()

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.Listen)

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining sessions...")
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
		}
	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info("Server stopped")
}
