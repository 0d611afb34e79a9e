package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/loanservice"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "loandetails_config.yaml"
	appName           = "loandetails"
)

var (
	ErrInvalidConfigPath = errors.New("invalid config path")
	ErrServiceInitFailed = errors.New("loan-details service initialization failed")
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func run() error {
	configPath, logLevel, err := parseArgs()
	if err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}

	cfg, err := config.NewLoanDetailsConfig(configPath)
	if err != nil {
		return fmt.Errorf("config loading failed: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := logger.Init(logger.Config{
		AppName:   appName,
		AddCaller: cfg.Log.AddCaller,
		LogFile:   cfg.Log.File,
		LogLevel:  cfg.Log.Level,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.Get()
	defer log.Sync()

	log.Info("Loan-details service starting",
		zap.String("config_path", configPath),
		zap.String("stage", cfg.Stage))

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	metrics.InitMetrics()

	svc, err := loanservice.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize loan-details service", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrServiceInitFailed, err)
	}

	return runWithGracefulShutdown(ctx, svc, log)
}

func parseArgs() (string, string, error) {
	var (
		configPath = flag.String("config", defaultConfigPath, "Path to configuration file, or \"default\"")
		logLevel   = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
		help       = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	if *configPath == "" {
		return "", "", ErrInvalidConfigPath
	}

	if *configPath == "default" {
		return *configPath, *logLevel, nil
	}

	absPath, err := filepath.Abs(*configPath)
	if err != nil {
		absPath = *configPath
	}

	return absPath, *logLevel, nil
}

func runWithGracefulShutdown(ctx context.Context, svc *loanservice.Service, log *logger.Logger) error {
	errChan := make(chan error, 1)

	go func() {
		defer close(errChan)
		if err := svc.Run(ctx); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received, initiating graceful shutdown")
		return performGracefulShutdown(svc, log)

	case err, ok := <-errChan:
		if ok && err != nil {
			log.Error("Service encountered an error", zap.Error(err))
			if shutdownErr := performGracefulShutdown(svc, log); shutdownErr != nil {
				log.Error("Graceful shutdown failed", zap.Error(shutdownErr))
			}
			return fmt.Errorf("service runtime error: %w", err)
		}

		<-ctx.Done()
		return performGracefulShutdown(svc, log)
	}
}

func performGracefulShutdown(svc *loanservice.Service, log *logger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := svc.Close(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("Graceful shutdown completed successfully")
	return nil
}
