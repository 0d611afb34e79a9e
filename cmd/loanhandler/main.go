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

	"github.com/osamikoyo/loanflow/circuitbreaker"
	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/fetcher"
	"github.com/osamikoyo/loanflow/handler"
	"github.com/osamikoyo/loanflow/health"
	"github.com/osamikoyo/loanflow/httpserver"
	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/producer"
	"github.com/osamikoyo/loanflow/retrier"
	"github.com/osamikoyo/loanflow/store"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "loanhandler_config.yaml"
	appName           = "loanhandler"
)

var (
	ErrInvalidConfigPath = errors.New("invalid config path")
	ErrInitFailed        = errors.New("loan handler initialization failed")
)

// app holds everything that must be closed on shutdown.
type app struct {
	store   *store.Store
	server  *httpserver.Server
	health  *health.HealthChecker
	closers []func(ctx context.Context) error
}

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

	cfg, err := config.NewHandlerConfig(configPath)
	if err != nil {
		return fmt.Errorf("config loading failed: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logcfg := logger.Config{
		AppName:   appName,
		AddCaller: cfg.Log.AddCaller,
		LogFile:   cfg.Log.File,
		LogLevel:  cfg.Log.Level,
	}

	if err := logger.Init(logcfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log := logger.Get()
	defer log.Sync()

	log.Info("Loan handler starting",
		zap.String("config_path", configPath),
		zap.String("stage", cfg.Stage),
		zap.String("mode", cfg.Fetcher.Mode))

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancel()

	metrics.InitMetrics()

	a, err := initialize(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize loan handler", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}

	return runWithGracefulShutdown(ctx, a, log)
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

func initialize(ctx context.Context, cfg *config.HandlerConfig, log *logger.Logger) (*app, error) {
	log.Info("Initializing loan handler components")

	tpl, err := loans.NewTemplate(cfg.LoanDefaults)
	if err != nil {
		return nil, err
	}

	st, err := store.Connect(ctx, cfg.Store, cfg.Stage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect store: %w", err)
	}

	// stopped by Close, after the HTTP server drains
	st.Run(context.Background())

	a := &app{store: st}

	if cfg.Store.EnsureSchema {
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}

	probes := map[string]health.Probe{"store": st.Ping}
	invokers := map[fetcher.Mode]fetcher.Invoker{}

	switch fetcher.Mode(cfg.Fetcher.Mode) {
	case fetcher.RequestResponse:
		inv, err := fetcher.DialGRPC(cfg.Fetcher, log)
		if err != nil {
			st.Close()
			return nil, err
		}

		invokers[fetcher.RequestResponse] = inv
		probes["loan_details"] = inv.Ping
		a.closers = append(a.closers, func(context.Context) error { return inv.Close() })

	case fetcher.Event:
		conn, err := retrier.Connect(ctx, cfg.Fetcher.ConnectAttempts, func(context.Context) (*amqp.Connection, error) {
			return amqp.Dial(cfg.Fetcher.RabbitmqUrl)
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to connect rabbitmq: %w", err)
		}

		p, err := producer.NewProducer(conn, cfg.Fetcher.QueueName, log)
		if err != nil {
			conn.Close()
			st.Close()
			return nil, err
		}

		invokers[fetcher.Event] = fetcher.NewEventInvoker(p, log)
		probes["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}
		a.closers = append(a.closers, p.Close)
	}

	breaker := circuitbreaker.New("fetcher", circuitbreaker.FromConfig(cfg.Fetcher.CircuitBreaker), log)
	f := fetcher.New(cfg.Stage, invokers, breaker, log)

	h := handler.New(st, f, fetcher.Mode(cfg.Fetcher.Mode), tpl, log)

	a.health = health.NewHealthChecker(probes, log, cfg.Health.Interval.Duration, cfg.Health.Timeout.Duration)
	a.server = httpserver.New(cfg.Addr, h, a.health, log)

	log.Info("Loan handler components initialized successfully")

	return a, nil
}

func runWithGracefulShutdown(ctx context.Context, a *app, log *logger.Logger) error {
	go a.health.Start(ctx)

	err := a.server.Run(ctx)
	if err != nil {
		log.Error("HTTP server failed", zap.Error(err))
	} else {
		log.Info("Shutdown signal received, initiating graceful shutdown")
	}

	if shutdownErr := performGracefulShutdown(a, log); shutdownErr != nil {
		log.Error("Graceful shutdown failed", zap.Error(shutdownErr))
		if err == nil {
			err = shutdownErr
		}
	}

	return err
}

func performGracefulShutdown(a *app, log *logger.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error

	for _, closeFn := range a.closers {
		if err := closeFn(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := a.store.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		log.Info("Graceful shutdown completed successfully")
	}

	return errors.Join(errs...)
}
