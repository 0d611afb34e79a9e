package loanservice

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/consumer"
	"github.com/osamikoyo/loanflow/health"
	"github.com/osamikoyo/loanflow/invokepb"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/retrier"
	"github.com/osamikoyo/loanflow/store"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the loan-details process: a gRPC invoker endpoint and an
// optional RabbitMQ consumer sharing one registry and store.
type Service struct {
	cfg      *config.LoanDetailsConfig
	store    *store.Store
	registry *Registry
	server   *grpc.Server
	health   *health.HealthChecker
	consumer *consumer.Consumer
	logger   *logger.Logger
}

func Connect(ctx context.Context, cfg *config.LoanDetailsConfig, logger *logger.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	st, err := store.Connect(ctx, cfg.Store, cfg.Stage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect store: %w", err)
	}

	registry := NewRegistry()
	RegisterLoanFunctions(registry, cfg.Stage, st, logger)

	var opts []grpc.ServerOption
	if cfg.CertPath != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.CertPath, cfg.KeyPath)
		if err != nil {
			logger.Error("failed load tls credentials",
				zap.String("cert", cfg.CertPath),
				zap.Error(err))
			st.Close()
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	server := grpc.NewServer(opts...)
	invokepb.RegisterInvokerServer(server, NewServer(registry, logger))

	probes := map[string]health.Probe{"store": st.Ping}

	svc := &Service{
		cfg:      cfg,
		store:    st,
		registry: registry,
		server:   server,
		logger:   logger,
	}

	if cfg.RabbitmqUrl != "" {
		conn, err := retrier.Connect(ctx, cfg.Store.ConnectAttempts, func(context.Context) (*amqp.Connection, error) {
			return amqp.Dial(cfg.RabbitmqUrl)
		})
		if err != nil {
			logger.Error("failed connect to rabbitmq", zap.Error(err))
			st.Close()
			return nil, err
		}

		c, err := consumer.NewConsumer(conn, cfg.QueueName, registry, logger)
		if err != nil {
			conn.Close()
			st.Close()
			return nil, err
		}

		svc.consumer = c
		probes["rabbitmq"] = func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}
	}

	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	svc.health = health.NewHealthChecker(probes, logger, cfg.Health.Interval.Duration, cfg.Health.Timeout.Duration)
	svc.health.OnUpdate(func(healthy bool) {
		status := healthpb.HealthCheckResponse_SERVING
		if !healthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus(invokepb.ServiceName, status)
		hs.SetServingStatus("", status)
	})

	logger.Info("loan-details service initialized",
		zap.String("addr", cfg.Addr),
		zap.String("stage", cfg.Stage),
		zap.Strings("functions", registry.Targets()),
		zap.Bool("consumer", svc.consumer != nil))

	return svc, nil
}

// Run serves until ctx ends or the listener fails.
func (s *Service) Run(ctx context.Context) error {
	s.store.Run(context.Background())

	if s.cfg.Store.EnsureSchema {
		if err := s.store.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.logger.Error("failed listen",
			zap.String("addr", s.cfg.Addr),
			zap.Error(err))
		return err
	}

	go s.health.Start(ctx)

	if s.consumer != nil {
		go func() {
			if err := s.consumer.Run(ctx); err != nil {
				s.logger.Error("consumer stopped with error", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("grpc server starting", zap.String("addr", s.cfg.Addr))
		errCh <- s.server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *Service) Close(ctx context.Context) error {
	s.logger.Info("stopping loan-details service...")

	s.server.GracefulStop()

	var errs []error

	if s.consumer != nil {
		if err := s.consumer.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.store.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
