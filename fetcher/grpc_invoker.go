package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/invokepb"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

var (
	ErrBadCertificate = errors.New("failed to append server certificate")
	ErrUnavailable    = errors.New("loan-details service unavailable")
)

type GRPCInvoker struct {
	conn    *grpc.ClientConn
	client  invokepb.InvokerClient
	timeout time.Duration
	logger  *logger.Logger
}

// DialGRPC creates a client for the loan-details service. TLS is used when
// cert_path is set.
func DialGRPC(cfg config.FetcherConfig, logger *logger.Logger) (*GRPCInvoker, error) {
	creds := insecure.NewCredentials()

	if cfg.CertPath != "" {
		body, err := os.ReadFile(cfg.CertPath)
		if err != nil {
			logger.Error("failed open file",
				zap.String("cert", cfg.CertPath),
				zap.Error(err))

			return nil, err
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(body) {
			logger.Error("failed to append server certificate",
				zap.String("path", cfg.CertPath))

			return nil, ErrBadCertificate
		}

		creds = credentials.NewClientTLSFromCert(certPool, "")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  100 * time.Millisecond,
				Multiplier: 2.0,
				MaxDelay:   5 * time.Second,
			},
			MinConnectTimeout: 10 * time.Second,
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	conn, err := grpc.NewClient(cfg.GrpcAddr, opts...)
	if err != nil {
		logger.Error("failed get loan-details connection",
			zap.String("url", cfg.GrpcAddr),
			zap.Error(err))

		return nil, err
	}

	logger.Info("loan-details client created", zap.String("url", cfg.GrpcAddr))

	inv := NewGRPCInvoker(invokepb.NewInvokerClient(conn), cfg.RequestTimeout.Duration, logger)
	inv.conn = conn

	return inv, nil
}

func NewGRPCInvoker(client invokepb.InvokerClient, timeout time.Duration, logger *logger.Logger) *GRPCInvoker {
	return &GRPCInvoker{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

func (g *GRPCInvoker) Invoke(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := invokepb.NewRequest(target, reqcontext.MustFromContext(ctx).RequestID, payload)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	return invokepb.ParseResponse(resp)
}

// Ping reports the connection state without sending a request.
func (g *GRPCInvoker) Ping(ctx context.Context) error {
	if g.conn == nil {
		return nil
	}

	state := g.conn.GetState()
	if state == connectivity.Idle {
		g.conn.Connect()
	}

	switch state {
	case connectivity.Shutdown, connectivity.TransientFailure:
		return fmt.Errorf("%w: %s", ErrUnavailable, state)
	default:
		return nil
	}
}

func (g *GRPCInvoker) Close() error {
	if g.conn == nil {
		return nil
	}

	return g.conn.Close()
}
