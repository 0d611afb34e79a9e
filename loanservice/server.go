package loanservice

import (
	"context"
	"errors"

	"github.com/osamikoyo/loanflow/invokepb"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const transportGRPC = "grpc"

type Server struct {
	invokepb.UnimplementedInvokerServer

	registry *Registry
	logger   *logger.Logger
}

func NewServer(registry *Registry, logger *logger.Logger) *Server {
	return &Server{
		registry: registry,
		logger:   logger,
	}
}

func (s *Server) Invoke(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := invokepb.ParseRequest(in)
	if err != nil {
		s.logger.Error("received invalid invocation", zap.Error(err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rc := reqcontext.NewRequestContextWithCorrelationID(transportGRPC, req.RequestID)
	ctx = reqcontext.WithRequestContext(ctx, rc)
	log := rc.ContextLogger(s.logger)

	out, err := s.registry.Call(ctx, req.Target, req.Payload)
	metrics.TrackFunction(req.Target, transportGRPC, err)

	if err != nil {
		if errors.Is(err, ErrUnknownFunction) {
			log.Warn("function not found", zap.String("target", req.Target))
			return nil, status.Error(codes.NotFound, err.Error())
		}

		log.Error("function failed",
			zap.String("target", req.Target),
			zap.Error(err))

		return nil, status.Error(codes.Internal, err.Error())
	}

	resp, err := invokepb.NewResponse(out)
	if err != nil {
		log.Error("failed encode function result",
			zap.String("target", req.Target),
			zap.Error(err))

		return nil, status.Error(codes.Internal, err.Error())
	}

	log.Info("function invoked",
		zap.String("target", req.Target),
		zap.Bool("has_result", out != nil))

	return resp, nil
}
