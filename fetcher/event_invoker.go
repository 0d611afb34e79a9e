package fetcher

import (
	"context"

	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/models"
	"github.com/osamikoyo/loanflow/reqcontext"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, inv *models.Invocation) error
}

// EventInvoker publishes the invocation and does not wait for a result,
// so a successful call always yields a nil payload.
type EventInvoker struct {
	publisher Publisher
	logger    *logger.Logger
}

func NewEventInvoker(publisher Publisher, logger *logger.Logger) *EventInvoker {
	return &EventInvoker{
		publisher: publisher,
		logger:    logger,
	}
}

func (e *EventInvoker) Invoke(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	if target == "" {
		return nil, apperrors.ErrEmptyTarget
	}

	inv := models.NewInvocation(target, payload, reqcontext.MustFromContext(ctx).RequestID)

	if err := e.publisher.Publish(ctx, inv); err != nil {
		return nil, err
	}

	e.logger.Info("invocation published", zap.String("target", target))

	return nil, nil
}
