// Package fetcher invokes loan-service functions by their stage-scoped name.
package fetcher

import (
	"context"
	"fmt"

	"github.com/osamikoyo/loanflow/circuitbreaker"
	"github.com/osamikoyo/loanflow/config"
	apperrors "github.com/osamikoyo/loanflow/errors"
	"github.com/osamikoyo/loanflow/loans"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"go.uber.org/zap"
)

type Mode string

const (
	RequestResponse Mode = config.ModeRequestResponse
	Event           Mode = config.ModeEvent
)

// Invoker delivers a payload to a named target. A nil result with a nil
// error means the target produced nothing.
type Invoker interface {
	Invoke(ctx context.Context, target string, payload map[string]any) (map[string]any, error)
}

type Fetcher struct {
	stage    string
	invokers map[Mode]Invoker
	breaker  *circuitbreaker.CircuitBreaker
	logger   *logger.Logger
}

func New(stage string, invokers map[Mode]Invoker, breaker *circuitbreaker.CircuitBreaker, logger *logger.Logger) *Fetcher {
	return &Fetcher{
		stage:    stage,
		invokers: invokers,
		breaker:  breaker,
		logger:   logger,
	}
}

// Invoke calls function los-<stage>-<function> with the given mode.
func (f *Fetcher) Invoke(ctx context.Context, function string, payload map[string]any, mode Mode) (map[string]any, error) {
	target := loans.TargetName(f.stage, function)

	invoker, ok := f.invokers[mode]
	if !ok || invoker == nil {
		err := fmt.Errorf("%w: %s", apperrors.ErrNoInvoker, mode)
		metrics.TrackInvocation(target, string(mode), err)
		return nil, err
	}

	var result map[string]any

	call := func(ctx context.Context) error {
		var err error
		result, err = invoker.Invoke(ctx, target, payload)
		return err
	}

	var err error
	if f.breaker != nil {
		err = f.breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}

	metrics.TrackInvocation(target, string(mode), err)

	if err != nil {
		f.logger.Error("failed invoke function",
			zap.String("target", target),
			zap.String("mode", string(mode)),
			zap.Error(err))

		return nil, err
	}

	f.logger.Debug("function invoked",
		zap.String("target", target),
		zap.String("mode", string(mode)),
		zap.Bool("has_result", result != nil))

	return result, nil
}
