package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/osamikoyo/loanflow/config"
	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"go.uber.org/zap"
)

var (
	ErrOpen     = errors.New("circuit breaker is open")
	ErrHalfOpen = errors.New("circuit breaker is half-open")
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type Config struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int
	// ResetTimeout is how long the circuit stays open before probing.
	ResetTimeout time.Duration
	// HalfOpenMaxRequests caps concurrent probes while half-open.
	HalfOpenMaxRequests int
	// SuccessThreshold is the number of probe successes that closes the circuit.
	SuccessThreshold int
}

func DefaultConfig() Config {
	return Config{
		MaxFailures:         5,
		ResetTimeout:        60 * time.Second,
		HalfOpenMaxRequests: 3,
		SuccessThreshold:    2,
	}
}

// FromConfig fills unset yaml values with defaults.
func FromConfig(cfg config.BreakerConfig) Config {
	out := DefaultConfig()

	if cfg.MaxFailures > 0 {
		out.MaxFailures = cfg.MaxFailures
	}
	if cfg.ResetTimeout.Duration > 0 {
		out.ResetTimeout = cfg.ResetTimeout.Duration
	}
	if cfg.HalfOpenMaxRequests > 0 {
		out.HalfOpenMaxRequests = cfg.HalfOpenMaxRequests
	}
	if cfg.SuccessThreshold > 0 {
		out.SuccessThreshold = cfg.SuccessThreshold
	}

	return out
}

// CircuitBreaker guards calls to a remote dependency.
type CircuitBreaker struct {
	config          Config
	state           State
	failures        int
	inFlight        int
	successes       int
	lastStateChange time.Time
	mu              sync.Mutex
	logger          *logger.Logger
	name            string
	now             func() time.Time
}

func New(name string, config Config, logger *logger.Logger) *CircuitBreaker {
	cb := &CircuitBreaker{
		config:          config,
		state:           StateClosed,
		lastStateChange: time.Now(),
		logger:          logger,
		name:            name,
		now:             time.Now,
	}

	metrics.UpdateCircuitBreakerStatus(name, StateClosed.String())

	return cb
}

// Execute runs fn when the breaker admits the call. Errors caused by ctx
// cancellation do not count as failures.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)

	cb.record(err, ctx.Err() != nil)

	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.lastStateChange) < cb.config.ResetTimeout {
			return fmt.Errorf("%w: %s", ErrOpen, cb.name)
		}
		cb.setState(StateHalfOpen)
		cb.successes = 0
		cb.inFlight = 0
	}

	if cb.inFlight >= cb.config.HalfOpenMaxRequests {
		return fmt.Errorf("%w: %s (max requests exceeded)", ErrHalfOpen, cb.name)
	}
	cb.inFlight++

	return nil
}

func (cb *CircuitBreaker) record(err error, cancelled bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.inFlight > 0 {
		cb.inFlight--
	}

	if err != nil && cancelled {
		return
	}

	if err == nil {
		cb.failures = 0

		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.setState(StateClosed)
			}
		}

		return
	}

	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(newState State) {
	if cb.state == newState {
		return
	}

	oldState := cb.state
	cb.state = newState
	cb.lastStateChange = cb.now()

	if newState == StateClosed {
		cb.failures = 0
		cb.successes = 0
		cb.inFlight = 0
	}

	metrics.UpdateCircuitBreakerStatus(cb.name, newState.String())

	cb.logger.Info("circuit breaker state changed",
		zap.String("name", cb.name),
		zap.String("old_state", oldState.String()),
		zap.String("new_state", newState.String()),
		zap.Int("failures", cb.failures))
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setState(StateClosed)
	cb.failures = 0
}
