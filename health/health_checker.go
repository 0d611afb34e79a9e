package health

import (
	"context"
	"sync"
	"time"

	"github.com/osamikoyo/loanflow/logger"
	"github.com/osamikoyo/loanflow/metrics"
	"go.uber.org/zap"
)

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// DependencyHealth represents the health status of a dependency
type DependencyHealth struct {
	Name        string    `json:"name"`
	IsHealthy   bool      `json:"healthy"`
	LastChecked time.Time `json:"last_checked"`
	Error       string    `json:"error,omitempty"`
}

// HealthChecker probes dependencies on an interval.
type HealthChecker struct {
	probes   map[string]Probe
	statuses map[string]*DependencyHealth
	mu       sync.RWMutex
	logger   *logger.Logger
	interval time.Duration
	timeout  time.Duration
	onUpdate func(healthy bool)
}

func NewHealthChecker(
	probes map[string]Probe,
	logger *logger.Logger,
	interval time.Duration,
	timeout time.Duration,
) *HealthChecker {
	hc := &HealthChecker{
		probes:   probes,
		statuses: make(map[string]*DependencyHealth),
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}

	// healthy until proven otherwise
	for name := range probes {
		hc.statuses[name] = &DependencyHealth{
			Name:      name,
			IsHealthy: true,
		}
	}

	return hc
}

// Start checks every dependency immediately and then on each tick.
func (hc *HealthChecker) Start(ctx context.Context) {
	hc.logger.Info("starting health checker",
		zap.Duration("interval", hc.interval),
		zap.Duration("timeout", hc.timeout),
		zap.Int("dependencies", len(hc.probes)))

	ticker := time.NewTicker(hc.interval)
	defer ticker.Stop()

	hc.CheckAll(ctx)

	for {
		select {
		case <-ctx.Done():
			hc.logger.Info("health checker stopped")
			return
		case <-ticker.C:
			hc.CheckAll(ctx)
		}
	}
}

func (hc *HealthChecker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup

	for name, probe := range hc.probes {
		wg.Add(1)
		go func(name string, probe Probe) {
			defer wg.Done()
			hc.check(ctx, name, probe)
		}(name, probe)
	}

	wg.Wait()
	hc.updateMetrics()

	if hc.onUpdate != nil {
		hc.onUpdate(hc.Healthy())
	}
}

// OnUpdate registers fn to run after every round of checks. Call it before
// Start.
func (hc *HealthChecker) OnUpdate(fn func(healthy bool)) {
	hc.onUpdate = fn
}

func (hc *HealthChecker) check(ctx context.Context, name string, probe Probe) {
	checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	startTime := time.Now()
	err := probe(checkCtx)
	duration := time.Since(startTime)

	isHealthy := err == nil

	hc.mu.Lock()
	defer hc.mu.Unlock()

	status, exists := hc.statuses[name]
	if !exists {
		return
	}

	previousHealth := status.IsHealthy
	status.IsHealthy = isHealthy
	status.LastChecked = time.Now()
	status.Error = ""
	if err != nil {
		status.Error = err.Error()
	}

	if previousHealth != isHealthy {
		if isHealthy {
			hc.logger.Info("dependency became healthy",
				zap.String("dependency", name),
				zap.Duration("check_duration", duration))
		} else {
			hc.logger.Warn("dependency became unhealthy",
				zap.String("dependency", name),
				zap.Error(err),
				zap.Duration("check_duration", duration))
		}
	}
}

func (hc *HealthChecker) updateMetrics() {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	for name, status := range hc.statuses {
		metrics.UpdateDependencyHealth(name, status.IsHealthy)
	}
}

// Healthy is true when every dependency passed its last check.
func (hc *HealthChecker) Healthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	for _, status := range hc.statuses {
		if !status.IsHealthy {
			return false
		}
	}

	return true
}

// Statuses returns copies of the current statuses.
func (hc *HealthChecker) Statuses() map[string]DependencyHealth {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	result := make(map[string]DependencyHealth, len(hc.statuses))
	for name, status := range hc.statuses {
		result[name] = *status
	}

	return result
}
