package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HandlerRequests      *prometheus.CounterVec
	HandlerDuration      *prometheus.HistogramVec
	StepDuration         *prometheus.HistogramVec
	StoreOperations      *prometheus.CounterVec
	StoreDuration        *prometheus.HistogramVec
	FetcherInvocations   *prometheus.CounterVec
	CircuitBreakerStatus *prometheus.GaugeVec
	DependencyHealth     *prometheus.GaugeVec
	ProducerMetrics      *prometheus.CounterVec
	ConsumerMetrics      *prometheus.CounterVec
	FunctionInvocations  *prometheus.CounterVec

	once sync.Once
)

var buckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}

// InitMetrics registers the collectors with the default registry. Tracking
// helpers are no-ops until it runs.
func InitMetrics() {
	once.Do(func() {
		HandlerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_handler_requests_total",
			Help: "Total number of handler invocations by response status code",
		}, []string{"status_code"})

		HandlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanflow_handler_duration_seconds",
			Help:    "Time to handle one invocation in seconds",
			Buckets: buckets,
		}, []string{"status_code"})

		StepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanflow_step_duration_seconds",
			Help:    "Time spent in each orchestration step in seconds",
			Buckets: buckets,
		}, []string{"step", "status"})

		StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_store_operations_total",
			Help: "Total number of record store fetches and commits",
		}, []string{"operation", "status"})

		StoreDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loanflow_store_duration_seconds",
			Help:    "Record store operation latency in seconds",
			Buckets: buckets,
		}, []string{"operation"})

		FetcherInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_fetcher_invocations_total",
			Help: "Total number of remote detail invocations",
		}, []string{"target", "mode", "status"})

		CircuitBreakerStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loanflow_circuit_breaker_status",
			Help: "Circuit breaker status (0=closed, 1=open, 0.5=half-open)",
		}, []string{"name"})

		DependencyHealth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loanflow_dependency_health_status",
			Help: "Health of dependencies (1=healthy, 0=unhealthy)",
		}, []string{"dependency"})

		ProducerMetrics = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_producer_operations_total",
			Help: "Total number of producer operations",
		}, []string{"operation", "status"})

		ConsumerMetrics = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_consumer_operations_total",
			Help: "Total number of consumer operations",
		}, []string{"operation", "status"})

		FunctionInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loanflow_function_invocations_total",
			Help: "Total number of loan-service function executions",
		}, []string{"target", "transport", "status"})

		prometheus.MustRegister(
			HandlerRequests,
			HandlerDuration,
			StepDuration,
			StoreOperations,
			StoreDuration,
			FetcherInvocations,
			CircuitBreakerStatus,
			DependencyHealth,
			ProducerMetrics,
			ConsumerMetrics,
			FunctionInvocations,
		)
	})
}

func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TrackRequest records one handler invocation.
func TrackRequest(statusCode int, seconds float64) {
	code := strconv.Itoa(statusCode)

	if HandlerRequests != nil {
		HandlerRequests.WithLabelValues(code).Inc()
	}

	if HandlerDuration != nil {
		HandlerDuration.WithLabelValues(code).Observe(seconds)
	}
}

func TrackStep(step, status string, seconds float64) {
	if StepDuration != nil {
		StepDuration.WithLabelValues(step, status).Observe(seconds)
	}
}

func TrackStoreOperation(operation string, err error, seconds float64) {
	if StoreOperations != nil {
		StoreOperations.WithLabelValues(operation, Status(err)).Inc()
	}

	if StoreDuration != nil {
		StoreDuration.WithLabelValues(operation).Observe(seconds)
	}
}

func TrackInvocation(target, mode string, err error) {
	if FetcherInvocations != nil {
		FetcherInvocations.WithLabelValues(target, mode, Status(err)).Inc()
	}
}

// UpdateCircuitBreakerStatus updates circuit breaker status metrics
func UpdateCircuitBreakerStatus(name string, state string) {
	if CircuitBreakerStatus == nil {
		return
	}

	var value float64
	switch state {
	case "closed":
		value = 0
	case "open":
		value = 1
	case "half-open":
		value = 0.5
	default:
		value = -1
	}

	CircuitBreakerStatus.WithLabelValues(name).Set(value)
}

func UpdateDependencyHealth(dependency string, healthy bool) {
	if DependencyHealth == nil {
		return
	}

	value := 0.0
	if healthy {
		value = 1.0
	}

	DependencyHealth.WithLabelValues(dependency).Set(value)
}

// TrackProducerOperation tracks producer operations
func TrackProducerOperation(operation, status string) {
	if ProducerMetrics != nil {
		ProducerMetrics.WithLabelValues(operation, status).Inc()
	}
}

// TrackConsumerOperation tracks consumer operations
func TrackConsumerOperation(operation, status string) {
	if ConsumerMetrics != nil {
		ConsumerMetrics.WithLabelValues(operation, status).Inc()
	}
}

func TrackFunction(target, transport string, err error) {
	if FunctionInvocations != nil {
		FunctionInvocations.WithLabelValues(target, transport, Status(err)).Inc()
	}
}
