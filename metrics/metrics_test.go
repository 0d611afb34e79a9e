package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	if HandlerRequests != nil {
		t.Skip("metrics already initialised by another test")
	}

	assert.NotPanics(t, func() {
		TrackRequest(200, 0.1)
		TrackStep("fetch_user_details", "ok", 0.1)
		TrackStoreOperation("fetch", nil, 0.1)
		TrackInvocation("los-dev-get_loan_details", "RequestResponse", nil)
		UpdateCircuitBreakerStatus("fetcher", "open")
		UpdateDependencyHealth("store", true)
		TrackProducerOperation("publish", "ok")
		TrackConsumerOperation("consume", "ok")
		TrackFunction("los-dev-get_loan_details", "grpc", nil)
	})
}

func TestTracking(t *testing.T) {
	InitMetrics()
	InitMetrics()

	TrackRequest(404, 0.2)
	assert.Equal(t, 1.0, testutil.ToFloat64(HandlerRequests.WithLabelValues("404")))

	TrackStoreOperation("commit", errors.New("x"), 0.01)
	assert.Equal(t, 1.0, testutil.ToFloat64(StoreOperations.WithLabelValues("commit", "error")))

	UpdateCircuitBreakerStatus("fetcher", "half-open")
	assert.Equal(t, 0.5, testutil.ToFloat64(CircuitBreakerStatus.WithLabelValues("fetcher")))

	UpdateDependencyHealth("store", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(DependencyHealth.WithLabelValues("store")))
}
