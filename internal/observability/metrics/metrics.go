package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esante_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esante_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esante_store_operations_total",
		Help: "Key-value store operations by kind and result",
	}, []string{"op", "result"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esante_store_operation_duration_seconds",
		Help:    "Duration of key-value store operations",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op"})

	repositoryMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esante_repository_mutations_total",
		Help: "Collection mutations by collection, operation and result",
	}, []string{"collection", "op", "result"})

	collectionSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "esante_collection_size",
		Help: "Number of entities stored per collection",
	}, []string{"collection"})

	activeTreatments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esante_active_treatments",
		Help: "Number of treatments with status actif",
	})

	todayAppointments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esante_today_appointments",
		Help: "Number of appointments dated today",
	})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esante_store_breaker_transitions_total",
		Help: "Store circuit breaker state changes",
	}, []string{"to"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveStoreOperation records a get/set against the store backend
func ObserveStoreOperation(op, result string, duration time.Duration) {
	storeOperations.WithLabelValues(op, result).Inc()
	storeDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveMutation counts an add/update on a collection
func ObserveMutation(collection, op, result string) {
	repositoryMutations.WithLabelValues(collection, op, result).Inc()
}

// SetCollectionSize sets the entity count gauge of a collection
func SetCollectionSize(collection string, n int) {
	collectionSize.WithLabelValues(collection).Set(float64(n))
}

// SetActiveTreatments sets the active treatment gauge
func SetActiveTreatments(n int) {
	activeTreatments.Set(float64(n))
}

// SetTodayAppointments sets the gauge of appointments dated today
func SetTodayAppointments(n int) {
	todayAppointments.Set(float64(n))
}

// ObserveBreakerTransition counts a store circuit breaker state change
func ObserveBreakerTransition(to string) {
	breakerTransitions.WithLabelValues(to).Inc()
}
