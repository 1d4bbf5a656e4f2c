package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Message metrics
	messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glados_bot_messages_received_total",
		Help: "Total number of chat messages received",
	})

	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glados_bot_rejections_total",
		Help: "Total number of messages rejected by the rate gate",
	}, []string{"reason"}) // reason: "busy" or "cooldown"

	// Generation metrics
	activeGenerations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "glados_bot_active_generations",
		Help: "Number of voice generations in flight",
	})

	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glados_bot_generations_total",
		Help: "Total number of voice generations",
	}, []string{"status"})

	generationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glados_bot_generation_latency_seconds",
		Help:    "End to end voice generation latency in seconds",
		Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
	})

	// Delivery metrics
	voiceBytesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glados_bot_voice_bytes_delivered_total",
		Help: "Total voice payload bytes delivered",
	})

	deliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "glados_bot_delivery_failures_total",
		Help: "Total voice deliveries that failed after a successful generation",
	})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "glados_bot_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// RecordMessageReceived counts an incoming chat message
func RecordMessageReceived() {
	messagesReceived.Inc()
}

// RecordRejection counts a message turned away by the rate gate
func RecordRejection(reason string) {
	rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordGenerationStart marks a generation as in flight
func RecordGenerationStart() {
	activeGenerations.Inc()
}

// RecordGenerationEnd records the outcome and latency of a generation
func RecordGenerationEnd(success bool, duration time.Duration) {
	activeGenerations.Dec()
	generationLatency.Observe(duration.Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	generationsTotal.WithLabelValues(status).Inc()
}

// RecordVoiceBytesDelivered records a delivered voice payload size
func RecordVoiceBytesDelivered(bytes int) {
	voiceBytesDelivered.Add(float64(bytes))
}

// RecordDeliveryFailure counts a send failure after generation succeeded
func RecordDeliveryFailure() {
	deliveryFailures.Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
