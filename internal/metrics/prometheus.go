package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Provider call metrics
	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_provider_calls_total",
			Help: "Total number of generative provider calls",
		},
		[]string{"provider", "operation", "status"}, // status: success|error
	)

	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "halomind_provider_latency_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)

	ProviderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_provider_errors_total",
			Help: "Provider errors by classified kind",
		},
		[]string{"provider", "kind"},
	)

	// Resilience metrics
	Retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_retries_total",
			Help: "Retry waits scheduled against the primary provider",
		},
		[]string{"operation"},
	)

	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_fallbacks_total",
			Help: "Fallback provider invocations",
		},
		[]string{"operation", "status"}, // status: success|error|skipped
	)

	// Streaming metrics
	StreamChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_stream_chunks_total",
			Help: "Text chunks relayed from streaming responses",
		},
		[]string{"provider"},
	)

	MalformedFrames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "halomind_sse_malformed_frames_total",
			Help: "Server-sent event frames skipped because they did not decode",
		},
	)

	// Usage metrics
	Tokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_tokens_total",
			Help: "Tokens consumed",
		},
		[]string{"provider", "model", "type"}, // type: input|output
	)

	Cost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_cost_usd_total",
			Help: "Estimated generation cost in USD",
		},
		[]string{"provider", "model"},
	)

	// Structured output metrics
	ParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_parse_failures_total",
			Help: "Structured responses that could not be interpreted",
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "halomind_http_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"route", "code"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(ProviderCalls)
	prometheus.MustRegister(ProviderLatency)
	prometheus.MustRegister(ProviderErrors)

	prometheus.MustRegister(Retries)
	prometheus.MustRegister(Fallbacks)

	prometheus.MustRegister(StreamChunks)
	prometheus.MustRegister(MalformedFrames)

	prometheus.MustRegister(Tokens)
	prometheus.MustRegister(Cost)
	prometheus.MustRegister(ParseFailures)

	prometheus.MustRegister(HTTPRequests)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordProviderCall records a single provider attempt
func RecordProviderCall(provider, operation string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	ProviderCalls.WithLabelValues(provider, operation, status).Inc()
	ProviderLatency.WithLabelValues(provider, operation).Observe(latency.Seconds())
}

// RecordProviderError records a classified provider failure
func RecordProviderError(provider, kind string) {
	ProviderErrors.WithLabelValues(provider, kind).Inc()
}

// RecordRetry records a scheduled retry wait
func RecordRetry(operation string) {
	Retries.WithLabelValues(operation).Inc()
}

// RecordFallback records the outcome of a fallback decision
func RecordFallback(operation, status string) {
	Fallbacks.WithLabelValues(operation, status).Inc()
}

// RecordUsage records token usage and cost
func RecordUsage(provider, model string, inputTokens, outputTokens int64, costUSD float64) {
	if inputTokens > 0 {
		Tokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		Tokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
	if costUSD > 0 {
		Cost.WithLabelValues(provider, model).Add(costUSD)
	}
}

// RecordStreamChunk records one relayed text chunk
func RecordStreamChunk(provider string) {
	StreamChunks.WithLabelValues(provider).Inc()
}

// RecordMalformedFrame records a skipped SSE frame
func RecordMalformedFrame() {
	MalformedFrames.Inc()
}

// RecordParseFailure records a structured response that parsed to nothing
func RecordParseFailure(operation string) {
	ParseFailures.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records a served API request
func RecordHTTPRequest(route string, code int) {
	HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
