package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"halomind/pkg/logger"
)

// StateSource exposes process state sampled at scrape time
type StateSource struct {
	CredentialConfigured func() bool
	StoreHealth          func(ctx context.Context) error
	ActiveChatSessions   func() int
}

// CustomCollector reports orchestrator state gauges
type CustomCollector struct {
	log    *logger.Logger
	source StateSource

	credentialConfigured *prometheus.Desc
	storeUp              *prometheus.Desc
	chatSessions         *prometheus.Desc
}

// NewCustomCollector creates a new custom metrics collector
func NewCustomCollector(log *logger.Logger, source StateSource) *CustomCollector {
	return &CustomCollector{
		log:    log.With("component", "metrics_collector"),
		source: source,

		credentialConfigured: prometheus.NewDesc(
			"halomind_credential_configured",
			"Whether a primary provider credential is set (0/1)",
			nil, nil,
		),
		storeUp: prometheus.NewDesc(
			"halomind_settings_store_up",
			"Whether the settings store answered its health check (0/1)",
			nil, nil,
		),
		chatSessions: prometheus.NewDesc(
			"halomind_chat_sessions_active",
			"Open chat sessions",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *CustomCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.credentialConfigured
	ch <- c.storeUp
	ch <- c.chatSessions
}

// Collect implements prometheus.Collector
func (c *CustomCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if c.source.CredentialConfigured != nil {
		ch <- prometheus.MustNewConstMetric(c.credentialConfigured, prometheus.GaugeValue, boolValue(c.source.CredentialConfigured()))
	}

	if c.source.StoreHealth != nil {
		up := true
		if err := c.source.StoreHealth(ctx); err != nil {
			c.log.Debugw("settings store health check failed", "error", err)
			up = false
		}
		ch <- prometheus.MustNewConstMetric(c.storeUp, prometheus.GaugeValue, boolValue(up))
	}

	if c.source.ActiveChatSessions != nil {
		ch <- prometheus.MustNewConstMetric(c.chatSessions, prometheus.GaugeValue, float64(c.source.ActiveChatSessions()))
	}
}

// RegisterCustomCollector registers the collector with the default registry
func RegisterCustomCollector(collector *CustomCollector) {
	prometheus.MustRegister(collector)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
