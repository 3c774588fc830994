package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warden"

// Collector owns the metric registry and every instrument the gateway
// emits. A single Collector is shared across components.
type Collector struct {
	registry *prometheus.Registry

	decisionsTotal     *prometheus.CounterVec
	decisionDuration   *prometheus.HistogramVec
	ruleMatchesTotal   *prometheus.CounterVec
	overridesTotal     *prometheus.CounterVec
	routingSelections  *prometheus.CounterVec
	routingFailures    *prometheus.CounterVec
	auditEntriesTotal  prometheus.Counter
	auditChainLength   prometheus.Gauge
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewCollector creates the registry, registers every instrument plus the
// standard Go and process collectors, and returns the collector.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Policy decisions by policy and effect.",
		}, []string{"policy_id", "effect"}),
		decisionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "End-to-end decision latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"policy_id"}),
		ruleMatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Rule matches by policy and rule.",
		}, []string{"policy_id", "rule_id"}),
		overridesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_total",
			Help:      "Override executions by outcome.",
		}, []string{"outcome"}),
		routingSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_selections_total",
			Help:      "Routing selections by pool and target.",
		}, []string{"pool_id", "target_id"}),
		routingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_failures_total",
			Help:      "Routing failures by pool.",
		}, []string{"pool_id"}),
		auditEntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_total",
			Help:      "Audit entries appended since start.",
		}),
		auditChainLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_chain_length",
			Help:      "Current length of the audit hash chain.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.decisionsTotal,
		c.decisionDuration,
		c.ruleMatchesTotal,
		c.overridesTotal,
		c.routingSelections,
		c.routingFailures,
		c.auditEntriesTotal,
		c.auditChainLength,
		c.httpRequestsTotal,
		c.httpDuration,
	)
	return c
}

// Handler returns the scrape endpoint for the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) ObserveDecision(policyID, effect string, elapsed time.Duration) {
	c.decisionsTotal.WithLabelValues(policyID, effect).Inc()
	c.decisionDuration.WithLabelValues(policyID).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveRuleMatch(policyID, ruleID string) {
	c.ruleMatchesTotal.WithLabelValues(policyID, ruleID).Inc()
}

func (c *Collector) ObserveOverride(outcome string) {
	c.overridesTotal.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRoutingSelection(poolID, targetID string) {
	c.routingSelections.WithLabelValues(poolID, targetID).Inc()
}

func (c *Collector) ObserveRoutingFailure(poolID string) {
	c.routingFailures.WithLabelValues(poolID).Inc()
}

func (c *Collector) ObserveAuditAppend(chainLength int64) {
	c.auditEntriesTotal.Inc()
	c.auditChainLength.Set(float64(chainLength))
}

func (c *Collector) ObserveHTTPRequest(route string, code int, elapsed time.Duration) {
	c.httpRequestsTotal.WithLabelValues(route, codeLabel(code)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func codeLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
