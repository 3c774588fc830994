package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Decisions(t *testing.T) {
	c := NewCollector()
	c.ObserveDecision("cdr-compliance", "BLOCK", 5*time.Millisecond)
	c.ObserveDecision("cdr-compliance", "BLOCK", 2*time.Millisecond)
	c.ObserveDecision("cdr-compliance", "ALLOW", time.Millisecond)

	if got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("cdr-compliance", "BLOCK")); got != 2 {
		t.Errorf("BLOCK count = %v; want 2", got)
	}
	if got := testutil.ToFloat64(c.decisionsTotal.WithLabelValues("cdr-compliance", "ALLOW")); got != 1 {
		t.Errorf("ALLOW count = %v; want 1", got)
	}
}

func TestCollector_AuditChainGauge(t *testing.T) {
	c := NewCollector()
	c.ObserveAuditAppend(1)
	c.ObserveAuditAppend(2)
	c.ObserveAuditAppend(3)

	if got := testutil.ToFloat64(c.auditEntriesTotal); got != 3 {
		t.Errorf("entries = %v; want 3", got)
	}
	if got := testutil.ToFloat64(c.auditChainLength); got != 3 {
		t.Errorf("chain length = %v; want 3", got)
	}
}

func TestCollector_HTTPCodeBuckets(t *testing.T) {
	c := NewCollector()
	c.ObserveHTTPRequest("/api/evaluate", 200, time.Millisecond)
	c.ObserveHTTPRequest("/api/evaluate", 204, time.Millisecond)
	c.ObserveHTTPRequest("/api/evaluate", 403, time.Millisecond)
	c.ObserveHTTPRequest("/api/evaluate", 500, time.Millisecond)

	if got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("/api/evaluate", "2xx")); got != 2 {
		t.Errorf("2xx = %v; want 2", got)
	}
	if got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("/api/evaluate", "4xx")); got != 1 {
		t.Errorf("4xx = %v; want 1", got)
	}
	if got := testutil.ToFloat64(c.httpRequestsTotal.WithLabelValues("/api/evaluate", "5xx")); got != 1 {
		t.Errorf("5xx = %v; want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.ObserveRoutingSelection("au-pool", "gardenA")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "warden_routing_selections_total") {
		t.Error("exposition missing warden_routing_selections_total")
	}
}
