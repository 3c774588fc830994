package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"tessera-hq/warden/pkg/audit"
	"tessera-hq/warden/pkg/decision"
	"tessera-hq/warden/pkg/policy"
	"tessera-hq/warden/pkg/routing"
	"tessera-hq/warden/pkg/telemetry/health"
	"tessera-hq/warden/pkg/telemetry/metrics"
)

// maxBodyBytes caps request bodies; decision payloads are small JSON
// documents.
const maxBodyBytes = 1 << 20

// Options configures the HTTP surface.
type Options struct {
	Auth               *Authenticator
	CORSAllowedOrigins []string
	MetricsPath        string
	MetricsEnabled     bool
}

// Gateway wires the HTTP surface to the decision orchestrator and the
// registries behind it.
type Gateway struct {
	orch      *decision.Orchestrator
	policies  *policy.Registry
	auditLog  *audit.Log
	checker   *health.Checker
	collector *metrics.Collector
	opts      Options
	logger    *slog.Logger
}

// New builds the gateway. The collector and checker may be nil when
// metrics or health checks are not wired.
func New(orch *decision.Orchestrator, policies *policy.Registry, auditLog *audit.Log, checker *health.Checker, collector *metrics.Collector, opts Options, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		orch:      orch,
		policies:  policies,
		auditLog:  auditLog,
		checker:   checker,
		collector: collector,
		opts:      opts,
		logger:    logger.With("component", "gateway"),
	}
}

// Router assembles the full route tree with its middleware chain.
func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(g.logger, g.collector))
	r.Use(recoverer(g.logger))
	if len(g.opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   g.opts.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", g.handleHealth)
	r.Get("/ready", g.handleReady)
	if g.opts.MetricsEnabled && g.collector != nil {
		path := g.opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method("GET", path, g.collector.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if g.opts.Auth != nil {
			api.Use(g.opts.Auth.Middleware)
		}

		api.Post("/evaluate", g.handleEvaluate)
		api.Post("/evaluate/simulate", g.handleSimulate)

		api.With(requireCapability(CapManageOverrides)).
			Post("/overrides/execute", g.handleOverrideExecute)

		api.Route("/policies", func(pr chi.Router) {
			pr.Get("/", g.handlePolicyList)
			pr.Get("/{id}", g.handlePolicyGet)
			pr.With(requireCapability(CapPublishRules)).Post("/import", g.handlePolicyImport)
			pr.With(requireCapability(CapPublishRules)).Put("/{id}", g.handlePolicyUpdate)
			pr.With(requireCapability(CapManageSettings)).Delete("/{id}", g.handlePolicyDelete)
			pr.Post("/{id}/validate", g.handlePolicyValidate)
			pr.With(requireCapability(CapSimulate)).Post("/{id}/rules/{rid}/test", g.handleRuleTest)
		})

		api.Route("/audit", func(ar chi.Router) {
			ar.Get("/", g.handleAuditList)
			ar.Get("/proof/latest", g.handleAuditProof)
			ar.With(requireCapability(CapManageSettings)).Post("/verify", g.handleAuditVerify)
			ar.Get("/{id}", g.handleAuditGet)
		})

		api.Route("/routes", func(rr chi.Router) {
			rr.With(requireCapability(CapRead)).Get("/pools", g.handlePoolList)
			rr.With(requireCapability(CapRead)).Get("/targets", g.handleTargetList)
			rr.With(requireCapability(CapRead)).Get("/pools/{id}/targets", g.handlePoolTargets)
			rr.With(requireCapability(CapRead)).Get("/metrics/summary", g.handleRouteSummary)
			rr.With(requireCapability(CapRead)).Get("/metrics/paths", g.handleRoutePaths)
			rr.With(requireCapability(CapRead)).Post("/pools/{id}/preview-ranking", g.handlePreviewRanking)
			rr.Post("/execute", g.handleRouteExecute)
		})
	})

	return r
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	if g.checker == nil {
		writeJSON(w, http.StatusOK, health.Status{Status: health.StatusOK})
		return
	}
	writeJSON(w, http.StatusOK, g.checker.Liveness())
}

func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if g.checker == nil {
		writeJSON(w, http.StatusOK, health.Status{Status: health.StatusOK})
		return
	}
	st := g.checker.Readiness(r.Context())
	status := http.StatusOK
	if st.Status != health.StatusOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

// decodeBody parses a JSON request body into dst with a size cap.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, CodeValidation, "request body is required", nil)
			return false
		}
		writeError(w, CodeValidation, "malformed JSON body: "+err.Error(), nil)
		return false
	}
	return true
}

// writeDomainError maps errors from the core packages onto the envelope.
func (g *Gateway) writeDomainError(w http.ResponseWriter, err error) {
	var (
		overrideErr   *decision.OverrideError
		validationErr *policy.ValidationError
		noCandidates  *routing.NoCandidatesError
	)
	switch {
	case decision.IsNotFound(err):
		writeError(w, CodeNotFound, err.Error(), nil)
	case errors.Is(err, audit.ErrEntryNotFound), errors.Is(err, audit.ErrEmptyLog):
		writeError(w, CodeNotFound, err.Error(), nil)
	case errors.As(err, &overrideErr):
		writeError(w, CodeForbidden, overrideErr.Message, map[string]string{"code": overrideErr.Code})
	case errors.As(err, &validationErr):
		writeError(w, CodeValidation, "policy validation failed", validationErr.Issues)
	case errors.As(err, &noCandidates), errors.Is(err, routing.ErrNoPool):
		writeError(w, CodeRouting, err.Error(), nil)
	case errors.Is(err, policy.ErrPolicyExists):
		writeError(w, CodeConflict, err.Error(), nil)
	default:
		g.logger.Error("request failed", "error", err)
		writeError(w, CodeInternal, "internal server error", nil)
	}
}
