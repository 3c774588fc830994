package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"tessera-hq/warden/pkg/audit"
)

// handleAuditList supports from/to (RFC 3339), org_id, rule_id, effect,
// limit, and offset query parameters.
func (g *Gateway) handleAuditList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		OrgID:  q.Get("org_id"),
		RuleID: q.Get("rule_id"),
		Effect: q.Get("effect"),
	}
	if raw := q.Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, CodeValidation, "from must be an RFC 3339 timestamp", nil)
			return
		}
		filter.From = ts
	}
	if raw := q.Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, CodeValidation, "to must be an RFC 3339 timestamp", nil)
			return
		}
		filter.To = ts
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, CodeValidation, "limit must be a non-negative integer", nil)
			return
		}
		filter.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, CodeValidation, "offset must be a non-negative integer", nil)
			return
		}
		filter.Offset = n
	}

	entries, err := g.auditLog.List(r.Context(), filter)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (g *Gateway) handleAuditGet(w http.ResponseWriter, r *http.Request) {
	entry, err := g.auditLog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (g *Gateway) handleAuditProof(w http.ResponseWriter, r *http.Request) {
	proof, err := g.auditLog.GetLatestProof(r.Context())
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, proof)
}

func (g *Gateway) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	report, err := g.auditLog.VerifyIntegrity(r.Context())
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
