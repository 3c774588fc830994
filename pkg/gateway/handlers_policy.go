package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tessera-hq/warden/pkg/policy"
)

func (g *Gateway) handlePolicyList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.policies.List())
}

func (g *Gateway) handlePolicyGet(w http.ResponseWriter, r *http.Request) {
	pol, err := g.policies.Get(chi.URLParam(r, "id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pol)
}

func (g *Gateway) handlePolicyImport(w http.ResponseWriter, r *http.Request) {
	var pol policy.Policy
	if !decodeBody(w, r, &pol) {
		return
	}
	if err := g.policies.Import(r.Context(), &pol); err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.logger.Info("policy imported", "policy_id", pol.PolicyID, "version", pol.Version)
	writeJSON(w, http.StatusCreated, &pol)
}

func (g *Gateway) handlePolicyUpdate(w http.ResponseWriter, r *http.Request) {
	var pol policy.Policy
	if !decodeBody(w, r, &pol) {
		return
	}
	policyID := chi.URLParam(r, "id")
	if err := g.policies.Update(r.Context(), policyID, &pol); err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.logger.Info("policy updated", "policy_id", policyID, "version", pol.Version)
	writeJSON(w, http.StatusOK, &pol)
}

func (g *Gateway) handlePolicyDelete(w http.ResponseWriter, r *http.Request) {
	policyID := chi.URLParam(r, "id")
	if err := g.policies.Delete(r.Context(), policyID); err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.logger.Info("policy deleted", "policy_id", policyID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type validateResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []policy.ValidationIssue `json:"errors"`
}

// handlePolicyValidate checks a candidate document without persisting it.
// The path id wins over any policy_id in the body.
func (g *Gateway) handlePolicyValidate(w http.ResponseWriter, r *http.Request) {
	var pol policy.Policy
	if !decodeBody(w, r, &pol) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		pol.PolicyID = id
	}

	issues := policy.ValidatePolicy(&pol)
	if issues == nil {
		issues = []policy.ValidationIssue{}
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: len(issues) == 0, Errors: issues})
}

type ruleTestRequest struct {
	Request map[string]any `json:"request"`
}

func (g *Gateway) handleRuleTest(w http.ResponseWriter, r *http.Request) {
	var req ruleTestRequest
	if !decodeBody(w, r, &req) {
		return
	}

	report, err := g.orch.TestRule(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "rid"), req.Request)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
