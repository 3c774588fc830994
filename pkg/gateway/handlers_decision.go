package gateway

import (
	"net/http"

	"tessera-hq/warden/pkg/decision"
)

type evaluateRequest struct {
	PolicyID string         `json:"policy_id"`
	Request  map[string]any `json:"request"`
}

func (g *Gateway) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PolicyID == "" {
		writeError(w, CodeValidation, "policy_id is required", nil)
		return
	}

	result, err := g.orch.Evaluate(r.Context(), req.PolicyID, req.Request)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *Gateway) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PolicyID == "" {
		writeError(w, CodeValidation, "policy_id is required", nil)
		return
	}

	result, err := g.orch.Simulate(r.Context(), req.PolicyID, req.Request)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (g *Gateway) handleOverrideExecute(w http.ResponseWriter, r *http.Request) {
	var req decision.OverrideRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PolicyID == "" || req.RuleID == "" {
		writeError(w, CodeValidation, "policy_id and rule_id are required", nil)
		return
	}
	if req.ActorID == "" {
		if claims := ClaimsFromContext(r.Context()); claims != nil {
			req.ActorID = claims.Subject
		}
	}

	resp, err := g.orch.ExecuteOverride(r.Context(), &req)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
