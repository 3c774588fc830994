package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tessera-hq/warden/pkg/routing"
)

func (g *Gateway) handlePoolList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.orch.Routes().ListPools())
}

func (g *Gateway) handleTargetList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.orch.Routes().ListTargets())
}

func (g *Gateway) handlePoolTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := g.orch.Routes().TargetsForPool(chi.URLParam(r, "id"))
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, targets)
}

func (g *Gateway) handleRouteSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.orch.Stats().Summary())
}

func (g *Gateway) handleRoutePaths(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.orch.Stats().Paths())
}

type previewRequest struct {
	Preferences *routing.Preference `json:"preferences"`
}

func (g *Gateway) handlePreviewRanking(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ranked, err := g.orch.PreviewRanking(chi.URLParam(r, "id"), req.Preferences)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (g *Gateway) handleRouteExecute(w http.ResponseWriter, r *http.Request) {
	var req routing.Request
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := g.orch.ExecuteRoute(r.Context(), &req)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
