package handlers

import (
	"net/http"
	"time"

	"mercator-hq/conduit/pkg/proxy"
	"mercator-hq/conduit/pkg/proxy/types"
)

// BackendsHandler reports request outcome statistics for every configured
// backend. Credentials are never included.
type BackendsHandler struct {
	providers ProviderManager
}

// NewBackendsHandler creates a backends report handler.
func NewBackendsHandler(pm ProviderManager) *BackendsHandler {
	return &BackendsHandler{providers: pm}
}

// ServeHTTP implements http.Handler.
func (h *BackendsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		_ = proxy.WriteErrorResponse(w, types.NewErrorResponse(
			http.StatusMethodNotAllowed, "method not allowed", types.CodeMethodNotAllowed))
		return
	}

	resp := types.BackendsResponse{
		Backends:  make(map[string]types.BackendHealth),
		Timestamp: time.Now().Unix(),
	}
	for _, name := range h.providers.GetProviderNames() {
		p, ok := h.providers.GetProvider(name)
		if !ok {
			continue
		}
		cfg := p.GetConfig()
		health := p.GetHealth()
		entry := types.BackendHealth{
			Type:                p.GetType(),
			Model:               cfg.Model,
			Configured:          cfg.Credential != "",
			Healthy:             health.IsHealthy,
			ConsecutiveFailures: health.ConsecutiveFailures,
			TotalRequests:       health.TotalRequests,
			FailedRequests:      health.FailedRequests,
		}
		if !health.LastSuccessfulRequest.IsZero() {
			entry.LastSuccess = health.LastSuccessfulRequest.Unix()
		}
		if health.LastError != nil {
			entry.LastError = health.LastError.Error()
		}
		resp.Backends[name] = entry
	}

	w.Header().Set("Cache-Control", "no-store")
	_ = proxy.WriteJSONResponse(w, http.StatusOK, resp)
}
