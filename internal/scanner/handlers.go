package scanner

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ravenshaw3/watch-media-server/internal/httputil"
)

type Handler struct {
	orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{orch: orch}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.requestScan)
	r.Get("/status", h.status)
	r.Post("/cancel", h.cancel)
	return r
}

func (h *Handler) requestScan(w http.ResponseWriter, r *http.Request) {
	result := h.orch.RequestScan()
	if result == RequestAlreadyRunning {
		httputil.WriteError(w, http.StatusConflict, "ALREADY_RUNNING", "a scan is already in progress")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"scan": string(result)})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"job": h.orch.Status(),
	}
	if last := h.orch.LastSummary(); last != nil {
		resp["last_result"] = last
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	if !h.orch.Cancel() {
		httputil.WriteError(w, http.StatusConflict, "NOT_RUNNING", "no scan in progress")
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}
