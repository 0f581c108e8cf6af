package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/health/models"
	"medbee/internal/health/service"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
)

func (h *Handler) handleListMetrics(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	metrics, err := h.health.ListMetrics(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, metrics, err)
}

func (h *Handler) handleLatestMetrics(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	latest, err := h.health.LatestMetrics(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, latest, err)
}

func (h *Handler) handleMetricsByType(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	metrics, err := h.health.ListMetricsByType(r.Context(), identity.ID, chi.URLParam(r, "type"))
	respond(h, w, r, http.StatusOK, metrics, err)
}

func (h *Handler) handleAddMetric(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.MetricRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.AddMetric(r.Context(), identity.ID, &req)
	respond(h, w, r, http.StatusCreated, m, err)
}

func (h *Handler) handleUpdateMetric(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	metricID, err := pathID(r, service.MsgMetricNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.MetricRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.UpdateMetric(r.Context(), identity.ID, metricID, &req)
	respond(h, w, r, http.StatusOK, m, err)
}

func (h *Handler) handleDeleteMetric(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	metricID, err := pathID(r, service.MsgMetricNotFound)
	if err == nil {
		err = h.health.DeleteMetric(r.Context(), identity.ID, metricID)
	}
	h.writeMessage(w, r, service.MsgMetricDeleted, err)
}
