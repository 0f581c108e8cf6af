package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/health/models"
	"medbee/internal/health/service"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
)

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	records, err := h.health.ListRecords(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, records, err)
}

func (h *Handler) handleSearchRecords(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	records, err := h.health.SearchRecords(r.Context(), identity.ID, r.URL.Query().Get("query"))
	respond(h, w, r, http.StatusOK, records, err)
}

func (h *Handler) handleRecordsByCategory(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	records, err := h.health.ListRecordsByCategory(r.Context(), identity.ID, chi.URLParam(r, "category"))
	respond(h, w, r, http.StatusOK, records, err)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	recordID, err := pathID(r, service.MsgRecordNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.health.GetRecord(r.Context(), identity.ID, recordID)
	respond(h, w, r, http.StatusOK, record, err)
}

func (h *Handler) handleAddRecord(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.health.AddRecord(r.Context(), identity.ID, &req)
	respond(h, w, r, http.StatusCreated, record, err)
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	recordID, err := pathID(r, service.MsgRecordNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.RecordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.health.UpdateRecord(r.Context(), identity.ID, recordID, &req)
	respond(h, w, r, http.StatusOK, record, err)
}

func (h *Handler) handleArchiveRecord(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	recordID, err := pathID(r, service.MsgRecordNotFound)
	if err == nil {
		err = h.health.ArchiveRecord(r.Context(), identity.ID, recordID)
	}
	h.writeMessage(w, r, service.MsgRecordArchived, err)
}
