package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medbee/internal/health/models"
	"medbee/internal/health/service"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
)

func (h *Handler) handleListMedications(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	ms, err := h.health.ListMedications(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, ms, err)
}

func (h *Handler) handleActiveMedications(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	ms, err := h.health.ActiveMedications(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, ms, err)
}

func (h *Handler) handleMedicationsByCategory(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	ms, err := h.health.ListMedicationsByCategory(r.Context(), identity.ID, chi.URLParam(r, "category"))
	respond(h, w, r, http.StatusOK, ms, err)
}

func (h *Handler) handleGetMedication(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	medicationID, err := pathID(r, service.MsgMedicationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.GetMedication(r.Context(), identity.ID, medicationID)
	respond(h, w, r, http.StatusOK, m, err)
}

func (h *Handler) handleAddMedication(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.MedicationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.AddMedication(r.Context(), identity.ID, &req)
	respond(h, w, r, http.StatusCreated, m, err)
}

func (h *Handler) handleUpdateMedication(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	medicationID, err := pathID(r, service.MsgMedicationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.MedicationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.UpdateMedication(r.Context(), identity.ID, medicationID, &req)
	respond(h, w, r, http.StatusOK, m, err)
}

func (h *Handler) handleDiscontinueMedication(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	medicationID, err := pathID(r, service.MsgMedicationNotFound)
	if err == nil {
		err = h.health.DiscontinueMedication(r.Context(), identity.ID, medicationID)
	}
	h.writeMessage(w, r, service.MsgMedicationDiscontinued, err)
}

func (h *Handler) handleUpdateReminders(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	medicationID, err := pathID(r, service.MsgMedicationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.RemindersRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.health.UpdateReminders(r.Context(), identity.ID, medicationID, &req)
	respond(h, w, r, http.StatusOK, m, err)
}
