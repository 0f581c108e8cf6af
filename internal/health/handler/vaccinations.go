package handler

import (
	"net/http"

	"medbee/internal/health/models"
	"medbee/internal/health/service"
	"medbee/pkg/platform/httputil"
	authmw "medbee/pkg/platform/middleware/auth"
)

func (h *Handler) handleListVaccinations(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vs, err := h.health.ListVaccinations(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, vs, err)
}

func (h *Handler) handleUpcomingVaccinations(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vs, err := h.health.UpcomingVaccinations(r.Context(), identity.ID)
	respond(h, w, r, http.StatusOK, vs, err)
}

func (h *Handler) handleGetVaccination(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vaccinationID, err := pathID(r, service.MsgVaccinationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := h.health.GetVaccination(r.Context(), identity.ID, vaccinationID)
	respond(h, w, r, http.StatusOK, v, err)
}

func (h *Handler) handleAddVaccination(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	var req models.VaccinationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := h.health.AddVaccination(r.Context(), identity.ID, &req)
	respond(h, w, r, http.StatusCreated, v, err)
}

func (h *Handler) handleUpdateVaccination(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vaccinationID, err := pathID(r, service.MsgVaccinationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.VaccinationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := h.health.UpdateVaccination(r.Context(), identity.ID, vaccinationID, &req)
	respond(h, w, r, http.StatusOK, v, err)
}

func (h *Handler) handleVaccinationStatus(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vaccinationID, err := pathID(r, service.MsgVaccinationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req models.VaccinationStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	v, err := h.health.UpdateVaccinationStatus(r.Context(), identity.ID, vaccinationID, &req)
	respond(h, w, r, http.StatusOK, v, err)
}

func (h *Handler) handleDeleteVaccination(w http.ResponseWriter, r *http.Request, identity authmw.Identity) {
	vaccinationID, err := pathID(r, service.MsgVaccinationNotFound)
	if err == nil {
		err = h.health.DeleteVaccination(r.Context(), identity.ID, vaccinationID)
	}
	h.writeMessage(w, r, service.MsgVaccinationDeleted, err)
}
