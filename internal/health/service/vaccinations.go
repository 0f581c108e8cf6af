package service

import (
	"context"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	"medbee/pkg/requestcontext"
)

func (s *Service) ListVaccinations(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error) {
	vs, err := s.vaccinations.ListByUser(ctx, owner)
	if err != nil {
		return nil, storeError(err, "failed to list vaccination records")
	}
	return vs, nil
}

// UpcomingVaccinations returns scheduled doses due after now, soonest first.
func (s *Service) UpcomingVaccinations(ctx context.Context, owner id.UserID) ([]*models.Vaccination, error) {
	vs, err := s.vaccinations.ListUpcoming(ctx, owner, requestcontext.Now(ctx))
	if err != nil {
		return nil, storeError(err, "failed to list upcoming vaccinations")
	}
	return vs, nil
}

func (s *Service) GetVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) (*models.Vaccination, error) {
	v, err := s.vaccinations.FindByID(ctx, owner, vaccinationID)
	if err != nil {
		return nil, lookupError(err, MsgVaccinationNotFound, "failed to load vaccination record")
	}
	return v, nil
}

// AddVaccination stores a vaccination. Status defaults to completed.
func (s *Service) AddVaccination(ctx context.Context, owner id.UserID, req *models.VaccinationRequest) (*models.Vaccination, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	now := requestcontext.Now(ctx)
	v := &models.Vaccination{
		ID:        id.NewRecordID(),
		UserID:    owner,
		Status:    models.VaccinationCompleted,
		CreatedAt: now,
	}
	applyVaccination(v, req)
	v.UpdatedAt = now
	if err := s.vaccinations.Create(ctx, v); err != nil {
		return nil, storeError(err, "failed to add vaccination record")
	}
	return v, nil
}

func (s *Service) UpdateVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID, req *models.VaccinationRequest) (*models.Vaccination, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	v, err := s.vaccinations.FindByID(ctx, owner, vaccinationID)
	if err != nil {
		return nil, lookupError(err, MsgVaccinationNotFound, "failed to load vaccination record")
	}
	applyVaccination(v, req)
	v.UpdatedAt = requestcontext.Now(ctx)
	if err := s.vaccinations.Update(ctx, v); err != nil {
		return nil, lookupError(err, MsgVaccinationNotFound, "failed to update vaccination record")
	}
	return v, nil
}

func (s *Service) UpdateVaccinationStatus(ctx context.Context, owner id.UserID, vaccinationID id.RecordID, req *models.VaccinationStatusRequest) (*models.Vaccination, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	v, err := s.vaccinations.FindByID(ctx, owner, vaccinationID)
	if err != nil {
		return nil, lookupError(err, MsgVaccinationNotFound, "failed to load vaccination record")
	}
	v.Status = models.VaccinationStatus(req.Status)
	v.UpdatedAt = requestcontext.Now(ctx)
	if err := s.vaccinations.Update(ctx, v); err != nil {
		return nil, lookupError(err, MsgVaccinationNotFound, "failed to update vaccination status")
	}
	return v, nil
}

func (s *Service) DeleteVaccination(ctx context.Context, owner id.UserID, vaccinationID id.RecordID) error {
	if err := s.vaccinations.Delete(ctx, owner, vaccinationID); err != nil {
		return lookupError(err, MsgVaccinationNotFound, "failed to delete vaccination record")
	}
	return nil
}

// applyVaccination copies a validated request onto v. Absent optional fields
// keep their current values; an empty next dose date clears it.
func applyVaccination(v *models.Vaccination, req *models.VaccinationRequest) {
	v.Name = req.Name
	received, next := req.Dates()
	v.DateReceived = received
	if req.NextDoseDate != nil {
		v.NextDoseDate = next
	}
	if req.Provider != nil {
		v.Provider = *req.Provider
	}
	if req.BatchNumber != nil {
		v.BatchNumber = *req.BatchNumber
	}
	if req.Location != nil {
		v.Location = *req.Location
	}
	if req.Notes != nil {
		v.Notes = *req.Notes
	}
	if req.DocumentURL != nil {
		v.DocumentURL = *req.DocumentURL
	}
	if req.Status != nil && *req.Status != "" {
		v.Status = models.VaccinationStatus(*req.Status)
	}
	if req.ReminderEnabled != nil {
		v.ReminderEnabled = *req.ReminderEnabled
	}
}
