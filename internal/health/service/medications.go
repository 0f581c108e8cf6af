package service

import (
	"context"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	"medbee/pkg/requestcontext"
)

func (s *Service) ListMedications(ctx context.Context, owner id.UserID) ([]*models.Medication, error) {
	ms, err := s.medications.ListByUser(ctx, owner)
	if err != nil {
		return nil, storeError(err, "failed to list medications")
	}
	return ms, nil
}

// ActiveMedications returns medications not discontinued whose end date is
// absent or still ahead.
func (s *Service) ActiveMedications(ctx context.Context, owner id.UserID) ([]*models.Medication, error) {
	ms, err := s.medications.ListActive(ctx, owner, requestcontext.Now(ctx))
	if err != nil {
		return nil, storeError(err, "failed to list active medications")
	}
	return ms, nil
}

func (s *Service) ListMedicationsByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.Medication, error) {
	ms, err := s.medications.ListByCategory(ctx, owner, category)
	if err != nil {
		return nil, storeError(err, "failed to list medications")
	}
	return ms, nil
}

func (s *Service) GetMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID) (*models.Medication, error) {
	m, err := s.medications.FindByID(ctx, owner, medicationID)
	if err != nil {
		return nil, lookupError(err, MsgMedicationNotFound, "failed to load medication")
	}
	return m, nil
}

func (s *Service) AddMedication(ctx context.Context, owner id.UserID, req *models.MedicationRequest) (*models.Medication, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	now := requestcontext.Now(ctx)
	m := &models.Medication{
		ID:            id.NewRecordID(),
		UserID:        owner,
		Status:        models.MedicationActive,
		ReminderTimes: []models.ReminderTime{},
		CreatedAt:     now,
	}
	applyMedication(m, req)
	m.UpdatedAt = now
	if err := s.medications.Create(ctx, m); err != nil {
		return nil, storeError(err, "failed to add medication")
	}
	return m, nil
}

func (s *Service) UpdateMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID, req *models.MedicationRequest) (*models.Medication, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	m, err := s.medications.FindByID(ctx, owner, medicationID)
	if err != nil {
		return nil, lookupError(err, MsgMedicationNotFound, "failed to load medication")
	}
	applyMedication(m, req)
	now := requestcontext.Now(ctx)
	m.Status = m.EffectiveStatus(now)
	m.UpdatedAt = now
	if err := s.medications.Update(ctx, m); err != nil {
		return nil, lookupError(err, MsgMedicationNotFound, "failed to update medication")
	}
	return m, nil
}

// DiscontinueMedication stops a medication. Discontinuing twice keeps the
// first discontinuation date.
func (s *Service) DiscontinueMedication(ctx context.Context, owner id.UserID, medicationID id.RecordID) error {
	m, err := s.medications.FindByID(ctx, owner, medicationID)
	if err != nil {
		return lookupError(err, MsgMedicationNotFound, "failed to load medication")
	}
	now := requestcontext.Now(ctx)
	if !m.IsDiscontinued {
		m.IsDiscontinued = true
		m.DiscontinuedDate = &now
	}
	m.Status = models.MedicationDiscontinued
	m.UpdatedAt = now
	if err := s.medications.Update(ctx, m); err != nil {
		return lookupError(err, MsgMedicationNotFound, "failed to discontinue medication")
	}
	return nil
}

// UpdateReminders replaces the reminder settings. Omitted reminder times
// leave the existing schedule in place.
func (s *Service) UpdateReminders(ctx context.Context, owner id.UserID, medicationID id.RecordID, req *models.RemindersRequest) (*models.Medication, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	m, err := s.medications.FindByID(ctx, owner, medicationID)
	if err != nil {
		return nil, lookupError(err, MsgMedicationNotFound, "failed to load medication")
	}
	enabled, times := req.Settings()
	m.ReminderEnabled = enabled
	if times != nil {
		m.ReminderTimes = times
	}
	m.UpdatedAt = requestcontext.Now(ctx)
	if err := s.medications.Update(ctx, m); err != nil {
		return nil, lookupError(err, MsgMedicationNotFound, "failed to update reminder settings")
	}
	return m, nil
}

func applyMedication(m *models.Medication, req *models.MedicationRequest) {
	m.Name = req.Name
	m.Dosage = req.Dosage
	m.Frequency = req.Frequency
	start, end := req.Dates()
	m.StartDate = start
	if req.EndDate != nil {
		m.EndDate = end
	}
	if req.Category != nil {
		m.Category = *req.Category
	}
	if req.Notes != nil {
		m.Notes = *req.Notes
	}
}
