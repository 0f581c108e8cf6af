package service

import (
	"context"
	"slices"

	"medbee/internal/health/models"
	id "medbee/pkg/domain"
	"medbee/pkg/requestcontext"
)

func (s *Service) ListRecords(ctx context.Context, owner id.UserID) ([]*models.MedicalRecord, error) {
	records, err := s.records.ListActive(ctx, owner)
	if err != nil {
		return nil, storeError(err, "failed to list medical records")
	}
	return records, nil
}

func (s *Service) ListRecordsByCategory(ctx context.Context, owner id.UserID, category string) ([]*models.MedicalRecord, error) {
	records, err := s.records.ListByCategory(ctx, owner, category)
	if err != nil {
		return nil, storeError(err, "failed to list medical records")
	}
	return records, nil
}

// SearchRecords matches query as a literal substring. An empty query matches
// every active record.
func (s *Service) SearchRecords(ctx context.Context, owner id.UserID, query string) ([]*models.MedicalRecord, error) {
	records, err := s.records.Search(ctx, owner, query)
	if err != nil {
		return nil, storeError(err, "failed to search medical records")
	}
	return records, nil
}

func (s *Service) GetRecord(ctx context.Context, owner id.UserID, recordID id.RecordID) (*models.MedicalRecord, error) {
	r, err := s.records.FindByID(ctx, owner, recordID)
	if err != nil {
		return nil, lookupError(err, MsgRecordNotFound, "failed to load medical record")
	}
	return r, nil
}

func (s *Service) AddRecord(ctx context.Context, owner id.UserID, req *models.RecordRequest) (*models.MedicalRecord, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	now := requestcontext.Now(ctx)
	r := &models.MedicalRecord{
		ID:          id.NewRecordID(),
		UserID:      owner,
		Title:       req.Title,
		Description: orEmpty(req.Description),
		FileURL:     req.FileURL,
		FileType:    req.FileType,
		Category:    models.DefaultRecordCategory,
		RecordDate:  req.Date(now),
		Provider:    orEmpty(req.Provider),
		Tags:        []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Category != nil && *req.Category != "" {
		r.Category = *req.Category
	}
	if req.Tags != nil {
		r.Tags = slices.Clone(*req.Tags)
	}
	if err := s.records.Create(ctx, r); err != nil {
		return nil, storeError(err, "failed to add medical record")
	}
	return r, nil
}

// UpdateRecord applies the descriptive fields the client sent. The file URL
// and type are fixed at upload.
func (s *Service) UpdateRecord(ctx context.Context, owner id.UserID, recordID id.RecordID, req *models.RecordRequest) (*models.MedicalRecord, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	r, err := s.records.FindByID(ctx, owner, recordID)
	if err != nil {
		return nil, lookupError(err, MsgRecordNotFound, "failed to load medical record")
	}
	r.Title = req.Title
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Category != nil && *req.Category != "" {
		r.Category = *req.Category
	}
	r.RecordDate = req.Date(r.RecordDate)
	if req.Provider != nil {
		r.Provider = *req.Provider
	}
	if req.Tags != nil {
		r.Tags = slices.Clone(*req.Tags)
	}
	r.UpdatedAt = requestcontext.Now(ctx)
	if err := s.records.Update(ctx, r); err != nil {
		return nil, lookupError(err, MsgRecordNotFound, "failed to update medical record")
	}
	return r, nil
}

func (s *Service) ArchiveRecord(ctx context.Context, owner id.UserID, recordID id.RecordID) error {
	r, err := s.records.FindByID(ctx, owner, recordID)
	if err != nil {
		return lookupError(err, MsgRecordNotFound, "failed to load medical record")
	}
	r.IsArchived = true
	r.UpdatedAt = requestcontext.Now(ctx)
	if err := s.records.Update(ctx, r); err != nil {
		return lookupError(err, MsgRecordNotFound, "failed to archive medical record")
	}
	return nil
}
