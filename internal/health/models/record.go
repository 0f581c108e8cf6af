package models

import (
	"slices"
	"strings"
	"time"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/validation"
)

type MedicalRecord struct {
	ID          id.RecordID `json:"_id"`
	UserID      id.UserID   `json:"user"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	FileURL     string      `json:"fileUrl"`
	FileType    string      `json:"fileType"`
	Category    string      `json:"category"`
	RecordDate  time.Time   `json:"recordDate"`
	Provider    string      `json:"provider,omitempty"`
	Tags        []string    `json:"tags"`
	IsArchived  bool        `json:"isArchived"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

const DefaultRecordCategory = "other"

// Matches reports whether query occurs case-insensitively in the title,
// description, provider or any tag.
func (r *MedicalRecord) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.Provider), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// RecordRequest is the body of record create and update. Optional fields are
// pointers so an update only touches what the client sent.
type RecordRequest struct {
	Title       string    `json:"title" validate:"notblank" msg:"Title is required"`
	FileURL     string    `json:"fileUrl" validate:"notblank" msg:"File URL is required"`
	FileType    string    `json:"fileType" validate:"oneof=pdf image document" msg:"Invalid file type"`
	RecordDate  *string   `json:"recordDate" validate:"omitempty,iso8601" msg:"Invalid record date format"`
	Description *string   `json:"description"`
	Category    *string   `json:"category" validate:"omitempty,oneof=lab_report prescription imaging discharge_summary other" msg:"Invalid category"`
	Provider    *string   `json:"provider"`
	Tags        *[]string `json:"tags"`
}

func (r *RecordRequest) Validate() []string {
	return validation.Messages(r)
}

// Date returns the parsed record date, or fallback when none was sent.
func (r *RecordRequest) Date(fallback time.Time) time.Time {
	if r.RecordDate == nil || *r.RecordDate == "" {
		return fallback
	}
	t, err := validation.ParseDate(*r.RecordDate)
	if err != nil {
		return fallback
	}
	return t
}

func (r *MedicalRecord) RowID() id.RecordID { return r.ID }
func (r *MedicalRecord) Owner() id.UserID   { return r.UserID }

func (r *MedicalRecord) Clone() *MedicalRecord {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	return &c
}
