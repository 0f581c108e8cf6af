package models

import (
	"time"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/validation"
)

type VaccinationStatus string

const (
	VaccinationCompleted VaccinationStatus = "completed"
	VaccinationScheduled VaccinationStatus = "scheduled"
	VaccinationOverdue   VaccinationStatus = "overdue"
)

type Vaccination struct {
	ID              id.RecordID       `json:"_id"`
	UserID          id.UserID         `json:"user"`
	Name            string            `json:"name"`
	DateReceived    time.Time         `json:"dateReceived"`
	NextDoseDate    *time.Time        `json:"nextDoseDate,omitempty"`
	Provider        string            `json:"provider,omitempty"`
	BatchNumber     string            `json:"batchNumber,omitempty"`
	Location        string            `json:"location,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	DocumentURL     string            `json:"documentUrl,omitempty"`
	Status          VaccinationStatus `json:"status"`
	ReminderEnabled bool              `json:"reminderEnabled"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// IsDue reports whether the next dose date has been reached.
func (v *Vaccination) IsDue(now time.Time) bool {
	return v.NextDoseDate != nil && !now.Before(*v.NextDoseDate)
}

// Upcoming reports whether a scheduled dose lies in the future.
func (v *Vaccination) Upcoming(now time.Time) bool {
	return v.Status == VaccinationScheduled && v.NextDoseDate != nil && v.NextDoseDate.After(now)
}

type VaccinationRequest struct {
	Name            string  `json:"name" validate:"notblank" msg:"Vaccine name is required"`
	DateReceived    string  `json:"dateReceived" validate:"required,iso8601" msg:"Valid date received is required"`
	NextDoseDate    *string `json:"nextDoseDate" validate:"omitempty,iso8601" msg:"Invalid next dose date format"`
	Provider        *string `json:"provider"`
	BatchNumber     *string `json:"batchNumber"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	DocumentURL     *string `json:"documentUrl"`
	Status          *string `json:"status" validate:"omitempty,oneof=completed scheduled overdue" msg:"Invalid vaccination status"`
	ReminderEnabled *bool   `json:"reminderEnabled"`
}

func (r *VaccinationRequest) Validate() []string {
	errs := validation.Messages(r)
	received, errReceived := validation.ParseDate(r.DateReceived)
	if r.NextDoseDate != nil && *r.NextDoseDate != "" && errReceived == nil {
		if next, err := validation.ParseDate(*r.NextDoseDate); err == nil && !next.After(received) {
			errs = append(errs, "Next dose date must be after date received")
		}
	}
	return errs
}

// Dates returns the parsed received and next dose dates. Call after Validate.
func (r *VaccinationRequest) Dates() (time.Time, *time.Time) {
	received, _ := validation.ParseDate(r.DateReceived)
	if r.NextDoseDate == nil || *r.NextDoseDate == "" {
		return received, nil
	}
	next, err := validation.ParseDate(*r.NextDoseDate)
	if err != nil {
		return received, nil
	}
	return received, &next
}

type VaccinationStatusRequest struct {
	Status string `json:"status" validate:"oneof=completed scheduled overdue" msg:"Invalid vaccination status"`
}

func (r *VaccinationStatusRequest) Validate() []string {
	return validation.Messages(r)
}

// NameCount is a per-vaccine tally.
type NameCount struct {
	Name  string `json:"_id"`
	Count int    `json:"count"`
}

// VaccinationSummary groups vaccinations by name into completed (received),
// upcoming and overdue next doses.
type VaccinationSummary struct {
	Completed []NameCount `json:"completed"`
	Upcoming  []NameCount `json:"upcoming"`
	Overdue   []NameCount `json:"overdue"`
}

func (v *Vaccination) RowID() id.RecordID { return v.ID }
func (v *Vaccination) Owner() id.UserID   { return v.UserID }

func (v *Vaccination) Clone() *Vaccination {
	c := *v
	if v.NextDoseDate != nil {
		next := *v.NextDoseDate
		c.NextDoseDate = &next
	}
	return &c
}
