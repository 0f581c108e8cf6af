package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	id "medbee/pkg/domain"
	"medbee/pkg/platform/validation"
)

type MedicationStatus string

const (
	MedicationActive       MedicationStatus = "active"
	MedicationCompleted    MedicationStatus = "completed"
	MedicationDiscontinued MedicationStatus = "discontinued"
)

type ReminderTime struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
}

type Medication struct {
	ID               id.RecordID      `json:"_id"`
	UserID           id.UserID        `json:"user"`
	Name             string           `json:"name"`
	Dosage           string           `json:"dosage"`
	Frequency        string           `json:"frequency"`
	Category         string           `json:"category,omitempty"`
	StartDate        time.Time        `json:"startDate"`
	EndDate          *time.Time       `json:"endDate,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	Status           MedicationStatus `json:"status"`
	IsDiscontinued   bool             `json:"isDiscontinued"`
	DiscontinuedDate *time.Time       `json:"discontinuedDate,omitempty"`
	ReminderEnabled  bool             `json:"reminderEnabled"`
	ReminderTimes    []ReminderTime   `json:"reminderTimes"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// IsCurrent reports whether the medication is still being taken at now.
func (m *Medication) IsCurrent(now time.Time) bool {
	if m.IsDiscontinued {
		return false
	}
	return m.EndDate == nil || m.EndDate.After(now)
}

// EffectiveStatus derives the status shown in adherence reports.
func (m *Medication) EffectiveStatus(now time.Time) MedicationStatus {
	switch {
	case m.IsDiscontinued:
		return MedicationDiscontinued
	case m.EndDate != nil && !m.EndDate.After(now):
		return MedicationCompleted
	default:
		return MedicationActive
	}
}

type MedicationRequest struct {
	Name      string  `json:"name" validate:"notblank" msg:"Medication name is required"`
	Dosage    string  `json:"dosage" validate:"notblank" msg:"Dosage is required"`
	Frequency string  `json:"frequency" validate:"notblank" msg:"Frequency is required"`
	StartDate string  `json:"startDate" validate:"required,iso8601" msg:"Valid start date is required"`
	EndDate   *string `json:"endDate" validate:"omitempty,iso8601" msg:"Invalid end date format"`
	Category  *string `json:"category"`
	Notes     *string `json:"notes"`
}

func (r *MedicationRequest) Validate() []string {
	errs := validation.Messages(r)
	if r.EndDate == nil || *r.EndDate == "" {
		return errs
	}
	end, errEnd := validation.ParseDate(*r.EndDate)
	start, errStart := validation.ParseDate(r.StartDate)
	if errEnd == nil && errStart == nil && !end.After(start) {
		errs = append(errs, "End date must be after start date")
	}
	return errs
}

// Dates returns the parsed start and end dates. Call after Validate.
func (r *MedicationRequest) Dates() (time.Time, *time.Time) {
	start, _ := validation.ParseDate(r.StartDate)
	if r.EndDate == nil || *r.EndDate == "" {
		return start, nil
	}
	end, err := validation.ParseDate(*r.EndDate)
	if err != nil {
		return start, nil
	}
	return start, &end
}

// RemindersRequest keeps both fields raw so type errors get field messages
// instead of a decode failure.
type RemindersRequest struct {
	ReminderEnabled json.RawMessage `json:"reminderEnabled"`
	ReminderTimes   json.RawMessage `json:"reminderTimes"`

	enabled bool
	times   []ReminderTime
}

func (r *RemindersRequest) Validate() []string {
	var errs []string
	enabled, ok := parseBool(r.ReminderEnabled)
	if !ok {
		errs = append(errs, "Reminder enabled must be a boolean")
	}
	r.enabled = enabled

	raw := bytes.TrimSpace(r.ReminderTimes)
	if len(raw) == 0 || string(raw) == "null" {
		return errs
	}
	var items []map[string]json.RawMessage
	if raw[0] != '[' || json.Unmarshal(raw, &items) != nil {
		return append(errs, "Reminder times must be an array")
	}
	r.times = make([]ReminderTime, 0, len(items))
	for i, item := range items {
		var rt ReminderTime
		if json.Unmarshal(item["time"], &rt.Time) != nil || !validation.ValidTime(rt.Time) {
			errs = append(errs, fmt.Sprintf("Invalid time format for reminder at index %d", i))
		}
		if rt.Enabled, ok = parseBool(item["enabled"]); !ok {
			errs = append(errs, fmt.Sprintf("Enabled status must be a boolean for reminder at index %d", i))
		}
		r.times = append(r.times, rt)
	}
	return errs
}

func parseBool(raw json.RawMessage) (bool, bool) {
	switch string(bytes.TrimSpace(raw)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// Settings returns the decoded values. Call after a successful Validate.
func (r *RemindersRequest) Settings() (bool, []ReminderTime) {
	return r.enabled, r.times
}

// AdherenceDay counts medications touched on one day by effective status.
type AdherenceDay struct {
	Date         string `json:"_id"`
	Active       int    `json:"active"`
	Discontinued int    `json:"discontinued"`
	Completed    int    `json:"completed"`
}

func (m *Medication) RowID() id.RecordID { return m.ID }
func (m *Medication) Owner() id.UserID   { return m.UserID }

func (m *Medication) Clone() *Medication {
	c := *m
	if m.EndDate != nil {
		end := *m.EndDate
		c.EndDate = &end
	}
	if m.DiscontinuedDate != nil {
		d := *m.DiscontinuedDate
		c.DiscontinuedDate = &d
	}
	c.ReminderTimes = slices.Clone(m.ReminderTimes)
	return &c
}
