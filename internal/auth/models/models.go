package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
)

// User is the directory record. PasswordHash never leaves the service layer.
type User struct {
	ID            id.UserID     `json:"_id"`
	Email         string        `json:"email"`
	PasswordHash  string        `json:"-"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Role          authmw.Role   `json:"role"`
	HealthProfile HealthProfile `json:"healthProfile"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Identity strips the user down to what the access guard attaches to a request.
func (u *User) Identity() authmw.Identity {
	return authmw.Identity{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == authmw.RoleAdmin }

// HealthProfile is the self-reported profile filled in after sign-up.
type HealthProfile struct {
	Age                *int     `json:"age,omitempty"`
	Weight             *float64 `json:"weight,omitempty"`
	Height             *float64 `json:"height,omitempty"`
	Gender             string   `json:"gender,omitempty"`
	BloodPressure      string   `json:"bloodPressure,omitempty"`
	ExistingConditions string   `json:"existingConditions,omitempty"`
	Medications        string   `json:"medications,omitempty"`
	Allergies          string   `json:"allergies,omitempty"`
	Lifestyle          string   `json:"lifestyle,omitempty"`
	FamilyHistory      string   `json:"familyHistory,omitempty"`
	CustomNotes        string   `json:"customNotes,omitempty"`
}

// Merge overlays the fields set in patch.
func (p HealthProfile) Merge(patch HealthProfilePatch) HealthProfile {
	if patch.Age.Present {
		age := int(patch.Age.Value)
		p.Age = &age
	}
	if patch.Weight.Present {
		weight := patch.Weight.Value
		p.Weight = &weight
	}
	if patch.Height.Present {
		height := patch.Height.Value
		p.Height = &height
	}
	overlay := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	overlay(&p.Gender, patch.Gender)
	overlay(&p.BloodPressure, patch.BloodPressure)
	overlay(&p.ExistingConditions, patch.ExistingConditions)
	overlay(&p.Medications, patch.Medications)
	overlay(&p.Allergies, patch.Allergies)
	overlay(&p.Lifestyle, patch.Lifestyle)
	overlay(&p.FamilyHistory, patch.FamilyHistory)
	overlay(&p.CustomNotes, patch.CustomNotes)
	return p
}

// HealthProfilePatch is a partial profile update. Numbers may arrive as JSON
// numbers or numeric strings from form fields.
type HealthProfilePatch struct {
	Age                LooseNumber `json:"age"`
	Weight             LooseNumber `json:"weight"`
	Height             LooseNumber `json:"height"`
	Gender             *string     `json:"gender"`
	BloodPressure      *string     `json:"bloodPressure"`
	ExistingConditions *string     `json:"existingConditions"`
	Medications        *string     `json:"medications"`
	Allergies          *string     `json:"allergies"`
	Lifestyle          *string     `json:"lifestyle"`
	FamilyHistory      *string     `json:"familyHistory"`
	CustomNotes        *string     `json:"customNotes"`
}

// LooseNumber accepts 42, 42.5 or "42". Present is set for any non-empty
// value; Valid is false when the value could not be read as a number.
type LooseNumber struct {
	Value   float64
	Present bool
	Valid   bool
}

func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		return nil
	}
	n.Present = true
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// IsInteger reports whether the number has no fractional part.
func (n LooseNumber) IsInteger() bool {
	return n.Valid && n.Value == float64(int64(n.Value))
}

// PasswordReset is a single-use reset token.
type PasswordReset struct {
	Token     string
	UserID    id.UserID
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Usable reports whether the token can still reset a password at now.
func (r *PasswordReset) Usable(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}
