package models

import (
	"strings"

	"medbee/pkg/platform/validation"
)

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email" msg:"Please provide a valid email address"`
	Password  string `json:"password" validate:"min=8" msg:"Password must be at least 8 characters long"`
	FirstName string `json:"firstName" validate:"trimmin=2" msg:"First name must be at least 2 characters long"`
	LastName  string `json:"lastName" validate:"trimmin=2" msg:"Last name must be at least 2 characters long"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *RegisterRequest) Validate() []string {
	return validation.Messages(r)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please provide a valid email address"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() []string {
	return validation.Messages(r)
}

type UpdateProfileRequest struct {
	Email         string              `json:"email" validate:"omitempty,email" msg:"Please provide a valid email address"`
	Password      string              `json:"password" validate:"omitempty,min=8" msg:"Password must be at least 8 characters long"`
	FirstName     string              `json:"firstName" validate:"omitempty,trimmin=2" msg:"First name must be at least 2 characters long"`
	LastName      string              `json:"lastName" validate:"omitempty,trimmin=2" msg:"Last name must be at least 2 characters long"`
	HealthProfile *HealthProfilePatch `json:"healthProfile" validate:"-"`
}

func (r *UpdateProfileRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *UpdateProfileRequest) Validate() []string {
	errs := validation.Messages(r)
	if p := r.HealthProfile; p != nil {
		if p.Age.Present && !p.Age.IsInteger() {
			errs = append(errs, "Age must be a valid number")
		}
		if p.Weight.Present && !p.Weight.Valid {
			errs = append(errs, "Weight must be a valid number")
		}
		if p.Height.Present && !p.Height.Valid {
			errs = append(errs, "Height must be a valid number")
		}
	}
	return errs
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"min=8" msg:"Password must be at least 8 characters long"`
}

func (r *ResetPasswordRequest) Validate() []string {
	return validation.Messages(r)
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID        string `json:"_id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Token     string `json:"token"`
}

// ProfileResponse is returned by the profile update.
type ProfileResponse struct {
	ID            string        `json:"_id"`
	FirstName     string        `json:"firstName"`
	LastName      string        `json:"lastName"`
	Email         string        `json:"email"`
	HealthProfile HealthProfile `json:"healthProfile"`
	Token         string        `json:"token"`
}
