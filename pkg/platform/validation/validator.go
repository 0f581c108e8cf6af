// Package validation wraps go-playground/validator with user-facing messages.
//
// Messages are declared next to the rules in a `msg` struct tag. A tag may hold a
// single message for every rule on the field, or rule-specific messages:
//
//	Type string `validate:"required,oneof=a b" msg:"required=Type is required;oneof=Invalid type"`
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

var reminderTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// dateLayouts are the ISO-8601 shapes accepted for date fields.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Get returns the shared validator, configured on first use.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("msg")
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("trimmin", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
		})
		_ = v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return reminderTimePattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Messages validates v and returns one message per failed rule, in field order.
// A nil result means v is valid.
func Messages(v any) []string {
	err := Get().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, messageFor(fe))
	}
	return out
}

// Var validates a single value against a rule string.
func Var(value any, rules string) bool {
	return Get().Var(value, rules) == nil
}

// ParseDate parses an ISO-8601 date or timestamp.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ValidTime reports whether s is an HH:MM 24h clock time.
func ValidTime(s string) bool {
	return reminderTimePattern.MatchString(s)
}

func messageFor(fe validator.FieldError) string {
	raw := fe.Field()
	if !strings.Contains(raw, "=") {
		if raw == "" || raw == fe.StructField() {
			return fe.StructField() + " is invalid"
		}
		return raw
	}
	for _, part := range strings.Split(raw, ";") {
		tag, msg, ok := strings.Cut(part, "=")
		if ok && strings.TrimSpace(tag) == fe.Tag() {
			return strings.TrimSpace(msg)
		}
	}
	return fe.StructField() + " is invalid"
}
