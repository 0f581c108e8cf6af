// Package domain holds identifier primitives shared across bounded contexts.
package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	dErrors "medbee/pkg/domain-errors"
)

// UserID identifies a user account.
type UserID uuid.UUID

// RecordID identifies an owned health resource (metric, record, vaccination,
// medication, chat message).
type RecordID uuid.UUID

// NewUserID returns a random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRecordID returns a random record ID.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// ParseUserID parses s and rejects empty, malformed, or nil UUIDs.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseRecordID parses s and rejects empty, malformed, or nil UUIDs.
func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s, "record ID")
	return RecordID(u), err
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+kind)
	}
	return u, nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

// Value implements driver.Valuer so IDs can be passed straight to SQL.
func (id UserID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }

// Scan implements sql.Scanner.
func (id *UserID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }

func (id RecordID) String() string { return uuid.UUID(id).String() }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id RecordID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RecordID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id RecordID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }

func (id *RecordID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }

func scanUUID(dst *uuid.UUID, src any) error {
	switch v := src.(type) {
	case nil:
		*dst = uuid.Nil
		return nil
	case [16]byte:
		*dst = uuid.UUID(v)
		return nil
	default:
		if err := dst.Scan(src); err != nil {
			return fmt.Errorf("scan uuid: %w", err)
		}
		return nil
	}
}
