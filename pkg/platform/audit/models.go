package audit

import (
	"context"
	"encoding/json"
	"time"

	id "medbee/pkg/domain"
)

// Entry is an immutable record of a completed authenticated request.
// Action carries the HTTP method, matching what reporting screens group by.
type Entry struct {
	ID             id.RecordID     `json:"_id"`
	ActorID        id.UserID       `json:"userId"`
	Action         string          `json:"action"`
	Endpoint       string          `json:"endpoint"`
	Method         string          `json:"method"`
	IPAddress      string          `json:"ipAddress"`
	UserAgent      string          `json:"userAgent"`
	RequestBody    json.RawMessage `json:"requestBody,omitempty"`
	ResponseStatus int             `json:"responseStatus"`
	RequestID      string          `json:"requestId,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// Store persists entries. There is no update or delete path.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByActor(ctx context.Context, actorID id.UserID) ([]Entry, error)
	// ListRecent returns the newest entries first.
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
	// ListSince returns entries at or after since, newest first.
	ListSince(ctx context.Context, since time.Time) ([]Entry, error)
}

// Mirror receives a copy of every persisted entry.
type Mirror interface {
	Publish(ctx context.Context, entry Entry) error
}

// Emitter accepts entries for asynchronous persistence.
type Emitter interface {
	Emit(ctx context.Context, entry Entry) error
}
