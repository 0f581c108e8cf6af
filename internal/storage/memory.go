package storage

import (
	"medbee/internal/auth/store/reset"
	"medbee/internal/auth/store/user"
	"medbee/internal/chat/store/message"
	"medbee/internal/health/store/medication"
	"medbee/internal/health/store/metric"
	"medbee/internal/health/store/record"
	"medbee/internal/health/store/vaccination"
	auditmemory "medbee/pkg/platform/audit/store/memory"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Memory returns fresh in-process stores. Data lives as long as the process.
func Memory() *Stores {
	return &Stores{
		Backend:      BackendMemory,
		Users:        user.New(),
		Resets:       reset.New(),
		Metrics:      metric.New(),
		Records:      record.New(),
		Vaccinations: vaccination.New(),
		Medications:  medication.New(),
		Messages:     message.New(),
		Audit:        auditmemory.NewInMemoryStore(),
	}
}
