package worker

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	audit "medbee/pkg/platform/audit"
)

// Metrics is the subset of the service metrics the worker reports to.
type Metrics interface {
	IncrementAuditWritten()
	IncrementAuditFailed()
}

// Worker consumes audit entries from a channel and persists them. A failed
// write is logged and counted, and the loop moves on to the next entry.
type Worker struct {
	store   audit.Store
	mirrors []audit.Mirror
	inbox   <-chan audit.Entry
	logger  *slog.Logger
	metrics Metrics
	tracer  trace.Tracer
}

func NewWorker(store audit.Store, inbox <-chan audit.Entry, logger *slog.Logger, metrics Metrics, mirrors ...audit.Mirror) *Worker {
	return &Worker{
		store:   store,
		mirrors: mirrors,
		inbox:   inbox,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("medbee/audit"),
	}
}

// Run persists entries until the inbox is closed and drained.
func (w *Worker) Run(ctx context.Context) {
	for entry := range w.inbox {
		w.Persist(ctx, entry)
	}
}

// Persist writes one entry to the store and then to every mirror.
func (w *Worker) Persist(ctx context.Context, entry audit.Entry) {
	ctx, span := w.tracer.Start(ctx, "audit.persist", trace.WithAttributes(
		attribute.String("audit.endpoint", entry.Endpoint),
		attribute.String("audit.method", entry.Method),
	))
	defer span.End()

	if err := w.store.Append(ctx, entry); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		w.logger.ErrorContext(ctx, "AuditPersistenceFailure",
			"error", err,
			"endpoint", entry.Endpoint,
			"user_id", entry.ActorID.String(),
			"request_id", entry.RequestID,
		)
		if w.metrics != nil {
			w.metrics.IncrementAuditFailed()
		}
		return
	}
	if w.metrics != nil {
		w.metrics.IncrementAuditWritten()
	}

	for _, m := range w.mirrors {
		if err := m.Publish(ctx, entry); err != nil {
			w.logger.WarnContext(ctx, "audit mirror publish failed",
				"error", err,
				"request_id", entry.RequestID,
			)
		}
	}
}
