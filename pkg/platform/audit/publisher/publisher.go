// Package publisher accepts audit entries from request handling and hands
// them to a background worker so persistence never delays a response.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	id "medbee/pkg/domain"
	audit "medbee/pkg/platform/audit"
	"medbee/pkg/platform/audit/worker"
)

// Metrics is what the publisher and its worker report to.
type Metrics interface {
	worker.Metrics
	SetAuditQueueDepth(n int)
}

// Publisher persists entries synchronously, or through a buffered worker
// when created WithAsyncBuffer.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics Metrics
	mirrors []audit.Mirror
	size    int

	worker *worker.Worker
	buffer chan audit.Entry
	// inflight tracks the worker and any overflow writes.
	inflight sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables background persistence with a queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.size = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithMirror adds a sink that receives every entry after it is stored.
func WithMirror(m audit.Mirror) Option {
	return func(p *Publisher) {
		p.mirrors = append(p.mirrors, m)
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}

	var workerMetrics worker.Metrics
	if p.metrics != nil {
		workerMetrics = p.metrics
	}
	var inbox chan audit.Entry
	if p.size > 0 {
		inbox = make(chan audit.Entry, p.size)
		p.buffer = inbox
	}
	p.worker = worker.NewWorker(store, inbox, p.logger, workerMetrics, p.mirrors...)

	if p.buffer != nil {
		p.inflight.Add(1)
		go func() {
			defer p.inflight.Done()
			// Entries outlive the request that produced them.
			p.worker.Run(context.Background())
		}()
	}
	return p
}

// Emit fills in ID and Timestamp when missing and queues the entry. When the
// queue is full the entry is written by a detached goroutine rather than
// dropped. Errors are only returned in synchronous mode.
func (p *Publisher) Emit(ctx context.Context, entry audit.Entry) error {
	if entry.ID.IsNil() {
		entry.ID = id.RecordID(uuid.New())
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.buffer == nil || p.closed {
		return p.persistSync(ctx, entry)
	}

	select {
	case p.buffer <- entry:
		if p.metrics != nil {
			p.metrics.SetAuditQueueDepth(len(p.buffer))
		}
	default:
		p.logger.WarnContext(ctx, "audit queue full, writing inline",
			"request_id", entry.RequestID,
		)
		p.inflight.Add(1)
		go func() {
			defer p.inflight.Done()
			p.worker.Persist(context.WithoutCancel(ctx), entry)
		}()
	}
	return nil
}

func (p *Publisher) persistSync(ctx context.Context, entry audit.Entry) error {
	if err := p.store.Append(ctx, entry); err != nil {
		if p.metrics != nil {
			p.metrics.IncrementAuditFailed()
		}
		return err
	}
	if p.metrics != nil {
		p.metrics.IncrementAuditWritten()
	}
	for _, m := range p.mirrors {
		if err := m.Publish(ctx, entry); err != nil {
			p.logger.WarnContext(ctx, "audit mirror publish failed", "error", err)
		}
	}
	return nil
}

// List returns the stored entries for one actor.
func (p *Publisher) List(ctx context.Context, actorID id.UserID) ([]audit.Entry, error) {
	return p.store.ListByActor(ctx, actorID)
}

// Close stops accepting queued entries and waits until everything queued
// so far has been persisted.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()
	p.inflight.Wait()
}
