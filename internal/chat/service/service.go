package service

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"medbee/internal/chat/classify"
	"medbee/internal/chat/models"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByUser(ctx context.Context, owner id.UserID, offset, limit int) ([]*models.Message, error)
	CountByUser(ctx context.Context, owner id.UserID) (int, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.Message, error)
	Stats(ctx context.Context, since time.Time) (models.Stats, error)
}

// Assistant produces the reply to a user message.
type Assistant interface {
	Reply(ctx context.Context, userID id.UserID, message string) (string, error)
}

type Metrics interface {
	IncrementChatMessages(messageType string)
}

const (
	DefaultPage      = 1
	DefaultLimit     = 50
	MaxLimit         = 100
	DefaultTimeframe = "7d"
	topTopics        = 10
	statsWindow      = 7 * 24 * time.Hour
)

var timeframes = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

type Service struct {
	store     Store
	assistant Assistant
	logger    *slog.Logger
	metrics   Metrics
}

type Option func(*Service)

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, assistant Assistant, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, assistant: assistant, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send asks the assistant for a reply and stores the classified exchange.
// Nothing is stored when the assistant fails.
func (s *Service) Send(ctx context.Context, owner id.UserID, req *models.SendRequest) (*models.Message, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, dErrors.Validation("Validation error", errs)
	}
	reply, err := s.assistant.Reply(ctx, owner, req.Message)
	if err != nil {
		return nil, err
	}
	return s.record(ctx, owner, req.Message, reply, nil)
}

// Log stores an exchange the client obtained elsewhere.
func (s *Service) Log(ctx context.Context, owner id.UserID, req *models.LogRequest) (*models.Message, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, dErrors.Validation("Validation error", errs)
	}
	confidence := 1.0
	return s.record(ctx, owner, req.Message, req.AIResponse, &confidence)
}

func (s *Service) record(ctx context.Context, owner id.UserID, message, reply string, confidence *float64) (*models.Message, error) {
	m := &models.Message{
		ID:             id.NewRecordID(),
		UserID:         owner,
		Message:        message,
		AIResponse:     reply,
		MessageType:    classify.Message(message),
		AIResponseType: classify.Response(reply),
		Metadata: models.Metadata{
			QueryTopics:      classify.Topics(message),
			SuggestedActions: []string{},
			Confidence:       confidence,
		},
		Timestamp: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store chat message")
	}
	if s.metrics != nil {
		s.metrics.IncrementChatMessages(string(m.MessageType))
	}
	return m, nil
}

// History returns one page of the owner's messages, newest first. Page and
// limit below one fall back to the defaults; limit is capped.
func (s *Service) History(ctx context.Context, owner id.UserID, page, limit int) (*models.History, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	total, err := s.store.CountByUser(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count chat messages")
	}
	messages, err := s.store.ListByUser(ctx, owner, (page-1)*limit, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list chat messages")
	}
	return &models.History{
		Messages: messages,
		Pagination: models.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// Insights aggregates every user's exchanges within timeframe (24h, 7d or
// 30d; anything else means 7d).
func (s *Service) Insights(ctx context.Context, timeframe string) (*models.Insights, error) {
	window, ok := timeframes[timeframe]
	if !ok {
		timeframe, window = DefaultTimeframe, timeframes[DefaultTimeframe]
	}
	messages, err := s.store.ListSince(ctx, requestcontext.Now(ctx).Add(-window))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Error retrieving chat insights")
	}

	msgTypes := make(map[string]int)
	replyTypes := make(map[string]int)
	topics := make(map[string]int)
	dontKnow := 0
	for _, m := range messages {
		msgTypes[string(m.MessageType)]++
		replyTypes[string(m.AIResponseType)]++
		for _, topic := range m.Metadata.QueryTopics {
			topics[topic]++
		}
		if m.AIResponseType == models.ResponseDontKnow {
			dontKnow++
		}
	}

	common := ranked(topics)
	if len(common) > topTopics {
		common = common[:topTopics]
	}
	return &models.Insights{
		Timeframe:     timeframe,
		MessageTypes:  ranked(msgTypes),
		ResponseTypes: ranked(replyTypes),
		CommonTopics:  common,
		Effectiveness: effectiveness(len(messages), dontKnow),
	}, nil
}

// Stats summarizes chat activity for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.store.Stats(ctx, requestcontext.Now(ctx).Add(-statsWindow))
	if err != nil {
		return models.Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chat stats")
	}
	return stats, nil
}

// ranked orders counts by count descending, then key.
func ranked(counts map[string]int) []models.Count {
	out := make([]models.Count, 0, len(counts))
	for k, n := range counts {
		out = append(out, models.Count{Key: k, Count: n})
	}
	slices.SortFunc(out, func(a, b models.Count) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

func effectiveness(total, dontKnow int) models.Effectiveness {
	e := models.Effectiveness{TotalQueries: total}
	if total == 0 {
		return e
	}
	e.SuccessRate = percent(total-dontKnow, total)
	e.DontKnowRate = percent(dontKnow, total)
	return e
}

func percent(n, total int) float64 {
	return math.Round(float64(n)/float64(total)*10000) / 100
}
