package message

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"medbee/internal/chat/models"
	"medbee/internal/platform/store"
	id "medbee/pkg/domain"
)

// PostgresStore persists chat exchanges. Topics and suggested actions are
// TEXT[] columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const insertColumns = `id, user_id, message, ai_response, message_type, ai_response_type, query_topics, suggested_actions, confidence, created_at`

const selectColumns = `id, user_id, message, ai_response, message_type, ai_response_type, query_topics::text, suggested_actions::text, confidence, created_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.Message) error {
	query := `INSERT INTO chat_messages (` + insertColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := store.Conn(ctx, s.db).ExecContext(ctx, query,
		m.ID, m.UserID, m.Message, m.AIResponse, string(m.MessageType), string(m.AIResponseType),
		pq.Array(orEmpty(m.Metadata.QueryTopics)), pq.Array(orEmpty(m.Metadata.SuggestedActions)),
		m.Metadata.Confidence, m.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, owner id.UserID, offset, limit int) ([]*models.Message, error) {
	return s.list(ctx, `WHERE user_id = $1 ORDER BY created_at DESC OFFSET $2 LIMIT $3`, owner, offset, limit)
}

func (s *PostgresStore) CountByUser(ctx context.Context, owner id.UserID) (int, error) {
	var n int
	err := store.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_messages WHERE user_id = $1`, owner).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chat messages: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) ListSince(ctx context.Context, since time.Time) ([]*models.Message, error) {
	return s.list(ctx, `WHERE created_at >= $1 ORDER BY created_at DESC`, since)
}

func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (models.Stats, error) {
	var stats models.Stats
	err := store.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= $1),
		       COUNT(*) FILTER (WHERE ai_response <> '')
		FROM chat_messages`, since).Scan(&stats.Total, &stats.LastSevenDays, &stats.AIResponses)
	if err != nil {
		return models.Stats{}, fmt.Errorf("chat stats: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) list(ctx context.Context, where string, args ...any) ([]*models.Message, error) {
	rows, err := store.Conn(ctx, s.db).QueryContext(ctx, `SELECT `+selectColumns+` FROM chat_messages `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Message, 0)
	for rows.Next() {
		var (
			m          models.Message
			msgType    string
			replyType  string
			confidence sql.NullFloat64
		)
		err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.AIResponse, &msgType, &replyType,
			pq.Array(&m.Metadata.QueryTopics), pq.Array(&m.Metadata.SuggestedActions), &confidence, &m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.MessageType = models.MessageType(msgType)
		m.AIResponseType = models.ResponseType(replyType)
		m.Metadata.QueryTopics = orEmpty(m.Metadata.QueryTopics)
		m.Metadata.SuggestedActions = orEmpty(m.Metadata.SuggestedActions)
		if confidence.Valid {
			m.Metadata.Confidence = &confidence.Float64
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
