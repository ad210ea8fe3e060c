// Package store persists generation outcomes: history rows in PostgreSQL,
// a result cache in Redis, and a best-effort search index in Elasticsearch.
package store

import (
	"context"
	"database/sql"
	"time"

	"content-studio/internal/common/database"
	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/logger"
	"content-studio/internal/orchestrator"
	"content-studio/internal/provider"
)

// Record is the persisted view of one generation request.
type Record struct {
	ID        string          `json:"id"`
	Prompt    string          `json:"prompt"`
	CreatedAt time.Time       `json:"created_at"`
	Channels  []ChannelRecord `json:"channels"`
}

type ChannelRecord struct {
	Channel   string `json:"channel"`
	Status    string `json:"status"`
	Provider  string `json:"provider,omitempty"`
	URL       string `json:"url,omitempty"`
	Text      string `json:"text,omitempty"`
	ByteSize  int    `json:"byte_size,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Error     string `json:"error,omitempty"`
	Attempts  int    `json:"attempts"`
	Cached    bool   `json:"cached"`
	LatencyMs int64  `json:"latency_ms"`
}

type HistoryStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewHistoryStore(db *database.PostgresClient, log logger.Logger) *HistoryStore {
	return &HistoryStore{
		db:     db,
		logger: log.With(map[string]interface{}{"component": "history"}),
	}
}

const insertGenerationQuery = `
	INSERT INTO generations (id, prompt, created_at)
	VALUES ($1, $2, $3)`

const insertResultQuery = `
	INSERT INTO generation_results
		(generation_id, channel, status, provider, payload_url, payload_text,
		 payload_bytes, mime_type, error, attempts, cached, latency_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Record writes the request row and one row per channel in a single
// transaction. Media bytes are not stored, only their size.
func (s *HistoryStore) Record(ctx context.Context, resp *orchestrator.Response) error {
	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return stderrors.NewHistoryWriteFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertGenerationQuery, resp.ID, resp.Prompt, resp.CreatedAt); err != nil {
		return stderrors.NewHistoryWriteFailedError(err)
	}

	for _, ch := range provider.Channels() {
		result, ok := resp.Results[ch]
		if !ok {
			continue
		}

		var url, text, mime string
		var byteSize int
		if result.Payload != nil {
			url = result.Payload.URL
			text = result.Payload.Text
			mime = result.Payload.MimeType
			byteSize = len(result.Payload.Data)
		}

		_, err := tx.ExecContext(ctx, insertResultQuery,
			resp.ID, string(ch), string(result.Status), result.Provider,
			url, text, byteSize, mime, result.Error,
			result.Attempts, result.Cached, result.Latency.Milliseconds(),
		)
		if err != nil {
			return stderrors.NewHistoryWriteFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stderrors.NewHistoryWriteFailedError(err)
	}
	return nil
}

const selectGenerationQuery = `
	SELECT prompt, created_at FROM generations WHERE id = $1`

const selectResultsQuery = `
	SELECT channel, status, provider, payload_url, payload_text,
	       payload_bytes, mime_type, error, attempts, cached, latency_ms
	FROM generation_results
	WHERE generation_id = $1
	ORDER BY channel`

// Get loads one generation with its channel outcomes.
func (s *HistoryStore) Get(ctx context.Context, id string) (*Record, error) {
	rec := &Record{ID: id}

	err := s.db.QueryRow(ctx, selectGenerationQuery, id).Scan(&rec.Prompt, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewGenerationNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, selectResultsQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ch ChannelRecord
		if err := rows.Scan(
			&ch.Channel, &ch.Status, &ch.Provider, &ch.URL, &ch.Text,
			&ch.ByteSize, &ch.MimeType, &ch.Error, &ch.Attempts, &ch.Cached, &ch.LatencyMs,
		); err != nil {
			return nil, err
		}
		rec.Channels = append(rec.Channels, ch)
	}
	return rec, rows.Err()
}
