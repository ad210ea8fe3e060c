package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-studio/internal/common/database"
	stderrors "content-studio/internal/common/errors"
	"content-studio/internal/common/logger"
	"content-studio/internal/orchestrator"
	"content-studio/internal/provider"
)

func newTestHistory(t *testing.T) (*HistoryStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewHistoryStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t))
	return store, mock
}

func sampleResponse() *orchestrator.Response {
	return &orchestrator.Response{
		ID:        "11111111-2222-3333-4444-555555555555",
		Prompt:    "a robot painting in the rain",
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Results: map[provider.Channel]*orchestrator.Result{
			provider.ChannelText: {
				Channel:  provider.ChannelText,
				Status:   orchestrator.StatusSucceeded,
				Provider: "provider-b",
				Payload:  &provider.Payload{Text: "Robots dream in color."},
				Attempts: 2,
				Latency:  1200 * time.Millisecond,
			},
			provider.ChannelImage: {
				Channel:  provider.ChannelImage,
				Status:   orchestrator.StatusFailed,
				Attempts: 1,
				Error:    "402 Payment Required",
				Latency:  300 * time.Millisecond,
			},
			provider.ChannelVideo: {
				Channel: provider.ChannelVideo,
				Status:  orchestrator.StatusSkipped,
			},
		},
	}
}

func TestHistoryStore_Record(t *testing.T) {
	store, mock := newTestHistory(t)
	resp := sampleResponse()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generations").
		WithArgs(resp.ID, resp.Prompt, resp.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Channel rows are written in text, image, video order.
	mock.ExpectExec("INSERT INTO generation_results").
		WithArgs(resp.ID, "text", "succeeded", "provider-b", "", "Robots dream in color.", 0, "", "", 2, false, int64(1200)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO generation_results").
		WithArgs(resp.ID, "image", "failed", "", "", "", 0, "", "402 Payment Required", 1, false, int64(300)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO generation_results").
		WithArgs(resp.ID, "video", "skipped", "", "", "", 0, "", "", 0, false, int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := store.Record(context.Background(), resp)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_RecordInsertFailureRollsBack(t *testing.T) {
	store, mock := newTestHistory(t)
	resp := sampleResponse()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO generations").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Record(context.Background(), resp)

	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeHistoryWriteFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_Get(t *testing.T) {
	store, mock := newTestHistory(t)
	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT prompt, created_at FROM generations").
		WithArgs("gen-1").
		WillReturnRows(sqlmock.NewRows([]string{"prompt", "created_at"}).
			AddRow("a robot painting in the rain", created))

	mock.ExpectQuery("SELECT channel, status, provider").
		WithArgs("gen-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"channel", "status", "provider", "payload_url", "payload_text",
			"payload_bytes", "mime_type", "error", "attempts", "cached", "latency_ms",
		}).
			AddRow("image", "failed", "", "", "", 0, "", "402 Payment Required", 1, false, 300).
			AddRow("text", "succeeded", "provider-b", "", "Robots dream in color.", 0, "", "", 2, false, 1200))

	rec, err := store.Get(context.Background(), "gen-1")

	require.NoError(t, err)
	assert.Equal(t, "a robot painting in the rain", rec.Prompt)
	assert.Equal(t, created, rec.CreatedAt)
	require.Len(t, rec.Channels, 2)
	assert.Equal(t, "402 Payment Required", rec.Channels[0].Error)
	assert.Equal(t, "provider-b", rec.Channels[1].Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryStore_GetNotFound(t *testing.T) {
	store, mock := newTestHistory(t)

	mock.ExpectQuery("SELECT prompt, created_at FROM generations").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"prompt", "created_at"}))

	_, err := store.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeGenerationNotFound))
}
