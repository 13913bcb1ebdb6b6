package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"induction-portal/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var videoRowColumns = []string{"id", "chapter_id", "submission_id", "is_completed", "watched_seconds", "total_seconds", "progress_percentage", "completed_at", "created_at", "updated_at"}

func TestVideoCompletionDatabaseAdapter_Get(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVideoCompletionDatabaseAdapter(db)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM video_completions WHERE chapter_id = \? AND submission_id = \?`).
			WithArgs("ch-1", "sub-1").
			WillReturnRows(sqlmock.NewRows(videoRowColumns).AddRow("v1", "ch-1", "sub-1", true, 120, 120, 100, now, now, now))

		v, err := repo.Get(context.Background(), "ch-1", "sub-1")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.True(t, v.IsCompleted)
		require.NotNil(t, v.TotalSeconds)
		assert.Equal(t, 120, *v.TotalSeconds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM video_completions`).WillReturnError(sql.ErrNoRows)

		v, err := repo.Get(context.Background(), "ch-2", "sub-1")
		assert.NoError(t, err)
		assert.Nil(t, v)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVideoCompletionDatabaseAdapter_Upsert(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewVideoCompletionDatabaseAdapter(db)

	mock.ExpectExec(`INSERT INTO video_completions (.+) ON CONFLICT \(chapter_id, submission_id\) DO UPDATE SET`).
		WithArgs(sqlmock.AnyArg(), "ch-1", "sub-1", false, 30, nil, 25, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	v := &domain.VideoCompletion{ChapterID: "ch-1", SubmissionID: "sub-1", WatchedSeconds: 30, ProgressPercentage: 25}
	require.NoError(t, repo.Upsert(context.Background(), v))
	assert.NotEmpty(t, v.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
