package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/repository/models"
	"induction-portal/internal/util"

	"github.com/jmoiron/sqlx"
)

const videoCompletionColumns = `id, chapter_id, submission_id, is_completed, watched_seconds, total_seconds, progress_percentage, completed_at, created_at, updated_at`

// VideoCompletionDatabaseAdapter implements domain.VideoCompletionRepository using sqlx.
type VideoCompletionDatabaseAdapter struct {
	db *sqlx.DB
}

func NewVideoCompletionDatabaseAdapter(db *sqlx.DB) domain.VideoCompletionRepository {
	return &VideoCompletionDatabaseAdapter{db: db}
}

func toDomainVideoCompletion(m *models.VideoCompletion) *domain.VideoCompletion {
	v := &domain.VideoCompletion{
		ID:                 m.ID,
		ChapterID:          m.ChapterID,
		SubmissionID:       m.SubmissionID,
		IsCompleted:        m.IsCompleted,
		WatchedSeconds:     m.WatchedSeconds,
		ProgressPercentage: m.ProgressPercentage,
		CompletedAt:        util.NullTimeToPtr(m.CompletedAt),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.TotalSeconds.Valid {
		total := int(m.TotalSeconds.Int64)
		v.TotalSeconds = &total
	}
	return v
}

func (a *VideoCompletionDatabaseAdapter) Get(ctx context.Context, chapterID, submissionID string) (*domain.VideoCompletion, error) {
	var row models.VideoCompletion
	query := a.db.Rebind(`SELECT ` + videoCompletionColumns + ` FROM video_completions WHERE chapter_id = ? AND submission_id = ?`)
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, chapterID, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get video completion: %w", err)
	}
	return toDomainVideoCompletion(&row), nil
}

func (a *VideoCompletionDatabaseAdapter) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.VideoCompletion, error) {
	var rows []models.VideoCompletion
	query := a.db.Rebind(`SELECT ` + videoCompletionColumns + ` FROM video_completions WHERE submission_id = ?`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, submissionID); err != nil {
		return nil, fmt.Errorf("failed to list video completions: %w", err)
	}
	out := make([]*domain.VideoCompletion, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainVideoCompletion(&rows[i]))
	}
	return out, nil
}

// Upsert merges into the existing row: watched_seconds and progress only grow,
// is_completed and completed_at stick once set.
func (a *VideoCompletionDatabaseAdapter) Upsert(ctx context.Context, v *domain.VideoCompletion) error {
	now := util.Now()
	if v.ID == "" {
		v.ID = util.NewULID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	var total sql.NullInt64
	if v.TotalSeconds != nil {
		total = sql.NullInt64{Int64: int64(*v.TotalSeconds), Valid: true}
	}

	query := a.db.Rebind(`INSERT INTO video_completions (` + videoCompletionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chapter_id, submission_id) DO UPDATE SET
			watched_seconds = CASE WHEN excluded.watched_seconds > video_completions.watched_seconds
				THEN excluded.watched_seconds ELSE video_completions.watched_seconds END,
			progress_percentage = CASE WHEN excluded.progress_percentage > video_completions.progress_percentage
				THEN excluded.progress_percentage ELSE video_completions.progress_percentage END,
			total_seconds = COALESCE(excluded.total_seconds, video_completions.total_seconds),
			is_completed = (video_completions.is_completed OR excluded.is_completed),
			completed_at = COALESCE(video_completions.completed_at, excluded.completed_at),
			updated_at = excluded.updated_at`)

	_, err := GetExecutor(ctx, a.db).ExecContext(ctx, query,
		v.ID, v.ChapterID, v.SubmissionID, v.IsCompleted, v.WatchedSeconds, total,
		v.ProgressPercentage, util.PtrToNullTime(v.CompletedAt), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save video completion: %w", err)
	}
	return nil
}
