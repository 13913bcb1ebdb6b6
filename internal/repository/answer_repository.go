package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/repository/models"
	"induction-portal/internal/util"

	"github.com/jmoiron/sqlx"
)

// AnswerDatabaseAdapter implements domain.AnswerRepository using sqlx.
type AnswerDatabaseAdapter struct {
	db *sqlx.DB
}

func NewAnswerDatabaseAdapter(db *sqlx.DB) domain.AnswerRepository {
	return &AnswerDatabaseAdapter{db: db}
}

func toDomainAnswer(m *models.Answer) *domain.Answer {
	return &domain.Answer{
		ID:           m.ID,
		SubmissionID: m.SubmissionID,
		QuestionID:   m.QuestionID,
		Payload:      json.RawMessage(m.AnswerPayload),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (a *AnswerDatabaseAdapter) ListBySubmission(ctx context.Context, submissionID string) ([]*domain.Answer, error) {
	var rows []models.Answer
	query := a.db.Rebind(`SELECT id, submission_id, question_id, answer_payload, created_at, updated_at
		FROM answers WHERE submission_id = ? ORDER BY created_at`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, submissionID); err != nil {
		return nil, fmt.Errorf("failed to list answers for submission %s: %w", submissionID, err)
	}
	out := make([]*domain.Answer, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainAnswer(&rows[i]))
	}
	return out, nil
}

// UpsertAnswers writes each answer, replacing the payload of an existing (submission, question) row.
func (a *AnswerDatabaseAdapter) UpsertAnswers(ctx context.Context, answers []*domain.Answer) error {
	query := a.db.Rebind(`INSERT INTO answers (id, submission_id, question_id, answer_payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (submission_id, question_id)
		DO UPDATE SET answer_payload = excluded.answer_payload, updated_at = excluded.updated_at`)

	exec := GetExecutor(ctx, a.db)
	now := util.Now()
	for _, ans := range answers {
		if ans.ID == "" {
			ans.ID = util.NewULID()
		}
		if ans.CreatedAt.IsZero() {
			ans.CreatedAt = now
		}
		ans.UpdatedAt = now
		if _, err := exec.ExecContext(ctx, query,
			ans.ID, ans.SubmissionID, ans.QuestionID, string(ans.Payload), ans.CreatedAt, ans.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save answer for question %s: %w", ans.QuestionID, err)
		}
	}
	return nil
}
