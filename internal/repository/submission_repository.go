package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"induction-portal/internal/domain"
	"induction-portal/internal/repository/models"
	"induction-portal/internal/util"

	"github.com/jmoiron/sqlx"
)

const submissionColumns = `id, user_id, induction_id, induction_snapshot, status, completed_at, created_at, updated_at`

// SubmissionDatabaseAdapter implements domain.SubmissionRepository using sqlx.
type SubmissionDatabaseAdapter struct {
	db *sqlx.DB
}

func NewSubmissionDatabaseAdapter(db *sqlx.DB) domain.SubmissionRepository {
	return &SubmissionDatabaseAdapter{db: db}
}

func toDomainSubmission(m *models.Submission) (*domain.Submission, error) {
	if m == nil {
		return nil, nil
	}
	s := &domain.Submission{
		ID:          m.ID,
		UserID:      m.UserID,
		InductionID: m.InductionID,
		Status:      domain.SubmissionStatus(m.Status),
		CompletedAt: util.NullTimeToPtr(m.CompletedAt),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if len(m.InductionSnapshot) > 0 {
		if err := json.Unmarshal(m.InductionSnapshot, &s.Snapshot); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot of submission %s: %w", m.ID, err)
		}
	}
	return s, nil
}

func fromDomainSubmission(s *domain.Submission) (*models.Submission, error) {
	snapshot, err := json.Marshal(s.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return &models.Submission{
		ID:                s.ID,
		UserID:            s.UserID,
		InductionID:       s.InductionID,
		InductionSnapshot: models.JSONText(snapshot),
		Status:            string(s.Status),
		CompletedAt:       util.PtrToNullTime(s.CompletedAt),
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}, nil
}

func (a *SubmissionDatabaseAdapter) getOne(ctx context.Context, where string, args ...interface{}) (*domain.Submission, error) {
	var row models.Submission
	query := a.db.Rebind(`SELECT ` + submissionColumns + ` FROM submissions WHERE ` + where)
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return toDomainSubmission(&row)
}

func (a *SubmissionDatabaseAdapter) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	return a.getOne(ctx, `id = ?`, id)
}

func (a *SubmissionDatabaseAdapter) GetByUserAndInduction(ctx context.Context, userID, inductionID string) (*domain.Submission, error) {
	return a.getOne(ctx, `user_id = ? AND induction_id = ?`, userID, inductionID)
}

func (a *SubmissionDatabaseAdapter) ListByUser(ctx context.Context, userID string) ([]*domain.Submission, error) {
	var rows []models.Submission
	query := a.db.Rebind(`SELECT ` + submissionColumns + ` FROM submissions WHERE user_id = ? ORDER BY created_at DESC`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list submissions for user %s: %w", userID, err)
	}
	return toDomainSubmissions(rows)
}

func (a *SubmissionDatabaseAdapter) List(ctx context.Context, filter domain.SubmissionFilter) ([]*domain.Submission, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.InductionID != "" {
		conditions = append(conditions, "induction_id = ?")
		args = append(args, filter.InductionID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	exec := GetExecutor(ctx, a.db)

	var total int
	if err := exec.GetContext(ctx, &total, a.db.Rebind(`SELECT COUNT(*) FROM submissions`+where), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions` + where + ` ORDER BY updated_at DESC LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), limit, filter.Offset)

	var rows []models.Submission
	if err := exec.SelectContext(ctx, &rows, a.db.Rebind(query), pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	out, err := toDomainSubmissions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func toDomainSubmissions(rows []models.Submission) ([]*domain.Submission, error) {
	out := make([]*domain.Submission, 0, len(rows))
	for i := range rows {
		s, err := toDomainSubmission(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (a *SubmissionDatabaseAdapter) Create(ctx context.Context, submission *domain.Submission) error {
	row, err := fromDomainSubmission(submission)
	if err != nil {
		return err
	}
	query := `INSERT INTO submissions (` + submissionColumns + `)
	          VALUES (:id, :user_id, :induction_id, :induction_snapshot, :status, :completed_at, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("A submission for this induction already exists")
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (a *SubmissionDatabaseAdapter) Update(ctx context.Context, submission *domain.Submission) error {
	row, err := fromDomainSubmission(submission)
	if err != nil {
		return err
	}
	query := `UPDATE submissions SET induction_snapshot = :induction_snapshot, status = :status,
	          completed_at = :completed_at, updated_at = :updated_at WHERE id = :id`
	result, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, row)
	if err != nil {
		return fmt.Errorf("failed to update submission %s: %w", submission.ID, err)
	}
	return checkAffected(result)
}
