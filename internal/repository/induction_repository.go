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

const (
	inductionColumns = `id, title, description, is_active, display_order, created_at, updated_at`
	chapterColumns   = `id, induction_id, title, description, video_url, video_path, display_order, pass_percentage, created_at, updated_at`
	questionColumns  = `id, chapter_id, question_text, question_type, options, correct_answer, display_order, created_at, updated_at`
)

// InductionDatabaseAdapter implements domain.InductionRepository using sqlx.
type InductionDatabaseAdapter struct {
	db *sqlx.DB
}

func NewInductionDatabaseAdapter(db *sqlx.DB) domain.InductionRepository {
	return &InductionDatabaseAdapter{db: db}
}

// --- converters ---

func toDomainInduction(m *models.Induction) *domain.Induction {
	if m == nil {
		return nil
	}
	return &domain.Induction{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description.String,
		IsActive:     m.IsActive,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomainInduction(i *domain.Induction) *models.Induction {
	return &models.Induction{
		ID:           i.ID,
		Title:        i.Title,
		Description:  util.StringToNullString(i.Description),
		IsActive:     i.IsActive,
		DisplayOrder: i.DisplayOrder,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

func toDomainChapter(m *models.Chapter) *domain.Chapter {
	if m == nil {
		return nil
	}
	return &domain.Chapter{
		ID:             m.ID,
		InductionID:    m.InductionID,
		Title:          m.Title,
		Description:    m.Description.String,
		VideoURL:       m.VideoURL.String,
		VideoPath:      m.VideoPath.String,
		DisplayOrder:   m.DisplayOrder,
		PassPercentage: m.PassPercentage,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func fromDomainChapter(c *domain.Chapter) *models.Chapter {
	return &models.Chapter{
		ID:             c.ID,
		InductionID:    c.InductionID,
		Title:          c.Title,
		Description:    util.StringToNullString(c.Description),
		VideoURL:       util.StringToNullString(c.VideoURL),
		VideoPath:      util.StringToNullString(c.VideoPath),
		DisplayOrder:   c.DisplayOrder,
		PassPercentage: c.PassPercentage,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func toDomainQuestion(m *models.Question) *domain.Question {
	if m == nil {
		return nil
	}
	options := make([]domain.Option, 0, len(m.Options))
	for _, o := range m.Options {
		options = append(options, domain.Option{ID: o.ID, Label: o.Label})
	}
	correct := []string(m.CorrectAnswer)
	if correct == nil {
		correct = []string{}
	}
	return &domain.Question{
		ID:            m.ID,
		ChapterID:     m.ChapterID,
		Text:          m.QuestionText,
		Type:          domain.QuestionType(m.QuestionType),
		Options:       options,
		CorrectAnswer: correct,
		DisplayOrder:  m.DisplayOrder,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromDomainQuestion(q *domain.Question) *models.Question {
	options := make(models.OptionList, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, models.Option{ID: o.ID, Label: o.Label})
	}
	return &models.Question{
		ID:            q.ID,
		ChapterID:     q.ChapterID,
		QuestionText:  q.Text,
		QuestionType:  string(q.Type),
		Options:       options,
		CorrectAnswer: models.StringSlice(q.CorrectAnswer),
		DisplayOrder:  q.DisplayOrder,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// --- inductions ---

func (a *InductionDatabaseAdapter) ListInductions(ctx context.Context, activeOnly bool) ([]*domain.Induction, error) {
	query := `SELECT ` + inductionColumns + ` FROM inductions`
	var args []interface{}
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY display_order, created_at`

	var rows []models.Induction
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, a.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list inductions: %w", err)
	}
	out := make([]*domain.Induction, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainInduction(&rows[i]))
	}
	return out, nil
}

func (a *InductionDatabaseAdapter) GetInductionByID(ctx context.Context, id string) (*domain.Induction, error) {
	var row models.Induction
	query := a.db.Rebind(`SELECT ` + inductionColumns + ` FROM inductions WHERE id = ?`)
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get induction %s: %w", id, err)
	}
	return toDomainInduction(&row), nil
}

func (a *InductionDatabaseAdapter) GetInductionTree(ctx context.Context, id string) (*domain.Induction, error) {
	induction, err := a.GetInductionByID(ctx, id)
	if err != nil || induction == nil {
		return induction, err
	}

	chapters, err := a.ListChapters(ctx, id)
	if err != nil {
		return nil, err
	}

	var questionRows []models.Question
	query := a.db.Rebind(`SELECT q.id, q.chapter_id, q.question_text, q.question_type, q.options, q.correct_answer, q.display_order, q.created_at, q.updated_at
		FROM questions q JOIN chapters c ON c.id = q.chapter_id
		WHERE c.induction_id = ?
		ORDER BY q.display_order, q.created_at`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &questionRows, query, id); err != nil {
		return nil, fmt.Errorf("failed to load questions for induction %s: %w", id, err)
	}

	byChapter := make(map[string][]domain.Question, len(chapters))
	for i := range questionRows {
		q := toDomainQuestion(&questionRows[i])
		byChapter[q.ChapterID] = append(byChapter[q.ChapterID], *q)
	}

	induction.Chapters = make([]domain.Chapter, 0, len(chapters))
	for _, c := range chapters {
		c.Questions = byChapter[c.ID]
		if c.Questions == nil {
			c.Questions = []domain.Question{}
		}
		induction.Chapters = append(induction.Chapters, *c)
	}
	return induction, nil
}

func (a *InductionDatabaseAdapter) CreateInduction(ctx context.Context, induction *domain.Induction) error {
	query := `INSERT INTO inductions (` + inductionColumns + `)
	          VALUES (:id, :title, :description, :is_active, :display_order, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainInduction(induction)); err != nil {
		return fmt.Errorf("failed to create induction: %w", err)
	}
	return nil
}

func (a *InductionDatabaseAdapter) UpdateInduction(ctx context.Context, induction *domain.Induction) error {
	query := `UPDATE inductions SET title = :title, description = :description, is_active = :is_active,
	          display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	result, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainInduction(induction))
	if err != nil {
		return fmt.Errorf("failed to update induction: %w", err)
	}
	return checkAffected(result)
}

func (a *InductionDatabaseAdapter) DeleteInduction(ctx context.Context, id string) error {
	return a.deleteByID(ctx, "inductions", id)
}

func (a *InductionDatabaseAdapter) UpdateInductionOrder(ctx context.Context, id string, displayOrder int) error {
	return a.updateOrder(ctx, "inductions", id, displayOrder)
}

// --- chapters ---

func (a *InductionDatabaseAdapter) ListChapters(ctx context.Context, inductionID string) ([]*domain.Chapter, error) {
	var rows []models.Chapter
	query := a.db.Rebind(`SELECT ` + chapterColumns + ` FROM chapters WHERE induction_id = ? ORDER BY display_order, created_at`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, inductionID); err != nil {
		return nil, fmt.Errorf("failed to list chapters: %w", err)
	}
	out := make([]*domain.Chapter, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainChapter(&rows[i]))
	}
	return out, nil
}

func (a *InductionDatabaseAdapter) GetChapterByID(ctx context.Context, id string) (*domain.Chapter, error) {
	var row models.Chapter
	query := a.db.Rebind(`SELECT ` + chapterColumns + ` FROM chapters WHERE id = ?`)
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chapter %s: %w", id, err)
	}
	return toDomainChapter(&row), nil
}

func (a *InductionDatabaseAdapter) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	query := `INSERT INTO chapters (` + chapterColumns + `)
	          VALUES (:id, :induction_id, :title, :description, :video_url, :video_path, :display_order, :pass_percentage, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainChapter(chapter)); err != nil {
		return fmt.Errorf("failed to create chapter: %w", err)
	}
	return nil
}

func (a *InductionDatabaseAdapter) UpdateChapter(ctx context.Context, chapter *domain.Chapter) error {
	query := `UPDATE chapters SET title = :title, description = :description, video_url = :video_url,
	          video_path = :video_path, display_order = :display_order, pass_percentage = :pass_percentage,
	          updated_at = :updated_at WHERE id = :id`
	result, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainChapter(chapter))
	if err != nil {
		return fmt.Errorf("failed to update chapter: %w", err)
	}
	return checkAffected(result)
}

func (a *InductionDatabaseAdapter) DeleteChapter(ctx context.Context, id string) error {
	return a.deleteByID(ctx, "chapters", id)
}

func (a *InductionDatabaseAdapter) UpdateChapterOrder(ctx context.Context, id string, displayOrder int) error {
	return a.updateOrder(ctx, "chapters", id, displayOrder)
}

// --- questions ---

func (a *InductionDatabaseAdapter) ListQuestions(ctx context.Context, chapterID string) ([]*domain.Question, error) {
	var rows []models.Question
	query := a.db.Rebind(`SELECT ` + questionColumns + ` FROM questions WHERE chapter_id = ? ORDER BY display_order, created_at`)
	if err := GetExecutor(ctx, a.db).SelectContext(ctx, &rows, query, chapterID); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	out := make([]*domain.Question, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainQuestion(&rows[i]))
	}
	return out, nil
}

func (a *InductionDatabaseAdapter) GetQuestionByID(ctx context.Context, id string) (*domain.Question, error) {
	var row models.Question
	query := a.db.Rebind(`SELECT ` + questionColumns + ` FROM questions WHERE id = ?`)
	if err := GetExecutor(ctx, a.db).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get question %s: %w", id, err)
	}
	return toDomainQuestion(&row), nil
}

func (a *InductionDatabaseAdapter) CreateQuestion(ctx context.Context, question *domain.Question) error {
	query := `INSERT INTO questions (` + questionColumns + `)
	          VALUES (:id, :chapter_id, :question_text, :question_type, :options, :correct_answer, :display_order, :created_at, :updated_at)`
	if _, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainQuestion(question)); err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (a *InductionDatabaseAdapter) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	query := `UPDATE questions SET question_text = :question_text, question_type = :question_type, options = :options,
	          correct_answer = :correct_answer, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	result, err := GetExecutor(ctx, a.db).NamedExecContext(ctx, query, fromDomainQuestion(question))
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return checkAffected(result)
}

func (a *InductionDatabaseAdapter) DeleteQuestion(ctx context.Context, id string) error {
	return a.deleteByID(ctx, "questions", id)
}

func (a *InductionDatabaseAdapter) UpdateQuestionOrder(ctx context.Context, id string, displayOrder int) error {
	return a.updateOrder(ctx, "questions", id, displayOrder)
}

// table is always one of the constant names above.
func (a *InductionDatabaseAdapter) deleteByID(ctx context.Context, table, id string) error {
	query := a.db.Rebind(`DELETE FROM ` + table + ` WHERE id = ?`)
	result, err := GetExecutor(ctx, a.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return checkAffected(result)
}

func (a *InductionDatabaseAdapter) updateOrder(ctx context.Context, table, id string, displayOrder int) error {
	query := a.db.Rebind(`UPDATE ` + table + ` SET display_order = ?, updated_at = ? WHERE id = ?`)
	result, err := GetExecutor(ctx, a.db).ExecContext(ctx, query, displayOrder, util.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to reorder %s: %w", table, err)
	}
	return checkAffected(result)
}
