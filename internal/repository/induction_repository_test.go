package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"induction-portal/internal/domain"
	"induction-portal/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	inductionRowColumns = []string{"id", "title", "description", "is_active", "display_order", "created_at", "updated_at"}
	chapterRowColumns   = []string{"id", "induction_id", "title", "description", "video_url", "video_path", "display_order", "pass_percentage", "created_at", "updated_at"}
	questionRowColumns  = []string{"id", "chapter_id", "question_text", "question_type", "options", "correct_answer", "display_order", "created_at", "updated_at"}
)

func TestChapterConverters(t *testing.T) {
	m := &models.Chapter{
		ID:        "ch-1",
		Title:     "Intro",
		VideoURL:  sql.NullString{String: "https://v/1.mp4", Valid: true},
		VideoPath: sql.NullString{},
	}
	c := toDomainChapter(m)
	assert.Equal(t, "https://v/1.mp4", c.VideoReference())
	assert.Nil(t, toDomainChapter(nil))

	back := fromDomainChapter(&domain.Chapter{ID: "ch-2", VideoPath: "uploads/a.mp4"})
	assert.False(t, back.VideoURL.Valid)
	assert.True(t, back.VideoPath.Valid)
}

func TestQuestionConverters(t *testing.T) {
	q := &domain.Question{
		ID:            "q1",
		Type:          domain.QuestionTypeMultiChoice,
		Options:       []domain.Option{{ID: "1", Label: "A"}, {ID: "2", Label: "B"}},
		CorrectAnswer: []string{"1", "2"},
	}
	m := fromDomainQuestion(q)
	assert.Equal(t, "multi_choice", m.QuestionType)
	assert.Len(t, m.Options, 2)

	back := toDomainQuestion(m)
	assert.Equal(t, q.Options, back.Options)
	assert.Equal(t, q.CorrectAnswer, back.CorrectAnswer)

	empty := toDomainQuestion(&models.Question{ID: "q2"})
	assert.NotNil(t, empty.CorrectAnswer)
	assert.Empty(t, empty.CorrectAnswer)
}

func TestInductionDatabaseAdapter_ListInductions(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewInductionDatabaseAdapter(db)
	now := time.Now()

	rows := sqlmock.NewRows(inductionRowColumns).
		AddRow("ind-1", "Safety", "desc", true, 1, now, now).
		AddRow("ind-2", "Culture", nil, true, 2, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM inductions WHERE is_active = \? ORDER BY display_order`).
		WithArgs(true).
		WillReturnRows(rows)

	list, err := repo.ListInductions(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "desc", list[0].Description)
	assert.Equal(t, "", list[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInductionDatabaseAdapter_GetInductionTree(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewInductionDatabaseAdapter(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM inductions WHERE id = \?`).
		WithArgs("ind-1").
		WillReturnRows(sqlmock.NewRows(inductionRowColumns).AddRow("ind-1", "Safety", nil, true, 0, now, now))
	mock.ExpectQuery(`SELECT (.+) FROM chapters WHERE induction_id = \?`).
		WithArgs("ind-1").
		WillReturnRows(sqlmock.NewRows(chapterRowColumns).
			AddRow("ch-1", "ind-1", "PPE", nil, "https://v/1.mp4", nil, 1, 80, now, now).
			AddRow("ch-2", "ind-1", "Exits", nil, nil, nil, 2, 0, now, now))
	mock.ExpectQuery(`SELECT (.+) FROM questions q JOIN chapters c ON c.id = q.chapter_id WHERE c.induction_id = \?`).
		WithArgs("ind-1").
		WillReturnRows(sqlmock.NewRows(questionRowColumns).
			AddRow("q-1", "ch-1", "Wear?", "single_choice", `[{"id":"1","label":"Helmet"},{"id":"2","label":"Cap"}]`, `["1"]`, 1, now, now))

	tree, err := repo.GetInductionTree(context.Background(), "ind-1")
	require.NoError(t, err)
	require.Len(t, tree.Chapters, 2)
	require.Len(t, tree.Chapters[0].Questions, 1)
	assert.Equal(t, "Helmet", tree.Chapters[0].Questions[0].OptionLabel("1"))
	assert.Equal(t, []string{"1"}, tree.Chapters[0].Questions[0].CorrectAnswer)
	assert.NotNil(t, tree.Chapters[1].Questions)
	assert.Empty(t, tree.Chapters[1].Questions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInductionDatabaseAdapter_GetInductionTree_NotFound(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewInductionDatabaseAdapter(db)

	mock.ExpectQuery(`SELECT (.+) FROM inductions WHERE id = \?`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	tree, err := repo.GetInductionTree(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, tree)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInductionDatabaseAdapter_UpdateAndDelete(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewInductionDatabaseAdapter(db)
	ctx := context.Background()

	mock.ExpectExec(`UPDATE chapters SET display_order = \?, updated_at = \? WHERE id = \?`).
		WithArgs(3, sqlmock.AnyArg(), "ch-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateChapterOrder(ctx, "ch-1", 3))

	mock.ExpectExec(`DELETE FROM questions WHERE id = \?`).
		WithArgs("q-404").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteQuestion(ctx, "q-404"), sql.ErrNoRows)

	mock.ExpectExec(`UPDATE inductions SET title = \?`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateInduction(ctx, &domain.Induction{ID: "ind-1", Title: "New"}))

	assert.NoError(t, mock.ExpectationsWereMet())
}
