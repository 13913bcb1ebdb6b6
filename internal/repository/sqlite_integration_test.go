package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"induction-portal/internal/database"
	"induction-portal/internal/domain"
	"induction-portal/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupSQLiteDB opens a throwaway file database with the full schema applied.
func setupSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "induction.db") + "?_pragma=foreign_keys(1)"
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrations(db.DB, database.DriverSQLite))
	return db
}

func seedInduction(t *testing.T, repo domain.InductionRepository) *domain.Induction {
	t.Helper()
	ctx := context.Background()
	now := util.Now()

	ind := &domain.Induction{ID: util.NewULID(), Title: "Site Safety", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateInduction(ctx, ind))

	for i, title := range []string{"PPE", "Fire Exits"} {
		ch := &domain.Chapter{
			ID: util.NewULID(), InductionID: ind.ID, Title: title,
			VideoURL: "https://videos.example.com/" + title, DisplayOrder: i + 1,
			CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repo.CreateChapter(ctx, ch))
		q := &domain.Question{
			ID: util.NewULID(), ChapterID: ch.ID, Text: "Pick one", Type: domain.QuestionTypeSingleChoice,
			Options:       []domain.Option{{ID: "1", Label: "Yes"}, {ID: "2", Label: "No"}},
			CorrectAnswer: []string{"1"}, DisplayOrder: 1, CreatedAt: now, UpdatedAt: now,
		}
		require.NoError(t, repo.CreateQuestion(ctx, q))
	}
	return ind
}

func TestSQLite_InductionTreeAndCascade(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewInductionDatabaseAdapter(db)
	ctx := context.Background()

	ind := seedInduction(t, repo)

	tree, err := repo.GetInductionTree(ctx, ind.ID)
	require.NoError(t, err)
	require.Len(t, tree.Chapters, 2)
	assert.Equal(t, "PPE", tree.Chapters[0].Title)
	require.Len(t, tree.Chapters[0].Questions, 1)
	assert.Equal(t, []string{"1"}, tree.Chapters[0].Questions[0].CorrectAnswer)
	assert.Equal(t, "Yes", tree.Chapters[0].Questions[0].OptionLabel("1"))

	active, err := repo.ListInductions(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, repo.UpdateChapterOrder(ctx, tree.Chapters[1].ID, 0))
	tree, err = repo.GetInductionTree(ctx, ind.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fire Exits", tree.Chapters[0].Title)

	require.NoError(t, repo.DeleteInduction(ctx, ind.ID))
	chapters, err := repo.ListChapters(ctx, ind.ID)
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestSQLite_SubmissionLifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	ctx := context.Background()
	inductions := NewInductionDatabaseAdapter(db)
	users := NewSQLXUserRepository(db)
	submissions := NewSubmissionDatabaseAdapter(db)
	answers := NewAnswerDatabaseAdapter(db)
	videos := NewVideoCompletionDatabaseAdapter(db)

	ind := seedInduction(t, inductions)
	tree, err := inductions.GetInductionTree(ctx, ind.ID)
	require.NoError(t, err)

	user := domain.NewUser("Ada", "ada@example.com")
	user.ID = util.NewULID()
	user.PasswordHash = "hash"
	require.NoError(t, users.CreateUser(ctx, user))

	dup := domain.NewUser("Ada Again", "ADA@example.com")
	dup.ID = util.NewULID()
	dup.PasswordHash = "hash"
	assert.True(t, domain.HasCode(users.CreateUser(ctx, dup), domain.CodeConflict))

	now := util.Now()
	sub := &domain.Submission{
		ID: util.NewULID(), UserID: user.ID, InductionID: ind.ID,
		Snapshot: domain.NewSnapshot(tree), Status: domain.SubmissionPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, submissions.Create(ctx, sub))

	again := *sub
	again.ID = util.NewULID()
	assert.True(t, domain.HasCode(submissions.Create(ctx, &again), domain.CodeConflict))

	loaded, err := submissions.GetByUserAndInduction(ctx, user.ID, ind.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sub.Snapshot.ChapterIDs(), loaded.Snapshot.ChapterIDs())
	assert.Nil(t, loaded.CompletedAt)

	chapterID := tree.Chapters[0].ID
	questionID := tree.Chapters[0].Questions[0].ID

	t.Run("video progress never regresses", func(t *testing.T) {
		total := 100
		require.NoError(t, videos.Upsert(ctx, &domain.VideoCompletion{ChapterID: chapterID, SubmissionID: sub.ID, WatchedSeconds: 60, TotalSeconds: &total, ProgressPercentage: 60}))
		require.NoError(t, videos.Upsert(ctx, &domain.VideoCompletion{ChapterID: chapterID, SubmissionID: sub.ID, WatchedSeconds: 20, ProgressPercentage: 20}))

		v, err := videos.Get(ctx, chapterID, sub.ID)
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, 60, v.WatchedSeconds)
		require.NotNil(t, v.TotalSeconds)
		assert.Equal(t, 100, *v.TotalSeconds)
		assert.False(t, v.IsCompleted)

		completedAt := util.Now()
		require.NoError(t, videos.Upsert(ctx, &domain.VideoCompletion{ChapterID: chapterID, SubmissionID: sub.ID, IsCompleted: true, WatchedSeconds: 100, ProgressPercentage: 100, CompletedAt: &completedAt}))
		require.NoError(t, videos.Upsert(ctx, &domain.VideoCompletion{ChapterID: chapterID, SubmissionID: sub.ID, WatchedSeconds: 10}))

		v, err = videos.Get(ctx, chapterID, sub.ID)
		require.NoError(t, err)
		assert.True(t, v.IsCompleted)
		require.NotNil(t, v.CompletedAt)
		assert.WithinDuration(t, completedAt, *v.CompletedAt, time.Second)
	})

	t.Run("answers are replaced per question", func(t *testing.T) {
		require.NoError(t, answers.UpsertAnswers(ctx, []*domain.Answer{{SubmissionID: sub.ID, QuestionID: questionID, Payload: json.RawMessage(`"2"`)}}))
		require.NoError(t, answers.UpsertAnswers(ctx, []*domain.Answer{{SubmissionID: sub.ID, QuestionID: questionID, Payload: json.RawMessage(`"1"`)}}))

		list, err := answers.ListBySubmission(ctx, sub.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.JSONEq(t, `"1"`, string(list[0].Payload))
	})

	t.Run("completion is persisted", func(t *testing.T) {
		require.NoError(t, loaded.TransitionTo(domain.SubmissionCompleted, util.Now()))
		require.NoError(t, submissions.Update(ctx, loaded))

		list, total, err := submissions.List(ctx, domain.SubmissionFilter{Status: domain.SubmissionCompleted})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, list, 1)
		assert.NotNil(t, list[0].CompletedAt)
	})
}

func TestSQLite_TransactionRollback(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewInductionDatabaseAdapter(db)
	tm := NewTransactionManagerAdapter(db)
	ctx := context.Background()

	now := util.Now()
	id := util.NewULID()
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.CreateInduction(txCtx, &domain.Induction{ID: id, Title: "Temp", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return domain.NewConflictError("abort")
	})
	require.Error(t, err)

	got, err := repo.GetInductionByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
