package models

import (
	"database/sql"
	"time"
)

// Submission mirrors the submissions table. InductionSnapshot is the frozen induction as JSON.
type Submission struct {
	ID                string       `db:"id"`
	UserID            string       `db:"user_id"`
	InductionID       string       `db:"induction_id"`
	InductionSnapshot JSONText     `db:"induction_snapshot"`
	Status            string       `db:"status"`
	CompletedAt       sql.NullTime `db:"completed_at"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

// Answer mirrors the answers table.
type Answer struct {
	ID            string    `db:"id"`
	SubmissionID  string    `db:"submission_id"`
	QuestionID    string    `db:"question_id"`
	AnswerPayload JSONText  `db:"answer_payload"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// VideoCompletion mirrors the video_completions table.
type VideoCompletion struct {
	ID                 string        `db:"id"`
	ChapterID          string        `db:"chapter_id"`
	SubmissionID       string        `db:"submission_id"`
	IsCompleted        bool          `db:"is_completed"`
	WatchedSeconds     int           `db:"watched_seconds"`
	TotalSeconds       sql.NullInt64 `db:"total_seconds"`
	ProgressPercentage int           `db:"progress_percentage"`
	CompletedAt        sql.NullTime  `db:"completed_at"`
	CreatedAt          time.Time     `db:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at"`
}
