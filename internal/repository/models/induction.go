package models

import (
	"database/sql"
	"time"
)

// Induction mirrors the inductions table.
type Induction struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  sql.NullString `db:"description"`
	IsActive     bool           `db:"is_active"`
	DisplayOrder int            `db:"display_order"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Chapter mirrors the chapters table.
type Chapter struct {
	ID             string         `db:"id"`
	InductionID    string         `db:"induction_id"`
	Title          string         `db:"title"`
	Description    sql.NullString `db:"description"`
	VideoURL       sql.NullString `db:"video_url"`
	VideoPath      sql.NullString `db:"video_path"`
	DisplayOrder   int            `db:"display_order"`
	PassPercentage int            `db:"pass_percentage"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// Question mirrors the questions table. Options and CorrectAnswer are JSON text.
type Question struct {
	ID            string      `db:"id"`
	ChapterID     string      `db:"chapter_id"`
	QuestionText  string      `db:"question_text"`
	QuestionType  string      `db:"question_type"`
	Options       OptionList  `db:"options"`
	CorrectAnswer StringSlice `db:"correct_answer"`
	DisplayOrder  int         `db:"display_order"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}
