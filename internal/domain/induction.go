package domain

import (
	"context"
	"strings"
	"time"
)

// QuestionType is the declared shape of a question's answer.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "single_choice"
	QuestionTypeMultiChoice  QuestionType = "multi_choice"
	QuestionTypeText         QuestionType = "text"
)

// Valid reports whether t is one of the supported question types.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultiChoice, QuestionTypeText:
		return true
	}
	return false
}

// Option is one selectable choice of a choice question.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Question belongs to exactly one chapter. CorrectAnswer is always stored as a list.
type Question struct {
	ID            string       `json:"id"`
	ChapterID     string       `json:"chapter_id"`
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"type"`
	Options       []Option     `json:"options"`
	CorrectAnswer []string     `json:"correct_answer"`
	DisplayOrder  int          `json:"display_order"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// OptionLabel returns the label for an option id, or the id itself when unknown.
func (q *Question) OptionLabel(id string) string {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Label
		}
	}
	return id
}

func (q *Question) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, NewMissingFieldError("question_text"))
	}
	if !q.Type.Valid() {
		errs = append(errs, NewInvalidFormatError("type", q.Type))
	}
	if q.Type == QuestionTypeSingleChoice || q.Type == QuestionTypeMultiChoice {
		if len(q.Options) < 2 {
			errs = append(errs, ValidationError{Field: "options", Code: "OUT_OF_RANGE", Message: "choice questions need at least two options"})
		}
		if len(q.CorrectAnswer) == 0 {
			errs = append(errs, NewMissingFieldError("correct_answer"))
		}
		if q.Type == QuestionTypeSingleChoice && len(q.CorrectAnswer) > 1 {
			errs = append(errs, ValidationError{Field: "correct_answer", Code: "OUT_OF_RANGE", Message: "single choice questions have exactly one correct option"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Chapter is an ordered unit of an induction: one video followed by its questions.
type Chapter struct {
	ID             string     `json:"id"`
	InductionID    string     `json:"induction_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	VideoURL       string     `json:"video_url,omitempty"`
	VideoPath      string     `json:"video_path,omitempty"`
	DisplayOrder   int        `json:"display_order"`
	PassPercentage int        `json:"pass_percentage"`
	Questions      []Question `json:"questions"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// VideoReference returns the external URL when set, otherwise the uploaded file path.
func (c *Chapter) VideoReference() string {
	if strings.TrimSpace(c.VideoURL) != "" {
		return c.VideoURL
	}
	return c.VideoPath
}

// HasVideo reports whether the chapter carries any video to watch.
func (c *Chapter) HasVideo() bool {
	return strings.TrimSpace(c.VideoReference()) != ""
}

func (c *Chapter) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, NewMissingFieldError("title"))
	}
	if c.PassPercentage < 0 || c.PassPercentage > 100 {
		errs = append(errs, NewOutOfRangeError("pass_percentage", c.PassPercentage, 0, 100))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Induction is the live, admin-editable definition of a course.
type Induction struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	DisplayOrder int       `json:"display_order"`
	Chapters     []Chapter `json:"chapters"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i *Induction) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return ValidationErrors{NewMissingFieldError("title")}
	}
	return nil
}

// InductionRepository persists the live induction tree. Get methods return (nil, nil) when absent.
type InductionRepository interface {
	ListInductions(ctx context.Context, activeOnly bool) ([]*Induction, error)
	GetInductionByID(ctx context.Context, id string) (*Induction, error)
	// GetInductionTree loads the induction with chapters and questions in display order.
	GetInductionTree(ctx context.Context, id string) (*Induction, error)
	CreateInduction(ctx context.Context, induction *Induction) error
	UpdateInduction(ctx context.Context, induction *Induction) error
	DeleteInduction(ctx context.Context, id string) error
	UpdateInductionOrder(ctx context.Context, id string, displayOrder int) error

	ListChapters(ctx context.Context, inductionID string) ([]*Chapter, error)
	GetChapterByID(ctx context.Context, id string) (*Chapter, error)
	CreateChapter(ctx context.Context, chapter *Chapter) error
	UpdateChapter(ctx context.Context, chapter *Chapter) error
	DeleteChapter(ctx context.Context, id string) error
	UpdateChapterOrder(ctx context.Context, id string, displayOrder int) error

	ListQuestions(ctx context.Context, chapterID string) ([]*Question, error)
	GetQuestionByID(ctx context.Context, id string) (*Question, error)
	CreateQuestion(ctx context.Context, question *Question) error
	UpdateQuestion(ctx context.Context, question *Question) error
	DeleteQuestion(ctx context.Context, id string) error
	UpdateQuestionOrder(ctx context.Context, id string, displayOrder int) error
}
