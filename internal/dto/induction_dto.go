package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// StringList accepts either a JSON array of scalars or a single scalar.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = nil
	case []interface{}:
		out := make(StringList, 0, len(v))
		for _, item := range v {
			out = append(out, scalarToString(item))
		}
		*l = out
	default:
		*l = StringList{scalarToString(v)}
	}
	return nil
}

func scalarToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// InductionRequest creates or replaces an induction.
// @Description Admin request body for an induction
type InductionRequest struct {
	Title        string `json:"title" validate:"required,max=255"`
	Description  string `json:"description" validate:"max=5000"`
	IsActive     *bool  `json:"is_active"`
	DisplayOrder *int   `json:"display_order" validate:"omitempty,min=0"`
}

// ChapterRequest creates or replaces a chapter.
// @Description Admin request body for a chapter
type ChapterRequest struct {
	Title          string `json:"title" validate:"required,max=255"`
	Description    string `json:"description" validate:"max=5000"`
	VideoURL       string `json:"video_url" validate:"omitempty,url"`
	VideoPath      string `json:"video_path" validate:"max=1024"`
	DisplayOrder   *int   `json:"display_order" validate:"omitempty,min=0"`
	PassPercentage *int   `json:"pass_percentage" validate:"omitempty,min=0,max=100"`
}

// OptionRequest is one selectable option of a choice question.
type OptionRequest struct {
	ID    string `json:"id" validate:"required,max=64"`
	Label string `json:"label" validate:"required,max=1000"`
}

// QuestionRequest creates or replaces a question. correct_answer may be a scalar or an array.
// @Description Admin request body for a question
type QuestionRequest struct {
	QuestionText  string          `json:"question_text" validate:"required"`
	Type          string          `json:"type" validate:"required,oneof=single_choice multi_choice text"`
	Options       []OptionRequest `json:"options" validate:"dive"`
	CorrectAnswer StringList      `json:"correct_answer"`
	DisplayOrder  *int            `json:"display_order" validate:"omitempty,min=0"`
}

// ReorderItem assigns a new display order to one record.
type ReorderItem struct {
	ID           string `json:"id" validate:"required"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

// ReorderRequest applies several display orders at once.
// @Description Admin request body for reordering
type ReorderRequest struct {
	Items []ReorderItem `json:"items" validate:"required,min=1,dive"`
}

// SubmissionSummary is the caller's submission state shown next to an active induction.
type SubmissionSummary struct {
	ID                   string     `json:"id"`
	Status               string     `json:"status"`
	CompletedChapters    int        `json:"completed_chapters"`
	TotalChapters        int        `json:"total_chapters"`
	CompletionPercentage int        `json:"completion_percentage"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
}

// ActiveInductionResponse is one row of GET /inductions/active.
type ActiveInductionResponse struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	DisplayOrder int                `json:"display_order"`
	ChapterCount int                `json:"chapter_count"`
	Submission   *SubmissionSummary `json:"submission,omitempty"`
}
