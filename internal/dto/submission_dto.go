package dto

import (
	"encoding/json"
	"time"

	"induction-portal/internal/domain"
)

// StartSubmissionResponse is returned by POST /inductions/{id}/start.
type StartSubmissionResponse struct {
	Submission     *domain.Submission   `json:"submission"`
	HasNewChapters bool                 `json:"has_new_chapters"`
	Completed      bool                 `json:"completed"`
	Route          domain.RouteDecision `json:"route"`
}

// AnswerInput is one answer in a chapter submission. The payload shape depends on the question type.
type AnswerInput struct {
	QuestionID    string          `json:"question_id" validate:"required"`
	AnswerPayload json.RawMessage `json:"answer_payload" swaggertype:"object"`
}

// SubmitAnswersRequest answers every question of one chapter.
// @Description Request body for submitting a chapter's answers
type SubmitAnswersRequest struct {
	ChapterID string        `json:"chapter_id" validate:"required"`
	Answers   []AnswerInput `json:"answers" validate:"dive"`
}

// SubmitAnswersResponse reports the submission state after answers were stored.
type SubmitAnswersResponse struct {
	Status                domain.SubmissionStatus `json:"status"`
	AllQuestionsAnswered  bool                    `json:"all_questions_answered"`
	LastUnansweredChapter *domain.ChapterRef      `json:"last_unanswered_chapter,omitempty"`
	Route                 domain.RouteDecision    `json:"route"`
}

// LastUnansweredResponse carries the first incomplete chapter, if any.
type LastUnansweredResponse struct {
	LastUnansweredChapter *domain.ChapterRef `json:"last_unanswered_chapter,omitempty"`
}

// VideoProgressRequest reports playback position for one chapter.
// @Description Request body for video progress
type VideoProgressRequest struct {
	SubmissionID       string   `json:"submission_id" validate:"required"`
	WatchedSeconds     float64  `json:"watched_seconds" validate:"min=0"`
	TotalSeconds       *float64 `json:"total_seconds" validate:"omitempty,min=0"`
	ProgressPercentage float64  `json:"progress_percentage"`
}

// VideoCompleteRequest marks a chapter video as fully watched.
// @Description Request body for video completion
type VideoCompleteRequest struct {
	SubmissionID string   `json:"submission_id" validate:"required"`
	TotalSeconds *float64 `json:"total_seconds" validate:"omitempty,min=0"`
}

// VideoCompletionResponse is the watch state of one chapter. MaxSeekableSeconds is -1 once seeking is unrestricted.
type VideoCompletionResponse struct {
	ChapterID          string     `json:"chapter_id"`
	SubmissionID       string     `json:"submission_id"`
	IsCompleted        bool       `json:"is_completed"`
	WatchedSeconds     int        `json:"watched_seconds"`
	TotalSeconds       *int       `json:"total_seconds,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	MaxSeekableSeconds int        `json:"max_seekable_seconds"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// NewVideoCompletionResponse renders a ledger record for the player.
func NewVideoCompletionResponse(chapterID, submissionID string, v *domain.VideoCompletion) *VideoCompletionResponse {
	resp := &VideoCompletionResponse{
		ChapterID:          chapterID,
		SubmissionID:       submissionID,
		MaxSeekableSeconds: v.MaxSeekableSeconds(),
	}
	if v != nil {
		resp.IsCompleted = v.IsCompleted
		resp.WatchedSeconds = v.WatchedSeconds
		resp.TotalSeconds = v.TotalSeconds
		resp.ProgressPercentage = v.ProgressPercentage
		resp.CompletedAt = v.CompletedAt
	}
	return resp
}

// VideoSourceResponse is the playable URL of a chapter video.
type VideoSourceResponse struct {
	ChapterID string `json:"chapter_id"`
	URL       string `json:"url"`
}

// AnswerResult classifies one scored answer.
type AnswerResult string

const (
	AnswerCorrect    AnswerResult = "correct"
	AnswerWrong      AnswerResult = "wrong"
	AnswerUnanswered AnswerResult = "unanswered"
)

// ScoreStatistics aggregates scored answers.
type ScoreStatistics struct {
	TotalQuestions  int `json:"total_questions"`
	CorrectAnswers  int `json:"correct_answers"`
	WrongAnswers    int `json:"wrong_answers"`
	Unanswered      int `json:"unanswered"`
	ScorePercentage int `json:"score_percentage"`
}

// QuestionResult is the scored view of one question.
type QuestionResult struct {
	QuestionID             string          `json:"question_id"`
	ChapterID              string          `json:"chapter_id"`
	QuestionText           string          `json:"question_text"`
	Type                   string          `json:"type"`
	Result                 AnswerResult    `json:"result"`
	IsCorrect              bool            `json:"is_correct"`
	UserAnswer             json.RawMessage `json:"user_answer,omitempty" swaggertype:"object"`
	FormattedUserAnswer    string          `json:"formatted_user_answer"`
	CorrectAnswer          []string        `json:"correct_answer"`
	FormattedCorrectAnswer string          `json:"formatted_correct_answer"`
}

// ChapterScore is the informational score of one chapter against its pass percentage.
type ChapterScore struct {
	ChapterID      string           `json:"chapter_id"`
	ChapterNumber  int              `json:"chapter_number"`
	Title          string           `json:"title"`
	PassPercentage int              `json:"pass_percentage"`
	Passed         bool             `json:"passed"`
	Statistics     ScoreStatistics  `json:"statistics"`
	Questions      []QuestionResult `json:"questions"`
}

// SubmissionReview is the scored read-only view of a submission.
type SubmissionReview struct {
	SubmissionID   string                  `json:"submission_id"`
	InductionID    string                  `json:"induction_id"`
	InductionTitle string                  `json:"induction_title"`
	Status         domain.SubmissionStatus `json:"status"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
	User           *UserResponse           `json:"user,omitempty"`
	Statistics     ScoreStatistics         `json:"statistics"`
	Chapters       []ChapterScore          `json:"chapters"`
}

// SubmissionListQuery filters GET /admin/submissions.
type SubmissionListQuery struct {
	InductionID string `query:"induction_id"`
	UserID      string `query:"user_id"`
	Status      string `query:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Limit       int    `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset      int    `query:"offset" validate:"omitempty,min=0"`
}

// SubmissionListItem is one row of the admin submission table.
type SubmissionListItem struct {
	ID             string                  `json:"id"`
	UserID         string                  `json:"user_id"`
	UserName       string                  `json:"user_name,omitempty"`
	UserEmail      string                  `json:"user_email,omitempty"`
	InductionID    string                  `json:"induction_id"`
	InductionTitle string                  `json:"induction_title"`
	Status         domain.SubmissionStatus `json:"status"`
	CompletedAt    *time.Time              `json:"completed_at,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// SubmissionListResponse is a page of admin submission rows.
type SubmissionListResponse struct {
	Items  []SubmissionListItem `json:"items"`
	Total  int                  `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// ChapterProgress is the completion state of one snapshot chapter.
type ChapterProgress struct {
	ChapterID          string     `json:"chapter_id"`
	ChapterNumber      int        `json:"chapter_number"`
	Title              string     `json:"title"`
	VideoCompleted     bool       `json:"video_completed"`
	AnsweredQuestions  int        `json:"answered_questions"`
	TotalQuestions     int        `json:"total_questions"`
	IsCompleted        bool       `json:"is_completed"`
	ProgressPercentage int        `json:"progress_percentage"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// SubmissionProgress summarises how far a learner is through one submission.
type SubmissionProgress struct {
	SubmissionID         string                  `json:"submission_id"`
	InductionID          string                  `json:"induction_id"`
	InductionTitle       string                  `json:"induction_title"`
	Status               domain.SubmissionStatus `json:"status"`
	CompletedChapters    int                     `json:"completed_chapters"`
	TotalChapters        int                     `json:"total_chapters"`
	CompletionPercentage int                     `json:"completion_percentage"`
	CompletedAt          *time.Time              `json:"completed_at,omitempty"`
	Chapters             []ChapterProgress       `json:"chapters"`
}

// ProgressOverview is the learner dashboard.
type ProgressOverview struct {
	TotalSubmissions     int                  `json:"total_submissions"`
	CompletedSubmissions int                  `json:"completed_submissions"`
	Submissions          []SubmissionProgress `json:"submissions"`
}
