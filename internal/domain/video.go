package domain

import (
	"context"
	"time"
)

// VideoCompletion is the watch ledger for one chapter within one submission.
// WatchedSeconds never decreases and IsCompleted never reverts.
type VideoCompletion struct {
	ID                 string     `json:"id"`
	ChapterID          string     `json:"chapter_id"`
	SubmissionID       string     `json:"submission_id"`
	IsCompleted        bool       `json:"is_completed"`
	WatchedSeconds     int        `json:"watched_seconds"`
	TotalSeconds       *int       `json:"total_seconds,omitempty"`
	ProgressPercentage int        `json:"progress_percentage"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// SeekToleranceSeconds is how far past the furthest watched point a player may seek.
const SeekToleranceSeconds = 2

// MaxSeekableSeconds returns the furthest position the player should allow.
// A negative result means seeking is unrestricted.
func (v *VideoCompletion) MaxSeekableSeconds() int {
	if v == nil {
		return SeekToleranceSeconds
	}
	if v.IsCompleted {
		return -1
	}
	return v.WatchedSeconds + SeekToleranceSeconds
}

// VideoCompletionRepository persists the watch ledger. Get returns (nil, nil) when absent.
type VideoCompletionRepository interface {
	Get(ctx context.Context, chapterID, submissionID string) (*VideoCompletion, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]*VideoCompletion, error)
	// Upsert keeps the larger watched_seconds and never clears is_completed.
	Upsert(ctx context.Context, completion *VideoCompletion) error
}

// VideoURLResolver turns a chapter's stored video reference into a playable URL.
type VideoURLResolver interface {
	ResolveVideoURL(ctx context.Context, chapter *Chapter) (string, error)
}
