package domain

import (
	"context"
	"time"
)

// SubmissionStatus tracks one learner's run through an induction.
type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionCompleted  SubmissionStatus = "completed"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionInProgress, SubmissionCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes pending -> in_progress -> completed, the reopen edge
// completed -> pending, and pending -> completed for inductions with nothing to do.
// Staying in the same state is always allowed.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case SubmissionPending:
		return next == SubmissionInProgress || next == SubmissionCompleted
	case SubmissionInProgress:
		return next == SubmissionCompleted
	case SubmissionCompleted:
		return next == SubmissionPending
	}
	return false
}

// Submission is a learner's attempt at an induction, bound to a snapshot taken at start.
type Submission struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	InductionID string            `json:"induction_id"`
	Snapshot    InductionSnapshot `json:"induction_snapshot"`
	Status      SubmissionStatus  `json:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Answers     []*Answer         `json:"answers,omitempty"`
}

// TransitionTo moves the submission to next or returns an INVALID_STATUS_TRANSITION error.
func (s *Submission) TransitionTo(next SubmissionStatus, now time.Time) error {
	if !s.Status.CanTransitionTo(next) {
		return NewInvalidTransitionError(s.Status, next)
	}
	s.Status = next
	switch next {
	case SubmissionCompleted:
		if s.CompletedAt == nil {
			t := now
			s.CompletedAt = &t
		}
	case SubmissionPending:
		s.CompletedAt = nil
	}
	s.UpdatedAt = now
	return nil
}

// SubmissionFilter narrows admin listings. Empty fields match everything.
type SubmissionFilter struct {
	InductionID string
	UserID      string
	Status      SubmissionStatus
	Limit       int
	Offset      int
}

// SubmissionRepository persists submissions. Get methods return (nil, nil) when absent.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id string) (*Submission, error)
	GetByUserAndInduction(ctx context.Context, userID, inductionID string) (*Submission, error)
	ListByUser(ctx context.Context, userID string) ([]*Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]*Submission, int, error)
	Create(ctx context.Context, submission *Submission) error
	// Update writes status, snapshot and completed_at.
	Update(ctx context.Context, submission *Submission) error
}
