package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to SubmissionStatus
		allowed  bool
	}{
		{SubmissionPending, SubmissionInProgress, true},
		{SubmissionPending, SubmissionCompleted, true},
		{SubmissionInProgress, SubmissionCompleted, true},
		{SubmissionCompleted, SubmissionPending, true},
		{SubmissionInProgress, SubmissionInProgress, true},
		{SubmissionInProgress, SubmissionPending, false},
		{SubmissionCompleted, SubmissionInProgress, false},
		{SubmissionStatus("archived"), SubmissionPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSubmission_TransitionTo(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &Submission{Status: SubmissionInProgress}

	require.NoError(t, s.TransitionTo(SubmissionCompleted, now))
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, now, *s.CompletedAt)

	later := now.Add(time.Hour)
	require.NoError(t, s.TransitionTo(SubmissionCompleted, later))
	assert.Equal(t, now, *s.CompletedAt, "completed_at is set once")

	require.NoError(t, s.TransitionTo(SubmissionPending, later))
	assert.Nil(t, s.CompletedAt)

	err := s.TransitionTo(SubmissionStatus("bogus"), later)
	assert.True(t, HasCode(err, CodeInvalidTransition))
}

func TestVideoCompletion_Seek(t *testing.T) {
	var none *VideoCompletion
	assert.Equal(t, SeekToleranceSeconds, none.MaxSeekableSeconds())

	v := &VideoCompletion{WatchedSeconds: 30}
	assert.Equal(t, 30+SeekToleranceSeconds, v.MaxSeekableSeconds())

	v.IsCompleted = true
	assert.Equal(t, -1, v.MaxSeekableSeconds())
}

func TestDomainError_Details(t *testing.T) {
	err := NewNewChaptersDetectedError([]string{"ch-9"})
	assert.Equal(t, CodeNewChaptersDetected, err.Code)
	assert.Equal(t, true, err.Context["has_new_chapters"])
	assert.True(t, HasCode(err, CodeNewChaptersDetected))
	assert.False(t, HasCode(assert.AnError, CodeNewChaptersDetected))

	incomplete := NewIncompleteAnswerSetError(2)
	assert.Equal(t, 2, incomplete.Context["missing_count"])
	assert.Contains(t, incomplete.Error(), "2 question(s) remaining")
}
