package service

import (
	"context"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/logger"
	"induction-portal/internal/metrics"
	"induction-portal/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StartResult is the submission a learner resumes or begins.
type StartResult struct {
	Submission     *domain.Submission
	HasNewChapters bool
	Completed      bool
}

// SubmissionService owns the submission lifecycle.
type SubmissionService interface {
	Start(ctx context.Context, session *domain.Session, inductionID string) (*StartResult, error)
	Complete(ctx context.Context, session *domain.Session, submissionID string) (*domain.Submission, error)
	Get(ctx context.Context, session *domain.Session, submissionID string) (*domain.Submission, error)
	GetCompleted(ctx context.Context, session *domain.Session, inductionID string) (*domain.Submission, error)
	// Finalize re-verifies every chapter and marks sub completed, merging chapters added
	// to the live induction first.
	Finalize(ctx context.Context, sub *domain.Submission) error
}

type submissionService struct {
	submissions domain.SubmissionRepository
	inductions  domain.InductionRepository
	answers     domain.AnswerRepository
	checker     *chapterChecker
	starts      singleflight.Group
}

func NewSubmissionService(
	submissions domain.SubmissionRepository,
	inductions domain.InductionRepository,
	answers domain.AnswerRepository,
	videos VideoCompletionService,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		inductions:  inductions,
		answers:     answers,
		checker:     &chapterChecker{videos: videos, answers: answers},
	}
}

func (s *submissionService) Start(ctx context.Context, session *domain.Session, inductionID string) (*StartResult, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	// A double-clicked start button must not race two inserts for the same pair.
	// The shared call runs detached so one caller cancelling does not fail the others.
	v, err, _ := s.starts.Do(session.UserID+"|"+inductionID, func() (interface{}, error) {
		return s.start(context.WithoutCancel(ctx), session.UserID, inductionID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*StartResult), nil
}

func (s *submissionService) start(ctx context.Context, userID, inductionID string) (*StartResult, error) {
	live, err := s.inductions.GetInductionTree(ctx, inductionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load induction", err)
	}
	if live == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Induction %s not found", inductionID))
	}

	// Existing submissions resume even after the induction is deactivated.
	existing, err := s.submissions.GetByUserAndInduction(ctx, userID, inductionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load submission", err)
	}
	if existing != nil {
		return s.resume(ctx, existing, live)
	}
	if !live.IsActive {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Induction %s not found", inductionID))
	}

	now := util.Now()
	sub := &domain.Submission{
		ID:          util.NewULID(),
		UserID:      userID,
		InductionID: inductionID,
		Snapshot:    domain.NewSnapshot(live),
		Status:      domain.SubmissionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if domain.HasCode(err, domain.CodeConflict) {
			// Another instance created it first.
			existing, getErr := s.submissions.GetByUserAndInduction(ctx, userID, inductionID)
			if getErr == nil && existing != nil {
				return s.resume(ctx, existing, live)
			}
		}
		return nil, domain.NewInternalError("Failed to create submission", err)
	}

	logger.Get().Info("Submission started",
		zap.String("submissionID", sub.ID),
		zap.String("userID", userID),
		zap.String("inductionID", inductionID),
		zap.Int("chapters", len(sub.Snapshot.Chapters)))
	return &StartResult{Submission: sub}, nil
}

// resume returns an existing submission, reopening a completed one when the live induction grew.
func (s *submissionService) resume(ctx context.Context, sub *domain.Submission, live *domain.Induction) (*StartResult, error) {
	result := &StartResult{Submission: sub}
	if sub.Status == domain.SubmissionCompleted {
		merged, added := sub.Snapshot.Merge(live)
		if len(added) > 0 {
			sub.Snapshot = merged
			if err := moveSubmission(ctx, s.submissions, sub, domain.SubmissionPending); err != nil {
				return nil, err
			}
			metrics.NewChaptersDetected.Inc()
			logger.Get().Info("Completed submission reopened for new chapters",
				zap.String("submissionID", sub.ID), zap.Strings("newChapterIDs", added))
			result.HasNewChapters = true
		}
	}
	result.Completed = sub.Status == domain.SubmissionCompleted
	return result, nil
}

func (s *submissionService) Complete(ctx context.Context, session *domain.Session, submissionID string) (*domain.Submission, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	if err := s.Finalize(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *submissionService) Finalize(ctx context.Context, sub *domain.Submission) error {
	live, err := s.inductions.GetInductionTree(ctx, sub.InductionID)
	if err != nil {
		return domain.NewInternalError("Failed to load induction", err)
	}
	if live != nil {
		merged, added := sub.Snapshot.Merge(live)
		if len(added) > 0 {
			sub.Snapshot = merged
			next := sub.Status
			if next == domain.SubmissionCompleted {
				next = domain.SubmissionPending
			}
			if err := moveSubmission(ctx, s.submissions, sub, next); err != nil {
				return err
			}
			metrics.NewChaptersDetected.Inc()
			logger.Get().Info("New chapters merged into submission",
				zap.String("submissionID", sub.ID), zap.Strings("newChapterIDs", added))
			return domain.NewNewChaptersDetectedError(added)
		}
	}

	if sub.Status == domain.SubmissionCompleted {
		return nil
	}

	if idx, _, found := s.checker.firstGap(ctx, sub, 0); found {
		return domain.NewSubmissionIncompleteError(idx + 1)
	}
	return moveSubmission(ctx, s.submissions, sub, domain.SubmissionCompleted)
}

func (s *submissionService) Get(ctx context.Context, session *domain.Session, submissionID string) (*domain.Submission, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load answers", err)
	}
	sub.Answers = answers
	return sub, nil
}

func (s *submissionService) GetCompleted(ctx context.Context, session *domain.Session, inductionID string) (*domain.Submission, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	sub, err := s.submissions.GetByUserAndInduction(ctx, session.UserID, inductionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load submission", err)
	}
	if sub == nil || sub.Status != domain.SubmissionCompleted {
		return nil, domain.NewNotFoundError(fmt.Sprintf("No completed submission for induction %s", inductionID))
	}
	return sub, nil
}
