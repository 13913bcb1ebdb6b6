package service

import (
	"context"
	"fmt"
	"time"

	"induction-portal/internal/domain"
	"induction-portal/internal/logger"
	"induction-portal/internal/metrics"
	"induction-portal/internal/util"

	"go.uber.org/zap"
)

// loadSubmission fetches a submission the session may see. Foreign submissions are reported as not found.
func loadSubmission(ctx context.Context, repo domain.SubmissionRepository, session *domain.Session, id string) (*domain.Submission, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	sub, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load submission", err)
	}
	if sub == nil || !session.CanAccess(sub.UserID) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Submission %s not found", id))
	}
	return sub, nil
}

// moveSubmission transitions and persists a submission in one step.
func moveSubmission(ctx context.Context, repo domain.SubmissionRepository, sub *domain.Submission, next domain.SubmissionStatus) error {
	from := sub.Status
	if err := sub.TransitionTo(next, util.Now()); err != nil {
		return err
	}
	if err := repo.Update(ctx, sub); err != nil {
		return domain.NewInternalError("Failed to update submission", err)
	}
	if from != next {
		metrics.RecordTransition(string(from), string(next))
		logger.Get().Info("Submission status changed",
			zap.String("submissionID", sub.ID),
			zap.String("from", string(from)),
			zap.String("to", string(next)))
	}
	return nil
}

// percentage rounds part/total*100 half away from zero. A zero total yields 0.
func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(float64(part)*100/float64(total) + 0.5)
}

func clampPercentage(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
