package service

import (
	"context"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
)

const defaultSubmissionPageSize = 50

// ReviewService serves the scored, read-only views of submissions.
type ReviewService interface {
	LearnerReview(ctx context.Context, session *domain.Session, submissionID string) (*dto.SubmissionReview, error)
	AdminReview(ctx context.Context, submissionID string) (*dto.SubmissionReview, error)
	ListSubmissions(ctx context.Context, query dto.SubmissionListQuery) (*dto.SubmissionListResponse, error)
}

type reviewService struct {
	submissions domain.SubmissionRepository
	answers     domain.AnswerRepository
	users       domain.UserRepository
	scoring     *ScoringEngine
}

func NewReviewService(
	submissions domain.SubmissionRepository,
	answers domain.AnswerRepository,
	users domain.UserRepository,
	scoring *ScoringEngine,
) ReviewService {
	return &reviewService{submissions: submissions, answers: answers, users: users, scoring: scoring}
}

// LearnerReview is only available once the submission is completed, since it reveals correct answers.
func (s *reviewService) LearnerReview(ctx context.Context, session *domain.Session, submissionID string) (*dto.SubmissionReview, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.SubmissionCompleted {
		return nil, domain.NewError(domain.CodeSubmissionIncomplete, "The review is available once the induction is completed", nil)
	}
	return s.review(ctx, sub, false)
}

func (s *reviewService) AdminReview(ctx context.Context, submissionID string) (*dto.SubmissionReview, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load submission", err)
	}
	if sub == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Submission %s not found", submissionID))
	}
	return s.review(ctx, sub, true)
}

func (s *reviewService) review(ctx context.Context, sub *domain.Submission, withUser bool) (*dto.SubmissionReview, error) {
	answers, err := s.answers.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load answers", err)
	}
	stats, chapters := s.scoring.ScoreSubmission(sub, answers)

	review := &dto.SubmissionReview{
		SubmissionID:   sub.ID,
		InductionID:    sub.InductionID,
		InductionTitle: sub.Snapshot.Title,
		Status:         sub.Status,
		CompletedAt:    sub.CompletedAt,
		Statistics:     stats,
		Chapters:       chapters,
	}
	if withUser {
		user, err := s.users.GetUserByID(ctx, sub.UserID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to load user", err)
		}
		if user != nil {
			review.User = &dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)}
		}
	}
	return review, nil
}

func (s *reviewService) ListSubmissions(ctx context.Context, query dto.SubmissionListQuery) (*dto.SubmissionListResponse, error) {
	filter := domain.SubmissionFilter{
		InductionID: query.InductionID,
		UserID:      query.UserID,
		Status:      domain.SubmissionStatus(query.Status),
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("Unknown status %q", query.Status))
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultSubmissionPageSize
	}

	subs, total, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list submissions", err)
	}

	users := make(map[string]*domain.User)
	items := make([]dto.SubmissionListItem, 0, len(subs))
	for _, sub := range subs {
		user, seen := users[sub.UserID]
		if !seen {
			user, err = s.users.GetUserByID(ctx, sub.UserID)
			if err != nil {
				return nil, domain.NewInternalError("Failed to load user", err)
			}
			users[sub.UserID] = user
		}
		item := dto.SubmissionListItem{
			ID:             sub.ID,
			UserID:         sub.UserID,
			InductionID:    sub.InductionID,
			InductionTitle: sub.Snapshot.Title,
			Status:         sub.Status,
			CompletedAt:    sub.CompletedAt,
			CreatedAt:      sub.CreatedAt,
			UpdatedAt:      sub.UpdatedAt,
		}
		if user != nil {
			item.UserName = user.Name
			item.UserEmail = user.Email
		}
		items = append(items, item)
	}

	return &dto.SubmissionListResponse{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}
