package service

import (
	"context"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
)

// ProgressService reports how far learners are through their submissions.
type ProgressService interface {
	Overview(ctx context.Context, session *domain.Session) (*dto.ProgressOverview, error)
	SubmissionProgress(ctx context.Context, session *domain.Session, submissionID string) (*dto.SubmissionProgress, error)
	Summarize(ctx context.Context, sub *domain.Submission) (*dto.SubmissionProgress, error)
}

type progressService struct {
	submissions domain.SubmissionRepository
	answers     domain.AnswerRepository
	videos      domain.VideoCompletionRepository
}

func NewProgressService(
	submissions domain.SubmissionRepository,
	answers domain.AnswerRepository,
	videos domain.VideoCompletionRepository,
) ProgressService {
	return &progressService{submissions: submissions, answers: answers, videos: videos}
}

func (s *progressService) Overview(ctx context.Context, session *domain.Session) (*dto.ProgressOverview, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	subs, err := s.submissions.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list submissions", err)
	}

	overview := &dto.ProgressOverview{
		TotalSubmissions: len(subs),
		Submissions:      make([]dto.SubmissionProgress, 0, len(subs)),
	}
	for _, sub := range subs {
		p, err := s.Summarize(ctx, sub)
		if err != nil {
			return nil, err
		}
		if sub.Status == domain.SubmissionCompleted {
			overview.CompletedSubmissions++
		}
		overview.Submissions = append(overview.Submissions, *p)
	}
	return overview, nil
}

func (s *progressService) SubmissionProgress(ctx context.Context, session *domain.Session, submissionID string) (*dto.SubmissionProgress, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, sub)
}

// Summarize reads both ledgers once and applies the chapter completion rule to every chapter.
func (s *progressService) Summarize(ctx context.Context, sub *domain.Submission) (*dto.SubmissionProgress, error) {
	records, err := s.videos.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load video progress", err)
	}
	byChapter := make(map[string]*domain.VideoCompletion, len(records))
	for _, r := range records {
		byChapter[r.ChapterID] = r
	}

	stored, err := s.answers.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load answers", err)
	}
	answered := answeredQuestions(sub.Snapshot, stored)

	out := &dto.SubmissionProgress{
		SubmissionID:   sub.ID,
		InductionID:    sub.InductionID,
		InductionTitle: sub.Snapshot.Title,
		Status:         sub.Status,
		TotalChapters:  len(sub.Snapshot.Chapters),
		CompletedAt:    sub.CompletedAt,
		Chapters:       make([]dto.ChapterProgress, 0, len(sub.Snapshot.Chapters)),
	}
	for i := range sub.Snapshot.Chapters {
		chapter := &sub.Snapshot.Chapters[i]
		cp := dto.ChapterProgress{
			ChapterID:      chapter.ID,
			ChapterNumber:  i + 1,
			Title:          chapter.Title,
			TotalQuestions: len(chapter.Questions),
		}
		if rec := byChapter[chapter.ID]; rec != nil {
			cp.VideoCompleted = rec.IsCompleted
			cp.ProgressPercentage = rec.ProgressPercentage
			cp.CompletedAt = rec.CompletedAt
		}
		if !chapter.HasVideo() {
			cp.VideoCompleted = true
			cp.ProgressPercentage = 100
		}
		for _, q := range chapter.Questions {
			if answered[q.ID] {
				cp.AnsweredQuestions++
			}
		}
		cp.IsCompleted = cp.VideoCompleted && cp.AnsweredQuestions == cp.TotalQuestions
		if cp.IsCompleted {
			out.CompletedChapters++
		}
		out.Chapters = append(out.Chapters, cp)
	}
	out.CompletionPercentage = percentage(out.CompletedChapters, out.TotalChapters)
	return out, nil
}
