package service

import (
	"context"
	"errors"

	"induction-portal/internal/domain"
	"induction-portal/internal/logger"

	"go.uber.org/zap"
)

// chapterGap is what still blocks a chapter.
type chapterGap int

const (
	gapNone chapterGap = iota
	gapVideo
	gapAnswers
)

// IsChapterFullyAnswered reports whether every question of chapter is in answered.
// A chapter without questions is fully answered.
func IsChapterFullyAnswered(chapter *domain.Chapter, answered map[string]bool) bool {
	for _, q := range chapter.Questions {
		if !answered[q.ID] {
			return false
		}
	}
	return true
}

// answeredQuestions returns the snapshot questions that carry a non-empty stored answer.
func answeredQuestions(snapshot domain.InductionSnapshot, answers []*domain.Answer) map[string]bool {
	types := make(map[string]domain.QuestionType, snapshot.QuestionCount())
	for _, c := range snapshot.Chapters {
		for _, q := range c.Questions {
			types[q.ID] = q.Type
		}
	}
	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		kind, ok := types[a.QuestionID]
		if !ok {
			continue
		}
		payload, err := domain.ParseAnswerPayload(kind, a.Payload)
		if err != nil || payload.IsEmpty() {
			continue
		}
		answered[a.QuestionID] = true
	}
	return answered
}

// chapterChecker decides chapter completeness from the watch ledger and the answer ledger.
type chapterChecker struct {
	videos  VideoCompletionService
	answers domain.AnswerRepository
}

// firstGap scans chapters from start in snapshot order. Any lookup failure stops the
// scan at the current chapter, so an error never lets a learner skip ahead.
func (c *chapterChecker) firstGap(ctx context.Context, sub *domain.Submission, start int) (int, chapterGap, bool) {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(sub.Snapshot.Chapters); i++ {
		chapter := &sub.Snapshot.Chapters[i]

		done, err := c.videos.IsCompleted(ctx, sub, chapter)
		if err != nil {
			logger.Get().Warn("Video completion check failed, holding learner at chapter",
				zap.Error(err), zap.String("submissionID", sub.ID), zap.String("chapterID", chapter.ID))
			return i, gapVideo, true
		}
		if !done {
			return i, gapVideo, true
		}

		if len(chapter.Questions) == 0 {
			continue
		}
		stored, err := c.answers.ListBySubmission(ctx, sub.ID)
		if err != nil {
			logger.Get().Warn("Answer lookup failed, holding learner at chapter",
				zap.Error(err), zap.String("submissionID", sub.ID), zap.String("chapterID", chapter.ID))
			return i, gapAnswers, true
		}
		if !IsChapterFullyAnswered(chapter, answeredQuestions(sub.Snapshot, stored)) {
			return i, gapAnswers, true
		}
	}
	return len(sub.Snapshot.Chapters), gapNone, false
}

// submissionFinalizer completes a submission or reports why it cannot be completed.
type submissionFinalizer interface {
	Finalize(ctx context.Context, sub *domain.Submission) error
}

// ProgressionService decides where a learner goes next.
type ProgressionService interface {
	NextIncompleteChapter(ctx context.Context, sub *domain.Submission, start int) (int, bool)
	NextRoute(ctx context.Context, sub *domain.Submission, start int) (domain.RouteDecision, error)
	LastUnansweredChapter(ctx context.Context, sub *domain.Submission) *domain.ChapterRef
	Route(ctx context.Context, session *domain.Session, submissionID string) (domain.RouteDecision, error)
	LastUnanswered(ctx context.Context, session *domain.Session, submissionID string) (*domain.ChapterRef, error)
}

type progressionService struct {
	checker     *chapterChecker
	finalizer   submissionFinalizer
	submissions domain.SubmissionRepository
}

func NewProgressionService(
	videos VideoCompletionService,
	answers domain.AnswerRepository,
	submissions domain.SubmissionRepository,
	finalizer submissionFinalizer,
) ProgressionService {
	return &progressionService{
		checker:     &chapterChecker{videos: videos, answers: answers},
		finalizer:   finalizer,
		submissions: submissions,
	}
}

func (s *progressionService) NextIncompleteChapter(ctx context.Context, sub *domain.Submission, start int) (int, bool) {
	idx, _, found := s.checker.firstGap(ctx, sub, start)
	return idx, found
}

// NextRoute is the only place that maps submission state to a screen. When nothing is
// left it finalizes; chapters discovered during finalization become the next stop.
func (s *progressionService) NextRoute(ctx context.Context, sub *domain.Submission, start int) (domain.RouteDecision, error) {
	if idx, gap, found := s.checker.firstGap(ctx, sub, start); found {
		return s.chapterRoute(sub, idx, gap), nil
	}

	err := s.finalizer.Finalize(ctx, sub)
	switch {
	case err == nil:
		return domain.ViewRoute(sub.ID), nil
	case domain.HasCode(err, domain.CodeNewChaptersDetected):
		return s.routeToNewChapter(ctx, sub, err)
	case domain.HasCode(err, domain.CodeSubmissionIncomplete):
		// State moved between the scan and finalization; rescan from the top.
		idx, gap, found := s.checker.firstGap(ctx, sub, 0)
		if !found {
			idx, gap = 0, gapVideo
		}
		return s.chapterRoute(sub, idx, gap), nil
	default:
		return domain.RouteDecision{}, err
	}
}

func (s *progressionService) routeToNewChapter(ctx context.Context, sub *domain.Submission, cause error) (domain.RouteDecision, error) {
	fresh, err := s.submissions.GetByID(ctx, sub.ID)
	if err != nil {
		return domain.RouteDecision{}, domain.NewInternalError("Failed to reload submission", err)
	}
	if fresh != nil {
		*sub = *fresh
	}

	idx := 0
	if ids := newChapterIDs(cause); len(ids) > 0 {
		if i := sub.Snapshot.ChapterIndex(ids[0]); i >= 0 {
			idx = i
		}
	}
	if len(sub.Snapshot.Chapters) == 0 {
		return domain.ViewRoute(sub.ID), nil
	}

	gap := gapVideo
	chapter := &sub.Snapshot.Chapters[idx]
	if done, err := s.checker.videos.IsCompleted(ctx, sub, chapter); err == nil && done {
		gap = gapAnswers
	}
	logger.Get().Info("Routing learner to newly added chapter",
		zap.String("submissionID", sub.ID), zap.Int("chapterNumber", idx+1))
	return s.chapterRoute(sub, idx, gap), nil
}

func (s *progressionService) chapterRoute(sub *domain.Submission, idx int, gap chapterGap) domain.RouteDecision {
	kind := domain.RouteVideo
	if gap == gapAnswers {
		kind = domain.RouteQuestions
	}
	return domain.ChapterRoute(kind, sub.ID, idx, sub.Snapshot.Chapters[idx].ID)
}

func (s *progressionService) LastUnansweredChapter(ctx context.Context, sub *domain.Submission) *domain.ChapterRef {
	idx, _, found := s.checker.firstGap(ctx, sub, 0)
	if !found {
		return nil
	}
	return sub.Snapshot.ChapterRef(idx)
}

func (s *progressionService) Route(ctx context.Context, session *domain.Session, submissionID string) (domain.RouteDecision, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return domain.RouteDecision{}, err
	}
	return s.NextRoute(ctx, sub, 0)
}

func (s *progressionService) LastUnanswered(ctx context.Context, session *domain.Session, submissionID string) (*domain.ChapterRef, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	return s.LastUnansweredChapter(ctx, sub), nil
}

// newChapterIDs pulls the added chapter ids out of a NEW_CHAPTERS_DETECTED error.
func newChapterIDs(err error) []string {
	var de *domain.DomainError
	if !errors.As(err, &de) || de.Context == nil {
		return nil
	}
	ids, _ := de.Context["new_chapter_ids"].([]string)
	return ids
}
