package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"induction-portal/internal/cache"
	"induction-portal/internal/domain"
	"induction-portal/internal/logger"
	"induction-portal/internal/metrics"
	"induction-portal/internal/util"

	"go.uber.org/zap"
)

const defaultCompletionCacheTTL = 24 * time.Hour

// VideoProgress is one playback report from the player.
type VideoProgress struct {
	SubmissionID       string
	WatchedSeconds     int
	TotalSeconds       *int
	ProgressPercentage int
}

// VideoCompletionService keeps the per (chapter, submission) watch ledger.
type VideoCompletionService interface {
	RecordProgress(ctx context.Context, session *domain.Session, chapterID string, progress VideoProgress) (*domain.VideoCompletion, error)
	MarkCompleted(ctx context.Context, session *domain.Session, chapterID, submissionID string, totalSeconds *int) (*domain.VideoCompletion, error)
	Completion(ctx context.Context, session *domain.Session, chapterID, submissionID string) (*domain.VideoCompletion, error)
	VideoURL(ctx context.Context, session *domain.Session, chapterID, submissionID string) (string, error)
	// IsCompleted treats chapters without a video as watched.
	IsCompleted(ctx context.Context, submission *domain.Submission, chapter *domain.Chapter) (bool, error)
}

type videoCompletionService struct {
	repo        domain.VideoCompletionRepository
	submissions domain.SubmissionRepository
	cache       domain.Cache
	resolver    domain.VideoURLResolver
	cacheTTL    time.Duration
}

// NewVideoCompletionService builds the tracker. cache and resolver may be nil.
func NewVideoCompletionService(
	repo domain.VideoCompletionRepository,
	submissions domain.SubmissionRepository,
	completionCache domain.Cache,
	resolver domain.VideoURLResolver,
	cacheTTL time.Duration,
) VideoCompletionService {
	return &videoCompletionService{
		repo:        repo,
		submissions: submissions,
		cache:       completionCache,
		resolver:    resolver,
		cacheTTL:    durationOr(cacheTTL, defaultCompletionCacheTTL),
	}
}

func (s *videoCompletionService) chapterOf(ctx context.Context, session *domain.Session, chapterID, submissionID string) (*domain.Submission, *domain.Chapter, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, nil, err
	}
	chapter, ok := sub.Snapshot.Chapter(chapterID)
	if !ok {
		return nil, nil, domain.NewNotFoundError(fmt.Sprintf("Chapter %s is not part of submission %s", chapterID, submissionID))
	}
	return sub, chapter, nil
}

func (s *videoCompletionService) RecordProgress(ctx context.Context, session *domain.Session, chapterID string, progress VideoProgress) (*domain.VideoCompletion, error) {
	sub, _, err := s.chapterOf(ctx, session, chapterID, progress.SubmissionID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, chapterID, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load video progress", err)
	}
	if progress.WatchedSeconds <= 0 || (current != nil && current.IsCompleted) {
		return s.orEmpty(current, chapterID, sub.ID), nil
	}

	pct := progress.ProgressPercentage
	if pct <= 0 && progress.TotalSeconds != nil && *progress.TotalSeconds > 0 {
		pct = percentage(progress.WatchedSeconds, *progress.TotalSeconds)
	}

	record := &domain.VideoCompletion{
		ChapterID:          chapterID,
		SubmissionID:       sub.ID,
		WatchedSeconds:     progress.WatchedSeconds,
		TotalSeconds:       progress.TotalSeconds,
		ProgressPercentage: clampPercentage(pct),
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, domain.NewInternalError("Failed to save video progress", err)
	}

	if sub.Status == domain.SubmissionPending {
		if err := moveSubmission(ctx, s.submissions, sub, domain.SubmissionInProgress); err != nil {
			return nil, err
		}
	}

	return s.reload(ctx, chapterID, sub.ID)
}

func (s *videoCompletionService) MarkCompleted(ctx context.Context, session *domain.Session, chapterID, submissionID string, totalSeconds *int) (*domain.VideoCompletion, error) {
	sub, _, err := s.chapterOf(ctx, session, chapterID, submissionID)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, chapterID, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load video progress", err)
	}
	if current != nil && current.IsCompleted {
		s.remember(ctx, sub.ID, chapterID)
		return current, nil
	}

	now := util.Now()
	record := &domain.VideoCompletion{
		ChapterID:          chapterID,
		SubmissionID:       sub.ID,
		IsCompleted:        true,
		TotalSeconds:       totalSeconds,
		ProgressPercentage: 100,
		CompletedAt:        &now,
	}
	if totalSeconds != nil {
		record.WatchedSeconds = *totalSeconds
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, domain.NewInternalError("Failed to mark video as completed", err)
	}
	metrics.VideosCompleted.Inc()
	s.remember(ctx, sub.ID, chapterID)

	if sub.Status == domain.SubmissionPending {
		if err := moveSubmission(ctx, s.submissions, sub, domain.SubmissionInProgress); err != nil {
			return nil, err
		}
	}

	logger.Get().Info("Chapter video completed",
		zap.String("submissionID", sub.ID),
		zap.String("chapterID", chapterID))

	return s.reload(ctx, chapterID, sub.ID)
}

func (s *videoCompletionService) Completion(ctx context.Context, session *domain.Session, chapterID, submissionID string) (*domain.VideoCompletion, error) {
	sub, chapter, err := s.chapterOf(ctx, session, chapterID, submissionID)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, chapterID, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load video progress", err)
	}
	record := s.orEmpty(current, chapterID, sub.ID)
	if !chapter.HasVideo() {
		record.IsCompleted = true
		record.ProgressPercentage = 100
	}
	return record, nil
}

func (s *videoCompletionService) VideoURL(ctx context.Context, session *domain.Session, chapterID, submissionID string) (string, error) {
	_, chapter, err := s.chapterOf(ctx, session, chapterID, submissionID)
	if err != nil {
		return "", err
	}
	if !chapter.HasVideo() {
		return "", domain.NewNotFoundError(fmt.Sprintf("Chapter %s has no video", chapterID))
	}
	if s.resolver == nil {
		return chapter.VideoReference(), nil
	}
	url, err := s.resolver.ResolveVideoURL(ctx, chapter)
	if err != nil {
		return "", domain.NewInternalError("Failed to resolve video URL", err)
	}
	return url, nil
}

func (s *videoCompletionService) IsCompleted(ctx context.Context, submission *domain.Submission, chapter *domain.Chapter) (bool, error) {
	if !chapter.HasVideo() {
		return true, nil
	}

	key := cache.VideoCompletionKey(submission.ID)
	if s.cache != nil {
		val, err := s.cache.HGet(ctx, key, chapter.ID)
		switch {
		case err == nil && val == "1":
			return true, nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			logger.Get().Warn("Video completion cache read failed", zap.Error(err), zap.String("key", key))
		}
	}

	record, err := s.repo.Get(ctx, chapter.ID, submission.ID)
	if err != nil {
		return false, err
	}
	if record == nil || !record.IsCompleted {
		return false, nil
	}
	s.remember(ctx, submission.ID, chapter.ID)
	return true, nil
}

// remember caches a positive completion. Completion never reverts, so misses are not cached.
func (s *videoCompletionService) remember(ctx context.Context, submissionID, chapterID string) {
	if s.cache == nil {
		return
	}
	key := cache.VideoCompletionKey(submissionID)
	if err := s.cache.HSet(ctx, key, chapterID, "1"); err != nil {
		logger.Get().Warn("Video completion cache write failed", zap.Error(err), zap.String("key", key))
		return
	}
	if err := s.cache.Expire(ctx, key, s.cacheTTL); err != nil {
		logger.Get().Warn("Video completion cache expire failed", zap.Error(err), zap.String("key", key))
	}
}

func (s *videoCompletionService) reload(ctx context.Context, chapterID, submissionID string) (*domain.VideoCompletion, error) {
	record, err := s.repo.Get(ctx, chapterID, submissionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load video progress", err)
	}
	return s.orEmpty(record, chapterID, submissionID), nil
}

func (s *videoCompletionService) orEmpty(record *domain.VideoCompletion, chapterID, submissionID string) *domain.VideoCompletion {
	if record != nil {
		return record
	}
	return &domain.VideoCompletion{ChapterID: chapterID, SubmissionID: submissionID}
}
