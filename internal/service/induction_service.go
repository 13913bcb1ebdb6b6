package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"induction-portal/internal/cache"
	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"
	"induction-portal/internal/util"

	"go.uber.org/zap"
)

const activeInductionsTTL = 5 * time.Minute

// InductionService serves the learner catalogue and the admin editor for inductions,
// chapters and questions. Admin methods assume the caller was authorized upstream.
type InductionService interface {
	ListActive(ctx context.Context, session *domain.Session) ([]dto.ActiveInductionResponse, error)

	ListInductions(ctx context.Context) ([]*domain.Induction, error)
	GetInduction(ctx context.Context, id string) (*domain.Induction, error)
	CreateInduction(ctx context.Context, req *dto.InductionRequest) (*domain.Induction, error)
	UpdateInduction(ctx context.Context, id string, req *dto.InductionRequest) (*domain.Induction, error)
	DeleteInduction(ctx context.Context, id string) error
	ReorderInductions(ctx context.Context, items []dto.ReorderItem) error

	ListChapters(ctx context.Context, inductionID string) ([]*domain.Chapter, error)
	CreateChapter(ctx context.Context, inductionID string, req *dto.ChapterRequest) (*domain.Chapter, error)
	UpdateChapter(ctx context.Context, id string, req *dto.ChapterRequest) (*domain.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error
	ReorderChapters(ctx context.Context, inductionID string, items []dto.ReorderItem) error

	ListQuestions(ctx context.Context, chapterID string) ([]*domain.Question, error)
	CreateQuestion(ctx context.Context, chapterID string, req *dto.QuestionRequest) (*domain.Question, error)
	UpdateQuestion(ctx context.Context, id string, req *dto.QuestionRequest) (*domain.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ReorderQuestions(ctx context.Context, chapterID string, items []dto.ReorderItem) error
}

type inductionService struct {
	repo        domain.InductionRepository
	submissions domain.SubmissionRepository
	progress    ProgressService
	cache       domain.Cache
	tx          domain.TransactionManager
}

func NewInductionService(
	repo domain.InductionRepository,
	submissions domain.SubmissionRepository,
	progress ProgressService,
	catalogueCache domain.Cache,
	tx domain.TransactionManager,
) InductionService {
	return &inductionService{
		repo:        repo,
		submissions: submissions,
		progress:    progress,
		cache:       catalogueCache,
		tx:          tx,
	}
}

// --- learner catalogue ---

func (s *inductionService) ListActive(ctx context.Context, session *domain.Session) ([]dto.ActiveInductionResponse, error) {
	if !session.Authenticated() {
		return nil, domain.NewUnauthenticatedError("Authentication required")
	}
	catalogue, err := s.activeCatalogue(ctx)
	if err != nil {
		return nil, err
	}

	subs, err := s.submissions.ListByUser(ctx, session.UserID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list submissions", err)
	}
	byInduction := make(map[string]*domain.Submission, len(subs))
	for _, sub := range subs {
		byInduction[sub.InductionID] = sub
	}

	out := make([]dto.ActiveInductionResponse, 0, len(catalogue))
	for _, item := range catalogue {
		if sub := byInduction[item.ID]; sub != nil {
			p, err := s.progress.Summarize(ctx, sub)
			if err != nil {
				return nil, err
			}
			item.Submission = &dto.SubmissionSummary{
				ID:                   sub.ID,
				Status:               string(sub.Status),
				CompletedChapters:    p.CompletedChapters,
				TotalChapters:        p.TotalChapters,
				CompletionPercentage: p.CompletionPercentage,
				CompletedAt:          sub.CompletedAt,
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// activeCatalogue returns the user-independent part of the active list, cached in Redis.
func (s *inductionService) activeCatalogue(ctx context.Context) ([]dto.ActiveInductionResponse, error) {
	key := cache.ActiveInductionsKey()
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached []dto.ActiveInductionResponse
			if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
				return cached, nil
			}
			logger.Get().Warn("Discarding unreadable active induction cache entry", zap.String("key", key))
		} else if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("Active induction cache read failed", zap.Error(err))
		}
	}

	inductions, err := s.repo.ListInductions(ctx, true)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list inductions", err)
	}
	catalogue := make([]dto.ActiveInductionResponse, 0, len(inductions))
	for _, ind := range inductions {
		chapters, err := s.repo.ListChapters(ctx, ind.ID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to list chapters", err)
		}
		catalogue = append(catalogue, dto.ActiveInductionResponse{
			ID:           ind.ID,
			Title:        ind.Title,
			Description:  ind.Description,
			DisplayOrder: ind.DisplayOrder,
			ChapterCount: len(chapters),
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(catalogue); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), activeInductionsTTL); err != nil {
				logger.Get().Warn("Active induction cache write failed", zap.Error(err))
			}
		}
	}
	return catalogue, nil
}

func (s *inductionService) invalidateCatalogue(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.ActiveInductionsKey()); err != nil {
		logger.Get().Warn("Active induction cache invalidation failed", zap.Error(err))
	}
}

// --- inductions ---

func (s *inductionService) ListInductions(ctx context.Context) ([]*domain.Induction, error) {
	inductions, err := s.repo.ListInductions(ctx, false)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list inductions", err)
	}
	return inductions, nil
}

func (s *inductionService) GetInduction(ctx context.Context, id string) (*domain.Induction, error) {
	induction, err := s.repo.GetInductionTree(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load induction", err)
	}
	if induction == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Induction %s not found", id))
	}
	return induction, nil
}

func (s *inductionService) CreateInduction(ctx context.Context, req *dto.InductionRequest) (*domain.Induction, error) {
	now := util.Now()
	induction := &domain.Induction{
		ID:          util.NewULID(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		induction.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		induction.DisplayOrder = *req.DisplayOrder
	} else {
		existing, err := s.repo.ListInductions(ctx, false)
		if err != nil {
			return nil, domain.NewInternalError("Failed to list inductions", err)
		}
		induction.DisplayOrder = len(existing) + 1
	}
	if err := induction.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateInduction(ctx, induction); err != nil {
		return nil, domain.NewInternalError("Failed to create induction", err)
	}
	s.invalidateCatalogue(ctx)
	induction.Chapters = []domain.Chapter{}
	return induction, nil
}

func (s *inductionService) UpdateInduction(ctx context.Context, id string, req *dto.InductionRequest) (*domain.Induction, error) {
	induction, err := s.repo.GetInductionByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load induction", err)
	}
	if induction == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Induction %s not found", id))
	}
	induction.Title = strings.TrimSpace(req.Title)
	induction.Description = req.Description
	if req.IsActive != nil {
		induction.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		induction.DisplayOrder = *req.DisplayOrder
	}
	induction.UpdatedAt = util.Now()
	if err := induction.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateInduction(ctx, induction); err != nil {
		return nil, notFoundOr(err, "induction", id)
	}
	s.invalidateCatalogue(ctx)
	return induction, nil
}

func (s *inductionService) DeleteInduction(ctx context.Context, id string) error {
	if err := s.repo.DeleteInduction(ctx, id); err != nil {
		return notFoundOr(err, "induction", id)
	}
	s.invalidateCatalogue(ctx)
	return nil
}

func (s *inductionService) ReorderInductions(ctx context.Context, items []dto.ReorderItem) error {
	err := s.reorder(ctx, items, nil, s.repo.UpdateInductionOrder, "induction")
	if err == nil {
		s.invalidateCatalogue(ctx)
	}
	return err
}

// --- chapters ---

func (s *inductionService) ListChapters(ctx context.Context, inductionID string) ([]*domain.Chapter, error) {
	if _, err := s.requireInduction(ctx, inductionID); err != nil {
		return nil, err
	}
	chapters, err := s.repo.ListChapters(ctx, inductionID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list chapters", err)
	}
	return chapters, nil
}

func (s *inductionService) CreateChapter(ctx context.Context, inductionID string, req *dto.ChapterRequest) (*domain.Chapter, error) {
	if _, err := s.requireInduction(ctx, inductionID); err != nil {
		return nil, err
	}
	now := util.Now()
	chapter := &domain.Chapter{
		ID:          util.NewULID(),
		InductionID: inductionID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyChapterRequest(chapter, req)
	if req.DisplayOrder == nil {
		existing, err := s.repo.ListChapters(ctx, inductionID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to list chapters", err)
		}
		chapter.DisplayOrder = nextDisplayOrder(len(existing), func(i int) int { return existing[i].DisplayOrder })
	}
	if err := chapter.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateChapter(ctx, chapter); err != nil {
		return nil, domain.NewInternalError("Failed to create chapter", err)
	}
	s.invalidateCatalogue(ctx)
	logger.Get().Info("Chapter added to induction",
		zap.String("inductionID", inductionID), zap.String("chapterID", chapter.ID))
	chapter.Questions = []domain.Question{}
	return chapter, nil
}

func (s *inductionService) UpdateChapter(ctx context.Context, id string, req *dto.ChapterRequest) (*domain.Chapter, error) {
	chapter, err := s.repo.GetChapterByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load chapter", err)
	}
	if chapter == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Chapter %s not found", id))
	}
	applyChapterRequest(chapter, req)
	chapter.UpdatedAt = util.Now()
	if err := chapter.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateChapter(ctx, chapter); err != nil {
		return nil, notFoundOr(err, "chapter", id)
	}
	return chapter, nil
}

func applyChapterRequest(chapter *domain.Chapter, req *dto.ChapterRequest) {
	chapter.Title = strings.TrimSpace(req.Title)
	chapter.Description = req.Description
	chapter.VideoURL = strings.TrimSpace(req.VideoURL)
	chapter.VideoPath = strings.TrimSpace(req.VideoPath)
	if req.DisplayOrder != nil {
		chapter.DisplayOrder = *req.DisplayOrder
	}
	if req.PassPercentage != nil {
		chapter.PassPercentage = *req.PassPercentage
	}
}

func (s *inductionService) DeleteChapter(ctx context.Context, id string) error {
	if err := s.repo.DeleteChapter(ctx, id); err != nil {
		return notFoundOr(err, "chapter", id)
	}
	s.invalidateCatalogue(ctx)
	return nil
}

func (s *inductionService) ReorderChapters(ctx context.Context, inductionID string, items []dto.ReorderItem) error {
	chapters, err := s.ListChapters(ctx, inductionID)
	if err != nil {
		return err
	}
	allowed := make(map[string]bool, len(chapters))
	for _, c := range chapters {
		allowed[c.ID] = true
	}
	return s.reorder(ctx, items, allowed, s.repo.UpdateChapterOrder, "chapter")
}

// --- questions ---

func (s *inductionService) ListQuestions(ctx context.Context, chapterID string) ([]*domain.Question, error) {
	if _, err := s.requireChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, chapterID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list questions", err)
	}
	return questions, nil
}

func (s *inductionService) CreateQuestion(ctx context.Context, chapterID string, req *dto.QuestionRequest) (*domain.Question, error) {
	if _, err := s.requireChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	now := util.Now()
	question := &domain.Question{
		ID:        util.NewULID(),
		ChapterID: chapterID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyQuestionRequest(question, req)
	if req.DisplayOrder == nil {
		existing, err := s.repo.ListQuestions(ctx, chapterID)
		if err != nil {
			return nil, domain.NewInternalError("Failed to list questions", err)
		}
		question.DisplayOrder = nextDisplayOrder(len(existing), func(i int) int { return existing[i].DisplayOrder })
	}
	if err := validateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.repo.CreateQuestion(ctx, question); err != nil {
		return nil, domain.NewInternalError("Failed to create question", err)
	}
	return question, nil
}

func (s *inductionService) UpdateQuestion(ctx context.Context, id string, req *dto.QuestionRequest) (*domain.Question, error) {
	question, err := s.repo.GetQuestionByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load question", err)
	}
	if question == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Question %s not found", id))
	}
	applyQuestionRequest(question, req)
	question.UpdatedAt = util.Now()
	if err := validateQuestion(question); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		return nil, notFoundOr(err, "question", id)
	}
	return question, nil
}

func applyQuestionRequest(question *domain.Question, req *dto.QuestionRequest) {
	question.Text = strings.TrimSpace(req.QuestionText)
	question.Type = domain.QuestionType(req.Type)
	question.Options = make([]domain.Option, 0, len(req.Options))
	for _, o := range req.Options {
		question.Options = append(question.Options, domain.Option{ID: strings.TrimSpace(o.ID), Label: o.Label})
	}
	question.CorrectAnswer = make([]string, 0, len(req.CorrectAnswer))
	for _, a := range req.CorrectAnswer {
		if a = strings.TrimSpace(a); a != "" {
			question.CorrectAnswer = append(question.CorrectAnswer, a)
		}
	}
	if question.Type == domain.QuestionTypeText {
		question.Options = []domain.Option{}
	}
	if req.DisplayOrder != nil {
		question.DisplayOrder = *req.DisplayOrder
	}
}

// validateQuestion adds the option-reference rule on top of the domain checks.
func validateQuestion(q *domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if q.Type == domain.QuestionTypeText {
		return nil
	}
	known := make(map[string]bool, len(q.Options))
	for _, o := range q.Options {
		if known[o.ID] {
			return domain.ValidationErrors{{Field: "options", Code: "DUPLICATE", Message: fmt.Sprintf("option id %q is used twice", o.ID)}}
		}
		known[o.ID] = true
	}
	for _, a := range q.CorrectAnswer {
		if !known[a] {
			return domain.ValidationErrors{domain.NewInvalidFormatError("correct_answer", a)}
		}
	}
	return nil
}

func (s *inductionService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return notFoundOr(err, "question", id)
	}
	return nil
}

func (s *inductionService) ReorderQuestions(ctx context.Context, chapterID string, items []dto.ReorderItem) error {
	questions, err := s.ListQuestions(ctx, chapterID)
	if err != nil {
		return err
	}
	allowed := make(map[string]bool, len(questions))
	for _, q := range questions {
		allowed[q.ID] = true
	}
	return s.reorder(ctx, items, allowed, s.repo.UpdateQuestionOrder, "question")
}

// --- helpers ---

// reorder applies every display order in one transaction. allowed, when set, restricts ids to one parent.
func (s *inductionService) reorder(ctx context.Context, items []dto.ReorderItem, allowed map[string]bool, update func(context.Context, string, int) error, kind string) error {
	if len(items) == 0 {
		return domain.NewInvalidInputError("No items to reorder")
	}
	for _, item := range items {
		if allowed != nil && !allowed[item.ID] {
			return domain.NewInvalidInputError(fmt.Sprintf("%s %s does not belong to this parent", kind, item.ID))
		}
	}
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			if err := update(txCtx, item.ID, item.DisplayOrder); err != nil {
				return notFoundOr(err, kind, item.ID)
			}
		}
		return nil
	})
}

func (s *inductionService) requireInduction(ctx context.Context, id string) (*domain.Induction, error) {
	induction, err := s.repo.GetInductionByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load induction", err)
	}
	if induction == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Induction %s not found", id))
	}
	return induction, nil
}

func (s *inductionService) requireChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	chapter, err := s.repo.GetChapterByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load chapter", err)
	}
	if chapter == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Chapter %s not found", id))
	}
	return chapter, nil
}

// nextDisplayOrder places a new record after the current last one.
func nextDisplayOrder(n int, orderAt func(int) int) int {
	max := 0
	for i := 0; i < n; i++ {
		if o := orderAt(i); o > max {
			max = o
		}
	}
	return max + 1
}

func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(fmt.Sprintf("%s %s not found", kind, id))
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewInternalError(fmt.Sprintf("Failed to update %s", kind), err)
}
