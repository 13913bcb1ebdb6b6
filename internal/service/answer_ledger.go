package service

import (
	"context"
	"encoding/json"
	"fmt"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"
	"induction-portal/internal/metrics"

	"go.uber.org/zap"
)

// AnswerLedgerService stores a learner's answers one chapter at a time.
type AnswerLedgerService interface {
	SubmitAnswers(ctx context.Context, session *domain.Session, submissionID string, req *dto.SubmitAnswersRequest) (*dto.SubmitAnswersResponse, error)
}

type answerLedgerService struct {
	submissions domain.SubmissionRepository
	answers     domain.AnswerRepository
	videos      VideoCompletionService
	progression ProgressionService
	tx          domain.TransactionManager
}

func NewAnswerLedgerService(
	submissions domain.SubmissionRepository,
	answers domain.AnswerRepository,
	videos VideoCompletionService,
	progression ProgressionService,
	tx domain.TransactionManager,
) AnswerLedgerService {
	return &answerLedgerService{
		submissions: submissions,
		answers:     answers,
		videos:      videos,
		progression: progression,
		tx:          tx,
	}
}

func (s *answerLedgerService) SubmitAnswers(ctx context.Context, session *domain.Session, submissionID string, req *dto.SubmitAnswersRequest) (*dto.SubmitAnswersResponse, error) {
	sub, err := loadSubmission(ctx, s.submissions, session, submissionID)
	if err != nil {
		return nil, err
	}
	chapter, ok := sub.Snapshot.Chapter(req.ChapterID)
	if !ok {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Chapter %s is not part of submission %s", req.ChapterID, sub.ID))
	}

	watched, err := s.videos.IsCompleted(ctx, sub, chapter)
	if err != nil {
		return nil, domain.NewInternalError("Failed to check video completion", err)
	}
	if !watched {
		return nil, domain.NewVideoNotCompletedError(chapter.ID)
	}

	answers, err := buildChapterAnswers(sub.ID, chapter, req.Answers)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.answers.UpsertAnswers(txCtx, answers); err != nil {
			return domain.NewInternalError("Failed to save answers", err)
		}
		if sub.Status == domain.SubmissionPending {
			return moveSubmission(txCtx, s.submissions, sub, domain.SubmissionInProgress)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AnswersSaved.Add(float64(len(answers)))
	logger.Get().Info("Chapter answers saved",
		zap.String("submissionID", sub.ID),
		zap.String("chapterID", chapter.ID),
		zap.Int("answers", len(answers)))

	// The answers are committed; a failed finalization must not turn the submit into an error.
	recovered := false
	route, err := s.progression.NextRoute(ctx, sub, 0)
	if err != nil {
		logger.Get().Warn("Route after answers failed, keeping learner on chapter",
			zap.Error(err),
			zap.String("submissionID", sub.ID),
			zap.String("chapterID", chapter.ID))
		route = domain.ChapterRoute(domain.RouteQuestions, sub.ID, sub.Snapshot.ChapterIndex(chapter.ID), chapter.ID)
		recovered = true
	}

	stored, err := s.answers.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load answers", err)
	}
	answered := answeredQuestions(sub.Snapshot, stored)

	resp := &dto.SubmitAnswersResponse{
		Status:               sub.Status,
		AllQuestionsAnswered: len(answered) == sub.Snapshot.QuestionCount(),
		Route:                route,
	}
	if route.Kind != domain.RouteView && !(recovered && resp.AllQuestionsAnswered) {
		resp.LastUnansweredChapter = sub.Snapshot.ChapterRef(route.ChapterNumber - 1)
	}
	return resp, nil
}

// buildChapterAnswers validates a chapter's answer set against the question types and
// requires a non-empty answer for every question of the chapter.
func buildChapterAnswers(submissionID string, chapter *domain.Chapter, inputs []dto.AnswerInput) ([]*domain.Answer, error) {
	byID := make(map[string]*domain.Question, len(chapter.Questions))
	for i := range chapter.Questions {
		byID[chapter.Questions[i].ID] = &chapter.Questions[i]
	}

	payloads := make(map[string]domain.AnswerPayload, len(inputs))
	for _, in := range inputs {
		q, ok := byID[in.QuestionID]
		if !ok {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("Question %s does not belong to chapter %s", in.QuestionID, chapter.ID))
		}
		payload, err := domain.ParseAnswerPayload(q.Type, in.AnswerPayload)
		if err != nil {
			return nil, domain.NewInvalidAnswerPayloadError(q.ID, err.Error())
		}
		payloads[q.ID] = payload
	}

	missing := 0
	for _, q := range chapter.Questions {
		if p, ok := payloads[q.ID]; !ok || p.IsEmpty() {
			missing++
		}
	}
	if missing > 0 {
		return nil, domain.NewIncompleteAnswerSetError(missing)
	}

	answers := make([]*domain.Answer, 0, len(chapter.Questions))
	for _, q := range chapter.Questions {
		raw, err := json.Marshal(payloads[q.ID])
		if err != nil {
			return nil, domain.NewInternalError("Failed to encode answer", err)
		}
		answers = append(answers, &domain.Answer{
			SubmissionID: submissionID,
			QuestionID:   q.ID,
			Payload:      raw,
		})
	}
	return answers, nil
}
