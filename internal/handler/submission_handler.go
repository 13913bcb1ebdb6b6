package handler

import (
	"induction-portal/internal/dto"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SubmissionHandler serves a learner's run through one submission.
type SubmissionHandler struct {
	submissions service.SubmissionService
	progression service.ProgressionService
	answers     service.AnswerLedgerService
	review      service.ReviewService
	validator   *validation.Validator
}

func NewSubmissionHandler(
	submissions service.SubmissionService,
	progression service.ProgressionService,
	answers service.AnswerLedgerService,
	review service.ReviewService,
	validator *validation.Validator,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		progression: progression,
		answers:     answers,
		review:      review,
		validator:   validator,
	}
}

// Get godoc
// @Summary Get a submission
// @Description The submission with its induction snapshot, stored answers and status.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} domain.Submission
// @Failure 404 {object} middleware.ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	sub, err := h.submissions.Get(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sub)
}

// LastUnanswered godoc
// @Summary First incomplete chapter
// @Description 1-based number of the first chapter with unanswered questions or an unwatched video.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} dto.LastUnansweredResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /submissions/{id}/last-unanswered [get]
func (h *SubmissionHandler) LastUnanswered(c *fiber.Ctx) error {
	chapter, err := h.progression.LastUnanswered(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.LastUnansweredResponse{LastUnansweredChapter: chapter})
}

// Route godoc
// @Summary Next screen
// @Description Where the learner goes next: a chapter video, a chapter's questions, or the view screen.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} domain.RouteDecision
// @Failure 404 {object} middleware.ErrorResponse
// @Router /submissions/{id}/route [get]
func (h *SubmissionHandler) Route(c *fiber.Ctx) error {
	route, err := h.progression.Route(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(route)
}

// SubmitAnswers godoc
// @Summary Answer a chapter
// @Description Stores answers for every question of one chapter. The chapter video must be watched first.
// @Tags submissions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Param body body dto.SubmitAnswersRequest true "Chapter answers"
// @Success 200 {object} dto.SubmitAnswersResponse
// @Failure 400 {object} middleware.ErrorResponse "Malformed answer"
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse "Video not completed or answers missing"
// @Router /submissions/{id}/answers [post]
func (h *SubmissionHandler) SubmitAnswers(c *fiber.Ctx) error {
	var req dto.SubmitAnswersRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.answers.SubmitAnswers(c.UserContext(), caller(c), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Complete godoc
// @Summary Complete a submission
// @Description Re-verifies every chapter and marks the submission completed. Chapters added to the
// @Description live induction since the snapshot are merged in and reported with 409 NEW_CHAPTERS_DETECTED.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} domain.Submission
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "New chapters detected or a chapter is incomplete"
// @Router /submissions/{id}/complete [post]
func (h *SubmissionHandler) Complete(c *fiber.Ctx) error {
	sub, err := h.submissions.Complete(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sub)
}

// Review godoc
// @Summary Review a completed submission
// @Description Scored answers with statistics per chapter. Available once the submission is completed.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} dto.SubmissionReview
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Submission not completed"
// @Router /submissions/{id}/review [get]
func (h *SubmissionHandler) Review(c *fiber.Ctx) error {
	review, err := h.review.LearnerReview(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(review)
}
