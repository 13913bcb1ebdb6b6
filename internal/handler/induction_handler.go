package handler

import (
	"induction-portal/internal/dto"
	"induction-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

// InductionHandler serves the learner's induction catalogue and start flow.
type InductionHandler struct {
	inductions  service.InductionService
	submissions service.SubmissionService
	progression service.ProgressionService
}

func NewInductionHandler(inductions service.InductionService, submissions service.SubmissionService, progression service.ProgressionService) *InductionHandler {
	return &InductionHandler{
		inductions:  inductions,
		submissions: submissions,
		progression: progression,
	}
}

// ListActive godoc
// @Summary Active inductions
// @Description Active inductions in display order, each with the caller's submission summary if one exists.
// @Tags inductions
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} dto.ActiveInductionResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /inductions/active [get]
func (h *InductionHandler) ListActive(c *fiber.Ctx) error {
	items, err := h.inductions.ListActive(c.UserContext(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Start godoc
// @Summary Start or resume an induction
// @Description Returns the caller's submission for the induction, creating it from a fresh snapshot
// @Description on first start and reopening it when chapters were added after completion.
// @Tags inductions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Success 200 {object} dto.StartSubmissionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /inductions/{id}/start [post]
func (h *InductionHandler) Start(c *fiber.Ctx) error {
	ctx := c.UserContext()
	result, err := h.submissions.Start(ctx, caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	route, err := h.progression.NextRoute(ctx, result.Submission, 0)
	if err != nil {
		return err
	}
	return c.JSON(dto.StartSubmissionResponse{
		Submission:     result.Submission,
		HasNewChapters: result.HasNewChapters,
		Completed:      result.Completed,
		Route:          route,
	})
}

// GetCompleted godoc
// @Summary Completed submission for an induction
// @Tags inductions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Success 200 {object} domain.Submission
// @Failure 404 {object} middleware.ErrorResponse "No completed submission"
// @Router /inductions/{id}/completed [get]
func (h *InductionHandler) GetCompleted(c *fiber.Ctx) error {
	sub, err := h.submissions.GetCompleted(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sub)
}
