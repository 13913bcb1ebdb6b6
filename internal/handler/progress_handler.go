package handler

import (
	"induction-portal/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProgressHandler struct {
	progress service.ProgressService
}

func NewProgressHandler(progress service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Overview godoc
// @Summary Learner progress dashboard
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.ProgressOverview
// @Router /progress [get]
func (h *ProgressHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.progress.Overview(c.UserContext(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(overview)
}

// Submission godoc
// @Summary Progress of one submission
// @Tags progress
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} dto.SubmissionProgress
// @Failure 404 {object} middleware.ErrorResponse
// @Router /progress/submissions/{id} [get]
func (h *ProgressHandler) Submission(c *fiber.Ctx) error {
	progress, err := h.progress.SubmissionProgress(c.UserContext(), caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(progress)
}
