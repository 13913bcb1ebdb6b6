package handler

import (
	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler manages induction content and reviews learner submissions.
type AdminHandler struct {
	inductions service.InductionService
	review     service.ReviewService
	validator  *validation.Validator
}

func NewAdminHandler(inductions service.InductionService, review service.ReviewService, validator *validation.Validator) *AdminHandler {
	return &AdminHandler{inductions: inductions, review: review, validator: validator}
}

// ListInductions godoc
// @Summary List inductions
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} domain.Induction
// @Failure 403 {object} middleware.ErrorResponse
// @Router /admin/inductions [get]
func (h *AdminHandler) ListInductions(c *fiber.Ctx) error {
	items, err := h.inductions.ListInductions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// GetInduction godoc
// @Summary Induction with chapters and questions
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Success 200 {object} domain.Induction
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id} [get]
func (h *AdminHandler) GetInduction(c *fiber.Ctx) error {
	induction, err := h.inductions.GetInduction(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(induction)
}

// CreateInduction godoc
// @Summary Create an induction
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body dto.InductionRequest true "Induction"
// @Success 201 {object} domain.Induction
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /admin/inductions [post]
func (h *AdminHandler) CreateInduction(c *fiber.Ctx) error {
	var req dto.InductionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	induction, err := h.inductions.CreateInduction(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(induction)
}

// UpdateInduction godoc
// @Summary Update an induction
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Param body body dto.InductionRequest true "Induction"
// @Success 200 {object} domain.Induction
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id} [put]
func (h *AdminHandler) UpdateInduction(c *fiber.Ctx) error {
	var req dto.InductionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	induction, err := h.inductions.UpdateInduction(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(induction)
}

// DeleteInduction godoc
// @Summary Delete an induction
// @Description Deletes the induction with its chapters and questions. Existing submissions keep their snapshot.
// @Tags admin
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id} [delete]
func (h *AdminHandler) DeleteInduction(c *fiber.Ctx) error {
	if err := h.inductions.DeleteInduction(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReorderInductions godoc
// @Summary Reorder inductions
// @Tags admin
// @Accept json
// @Security ApiKeyAuth
// @Param body body dto.ReorderRequest true "New display orders"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/inductions/reorder [post]
func (h *AdminHandler) ReorderInductions(c *fiber.Ctx) error {
	var req dto.ReorderRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.inductions.ReorderInductions(c.UserContext(), req.Items); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListChapters godoc
// @Summary Chapters of an induction
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Success 200 {array} domain.Chapter
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id}/chapters [get]
func (h *AdminHandler) ListChapters(c *fiber.Ctx) error {
	chapters, err := h.inductions.ListChapters(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(chapters)
}

// CreateChapter godoc
// @Summary Add a chapter
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Param body body dto.ChapterRequest true "Chapter"
// @Success 201 {object} domain.Chapter
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id}/chapters [post]
func (h *AdminHandler) CreateChapter(c *fiber.Ctx) error {
	var req dto.ChapterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	chapter, err := h.inductions.CreateChapter(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(chapter)
}

// ReorderChapters godoc
// @Summary Reorder chapters of an induction
// @Tags admin
// @Accept json
// @Security ApiKeyAuth
// @Param id path string true "Induction ID"
// @Param body body dto.ReorderRequest true "New display orders"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/inductions/{id}/chapters/reorder [post]
func (h *AdminHandler) ReorderChapters(c *fiber.Ctx) error {
	var req dto.ReorderRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.inductions.ReorderChapters(c.UserContext(), c.Params("id"), req.Items); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateChapter godoc
// @Summary Update a chapter
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param body body dto.ChapterRequest true "Chapter"
// @Success 200 {object} domain.Chapter
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/chapters/{id} [put]
func (h *AdminHandler) UpdateChapter(c *fiber.Ctx) error {
	var req dto.ChapterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	chapter, err := h.inductions.UpdateChapter(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(chapter)
}

// DeleteChapter godoc
// @Summary Delete a chapter
// @Tags admin
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/chapters/{id} [delete]
func (h *AdminHandler) DeleteChapter(c *fiber.Ctx) error {
	if err := h.inductions.DeleteChapter(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListQuestions godoc
// @Summary Questions of a chapter
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Success 200 {array} domain.Question
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/chapters/{id}/questions [get]
func (h *AdminHandler) ListQuestions(c *fiber.Ctx) error {
	questions, err := h.inductions.ListQuestions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(questions)
}

// CreateQuestion godoc
// @Summary Add a question
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param body body dto.QuestionRequest true "Question"
// @Success 201 {object} domain.Question
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/chapters/{id}/questions [post]
func (h *AdminHandler) CreateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	question, err := h.inductions.CreateQuestion(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

// ReorderQuestions godoc
// @Summary Reorder questions of a chapter
// @Tags admin
// @Accept json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param body body dto.ReorderRequest true "New display orders"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/chapters/{id}/questions/reorder [post]
func (h *AdminHandler) ReorderQuestions(c *fiber.Ctx) error {
	var req dto.ReorderRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.inductions.ReorderQuestions(c.UserContext(), c.Params("id"), req.Items); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Question ID"
// @Param body body dto.QuestionRequest true "Question"
// @Success 200 {object} domain.Question
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/questions/{id} [put]
func (h *AdminHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req dto.QuestionRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	question, err := h.inductions.UpdateQuestion(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(question)
}

// DeleteQuestion godoc
// @Summary Delete a question
// @Tags admin
// @Security ApiKeyAuth
// @Param id path string true "Question ID"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/questions/{id} [delete]
func (h *AdminHandler) DeleteQuestion(c *fiber.Ctx) error {
	if err := h.inductions.DeleteQuestion(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSubmissions godoc
// @Summary Learner submissions
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param induction_id query string false "Filter by induction"
// @Param user_id query string false "Filter by learner"
// @Param status query string false "pending, in_progress or completed"
// @Param limit query int false "Page size (default 50)"
// @Param offset query int false "Offset"
// @Success 200 {object} dto.SubmissionListResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Router /admin/submissions [get]
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	var query dto.SubmissionListQuery
	if err := c.QueryParser(&query); err != nil {
		return domain.NewInvalidInputError("Invalid query parameters")
	}
	if err := h.validator.Struct(&query); err != nil {
		return err
	}
	resp, err := h.review.ListSubmissions(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetSubmission godoc
// @Summary Scored submission
// @Description Answers scored against the correct answers, with overall and per-chapter statistics.
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Submission ID"
// @Success 200 {object} dto.SubmissionReview
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/submissions/{id} [get]
func (h *AdminHandler) GetSubmission(c *fiber.Ctx) error {
	review, err := h.review.AdminReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(review)
}
