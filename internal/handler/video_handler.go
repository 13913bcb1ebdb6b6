package handler

import (
	"math"

	"induction-portal/internal/domain"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// VideoHandler tracks chapter video playback.
type VideoHandler struct {
	videos    service.VideoCompletionService
	validator *validation.Validator
}

func NewVideoHandler(videos service.VideoCompletionService, validator *validation.Validator) *VideoHandler {
	return &VideoHandler{videos: videos, validator: validator}
}

// Completion godoc
// @Summary Video watch state
// @Description Completion flag, progress and the furthest position the player may seek to (-1 when unrestricted).
// @Tags videos
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param submission_id query string true "Submission ID"
// @Success 200 {object} dto.VideoCompletionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /chapters/{id}/video/completion [get]
func (h *VideoHandler) Completion(c *fiber.Ctx) error {
	chapterID, submissionID := c.Params("id"), c.Query("submission_id")
	record, err := h.videos.Completion(c.UserContext(), caller(c), chapterID, submissionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewVideoCompletionResponse(chapterID, submissionID, record))
}

// Progress godoc
// @Summary Report playback progress
// @Description Watched seconds and progress only ever grow. Reports after completion are ignored.
// @Tags videos
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param body body dto.VideoProgressRequest true "Playback position"
// @Success 200 {object} dto.VideoCompletionResponse
// @Success 202 {object} dto.MessageResponse "Progress could not be stored"
// @Failure 404 {object} middleware.ErrorResponse
// @Router /chapters/{id}/video/progress [post]
func (h *VideoHandler) Progress(c *fiber.Ctx) error {
	var req dto.VideoProgressRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	chapterID := c.Params("id")
	record, err := h.videos.RecordProgress(c.UserContext(), caller(c), chapterID, service.VideoProgress{
		SubmissionID:       req.SubmissionID,
		WatchedSeconds:     int(math.Floor(req.WatchedSeconds)),
		TotalSeconds:       roundedSeconds(req.TotalSeconds),
		ProgressPercentage: int(math.Round(req.ProgressPercentage)),
	})
	if err != nil {
		// The player keeps going when a progress write fails; completion is re-checked later.
		if domain.HasCode(err, domain.CodeInternal) {
			logger.Get().Warn("Video progress not recorded",
				zap.String("chapterID", chapterID),
				zap.String("submissionID", req.SubmissionID),
				zap.Error(err))
			return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "Progress not recorded"})
		}
		return err
	}
	return c.JSON(dto.NewVideoCompletionResponse(chapterID, req.SubmissionID, record))
}

// Complete godoc
// @Summary Mark a video watched
// @Tags videos
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param body body dto.VideoCompleteRequest true "Submission"
// @Success 200 {object} dto.VideoCompletionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /chapters/{id}/video/complete [post]
func (h *VideoHandler) Complete(c *fiber.Ctx) error {
	var req dto.VideoCompleteRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	chapterID := c.Params("id")
	record, err := h.videos.MarkCompleted(c.UserContext(), caller(c), chapterID, req.SubmissionID, roundedSeconds(req.TotalSeconds))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewVideoCompletionResponse(chapterID, req.SubmissionID, record))
}

// Source godoc
// @Summary Playable video URL
// @Description External URLs are returned as stored; uploaded videos get a short-lived presigned URL.
// @Tags videos
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Chapter ID"
// @Param submission_id query string true "Submission ID"
// @Success 200 {object} dto.VideoSourceResponse
// @Failure 404 {object} middleware.ErrorResponse "Chapter has no video"
// @Router /chapters/{id}/video [get]
func (h *VideoHandler) Source(c *fiber.Ctx) error {
	chapterID := c.Params("id")
	url, err := h.videos.VideoURL(c.UserContext(), caller(c), chapterID, c.Query("submission_id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.VideoSourceResponse{ChapterID: chapterID, URL: url})
}

func roundedSeconds(seconds *float64) *int {
	if seconds == nil {
		return nil
	}
	v := int(math.Round(*seconds))
	return &v
}
