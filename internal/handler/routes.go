package handler

import (
	"induction-portal/internal/middleware"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth       *AuthHandler
	Inductions *InductionHandler
	Submission *SubmissionHandler
	Videos     *VideoHandler
	Progress   *ProgressHandler
	Admin      *AdminHandler
}

func NewHandlers(services *service.Services, validator *validation.Validator) *Handlers {
	return &Handlers{
		Auth:       NewAuthHandler(services.Auth, validator),
		Inductions: NewInductionHandler(services.Inductions, services.Submissions, services.Progression),
		Submission: NewSubmissionHandler(services.Submissions, services.Progression, services.Answers, services.Review, validator),
		Videos:     NewVideoHandler(services.Videos, validator),
		Progress:   NewProgressHandler(services.Progress),
		Admin:      NewAdminHandler(services.Inductions, services.Review, validator),
	}
}

// RegisterRoutes mounts the API under router (normally the /api group).
func RegisterRoutes(router fiber.Router, h *Handlers, tokens middleware.TokenValidator, validator *validation.Validator) {
	ids := middleware.NewValidationMiddleware(validator)
	withID := ids.ValidateIDParams("id")
	protected := middleware.Protected(tokens)

	auth := router.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/admin/login", h.Auth.AdminLogin)
	auth.Get("/me", protected, h.Auth.Me)
	auth.Post("/logout", protected, h.Auth.Logout)

	inductions := router.Group("/inductions", protected)
	inductions.Get("/active", h.Inductions.ListActive)
	inductions.Post("/:id/start", withID, h.Inductions.Start)
	inductions.Get("/:id/completed", withID, h.Inductions.GetCompleted)

	submissions := router.Group("/submissions", protected)
	submissions.Get("/:id", withID, h.Submission.Get)
	submissions.Get("/:id/last-unanswered", withID, h.Submission.LastUnanswered)
	submissions.Get("/:id/route", withID, h.Submission.Route)
	submissions.Post("/:id/answers", withID, h.Submission.SubmitAnswers)
	submissions.Post("/:id/complete", withID, h.Submission.Complete)
	submissions.Get("/:id/review", withID, h.Submission.Review)

	chapters := router.Group("/chapters", protected)
	chapters.Get("/:id/video", withID, ids.ValidateIDQuery("submission_id"), h.Videos.Source)
	chapters.Get("/:id/video/completion", withID, ids.ValidateIDQuery("submission_id"), h.Videos.Completion)
	chapters.Post("/:id/video/progress", withID, h.Videos.Progress)
	chapters.Post("/:id/video/complete", withID, h.Videos.Complete)

	progress := router.Group("/progress", protected)
	progress.Get("/", h.Progress.Overview)
	progress.Get("/submissions/:id", withID, h.Progress.Submission)

	admin := router.Group("/admin", protected, middleware.AdminOnly())
	admin.Get("/inductions", h.Admin.ListInductions)
	admin.Post("/inductions", h.Admin.CreateInduction)
	admin.Post("/inductions/reorder", h.Admin.ReorderInductions)
	admin.Get("/inductions/:id", withID, h.Admin.GetInduction)
	admin.Put("/inductions/:id", withID, h.Admin.UpdateInduction)
	admin.Delete("/inductions/:id", withID, h.Admin.DeleteInduction)
	admin.Get("/inductions/:id/chapters", withID, h.Admin.ListChapters)
	admin.Post("/inductions/:id/chapters", withID, h.Admin.CreateChapter)
	admin.Post("/inductions/:id/chapters/reorder", withID, h.Admin.ReorderChapters)

	admin.Put("/chapters/:id", withID, h.Admin.UpdateChapter)
	admin.Delete("/chapters/:id", withID, h.Admin.DeleteChapter)
	admin.Get("/chapters/:id/questions", withID, h.Admin.ListQuestions)
	admin.Post("/chapters/:id/questions", withID, h.Admin.CreateQuestion)
	admin.Post("/chapters/:id/questions/reorder", withID, h.Admin.ReorderQuestions)

	admin.Put("/questions/:id", withID, h.Admin.UpdateQuestion)
	admin.Delete("/questions/:id", withID, h.Admin.DeleteQuestion)

	admin.Get("/submissions", h.Admin.ListSubmissions)
	admin.Get("/submissions/:id", withID, h.Admin.GetSubmission)
}
