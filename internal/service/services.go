package service

import (
	"time"

	"induction-portal/internal/config"
	"induction-portal/internal/domain"
)

// Dependencies are the adapters the services are built on. Cache and VideoResolver may be nil.
type Dependencies struct {
	Users        domain.UserRepository
	Inductions   domain.InductionRepository
	Submissions  domain.SubmissionRepository
	Answers      domain.AnswerRepository
	Videos       domain.VideoCompletionRepository
	Transactions domain.TransactionManager

	Cache              domain.Cache
	VideoResolver      domain.VideoURLResolver
	VideoCompletionTTL time.Duration
	JWT                config.JWTConfig
}

// Services is the fully wired service layer.
type Services struct {
	Auth        AuthService
	Inductions  InductionService
	Submissions SubmissionService
	Progression ProgressionService
	Answers     AnswerLedgerService
	Videos      VideoCompletionService
	Progress    ProgressService
	Review      ReviewService
}

func NewServices(deps Dependencies) (*Services, error) {
	auth, err := NewAuthService(deps.Users, deps.Cache, deps.JWT)
	if err != nil {
		return nil, err
	}

	videos := NewVideoCompletionService(deps.Videos, deps.Submissions, deps.Cache, deps.VideoResolver, deps.VideoCompletionTTL)
	submissions := NewSubmissionService(deps.Submissions, deps.Inductions, deps.Answers, videos)
	progression := NewProgressionService(videos, deps.Answers, deps.Submissions, submissions)
	progress := NewProgressService(deps.Submissions, deps.Answers, deps.Videos)

	return &Services{
		Auth:        auth,
		Inductions:  NewInductionService(deps.Inductions, deps.Submissions, progress, deps.Cache, deps.Transactions),
		Submissions: submissions,
		Progression: progression,
		Answers:     NewAnswerLedgerService(deps.Submissions, deps.Answers, videos, progression, deps.Transactions),
		Videos:      videos,
		Progress:    progress,
		Review:      NewReviewService(deps.Submissions, deps.Answers, deps.Users, NewScoringEngine()),
	}, nil
}
