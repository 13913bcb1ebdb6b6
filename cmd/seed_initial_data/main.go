package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"induction-portal/cmd/seed_initial_data/internal/seedmodels"
	"induction-portal/internal/config"
	"induction-portal/internal/database"
	"induction-portal/internal/dto"
	"induction-portal/internal/logger"
	"induction-portal/internal/repository"
	"induction-portal/internal/service"

	"go.uber.org/zap"
)

const defaultSeedFilePath = "configs/seed_data/initial_inductions.json"

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	seedFilePath := defaultSeedFilePath
	if len(os.Args) > 1 {
		seedFilePath = os.Args[1]
	}

	log.Info("Starting initial data seeding process...")
	db, err := database.NewSQLXDB(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB, database.Driver(cfg.DB.Driver)); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(service.Dependencies{
		Users:        repos.Users,
		Inductions:   repos.Inductions,
		Submissions:  repos.Submissions,
		Answers:      repos.Answers,
		Videos:       repos.Videos,
		Transactions: repos.Transactions,
		JWT:          cfg.JWT,
	})
	if err != nil {
		log.Fatal("Failed to create services", zap.Error(err))
	}

	if cfg.Admin.Email != "" {
		admin, err := services.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			log.Fatal("Failed to ensure admin account", zap.Error(err))
		}
		log.Info("Admin account ready", zap.String("id", admin.ID), zap.String("email", admin.Email))
	}

	log.Info("Loading seed data from file", zap.String("path", seedFilePath))
	byteValue, err := os.ReadFile(seedFilePath)
	if err != nil {
		log.Fatal("Failed to read seed file", zap.String("path", seedFilePath), zap.Error(err))
	}
	var seeds []seedmodels.SeedInduction
	if err := json.Unmarshal(byteValue, &seeds); err != nil {
		log.Fatal("Failed to unmarshal seed data", zap.Error(err))
	}
	log.Info("Successfully unmarshalled seed data", zap.Int("inductions_loaded", len(seeds)))

	existing, err := services.Inductions.ListInductions(ctx)
	if err != nil {
		log.Fatal("Failed to list inductions", zap.Error(err))
	}
	titles := make(map[string]bool, len(existing))
	for _, ind := range existing {
		titles[strings.ToLower(ind.Title)] = true
	}

	for _, seed := range seeds {
		if titles[strings.ToLower(strings.TrimSpace(seed.Title))] {
			log.Info("Induction exists, skipping", zap.String("title", seed.Title))
			continue
		}
		err := repos.Transactions.WithTransaction(ctx, func(txCtx context.Context) error {
			return seedInduction(txCtx, services.Inductions, log, seed)
		})
		if err != nil {
			log.Error("Error seeding induction, transaction rolled back", zap.String("title", seed.Title), zap.Error(err))
		}
	}
	log.Info("Initial data seeding process completed.")
}

// seedInduction goes through the admin service so seeded content passes the same validation as the API.
func seedInduction(ctx context.Context, inductions service.InductionService, log *zap.Logger, seed seedmodels.SeedInduction) error {
	induction, err := inductions.CreateInduction(ctx, &dto.InductionRequest{
		Title:       seed.Title,
		Description: seed.Description,
		IsActive:    seed.IsActive,
	})
	if err != nil {
		return fmt.Errorf("failed to create induction %q: %w", seed.Title, err)
	}
	log.Info("Created induction", zap.String("id", induction.ID), zap.String("title", induction.Title))

	for _, sc := range seed.Chapters {
		chapter, err := inductions.CreateChapter(ctx, induction.ID, &dto.ChapterRequest{
			Title:          sc.Title,
			Description:    sc.Description,
			VideoURL:       sc.VideoURL,
			VideoPath:      sc.VideoPath,
			PassPercentage: sc.PassPercentage,
		})
		if err != nil {
			return fmt.Errorf("failed to create chapter %q: %w", sc.Title, err)
		}

		for _, sq := range sc.Questions {
			req := &dto.QuestionRequest{
				QuestionText:  sq.Text,
				Type:          sq.Type,
				CorrectAnswer: dto.StringList(sq.CorrectAnswer),
			}
			for _, o := range sq.Options {
				req.Options = append(req.Options, dto.OptionRequest{ID: o.ID, Label: o.Label})
			}
			if _, err := inductions.CreateQuestion(ctx, chapter.ID, req); err != nil {
				return fmt.Errorf("failed to create question in chapter %q: %w", sc.Title, err)
			}
		}
		log.Info("Created chapter",
			zap.String("id", chapter.ID),
			zap.String("title", chapter.Title),
			zap.Int("questions", len(sc.Questions)))
	}
	return nil
}
