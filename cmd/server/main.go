package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/database"
	"github.com/anhnhh24/DriverLicenseTest/internal/handler"
	"github.com/anhnhh24/DriverLicenseTest/internal/logger"
	"github.com/anhnhh24/DriverLicenseTest/internal/mailer"
	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/observability"
	"github.com/anhnhh24/DriverLicenseTest/internal/repository"
	"github.com/anhnhh24/DriverLicenseTest/internal/router"
	"github.com/anhnhh24/DriverLicenseTest/internal/service"
	"github.com/anhnhh24/DriverLicenseTest/internal/validator"
	"github.com/anhnhh24/DriverLicenseTest/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Driver License Test API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Tracing disabled")
	}

	// ─── Exam Structures ───────────────────────────────────────────────
	structures, err := config.LoadExamStructures(cfg.ExamStructuresFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.ExamStructuresFile).Msg("Failed to load exam structures")
	}
	log.Info().Strs("licenses", structures.Codes()).Msg("Exam structures loaded")

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	txManager := database.NewTxManager(pool)
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	licenseRepo := repository.NewLicenseTypeRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	signRepo := repository.NewTrafficSignRepository(pool)
	examRepo := repository.NewMockExamRepository(pool)
	wrongRepo := repository.NewWrongQuestionRepository(pool)
	statRepo := repository.NewUserStatisticRepository(pool)
	sessionRepo := repository.NewSessionRepository(rdb)
	leaderboardRepo := repository.NewLeaderboardRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	emailService := service.NewEmailService(cfg, rdb, log)
	authService := service.NewAuthService(cfg, userRepo, sessionRepo, emailService, log)
	categoryService := service.NewCategoryService(categoryRepo, rdb, log)
	licenseService := service.NewLicenseTypeService(licenseRepo, rdb, log)
	questionService := service.NewQuestionService(questionRepo, categoryRepo, txManager)
	signService := service.NewTrafficSignService(signRepo)
	wrongService := service.NewWrongQuestionService(wrongRepo, licenseService)
	statService := service.NewStatisticService(statRepo, leaderboardRepo, userRepo, licenseService, log)
	examService := service.NewMockExamService(service.MockExamDeps{
		Exams:      examRepo,
		Users:      userRepo,
		Licenses:   licenseService,
		Sampler:    questionService,
		Questions:  questionRepo,
		Ledger:     wrongService,
		Stats:      statService,
		Tx:         txManager,
		Structures: structures,
		Policy:     service.EliminationPolicyByName(cfg.EliminationPolicy),
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		Catalog:       handler.NewCatalogHandler(categoryService, licenseService, log),
		Question:      handler.NewQuestionHandler(questionService, categoryService, log),
		TrafficSign:   handler.NewTrafficSignHandler(signService, log),
		MockExam:      handler.NewMockExamHandler(examService, licenseService, log),
		Statistic:     handler.NewStatisticHandler(statService, log),
		WrongQuestion: handler.NewWrongQuestionHandler(wrongService, log),
		WS:            handler.NewWSHandler(examService, log, cfg.AllowedOrigins),
		System: handler.NewSystemHandler(map[string]handler.Pinger{
			"postgres": pool,
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}, log),
	}

	limiters := router.Limiters{
		Auth:      middleware.NewRateLimiter(cfg.AuthRatePerMinute, time.Minute, middleware.KeyByIP),
		ExamStart: middleware.NewRateLimiter(cfg.ExamStartsPerHour, time.Hour, middleware.KeyByUser),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, limiters, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Run Server And Background Workers ─────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	emailWorker := worker.NewEmailWorker(rdb, mailer.New(cfg.SMTP, log), log)
	g.Go(func() error {
		emailWorker.Start(gctx)
		return nil
	})
	g.Go(func() error {
		limiters.Auth.RunCleanup(gctx)
		return nil
	})
	g.Go(func() error {
		limiters.ExamStart.RunCleanup(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Tracer shutdown error")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
