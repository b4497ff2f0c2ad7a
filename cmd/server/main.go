package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/database"
	"github.com/latihanku/latihanku-backend/internal/handler"
	"github.com/latihanku/latihanku-backend/internal/logger"
	"github.com/latihanku/latihanku-backend/internal/repository"
	"github.com/latihanku/latihanku-backend/internal/router"
	"github.com/latihanku/latihanku-backend/internal/service"
	"github.com/latihanku/latihanku-backend/internal/validator"
	"github.com/latihanku/latihanku-backend/internal/worker"
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
		Msg("Starting Latihanku Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
	assessmentRepo := repository.NewAssessmentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	blockRepo := repository.NewBlockRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	cermatRepo := repository.NewCermatRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	sessionStore := repository.NewCermatSessionStore(rdb, cfg.CermatSessionTTL)
	eventQueue := repository.NewViolationEventQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	entitlementService := service.NewEntitlementService(membershipRepo)
	blockService := service.NewBlockService(blockRepo, settingRepo, eventQueue, log)
	attemptService := service.NewAttemptService(
		assessmentRepo, attemptRepo, entitlementService, blockService,
		cfg.StartReuseWindow, log,
	)
	cermatService := service.NewCermatService(cermatRepo, sessionStore, entitlementService, service.CermatConfig{
		TotalRounds:       cfg.CermatTotalRounds,
		QuestionsPerRound: cfg.CermatQuestionsPerRound,
		RoundSeconds:      cfg.CermatRoundSeconds,
		BreakSeconds:      cfg.CermatBreakSeconds,
	}, log)
	assessmentService := service.NewAssessmentService(assessmentRepo, assessmentRepo, log)
	settingService := service.NewSettingService(settingRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Attempt:         handler.NewAttemptHandler(attemptService),
		Block:           handler.NewBlockHandler(blockService),
		Cermat:          handler.NewCermatHandler(cermatService),
		AdminBlock:      handler.NewAdminBlockHandler(blockService),
		AdminAssessment: handler.NewAdminAssessmentHandler(assessmentService),
		Setting:         handler.NewSettingHandler(settingService),
		WS:              handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	violationWorker := worker.NewViolationWorker(pool, rdb, log)
	go violationWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
