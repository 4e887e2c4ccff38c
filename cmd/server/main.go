package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/database"
	"github.com/stemsi/learnhub-backend/internal/handler"
	"github.com/stemsi/learnhub-backend/internal/logger"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/payment"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"github.com/stemsi/learnhub-backend/internal/router"
	"github.com/stemsi/learnhub-backend/internal/service"
	"github.com/stemsi/learnhub-backend/internal/storage"
	"github.com/stemsi/learnhub-backend/internal/validator"
	"github.com/stemsi/learnhub-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	hostname, _ := os.Hostname()
	log = logger.WithRollbar(log, logger.RollbarOptions{
		Token:       cfg.RollbarToken,
		Environment: cfg.AppEnv,
		CodeVersion: cfg.AppVersion,
		ServerHost:  hostname,
	})
	defer logger.Flush()

	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("env", cfg.AppEnv).
		Str("version", cfg.AppVersion).
		Msg("Starting " + cfg.AppName + " Backend")

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

	// ─── External Integrations ─────────────────────────────────────────
	objectStore, err := storage.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	mail, err := mailer.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mailer")
	}
	renderer, err := mailer.NewRenderer(cfg.AppName, cfg.AppBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse email templates")
	}
	gateways := payment.NewGateways(cfg)
	if len(gateways) == 0 {
		log.Warn().Msg("No payment provider configured, paid checkout is disabled")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	otpRepo := repository.NewOTPRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	moduleRepo := repository.NewModuleRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	certificateRepo := repository.NewCertificateRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	activityService := service.NewActivityService(rdb, activityRepo, log)
	mailService := service.NewMailService(rdb)
	notificationService := service.NewNotificationService(notificationRepo, rdb, log)
	otpService := service.NewOTPService(cfg, rdb, otpRepo)
	authService := service.NewAuthService(cfg, rdb, userRepo, otpService, mailService, activityService, log)
	userService := service.NewUserService(cfg, userRepo, rdb, objectStore, activityService, log)
	orgService := service.NewOrganizationService(orgRepo, userRepo, notificationService, activityService, log)
	courseService := service.NewCourseService(cfg, courseRepo, moduleRepo, lessonRepo, enrollmentRepo, rdb, objectStore, activityService, log)
	certificateService := service.NewCertificateService(certificateRepo)
	enrollmentService := service.NewEnrollmentService(courseRepo, enrollmentRepo, userRepo, notificationService, mailService, activityService, log)
	progressService := service.NewProgressService(service.ProgressDeps{
		Courses:     courseRepo,
		Modules:     moduleRepo,
		Lessons:     lessonRepo,
		Assessments: assessmentRepo,
		Answers:     answerRepo,
		Enrollments: enrollmentRepo,
		Progress:    progressRepo,
	}, certificateService, notificationService, mailService, activityService, log)
	assessmentService := service.NewAssessmentService(courseRepo, moduleRepo, assessmentRepo, answerRepo, enrollmentRepo, progressService, notificationService, activityService, log)
	reviewService := service.NewReviewService(reviewRepo, courseRepo, enrollmentRepo, notificationService, activityService, log)
	paymentService := service.NewPaymentService(cfg, service.PaymentDeps{
		Payments:    paymentRepo,
		Courses:     courseRepo,
		Users:       userRepo,
		Enrollments: enrollmentRepo,
	}, gateways, enrollmentService, notificationService, mailService, activityService, log)
	documentService := service.NewDocumentService(cfg, documentRepo, courseRepo, lessonRepo, enrollmentRepo, objectStore, activityService, log)
	dashboardService := service.NewDashboardService(userRepo, courseRepo, enrollmentRepo, certificateRepo, paymentRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		User:         handler.NewUserHandler(userService, log),
		Organization: handler.NewOrganizationHandler(orgService, log),
		Course:       handler.NewCourseHandler(courseService, log),
		Assessment:   handler.NewAssessmentHandler(assessmentService, log),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentService, progressService, log),
		Review:       handler.NewReviewHandler(reviewService, log),
		Certificate:  handler.NewCertificateHandler(certificateService, log),
		Payment:      handler.NewPaymentHandler(paymentService, log),
		Document:     handler.NewDocumentHandler(documentService, log),
		Notification: handler.NewNotificationHandler(notificationService, log),
		Activity:     handler.NewActivityHandler(activityService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		System:       handler.NewSystemHandler(pool, rdb, cfg.AppVersion, log),
		WS:           handler.NewWSHandler(notificationService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	emailWorker := worker.NewEmailWorker(rdb, renderer, mail, log)
	activityWorker := worker.NewActivityWorker(rdb, activityRepo, log)

	workers.Add(2)
	go func() { defer workers.Done(); emailWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); activityWorker.Start(workerCtx) }()

	scheduler, err := worker.NewScheduler(log,
		worker.Job{Name: "otp.purge", Schedule: "@every 1h", Run: otpService.Purge},
		worker.Job{Name: "payments.expire", Schedule: "@every 30m", Run: paymentService.ExpireStale},
		worker.Job{Name: "notifications.prune", Schedule: "0 3 * * *", Run: notificationService.Prune},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule jobs")
	}
	scheduler.Start()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, rdb, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (10s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop cron jobs, then let the workers flush what they hold.
	scheduler.Stop(shutdownCtx)
	workerCancel()

	drained := make(chan struct{})
	go func() {
		workers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Workers did not drain before timeout")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
