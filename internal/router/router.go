package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/handler"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Organization *handler.OrganizationHandler
	Course       *handler.CourseHandler
	Assessment   *handler.AssessmentHandler
	Enrollment   *handler.EnrollmentHandler
	Review       *handler.ReviewHandler
	Certificate  *handler.CertificateHandler
	Payment      *handler.PaymentHandler
	Document     *handler.DocumentHandler
	Notification *handler.NotificationHandler
	Activity     *handler.ActivityHandler
	Dashboard    *handler.DashboardHandler
	System       *handler.SystemHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	rdb *redis.Client,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(
		gin.Recovery(),
		response.RequestIDMiddleware(),
		middleware.RequestLogger(log),
		cors.New(corsConfig),
		middleware.Brotli(),
	)

	// Upload keys are random UUIDs, so objects never change in place.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.StaticCache(365*24*time.Hour, true))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/health", handlers.System.Health)

	requireAuth := middleware.RequireAuth(authService)
	optionalAuth := middleware.OptionalAuth(authService)
	can := middleware.RequirePermission
	upload := middleware.LimitUpload(cfg.MaxUploadBytes)

	api := router.Group("/api/v1")

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(rdb, "auth", cfg.AuthRateLimit, time.Minute, log)
	auth := api.Group("/auth")
	auth.Use(authLimiter.Middleware(), middleware.NoStore())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/verify-email", handlers.Auth.VerifyEmail)
		auth.POST("/verify-email/resend", handlers.Auth.ResendVerification)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/login/verify", handlers.Auth.VerifyLogin)
		auth.POST("/otp/resend", handlers.Auth.ResendOTP)
		auth.POST("/password/forgot", handlers.Auth.ForgotPassword)
		auth.POST("/password/reset", handlers.Auth.ResetPassword)

		// Authenticated profile routes
		auth.POST("/logout", requireAuth, handlers.Auth.Logout)
		auth.GET("/me", requireAuth, handlers.User.Me)
		auth.PUT("/me", requireAuth, handlers.User.UpdateMe)
		auth.POST("/me/avatar", requireAuth, upload, handlers.User.UploadAvatar)
		auth.POST("/me/password", requireAuth, handlers.Auth.ChangePassword)
		auth.POST("/2fa", requireAuth, handlers.Auth.SetTwoFactor)
	}

	// ─── 2. Public Group (Optional Auth) ───────────────────────────────
	// Anonymous callers see published content; a valid token unlocks
	// drafts for owners and lesson bodies for enrolled students.
	public := api.Group("")
	public.Use(optionalAuth)
	{
		public.GET("/courses", handlers.Course.List)
		public.GET("/courses/:id", handlers.Course.Get)
		public.GET("/courses/:id/reviews", handlers.Review.List)
		public.GET("/lessons/:id", handlers.Course.GetLesson)
		public.GET("/certificates/verify/:number", handlers.Certificate.Verify)
	}

	// ─── 3. Webhooks (Signature Verified) ──────────────────────────────
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Payment.StripeWebhook)
		webhooks.POST("/midtrans", handlers.Payment.MidtransWebhook)
	}

	// ─── 4. Authenticated Group ────────────────────────────────────────
	authed := api.Group("")
	authed.Use(requireAuth)
	{
		// Organizations
		authed.POST("/organizations", can(model.PermissionOrganizationsWrite), handlers.Organization.Create)
		authed.GET("/organizations", handlers.Organization.List)
		authed.GET("/organizations/:id", handlers.Organization.Get)
		authed.PUT("/organizations/:id", handlers.Organization.Update)
		authed.DELETE("/organizations/:id", handlers.Organization.Delete)
		authed.GET("/organizations/:id/members", handlers.Organization.Members)
		authed.POST("/organizations/:id/members", handlers.Organization.AddMember)
		authed.DELETE("/organizations/:id/members/:user_id", handlers.Organization.RemoveMember)

		// Course authoring
		authed.GET("/instructor/courses", can(model.PermissionCoursesWrite), handlers.Course.ListMine)
		authed.POST("/courses", can(model.PermissionCoursesWrite), handlers.Course.Create)
		authed.PUT("/courses/:id", can(model.PermissionCoursesWrite), handlers.Course.Update)
		authed.DELETE("/courses/:id", can(model.PermissionCoursesWrite), handlers.Course.Delete)
		authed.POST("/courses/:id/publish", can(model.PermissionCoursesWrite), handlers.Course.Publish)
		authed.POST("/courses/:id/archive", can(model.PermissionCoursesWrite), handlers.Course.Archive)
		authed.POST("/courses/:id/thumbnail", can(model.PermissionCoursesWrite), upload, handlers.Course.UploadThumbnail)

		authed.GET("/courses/:id/modules", handlers.Course.ListModules)
		authed.POST("/courses/:id/modules", can(model.PermissionCoursesWrite), handlers.Course.CreateModule)
		authed.PUT("/modules/:id", can(model.PermissionCoursesWrite), handlers.Course.UpdateModule)
		authed.DELETE("/modules/:id", can(model.PermissionCoursesWrite), handlers.Course.DeleteModule)
		authed.POST("/modules/:id/lessons", can(model.PermissionCoursesWrite), handlers.Course.CreateLesson)
		authed.PUT("/lessons/:id", can(model.PermissionCoursesWrite), handlers.Course.UpdateLesson)
		authed.DELETE("/lessons/:id", can(model.PermissionCoursesWrite), handlers.Course.DeleteLesson)

		// Assessments
		authed.POST("/courses/:id/assessments", can(model.PermissionCoursesWrite), handlers.Assessment.Create)
		authed.GET("/courses/:id/assessments", handlers.Assessment.ListByCourse)
		authed.GET("/assessments/:id", handlers.Assessment.Get)
		authed.PUT("/assessments/:id", can(model.PermissionCoursesWrite), handlers.Assessment.Update)
		authed.DELETE("/assessments/:id", can(model.PermissionCoursesWrite), handlers.Assessment.Delete)
		authed.POST("/assessments/:id/questions", can(model.PermissionCoursesWrite), handlers.Assessment.CreateQuestion)
		authed.PUT("/questions/:id", can(model.PermissionCoursesWrite), handlers.Assessment.UpdateQuestion)
		authed.DELETE("/questions/:id", can(model.PermissionCoursesWrite), handlers.Assessment.DeleteQuestion)
		authed.POST("/assessments/:id/submit", handlers.Assessment.Submit)
		authed.GET("/assessments/:id/attempts", handlers.Assessment.Attempts)

		// Enrollment and progress
		authed.POST("/courses/:id/enroll", handlers.Enrollment.Enroll)
		authed.DELETE("/courses/:id/enroll", handlers.Enrollment.Cancel)
		authed.GET("/courses/:id/enrollments", can(model.PermissionCoursesWrite), handlers.Enrollment.ListByCourse)
		authed.POST("/lessons/:id/complete", handlers.Enrollment.CompleteLesson)
		authed.GET("/courses/:id/progress", handlers.Enrollment.GetProgress)

		// Reviews
		authed.POST("/courses/:id/reviews", handlers.Review.Create)
		authed.PUT("/reviews/:id", handlers.Review.Update)
		authed.DELETE("/reviews/:id", handlers.Review.Delete)

		// Certificates
		authed.GET("/certificates/:id", handlers.Certificate.Get)

		// Payments
		authed.POST("/courses/:id/checkout", handlers.Payment.Checkout)
		authed.GET("/payments/:id", handlers.Payment.Get)

		// Documents
		authed.POST("/documents", can(model.PermissionDocumentsWrite), upload, handlers.Document.Upload)
		authed.GET("/documents", handlers.Document.List)
		authed.GET("/documents/:id", handlers.Document.Get)
		authed.DELETE("/documents/:id", handlers.Document.Delete)
	}

	// ─── 5. Personal Group ─────────────────────────────────────────────
	me := api.Group("/me")
	me.Use(requireAuth, middleware.NoStore())
	{
		me.GET("/enrollments", handlers.Enrollment.ListMine)
		me.GET("/certificates", handlers.Certificate.ListMine)
		me.GET("/payments", handlers.Payment.ListMine)
		me.GET("/activity", handlers.Activity.ListMine)
		me.GET("/notifications", handlers.Notification.List)
		me.POST("/notifications/read-all", handlers.Notification.MarkAllRead)
		me.POST("/notifications/:id/read", handlers.Notification.MarkRead)
	}

	// ─── 6. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(requireAuth)
	{
		adminAPI.GET("/users", middleware.RequireAnyPermission(model.PermissionUsersRead, model.PermissionUsersWrite), handlers.User.ListUsers)
		adminAPI.PUT("/users/:id/role", can(model.PermissionUsersWrite), handlers.User.UpdateRole)
		adminAPI.PUT("/users/:id/status", can(model.PermissionUsersWrite), handlers.User.UpdateStatus)

		adminAPI.GET("/activity-logs", can(model.PermissionActivityRead), handlers.Activity.List)

		adminAPI.GET("/dashboard", can(model.PermissionDashboardRead), handlers.Dashboard.GetStats)
		adminAPI.GET("/system/metrics", middleware.RequireRole(model.RoleAdmin), handlers.System.SystemMetricsSSE)
	}

	// ─── 7. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/notifications", handlers.WS.NotificationStream)
	}

	return router
}
