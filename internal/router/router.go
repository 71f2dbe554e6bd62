package router

import (
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/config"
	"github.com/anhnhh24/DriverLicenseTest/internal/handler"
	"github.com/anhnhh24/DriverLicenseTest/internal/middleware"
	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// catalogMaxAge is how long clients may cache reference data, in seconds.
const catalogMaxAge = 300

// Auth is what the router needs from the auth service.
type Auth interface {
	middleware.TokenValidator
	middleware.SessionValidator
}

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Catalog       *handler.CatalogHandler
	Question      *handler.QuestionHandler
	TrafficSign   *handler.TrafficSignHandler
	MockExam      *handler.MockExamHandler
	Statistic     *handler.StatisticHandler
	WrongQuestion *handler.WrongQuestionHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// Limiters holds the rate limiters applied to route groups. Auth counts per
// client IP, ExamStart per user.
type Limiters struct {
	Auth      *middleware.RateLimiter
	ExamStart *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth Auth,
	handlers *Handlers,
	limiters Limiters,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.ReleaseMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	if cfg.OtelEnabled {
		router.Use(otelgin.Middleware(cfg.OtelServiceName))
	}

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	requireUser := []gin.HandlerFunc{
		middleware.RequireUser(auth),
		middleware.CheckSingleSession(auth),
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		limited := authAPI.Group("")
		limited.Use(limiters.Auth.Middleware())
		limited.POST("/register", handlers.Auth.Register)
		limited.GET("/confirm-email", handlers.Auth.ConfirmEmail)
		limited.POST("/login", handlers.Auth.Login)
		limited.POST("/forgot-password", handlers.Auth.ForgotPassword)
		limited.POST("/reset-password", handlers.Auth.ResetPassword)

		session := authAPI.Group("")
		session.Use(requireUser...)
		session.POST("/logout", handlers.Auth.Logout)
		session.GET("/me", handlers.Auth.Me)
	}

	api := router.Group("/api/v1")

	// ─── 2. Public Reference Data ──────────────────────────────────────
	{
		reference := api.Group("")
		reference.Use(middleware.CacheControl(catalogMaxAge))
		reference.GET("/license-types", handlers.Catalog.ListLicenseTypes)
		reference.GET("/license-types/:id", handlers.Catalog.GetLicenseType)
		reference.GET("/categories", handlers.Catalog.ListCategories)
		reference.GET("/categories/:id", handlers.Catalog.GetCategory)

		questions := api.Group("/questions")
		questions.GET("", handlers.Question.ListQuestions)
		questions.GET("/elimination", handlers.Question.ListElimination)
		questions.GET("/search", handlers.Question.Search)
		questions.GET("/category/:categoryId", handlers.Question.ListByCategory)
		questions.GET("/number/:number", handlers.Question.GetByNumber)
		questions.GET("/random/elimination", handlers.Question.RandomElimination)
		questions.GET("/random/category/:categoryId", handlers.Question.RandomByCategory)
		questions.GET("/:id", handlers.Question.GetQuestion)

		signs := reference.Group("/traffic-signs")
		signs.GET("", handlers.TrafficSign.List)
		signs.GET("/search", handlers.TrafficSign.Search)
		signs.GET("/type/:type", handlers.TrafficSign.ListByType)
		signs.GET("/:id", handlers.TrafficSign.Get)

		api.GET("/leaderboard", handlers.Statistic.Leaderboard)
	}

	// ─── 3. User Group (JWT + Single Session) ──────────────────────────
	userAPI := api.Group("")
	userAPI.Use(requireUser...)
	userAPI.Use(middleware.NoStore())
	{
		exams := userAPI.Group("/mockexams")
		exams.POST("/start", limiters.ExamStart.Middleware(), handlers.MockExam.StartExam)
		exams.GET("/byuser", handlers.MockExam.ListByUser)
		exams.PUT("/update/:examId", handlers.MockExam.UpdateExam)
		exams.GET("/:examId", handlers.MockExam.GetExam)
		exams.POST("/:examId/submit", handlers.MockExam.SubmitExam)

		userAPI.GET("/statistics/me", handlers.Statistic.Me)
		userAPI.GET("/leaderboard/me", handlers.Statistic.MyRank)

		wrong := userAPI.Group("/wrong-questions")
		wrong.GET("", handlers.WrongQuestion.List)
		wrong.GET("/license/:licenseTypeId", handlers.WrongQuestion.ListByLicense)
		wrong.PUT("/:id/mark-fixed", handlers.WrongQuestion.MarkFixed)
	}

	// ─── 4. WebSocket Group (Token In Query) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(auth), middleware.CheckSingleSession(auth))
	{
		ws.GET("/mockexams/:examId/stream", handlers.WS.ExamStream)
	}

	// ─── 5. Admin Group (JWT + Role) ───────────────────────────────────
	adminAPI := api.Group("/admin")
	adminAPI.Use(requireUser...)
	adminAPI.Use(middleware.RequireAdmin())
	{
		adminAPI.POST("/questions", handlers.Question.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.Question.DeleteQuestion)

		adminAPI.POST("/traffic-signs", handlers.TrafficSign.Create)
		adminAPI.PUT("/traffic-signs/:id", handlers.TrafficSign.Update)
		adminAPI.DELETE("/traffic-signs/:id", handlers.TrafficSign.Delete)
	}

	return router
}
