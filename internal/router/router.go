package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/handler"
	"github.com/latihanku/latihanku-backend/internal/middleware"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/latihanku/latihanku-backend/internal/response"
	"github.com/latihanku/latihanku-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt         *handler.AttemptHandler
	Block           *handler.BlockHandler
	Cermat          *handler.CermatHandler
	AdminBlock      *handler.AdminBlockHandler
	AdminAssessment *handler.AdminAssessmentHandler
	Setting         *handler.SettingHandler
	WS              *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

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
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for unlock-code submissions (10 per minute per IP).
	unlockLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Learner Group (JWT) ────────────────────────────────────────
	learnerAPI := router.Group("/api/v1/learner")
	learnerAPI.Use(middleware.RequireLearnerJWT(authService))
	{
		learnerAPI.GET("/assessments/:slug", handlers.Attempt.GetAssessmentInfo)
		learnerAPI.POST("/assessments/:slug/attempts", handlers.Attempt.StartAttempt)
		learnerAPI.GET("/attempts", handlers.Attempt.ListAttempts)
		learnerAPI.GET("/attempts/:attempt_id", handlers.Attempt.GetAttempt)
		learnerAPI.POST("/attempts/:attempt_id/submit", handlers.Attempt.SubmitAttempt)
		learnerAPI.GET("/attempts/:attempt_id/review", handlers.Attempt.ReviewAttempt)

		learnerAPI.POST("/violations", handlers.Block.ReportViolation)
		learnerAPI.GET("/blocks/active", handlers.Block.GetActiveBlocks)
		learnerAPI.POST("/blocks/unlock", unlockLimiter.Middleware(), handlers.Block.Unlock)

		learnerAPI.POST("/cermat", handlers.Cermat.StartDrill)
		learnerAPI.POST("/cermat/sessions/:session_id/submit", handlers.Cermat.SubmitRound)
		learnerAPI.GET("/cermat/history", handlers.Cermat.ListHistory)
	}

	// ─── 2. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/violations/stream", handlers.WS.ViolationStream)
	}

	// ─── 3. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/blocks/active",
			middleware.RequirePermission(string(model.PermissionBlocksRead)),
			handlers.AdminBlock.ListActiveBlocks,
		)
		adminAPI.POST("/blocks/:block_id/resolve",
			middleware.RequirePermission(string(model.PermissionBlocksWrite)),
			handlers.AdminBlock.ResolveBlock,
		)
		adminAPI.POST("/blocks/:block_id/regenerate-code",
			middleware.RequirePermission(string(model.PermissionBlocksWrite)),
			handlers.AdminBlock.RegenerateCode,
		)

		adminAPI.GET("/assessments/:assessment_id",
			middleware.RequirePermission(string(model.PermissionQuestionsRead)),
			handlers.AdminAssessment.GetAssessment,
		)
		adminAPI.PUT("/assessments/:assessment_id/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.AdminAssessment.ReplaceQuestions,
		)

		adminAPI.GET("/settings",
			middleware.RequirePermission(string(model.PermissionSettingsRead)),
			handlers.Setting.GetAllSettings,
		)
		adminAPI.PUT("/settings",
			middleware.RequirePermission(string(model.PermissionSettingsWrite)),
			handlers.Setting.UpdateSettings,
		)
	}

	return router
}
