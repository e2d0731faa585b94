package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/handlers"
	"github.com/harvlabs/harv-backend/internal/middleware"
	"github.com/harvlabs/harv-backend/internal/platform/envutil"
)

type RouterConfig struct {
	IdentityMiddleware *middleware.IdentityMiddleware
	HealthHandler      *handlers.HealthHandler
	UserHandler        *handlers.UserHandler
	ModuleHandler      *handlers.ModuleHandler
	ChatHandler        *handlers.ChatHandler
	MemoryHandler      *handlers.MemoryHandler
	ProgressHandler    *handlers.ProgressHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("harv-backend"))

	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-User-ID", "X-User-Role"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	router.POST("/register", cfg.UserHandler.CreateUser)

	// Protected
	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.RequireIdentity())
	// Onboarding
	api.POST("/survey", cfg.UserHandler.SaveSurvey)
	// Modules
	api.GET("/modules", cfg.ModuleHandler.ListModules)
	api.POST("/modules", cfg.IdentityMiddleware.RequireRole(types.RoleEducator), cfg.ModuleHandler.CreateModule)
	// Tutoring
	api.POST("/chat/message", cfg.ChatHandler.SendMessage)
	// Memory engine
	api.POST("/memory/context", cfg.MemoryHandler.AssembleContext)
	api.POST("/memory/compliance", cfg.MemoryHandler.AnalyzeReply)
	api.POST("/memory/insight", cfg.MemoryHandler.SaveInsight)
	// Progress
	api.POST("/progress", cfg.ProgressHandler.UpdateProgress)
	api.GET("/progress", cfg.ProgressHandler.ListProgress)
	api.GET("/progress/:module_id", cfg.ProgressHandler.GetModuleProgress)

	return router
}
