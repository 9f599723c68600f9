package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailfly/backend/internal/auth"
	"mailfly/backend/internal/config"
	"mailfly/backend/internal/middleware"
	"mailfly/backend/internal/monitoring"
	"mailfly/backend/internal/service"
	"mailfly/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项。
type RouterDependencies struct {
	Config        *config.Config
	InboxService  *service.InboxService
	EmailService  *service.EmailService
	StatsService  *service.StatsService
	TokenService  *service.TokenService
	AuthService   *auth.Service
	WebSocketHub  *websocket.Hub
	CreateLimiter *middleware.CreateLimiter
	Metrics       *monitoring.Metrics
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
	}

	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Token"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	authHandler := NewAuthHandler(deps.AuthService)
	inboxHandler := NewInboxHandler(deps.InboxService, deps.StatsService)
	mailHandler := NewMailHandler(deps.EmailService, deps.InboxService)
	statsHandler := NewStatsHandler(deps.StatsService)
	tokenHandler := NewTokenHandler(deps.TokenService)

	api := router.Group("/api")
	api.Use(middleware.GlobalTokenGate(deps.Config.Admin.Token, deps.TokenService.Validate))
	api.Use(middleware.ResolveIdentity(deps.AuthService))

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/domains", inboxHandler.Domains)
	api.GET("/stats", statsHandler.Global)

	createGroup := api.Group("")
	if deps.CreateLimiter != nil {
		createGroup.Use(deps.CreateLimiter.Limit())
	}
	createGroup.POST("/inbox", inboxHandler.Create)

	mailbox := api.Group("/inbox/:address")
	mailbox.Use(middleware.RequireMailboxAccess(deps.InboxService))
	mailbox.GET("", inboxHandler.Get)
	mailbox.DELETE("", inboxHandler.Delete)
	mailbox.POST("/renew", inboxHandler.Renew)
	mailbox.POST("/forward", inboxHandler.Forward)
	mailbox.GET("/stats", inboxHandler.Stats)

	api.GET("/mail/:id", mailHandler.Get)
	api.DELETE("/mail/:id", mailHandler.Delete)

	tokens := api.Group("/tokens")
	tokens.Use(middleware.RequireAdminToken(deps.Config.Admin.Token))
	tokens.GET("", tokenHandler.List)
	tokens.POST("", tokenHandler.Create)
	tokens.DELETE("/:token", tokenHandler.Delete)

	if deps.WebSocketHub != nil {
		api.GET("/ws/:address", deps.WebSocketHub.ServeWS)
	}

	return router
}
