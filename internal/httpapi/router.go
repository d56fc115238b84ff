package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/ai-chat/internal/common"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/handlers"
	"github.com/suPer8Hu/ai-chat/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(corsMiddleware(h.Cfg.CORSAllowOrigins))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// auth
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	// stateless generation
	r.POST("/generation/generate", h.Generate)
	r.POST("/generation/generate_chat_name", h.GenerateChatName)

	// conversations (JWT required)
	conv := r.Group("/conversation")
	conv.Use(middleware.AuthRequired(h.Cfg.JWTSecret))
	conv.GET("/list", h.ListConversations)
	conv.POST("/start", h.StartConversation)
	conv.GET("/:conv_id", h.GetConversation)
	conv.POST("/:conv_id/rename", h.RenameConversation)
	conv.POST("/:conv_id/message", h.SendMessage)
	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
