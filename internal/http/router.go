package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"techticks-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del gateway.
func NewRouter(
	logger *zap.Logger,
	store *service.SessionStore,
	sessionH *SessionHandler,
	chatH *ChatHandler,
	catalogH *CatalogHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	api := r.Group("/api", SameOriginMiddleware(logger))

	session := api.Group("/session")
	session.GET("", sessionH.GetSession)
	session.POST("/guest", sessionH.StartGuest)
	session.POST("/login", sessionH.Login)
	session.POST("/register", sessionH.Register)
	session.POST("/token", sessionH.AdoptToken)
	session.POST("/logout", sessionH.Logout)

	chat := api.Group("/chat", RequireIdentity(store))
	chat.GET("/messages", chatH.ListMessages)
	chat.POST("/messages", chatH.PostMessage)
	chat.DELETE("/messages", chatH.ClearMessages)

	catalog := api.Group("/catalog")
	catalog.GET("", catalogH.GetCatalog)
	catalog.GET("/suggestions", catalogH.SuggestFAQs)

	return r
}

// zapLoggerMiddleware registra cada request con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
