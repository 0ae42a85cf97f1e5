package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MediaRoute expone archivos locales (audio) bajo un prefijo URL.
// Root vacio desactiva la ruta, por ejemplo cuando el audio vive en S3.
type MediaRoute struct {
	URLPrefix string
	Root      string
}

// NewRouter configura el router de Gin con middlewares y rutas base.
func NewRouter(
	logger *zap.Logger,
	chatH *ChatHandler,
	healthH *HealthHandler,
	media MediaRoute,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	r.GET("/health", healthH.Health)

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.POST("/conversation/", chatH.CreateConversation)
	api.POST("/message/", chatH.SendMessage)
	api.POST("/summary/", chatH.GenerateSummary)
	api.POST("/audio/", chatH.UploadAudio)
	api.GET("/search/", chatH.SearchMessages)
	api.GET("/messages/:conversation_id/", chatH.GetMessages)

	if media.Root != "" {
		prefix := "/" + strings.Trim(media.URLPrefix, "/")
		r.Static(prefix, media.Root)
	}

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses de la API.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
