package http

import (
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SameOriginMiddleware protege las rutas que cambian estado frente a páginas de otros orígenes.
// Exige Content-Type application/json (un POST simple text/plain no pasa sin preflight)
// y, si viene Origin, que coincida con el Host del gateway.
func SameOriginMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if origin := c.GetHeader("Origin"); origin != "" && !sameHost(origin, c.Request.Host) {
			logger.Warn("cross-origin request rejected",
				zap.String("origin", origin),
				zap.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusForbidden, gin.H{"error": "cross-origin request rejected"})
			c.Abort()
			return
		}

		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/json" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be application/json"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
