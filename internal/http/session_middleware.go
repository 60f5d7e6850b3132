package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"techticks-chat/internal/domain"
	"techticks-chat/internal/service"
)

const identityKey = "identity"

// RequireIdentity deja pasar solo con una identidad usable (cuenta o invitado) y la guarda en el contexto.
func RequireIdentity(store *service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session not configured"})
			c.Abort()
			return
		}
		if store.IsLoading() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session is loading"})
			c.Abort()
			return
		}

		id := store.Identity()
		if id.Mode == domain.ModeUnauthenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in or continue as guest"})
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// GetIdentity obtiene la identidad fijada por RequireIdentity.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := val.(domain.Identity)
	return id, ok
}
