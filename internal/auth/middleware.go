package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "session"
	CtxIdentity   = "identity"
)

// WithIdentity resolves the session cookie to a wallet address and puts
// it on the gin context. Requests without a valid session are rejected.
func WithIdentity(sessions *SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || strings.TrimSpace(token) == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
			c.Abort()
			return
		}

		address, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "session lookup: " + err.Error()})
			c.Abort()
			return
		}
		if address == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "session expired"})
			c.Abort()
			return
		}

		c.Set(CtxIdentity, address)
		c.Next()
	}
}

// Identity extracts the authenticated wallet address from the context.
func Identity(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxIdentity))
}
