package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hydroreg/water-licensing-backend/internal/forms"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/ctxutil"
	"github.com/hydroreg/water-licensing-backend/internal/pkg/logger"
	"github.com/hydroreg/water-licensing-backend/internal/session"
)

const csrfContextKey = "csrf_token"

// CSRFMiddleware gives every authenticated user a per-session token: GET
// handlers embed it as the hidden csrf_token field, mutating submissions
// must echo it back.
type CSRFMiddleware struct {
	log   *logger.Logger
	store session.Store
}

func NewCSRFMiddleware(log *logger.Logger, store session.Store) *CSRFMiddleware {
	return &CSRFMiddleware{log: log.With("Middleware", "CSRFMiddleware"), store: store}
}

func csrfKey(userID string) string {
	return session.Key("csrf", userID)
}

func (cm *CSRFMiddleware) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := ctxutil.GetPrincipal(c.Request.Context())
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "forbidden", "code": "forbidden"},
			})
			return
		}

		ctx := c.Request.Context()
		key := csrfKey(principal.UserID.String())
		token, ok, err := cm.store.Get(ctx, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"message": "session unavailable", "code": "session_error"},
			})
			return
		}
		if !ok {
			token = uuid.New().String()
			if err := cm.store.Set(ctx, key, token); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{"message": "session unavailable", "code": "session_error"},
				})
				return
			}
		}
		c.Set(csrfContextKey, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			_ = c.Request.ParseForm()
			if c.Request.PostForm.Get(forms.CSRFFieldName) != token {
				cm.log.Warn("CSRF token mismatch", "path", c.Request.URL.Path, "user_id", principal.UserID.String())
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": gin.H{"message": "invalid csrf token", "code": "csrf_mismatch"},
				})
				return
			}
		}
		c.Next()
	}
}

// CSRFToken returns the token attached by Protect for embedding in forms.
func CSRFToken(c *gin.Context) string {
	v, _ := c.Get(csrfContextKey)
	token, _ := v.(string)
	return token
}
