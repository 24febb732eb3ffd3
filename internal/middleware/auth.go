package middleware

import (
	"context"
	"strings"

	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"
	"learning_aid_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Session, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// wsToken 浏览器无法为 WebSocket 握手设置请求头，允许 ?token= 兜底
func wsToken(c *gin.Context) string {
	if token := bearerToken(c); token != "" {
		return token
	}
	return c.Query(util.AccessTokenQuery)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return requireSession(auth, bearerToken)
}

// WSAuthMiddleware is AuthMiddleware for the WebSocket upgrade route, where the
// token may also arrive in the query string.
func WSAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return requireSession(auth, wsToken)
}

func requireSession(auth Authenticator, extract func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extract(c)
		if token == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		sess, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Rejected access token", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set(util.SessionKey, sess)
		c.Next()
	}
}

// TryAuthMiddleware attaches a session when a valid token is present and lets
// anonymous requests through otherwise.
func TryAuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if sess, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(util.SessionKey, sess)
			}
		}
		c.Next()
	}
}

// CurrentSession returns the caller's session, or nil for anonymous requests.
func CurrentSession(c *gin.Context) *service.Session {
	v, ok := c.Get(util.SessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*service.Session)
	return sess
}
