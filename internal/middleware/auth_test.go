package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learning_aid_backend/internal/service"
	"learning_aid_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubAuth map[string]*service.Session

func (s stubAuth) Authenticate(ctx context.Context, token string) (*service.Session, error) {
	if sess, ok := s[token]; ok {
		return sess, nil
	}
	return nil, util.ErrInvalidToken
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := stubAuth{"good-token": {UserID: "user-1"}}

	whoami := func(c *gin.Context) {
		if sess := CurrentSession(c); sess != nil {
			c.String(http.StatusOK, sess.UserID)
			return
		}
		c.String(http.StatusOK, "anonymous")
	}

	r := gin.New()
	r.GET("/private", AuthMiddleware(auth), whoami)
	r.GET("/optional", TryAuthMiddleware(auth), whoami)
	r.GET("/ws", WSAuthMiddleware(auth), whoami)
	return r
}

func TestAuthMiddlewares(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "bearer header", path: "/private", header: "Bearer good-token", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "missing token", path: "/private", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", path: "/private", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "query token ignored on api routes", path: "/private?token=good-token", wantStatus: http.StatusUnauthorized},
		{name: "optional query token ignored", path: "/optional?token=good-token", wantStatus: http.StatusOK, wantBody: "anonymous"},
		{name: "optional bearer header", path: "/optional", header: "Bearer good-token", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "websocket query token", path: "/ws?token=good-token", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "websocket bearer header", path: "/ws", header: "Bearer good-token", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "websocket bad query token", path: "/ws?token=nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestAccessLogFormatter(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    string
		notWant string
	}{
		{name: "plain path", path: "/api/vocabulary", want: `"/api/vocabulary"`},
		{name: "other params kept", path: "/api/vocabulary?level=N2", want: `"/api/vocabulary?level=N2"`},
		{name: "token masked", path: "/api/chat/ws?token=secret-jwt", want: "token=REDACTED", notWant: "secret-jwt"},
		{name: "token masked among params", path: "/api/chat/ws?lang=ja&token=secret-jwt", want: "lang=ja", notWant: "secret-jwt"},
		{name: "unparsable query dropped", path: "/api/chat/ws?token=%zz-secret", want: `"/api/chat/ws"`, notWant: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := AccessLogFormatter(gin.LogFormatterParams{
				TimeStamp:  time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
				StatusCode: http.StatusOK,
				Latency:    time.Millisecond,
				ClientIP:   "127.0.0.1",
				Method:     http.MethodGet,
				Path:       tt.path,
			})
			assert.Contains(t, line, tt.want)
			if tt.notWant != "" {
				assert.False(t, strings.Contains(line, tt.notWant), line)
			}
		})
	}
}
