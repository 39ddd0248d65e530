package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/PratikDhanave/metadata-change-listener/internal/api/middleware"
)

func newRouter(secret string) (*gin.Engine, *bool) {
	gin.SetMode(gin.TestMode)
	reached := false
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/webhook", BearerSecretMiddleware(secret), func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})
	return r, &reached
}

func TestBearerSecretMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		header      string
		wantStatus  int
		wantReached bool
	}{
		{"disabled without secret", "", "", http.StatusOK, true},
		{"disabled ignores header", "", "Bearer whatever", http.StatusOK, true},
		{"matching secret", "s3cret", "Bearer s3cret", http.StatusOK, true},
		{"missing header", "s3cret", "", http.StatusUnauthorized, false},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized, false},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized, false},
		{"bare secret", "s3cret", "s3cret", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reached := newRouter(tt.secret)

			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantReached, *reached)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"status":"error","code":"UNAUTHORIZED","message":"unauthorized"}`, w.Body.String())
			}
		})
	}
}
