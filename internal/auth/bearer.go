package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/metadata-change-listener/internal/metrics"
	apperrors "github.com/PratikDhanave/metadata-change-listener/internal/pkg/errors"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
)

const bearerPrefix = "Bearer "

// BearerSecretMiddleware rejects requests whose Authorization header is not
// "Bearer <secret>". An empty secret disables the check.
func BearerSecretMiddleware(secret string) gin.HandlerFunc {
	expected := []byte(bearerPrefix + secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		got := strings.TrimSpace(c.GetHeader("Authorization"))
		if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeUnauthorized).Inc()
			logger.Warn("Webhook rejected, bearer secret mismatch",
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("header_present", got != ""),
			)
			_ = c.Error(apperrors.Unauthorized("unauthorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}
