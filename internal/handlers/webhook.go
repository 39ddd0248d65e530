package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/PratikDhanave/metadata-change-listener/internal/auth"
	"github.com/PratikDhanave/metadata-change-listener/internal/metrics"
	"github.com/PratikDhanave/metadata-change-listener/internal/models"
	"github.com/PratikDhanave/metadata-change-listener/internal/normalize"
	apperrors "github.com/PratikDhanave/metadata-change-listener/internal/pkg/errors"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
	"github.com/PratikDhanave/metadata-change-listener/internal/store"
	"github.com/PratikDhanave/metadata-change-listener/internal/tracing"
)

// maxPayloadBytes bounds a single webhook body.
const maxPayloadBytes = 10 << 20

// EventWriter persists one normalized event per call.
type EventWriter interface {
	SaveChangeEvent(ctx context.Context, ev models.NormalizedEvent, raw map[string]any) (store.SaveResult, error)
}

// RegisterWebhookRoutes registers the ingestion endpoint.
//
// POST /webhook
// - Requires "Authorization: Bearer <secret>" when a secret is configured
// - Durable: returns success only after the event transaction commits
// - Idempotent: duplicates detected via the event_id uniqueness constraint
func RegisterWebhookRoutes(r gin.IRoutes, w EventWriter, secret string) {
	r.POST("/webhook", countReceived, auth.BearerSecretMiddleware(secret), func(c *gin.Context) {
		ctx, span := tracing.Tracer().Start(c.Request.Context(), "webhook.receive")
		defer span.End()

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeInvalid).Inc()
				_ = c.Error(apperrors.New(apperrors.CodePayloadTooLarge,
					fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge))
				return
			}
			rejectPayload(c, apperrors.CodeInvalidPayload, "could not read request body")
			return
		}

		raw, err := normalize.DecodeJSONObject(body)
		switch {
		case errors.Is(err, normalize.ErrEmptyPayload):
			rejectPayload(c, apperrors.CodeEmptyPayload, "Empty payload")
			return
		case err != nil:
			rejectPayload(c, apperrors.CodeInvalidPayload, "invalid JSON payload")
			return
		}

		ev := normalize.Normalize(raw, time.Now())
		span.SetAttributes(
			attribute.String("event.id", ev.EventID),
			attribute.String("event.type", ev.EventType),
		)

		log := logger.With(
			zap.String("event_id", ev.EventID),
			zap.String("event_type", ev.EventType),
			zap.Stringp("entity_fqn", ev.Entity.FQN),
		)
		log.Info("Webhook event received")

		res, err := w.SaveChangeEvent(ctx, ev, raw)
		if err != nil {
			metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeFailed).Inc()
			_ = c.Error(apperrors.Internal(err, apperrors.CodeEventSaveFailed, "Failed to save event"))
			return
		}

		outcome := metrics.OutcomeSaved
		if res.Duplicate {
			outcome = metrics.OutcomeDuplicate
		}
		metrics.WebhookOutcomes.WithLabelValues(outcome).Inc()
		log.Info("Webhook event processed",
			zap.Bool("duplicate", res.Duplicate),
			zap.Int("field_changes", res.FieldChanges),
			zap.Bool("snapshot", res.Snapshot),
		)

		c.JSON(http.StatusOK, models.WebhookResponse{
			Status:      "success",
			Message:     "Event processed and saved",
			EventID:     ev.EventID,
			Duplicate:   res.Duplicate,
			GeneratedID: ev.GeneratedID,
		})
	})
}

func countReceived(c *gin.Context) {
	metrics.WebhooksReceived.Inc()
	c.Next()
}

func rejectPayload(c *gin.Context, code, message string) {
	metrics.WebhookOutcomes.WithLabelValues(metrics.OutcomeInvalid).Inc()
	_ = c.Error(apperrors.BadRequest(code, message))
}
