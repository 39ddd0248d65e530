package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/metadata-change-listener/internal/models"
	apperrors "github.com/PratikDhanave/metadata-change-listener/internal/pkg/errors"
	"github.com/PratikDhanave/metadata-change-listener/internal/store"
)

// EventReader reads stored change events back.
type EventReader interface {
	ListEvents(ctx context.Context, f store.EventFilter) ([]models.ChangeEvent, error)
}

// RegisterEventRoutes registers the read-back endpoint.
//
// GET /events?entity_fqn=...&event_type=...&limit=...
// - All filters optional; limit defaults to 100
// - limit above 1000 is served as 1000; count reports the rows returned
// - Ordered by event_time descending
func RegisterEventRoutes(r gin.IRoutes, rd EventReader) {
	r.GET("/events", func(c *gin.Context) {
		f := store.EventFilter{
			EntityFQN: c.Query("entity_fqn"),
			EventType: c.Query("event_type"),
			Limit:     store.DefaultListLimit,
		}

		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				_ = c.Error(apperrors.BadRequest(apperrors.CodeInvalidQuery, "limit must be a positive integer"))
				return
			}
			f.Limit = n
		}

		events, err := rd.ListEvents(c.Request.Context(), f)
		if err != nil {
			_ = c.Error(apperrors.Internal(err, apperrors.CodeQueryFailed, "Failed to query events"))
			return
		}
		if events == nil {
			events = []models.ChangeEvent{}
		}

		c.JSON(http.StatusOK, models.EventListResponse{
			Count:  len(events),
			Events: events,
		})
	})
}
