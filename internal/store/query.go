package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/PratikDhanave/metadata-change-listener/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// EventFilter selects rows for ListEvents. Empty fields do not filter.
type EventFilter struct {
	EntityFQN string
	EventType string
	Limit     int
}

// ListEvents returns stored change events, newest event_time first.
func (p *PostgresStore) ListEvents(ctx context.Context, f EventFilter) ([]models.ChangeEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.EntityFQN != "" {
		args = append(args, f.EntityFQN)
		where = append(where, fmt.Sprintf("entity_fqn = $%d", len(args)))
	}
	if f.EventType != "" {
		args = append(args, f.EventType)
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)))
	}
	args = append(args, clampLimit(f.Limit))

	var sb strings.Builder
	sb.WriteString(`
		SELECT id, event_id, event_type, event_time, entity_type, entity_id, entity_fqn,
		       entity_name, change_description, updated_by, previous_version::float8,
		       current_version::float8, full_payload, created_at
		FROM metadata_change_events`)
	if len(where) > 0 {
		sb.WriteString("\n\t\tWHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, "\n\t\tORDER BY event_time DESC, id DESC\n\t\tLIMIT $%d", len(args))

	rows, err := p.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ChangeEvent, error) {
		var e models.ChangeEvent
		err := row.Scan(
			&e.ID, &e.EventID, &e.EventType, &e.EventTime, &e.EntityType, &e.EntityID,
			&e.EntityFQN, &e.EntityName, &e.ChangeDescription, &e.UpdatedBy,
			&e.PreviousVersion, &e.CurrentVersion, &e.FullPayload, &e.CreatedAt,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan events: %w", err)
	}
	return events, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultListLimit
	case n > MaxListLimit:
		return MaxListLimit
	default:
		return n
	}
}
