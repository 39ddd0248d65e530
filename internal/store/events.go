package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/PratikDhanave/metadata-change-listener/internal/metrics"
	"github.com/PratikDhanave/metadata-change-listener/internal/models"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
	"github.com/PratikDhanave/metadata-change-listener/internal/tracing"
)

// SaveResult describes what a SaveChangeEvent call wrote.
type SaveResult struct {
	// Duplicate is true when an event with the same id was already stored;
	// nothing was written in that case.
	Duplicate    bool
	FieldChanges int
	Snapshot     bool
}

const insertEventSQL = `
	INSERT INTO metadata_change_events
		(event_id, event_type, event_time, entity_type, entity_id, entity_fqn,
		 entity_name, change_description, updated_by, previous_version,
		 current_version, full_payload)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (event_id) DO NOTHING
	RETURNING 1`

const insertFieldChangeSQL = `
	INSERT INTO field_changes (event_id, field_name, old_value, new_value, change_type)
	VALUES ($1,$2,$3,$4,$5)`

const upsertDeletedEntitySQL = `
	INSERT INTO deleted_entities
		(entity_id, entity_type, entity_fqn, entity_name, deleted_at, deleted_by, last_snapshot)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (entity_id) DO UPDATE SET
		deleted_at = EXCLUDED.deleted_at,
		deleted_by = EXCLUDED.deleted_by`

// SaveChangeEvent writes the event, its field changes and, for deletions,
// the deleted-entity snapshot in one transaction. A duplicate event id is
// not an error: nothing is written and Duplicate is reported.
func (p *PostgresStore) SaveChangeEvent(ctx context.Context, ev models.NormalizedEvent, raw map[string]any) (res SaveResult, err error) {
	ctx, span := tracing.Tracer().Start(ctx, "store.SaveChangeEvent")
	span.SetAttributes(
		attribute.String("event.id", ev.EventID),
		attribute.String("event.type", ev.EventType),
	)
	start := time.Now()
	defer func() {
		metrics.SaveLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save failed")
		}
		span.End()
	}()

	if ev.EventID == "" {
		return SaveResult{}, errors.New("event id required")
	}

	descJSON, err := json.Marshal(ev.ChangeDescription)
	if err != nil {
		return SaveResult{}, fmt.Errorf("marshal change description: %w", err)
	}
	payloadJSON, err := json.Marshal(raw)
	if err != nil {
		return SaveResult{}, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("begin tx: %w", err)
	}
	// No-op once committed.
	defer func() { _ = tx.Rollback(ctx) }()

	// RETURNING 1 only when inserted; duplicates return no rows.
	var one int
	err = tx.QueryRow(ctx, insertEventSQL,
		ev.EventID, ev.EventType, ev.EventTime,
		ev.Entity.Type, ev.Entity.ID, ev.Entity.FQN, ev.Entity.Name,
		string(descJSON), ev.UpdatedBy, ev.PreviousVersion, ev.CurrentVersion,
		payloadJSON,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetAttributes(attribute.Bool("event.duplicate", true))
		logger.Info("Duplicate change event ignored", zap.String("event_id", ev.EventID))
		return SaveResult{Duplicate: true}, nil
	}
	if err != nil {
		return SaveResult{}, fmt.Errorf("insert change event: %w", err)
	}

	for i, fc := range ev.FieldChanges {
		if _, err := tx.Exec(ctx, insertFieldChangeSQL,
			ev.EventID, fc.FieldName, fc.OldValue, fc.NewValue, string(fc.ChangeType),
		); err != nil {
			return SaveResult{}, fmt.Errorf("insert field change %d: %w", i, err)
		}
	}
	res.FieldChanges = len(ev.FieldChanges)

	if ev.IsDeletion() {
		if ev.Entity.ID == nil {
			logger.Warn("Deletion event without entity id, snapshot skipped",
				zap.String("event_id", ev.EventID))
		} else {
			snapshotJSON, err := json.Marshal(ev.Snapshot)
			if err != nil {
				return SaveResult{}, fmt.Errorf("marshal snapshot: %w", err)
			}
			if _, err := tx.Exec(ctx, upsertDeletedEntitySQL,
				*ev.Entity.ID, ev.Entity.Type, ev.Entity.FQN, ev.Entity.Name,
				ev.EventTime, ev.UpdatedBy, snapshotJSON,
			); err != nil {
				return SaveResult{}, fmt.Errorf("upsert deleted entity: %w", err)
			}
			res.Snapshot = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveResult{}, fmt.Errorf("commit tx: %w", err)
	}

	metrics.FieldChangesWritten.Add(float64(res.FieldChanges))
	if res.Snapshot {
		metrics.DeletedSnapshots.Inc()
	}
	return res, nil
}
