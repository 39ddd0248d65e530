package models

import "time"

// Event types emitted by the catalog. The set is open; only deletions
// change how an event is persisted.
const (
	EventTypeEntityCreated     = "entityCreated"
	EventTypeEntityUpdated     = "entityUpdated"
	EventTypeEntityDeleted     = "entityDeleted"
	EventTypeEntitySoftDeleted = "entitySoftDeleted"
)

// ChangeType classifies a single field-level diff.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// EntityRef identifies the catalog object an event is about.
// Nil fields were not present in the payload.
type EntityRef struct {
	Type *string `json:"type"`
	ID   *string `json:"id"`
	FQN  *string `json:"fullyQualifiedName"`
	Name *string `json:"name"`
}

// FieldChange is one row of field_changes. Added rows carry only NewValue,
// deleted rows only OldValue.
type FieldChange struct {
	FieldName  *string    `json:"field_name"`
	OldValue   *string    `json:"old_value"`
	NewValue   *string    `json:"new_value"`
	ChangeType ChangeType `json:"change_type"`
}

// NormalizedEvent is the canonical shape extracted from a webhook payload.
type NormalizedEvent struct {
	EventID string
	// GeneratedID is set when the payload carried no id and EventID was
	// synthesized; such events cannot be deduplicated.
	GeneratedID bool

	EventType string
	EventTime time.Time

	Entity EntityRef
	// Snapshot is the entity object as received (or synthesized from the
	// top-level fields). It becomes last_snapshot on deletion.
	Snapshot map[string]any

	// ChangeDescription is the parsed changeDescription object, never nil.
	ChangeDescription map[string]any
	FieldChanges      []FieldChange

	UpdatedBy       *string
	PreviousVersion *float64
	CurrentVersion  *float64
}

// IsDeletion reports whether the event should produce a deleted-entity snapshot.
func (e NormalizedEvent) IsDeletion() bool {
	return e.EventType == EventTypeEntityDeleted || e.EventType == EventTypeEntitySoftDeleted
}

// ChangeEvent is a stored metadata_change_events row as returned by GET /events.
type ChangeEvent struct {
	ID                int64          `json:"id"`
	EventID           *string        `json:"event_id"`
	EventType         string         `json:"event_type"`
	EventTime         time.Time      `json:"event_time"`
	EntityType        *string        `json:"entity_type"`
	EntityID          *string        `json:"entity_id"`
	EntityFQN         *string        `json:"entity_fqn"`
	EntityName        *string        `json:"entity_name"`
	ChangeDescription *string        `json:"change_description"`
	UpdatedBy         *string        `json:"updated_by"`
	PreviousVersion   *float64       `json:"previous_version"`
	CurrentVersion    *float64       `json:"current_version"`
	FullPayload       map[string]any `json:"full_payload"`
	CreatedAt         time.Time      `json:"created_at"`
}

// WebhookResponse is returned by POST /webhook on success.
// Duplicate indicates idempotent success (the event already existed).
type WebhookResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	EventID     string `json:"event_id"`
	Duplicate   bool   `json:"duplicate"`
	GeneratedID bool   `json:"generated_id"`
}

// EventListResponse is returned by GET /events.
type EventListResponse struct {
	Count  int           `json:"count"`
	Events []ChangeEvent `json:"events"`
}
