package sender

import (
	"fmt"
	"time"
)

// Canned event kinds accepted by Payload.
var EventKinds = []string{"entityCreated", "entityUpdated", "entityDeleted"}

const (
	sampleEntityID  = "550e8400-e29b-41d4-a716-446655440000"
	sampleEntityFQN = "sample_database.sample_schema.test_table"
	sampleOldDesc   = "Test table for webhook verification"
	sampleNewDesc   = "Updated description of the test table"
)

// Payload builds a catalog-style change notification of the given kind,
// stamped with now.
func Payload(kind string, now time.Time) (map[string]any, error) {
	ts := now.UTC().Format(time.RFC3339Nano)
	entity := func(desc string) map[string]any {
		return map[string]any{
			"id":                 sampleEntityID,
			"type":               "table",
			"name":               "test_table",
			"fullyQualifiedName": sampleEntityFQN,
			"description":        desc,
		}
	}
	base := func(id, eventType, user string) map[string]any {
		return map[string]any{
			"id":         id,
			"eventType":  eventType,
			"timestamp":  ts,
			"entityType": "table",
			"entityId":   sampleEntityID,
			"entityFQN":  sampleEntityFQN,
			"userName":   user,
		}
	}

	switch kind {
	case "entityCreated":
		p := base("test-event-created-001", kind, "test_user@example.com")
		e := entity(sampleOldDesc)
		e["columns"] = []any{
			map[string]any{"name": "id", "dataType": "INT"},
			map[string]any{"name": "name", "dataType": "VARCHAR"},
		}
		p["entity"] = e
		p["currentVersion"] = 0.1
		return p, nil

	case "entityUpdated":
		p := base("test-event-updated-002", kind, "test_user@example.com")
		p["previousVersion"] = 0.1
		p["currentVersion"] = 0.2
		p["entity"] = entity(sampleNewDesc)
		p["changeDescription"] = map[string]any{
			"fieldsAdded": []any{},
			"fieldsUpdated": []any{
				map[string]any{"name": "description", "oldValue": sampleOldDesc, "newValue": sampleNewDesc},
				map[string]any{"name": "tags", "oldValue": []any{}, "newValue": []any{"PII.Sensitive", "Tier.Gold"}},
			},
			"fieldsDeleted": []any{},
		}
		return p, nil

	case "entityDeleted":
		p := base("test-event-deleted-003", kind, "admin@example.com")
		e := entity(sampleNewDesc)
		e["deleted"] = true
		p["entity"] = e
		p["previousVersion"] = 0.2
		return p, nil
	}
	return nil, fmt.Errorf("unknown event kind %q (want one of %v)", kind, EventKinds)
}
