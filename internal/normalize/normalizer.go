// Package normalize turns loosely shaped catalog webhook payloads into
// models.NormalizedEvent. Every extraction is total: missing, misplaced or
// malformed fields degrade to nil/empty values instead of failing.
package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PratikDhanave/metadata-change-listener/internal/models"
	"github.com/PratikDhanave/metadata-change-listener/internal/pkg/logger"
)

const (
	// millisThreshold separates epoch seconds from epoch milliseconds.
	millisThreshold = 1e12
	// maxEpochSeconds is roughly the upper bound of a PostgreSQL timestamptz.
	maxEpochSeconds = 9.2e12
)

// timeLayouts are tried in order against the upper-cased input, so a
// lower-case "t" separator or "z" zone is accepted too.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04",
	"2006-01-02",
	// ISO-8601 basic format.
	"20060102T150405.999999999Z0700",
	"20060102T150405.999999999",
	"20060102T1504Z0700",
	"20060102T1504",
	"20060102",
}

// Normalize extracts the canonical event from payload. receivedAt is used
// when the payload carries no usable timestamp.
func Normalize(payload map[string]any, receivedAt time.Time) models.NormalizedEvent {
	if payload == nil {
		payload = map[string]any{}
	}

	ev := models.NormalizedEvent{
		EventTime: EventTime(payload["timestamp"], receivedAt),
		UpdatedBy: firstText(payload, "updatedBy", "userName"),
	}

	if id := firstText(payload, "id", "eventId"); id != nil {
		ev.EventID = *id
	} else {
		ev.EventID = uuid.NewString()
		ev.GeneratedID = true
		logger.Warn("webhook payload has no event id, generated one; duplicates of this event cannot be detected",
			zap.String("event_id", ev.EventID))
	}
	if t := textValue(payload["eventType"]); t != nil {
		ev.EventType = *t
	}

	ev.Snapshot = entityObject(payload)
	ev.Entity = models.EntityRef{
		Type: firstNonNil(textValue(ev.Snapshot["type"]), textValue(payload["entityType"])),
		ID:   firstNonNil(textValue(ev.Snapshot["id"]), textValue(payload["entityId"])),
		FQN: firstNonNil(textValue(ev.Snapshot["fullyQualifiedName"]),
			firstText(payload, "entityFQN", "entityUrn")),
		Name: firstNonNil(textValue(ev.Snapshot["name"]), textValue(payload["entityName"])),
	}

	ev.ChangeDescription = changeDescription(payload["changeDescription"])
	ev.FieldChanges = FieldChanges(ev.ChangeDescription)

	if v, ok := numberValue(payload["previousVersion"]); ok {
		ev.PreviousVersion = &v
	}
	if v, ok := numberValue(payload["currentVersion"]); ok {
		ev.CurrentVersion = &v
	}

	return ev
}

// EventTime derives the event time from a raw timestamp value. Numbers above
// 10^12 are epoch milliseconds, other numbers epoch seconds. Strings are
// parsed as ISO-8601; zone-less values are taken as UTC.
func EventTime(raw any, receivedAt time.Time) time.Time {
	var (
		f  float64
		ok bool
	)
	switch t := raw.(type) {
	case json.Number, float64, int, int64:
		f, ok = numberValue(t)
	case string:
		if ts, parsed := parseTimeString(t); parsed {
			return ts
		}
		logger.Warn("unparseable webhook timestamp, using receipt time", zap.String("timestamp", t))
		return receivedAt.UTC()
	}
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return receivedAt.UTC()
	}

	millis := f > millisThreshold
	secs := f
	if millis {
		secs = f / 1000
	}
	if math.Abs(secs) > maxEpochSeconds {
		logger.Warn("webhook timestamp out of range, using receipt time", zap.Float64("timestamp", f))
		return receivedAt.UTC()
	}
	if millis && f == math.Trunc(f) {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(secs)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// entityObject returns the nested entity object, parsing it when it was sent
// as text and synthesizing it from top-level fields when absent or empty.
func entityObject(payload map[string]any) map[string]any {
	raw, present := payload["entity"]

	entity, parsed, ok := objectValue(raw)
	if parsed && !ok {
		logger.Warn("webhook entity is not valid JSON object text, treating as empty")
	}
	if present && raw != nil && !parsed && !ok {
		logger.Warn("webhook entity is not an object, treating as empty")
	}
	if len(entity) > 0 {
		return entity
	}

	synthesized := map[string]any{}
	set := func(key string, v *string) {
		if v != nil {
			synthesized[key] = *v
		}
	}
	set("type", textValue(payload["entityType"]))
	set("id", textValue(payload["entityId"]))
	set("fullyQualifiedName", firstText(payload, "entityFQN", "entityUrn"))
	set("name", textValue(payload["entityName"]))
	return synthesized
}

func changeDescription(raw any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	desc, parsed, ok := objectValue(raw)
	if !ok {
		if parsed {
			logger.Warn("webhook changeDescription is not valid JSON object text, treating as empty")
		}
		return map[string]any{}
	}
	return desc
}

// FieldChanges flattens fieldsAdded, fieldsUpdated and fieldsDeleted into
// rows. Entries that are not objects are skipped.
func FieldChanges(desc map[string]any) []models.FieldChange {
	var out []models.FieldChange

	for _, f := range objectList(desc["fieldsAdded"]) {
		nv, has := f["newValue"]
		out = append(out, models.FieldChange{
			FieldName:  textValue(f["name"]),
			NewValue:   diffValue(nv, has),
			ChangeType: models.ChangeAdded,
		})
	}
	for _, f := range objectList(desc["fieldsUpdated"]) {
		ov, hasOld := f["oldValue"]
		nv, hasNew := f["newValue"]
		out = append(out, models.FieldChange{
			FieldName:  textValue(f["name"]),
			OldValue:   diffValue(ov, hasOld),
			NewValue:   diffValue(nv, hasNew),
			ChangeType: models.ChangeUpdated,
		})
	}
	for _, f := range objectList(desc["fieldsDeleted"]) {
		ov, has := f["oldValue"]
		out = append(out, models.FieldChange{
			FieldName:  textValue(f["name"]),
			OldValue:   diffValue(ov, has),
			ChangeType: models.ChangeDeleted,
		})
	}

	return out
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
