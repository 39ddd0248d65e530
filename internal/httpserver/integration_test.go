package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/metadata-change-listener/internal/config"
	"github.com/PratikDhanave/metadata-change-listener/internal/sender"
	"github.com/PratikDhanave/metadata-change-listener/internal/store"
	"github.com/PratikDhanave/metadata-change-listener/internal/testutil"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate the listener end-to-end:
//
//   Client → HTTP API → Auth → Normalizer → Postgres → /events → Response
//
// They need a PostgreSQL instance (TEST_DATABASE_URL or DATABASE_URL) and
// are skipped otherwise. Each test runs in its own schema.
////////////////////////////////////////////////////////////////////////////////

const integrationSecret = "integration-secret"

func startListener(t *testing.T) (*httptest.Server, *store.PostgresStore) {
	t.Helper()

	st := store.NewFromPool(testutil.OpenPGXPool(t, t.Name()))
	require.NoError(t, st.EnsureSchema(context.Background()))

	cfg := &config.Config{Webhook: config.WebhookConfig{Secret: integrationSecret}}
	srv := httptest.NewServer(NewRouter(cfg, st))
	t.Cleanup(srv.Close)
	return srv, st
}

// postRaw sends body as-is so malformed payloads can be exercised.
func postRaw(t *testing.T, url, secret, body string) int {
	t.Helper()

	req, _ := http.NewRequest(http.MethodPost, url+"/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

////////////////////////////////////////////////////////////////////////////////
// HEALTH & AUTH
////////////////////////////////////////////////////////////////////////////////

func TestIntegration_HealthReportsDatabase(t *testing.T) {
	srv, _ := startListener(t)

	hs, err := sender.New(srv.URL, "", 5*time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", hs.Status)
	assert.Equal(t, "connected", hs.Database)
}

// Requests without the secret must be rejected and leave no rows behind.
func TestIntegration_UnauthorizedWritesNothing(t *testing.T) {
	srv, st := startListener(t)

	assert.Equal(t, http.StatusUnauthorized, postRaw(t, srv.URL, "", `{"id":"u1","eventType":"entityCreated"}`))
	assert.Equal(t, http.StatusUnauthorized, postRaw(t, srv.URL, "nope", `{"id":"u1","eventType":"entityCreated"}`))

	events, err := st.ListEvents(context.Background(), store.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestIntegration_BadPayloads(t *testing.T) {
	srv, _ := startListener(t)

	assert.Equal(t, http.StatusBadRequest, postRaw(t, srv.URL, integrationSecret, `{}`))
	assert.Equal(t, http.StatusBadRequest, postRaw(t, srv.URL, integrationSecret, `{"id":`))
}

////////////////////////////////////////////////////////////////////////////////
// CORE BEHAVIOR
////////////////////////////////////////////////////////////////////////////////

// The canned smoke sequence lands one row per event, newest first.
func TestIntegration_SmokeSequence(t *testing.T) {
	srv, _ := startListener(t)
	c := sender.New(srv.URL, integrationSecret, 5*time.Second)

	var out bytes.Buffer
	require.NoError(t, sender.Smoke(context.Background(), c, &out))

	list, err := c.Events(context.Background(), "sample_database.sample_schema.test_table", "", 0)
	require.NoError(t, err)
	require.Equal(t, 3, list.Count)

	var types []string
	for _, ev := range list.Events {
		types = append(types, ev.EventType)
	}
	assert.ElementsMatch(t, []string{"entityCreated", "entityUpdated", "entityDeleted"}, types)

	updated, err := c.Events(context.Background(), "", "entityUpdated", 0)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Count)
	ev := updated.Events[0]
	require.NotNil(t, ev.PreviousVersion)
	assert.InDelta(t, 0.1, *ev.PreviousVersion, 1e-9)
	assert.Equal(t, "test_user@example.com", *ev.UpdatedBy)

	var cd map[string]any
	require.NoError(t, json.Unmarshal([]byte(*ev.ChangeDescription), &cd))
	assert.Len(t, cd["fieldsUpdated"], 2)
}

// Redelivered events are acknowledged but do not add rows.
func TestIntegration_DuplicateDoesNotIncreaseCount(t *testing.T) {
	srv, _ := startListener(t)
	c := sender.New(srv.URL, integrationSecret, 5*time.Second)

	p, err := sender.Payload("entityUpdated", time.Now())
	require.NoError(t, err)

	first, err := c.Send(context.Background(), p)
	require.NoError(t, err)
	second, err := c.Send(context.Background(), p)
	require.NoError(t, err)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.EventID, second.EventID)

	list, err := c.Events(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
}

func TestIntegration_InvalidLimit(t *testing.T) {
	srv, _ := startListener(t)

	_, err := sender.New(srv.URL, "", 5*time.Second).Events(context.Background(), "", "", -1)
	require.NoError(t, err, "non-positive limits are omitted by the client")

	resp, err := http.Get(srv.URL + "/events?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
