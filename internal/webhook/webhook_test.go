package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/pkg/model"
)

func newTestStore(t *testing.T) *store.WebhookStore {
	t.Helper()
	s, err := store.NewWebhookStore(filepath.Join(t.TempDir(), "webhooks.yaml"), nil)
	require.NoError(t, err)
	return s
}

func TestSign(t *testing.T) {
	payload := []byte(`{"event":"task.completed"}`)
	secret := "s3cret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(payload, secret))
	assert.NotEqual(t, Sign(payload, secret), Sign(payload, "other"))
	// Same payload bytes, same secret, same signature every time.
	assert.Equal(t, Sign(payload, secret), Sign(payload, secret))
}

func TestBuildPayload(t *testing.T) {
	task := &model.Task{ID: "task-001", Title: "T", Status: model.StatusCompleted, Priority: model.PriorityHigh}
	payload, err := BuildPayload(EventTaskCompleted, task, map[string]any{"triggered_by": "agent-1"})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(payload, &body))
	assert.Equal(t, EventTaskCompleted, body["event"])
	assert.Equal(t, "agent-1", body["triggered_by"])
	assert.NotEmpty(t, body["timestamp"])

	taskBody, ok := body["task"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "task-001", taskBody["id"])
}

func TestFireEvent_DeliversToSubscribedActiveHooks(t *testing.T) {
	s := newTestStore(t)

	var mu sync.Mutex
	var received []*http.Request
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, r)
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook, err := s.Create(server.URL, []string{EventTaskCompleted}, "s3cret", true)
	require.NoError(t, err)
	// Subscribed to a different event: must not be called.
	_, err = s.Create(server.URL+"/other", []string{EventCommentCreated}, "", true)
	require.NoError(t, err)
	// Inactive: must not be called.
	_, err = s.Create(server.URL+"/inactive", []string{EventTaskCompleted}, "", false)
	require.NoError(t, err)

	dispatcher := NewDispatcher(s, nil, 2, 16)
	m := NewManager(s, dispatcher, nil)

	task := &model.Task{ID: "task-001", Title: "T", Status: model.StatusCompleted, Priority: model.PriorityHigh}
	m.FireEvent(EventTaskCompleted, task, map[string]any{"triggered_by": "agent-1"})
	dispatcher.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	req := received[0]
	assert.Equal(t, "/", req.URL.Path)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	signature := req.Header.Get("X-Hub-Signature-256")
	require.NotEmpty(t, signature)
	assert.Equal(t, "sha256="+Sign(bodies[0], "s3cret"), signature)

	// Trigger bookkeeping persisted.
	saved, err := s.Get(hook.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.TriggerCount)
	require.NotNil(t, saved.LastTriggered)
	assert.WithinDuration(t, time.Now().UTC(), *saved.LastTriggered, time.Minute)
}

func TestFireEvent_NoSubscribersIsCheap(t *testing.T) {
	s := newTestStore(t)
	dispatcher := NewDispatcher(s, nil, 1, 4)
	defer dispatcher.Close()
	m := NewManager(s, dispatcher, nil)

	// No hooks registered; must not panic or block.
	task := &model.Task{ID: "task-001", Title: "T", Status: model.StatusDraft, Priority: model.PriorityMedium}
	m.FireEvent(EventStatusChanged, task, nil)
}

func TestDeliver_Non2xxIsError(t *testing.T) {
	s := newTestStore(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook, err := s.Create(server.URL, []string{EventTest}, "", true)
	require.NoError(t, err)

	dispatcher := NewDispatcher(s, nil, 1, 4)
	defer dispatcher.Close()

	err = dispatcher.Deliver(Delivery{Webhook: *hook, Payload: []byte("{}"), Signature: Sign([]byte("{}"), "")})
	require.Error(t, err)

	// No trigger recorded on failure.
	saved, err := s.Get(hook.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.TriggerCount)
}

func TestManagerTest_DeliversSynthetic(t *testing.T) {
	s := newTestStore(t)

	var mu sync.Mutex
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		got = body
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook, err := s.Create(server.URL, []string{EventTaskCompleted}, "", true)
	require.NoError(t, err)

	dispatcher := NewDispatcher(s, nil, 1, 4)
	defer dispatcher.Close()
	m := NewManager(s, dispatcher, nil)

	require.NoError(t, m.Test(hook.ID))

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, got)
	assert.Equal(t, EventTest, got["event"])
	assert.Equal(t, "test", got["action"])
}

func TestManagerTest_UnknownHook(t *testing.T) {
	s := newTestStore(t)
	dispatcher := NewDispatcher(s, nil, 1, 4)
	defer dispatcher.Close()
	m := NewManager(s, dispatcher, nil)

	err := m.Test("wh-nope")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestWebhookSubscribed(t *testing.T) {
	hook := model.Webhook{Events: []string{EventStatusChanged, EventTaskCompleted}}
	assert.True(t, hook.Subscribed(EventStatusChanged))
	assert.False(t, hook.Subscribed(EventCommentCreated))
}
