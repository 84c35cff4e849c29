package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentjobs/agentjobs/internal/manager"
	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/internal/webhook"
	"github.com/agentjobs/agentjobs/pkg/model"
)

func newTestServer(t *testing.T) (*Server, *manager.Manager) {
	t.Helper()
	dir := t.TempDir()

	taskStore, err := store.NewTaskStore(filepath.Join(dir, "tasks"), nil)
	require.NoError(t, err)
	webhookStore, err := store.NewWebhookStore(filepath.Join(dir, "webhooks.yaml"), nil)
	require.NoError(t, err)

	dispatcher := webhook.NewDispatcher(webhookStore, nil, 1, 4)
	t.Cleanup(dispatcher.Close)
	wm := webhook.NewManager(webhookStore, dispatcher, nil)
	m := manager.New(taskStore, wm, nil)

	srv, err := New(m, wm, "testproj", nil)
	require.NoError(t, err)
	return srv, m
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestCreateAndGetTask(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks",
		`{"title":"Build thing","description":"Details","priority":"high"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "task-001", created.ID)
	assert.Equal(t, model.PriorityHigh, created.Priority)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks/task-001", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks/task-999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTask_DuplicateIDConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks", `{"id":"task-007","title":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/tasks", `{"id":"task-007","title":"B"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateTask_MissingTitle(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/api/tasks", `{"description":"no title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTasks_FilterValidation(t *testing.T) {
	srv, m := newTestServer(t)

	_, err := m.Create(manager.CreateRequest{Title: "A", Status: model.StatusReady})
	require.NoError(t, err)
	_, err = m.Create(manager.CreateRequest{Title: "B"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/tasks?status=ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks?priority=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNextTask(t *testing.T) {
	srv, m := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/tasks/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	_, err := m.Create(manager.CreateRequest{Title: "Ready one", Status: model.StatusReady, Priority: model.PriorityCritical})
	require.NoError(t, err)

	rec = doRequest(t, srv, http.MethodGet, "/api/tasks/next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "task-001", task.ID)
}

func TestPatchTask(t *testing.T) {
	srv, m := newTestServer(t)

	created, err := m.Create(manager.CreateRequest{Title: "Before", AssignedTo: "alice"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPatch, "/api/tasks/"+created.ID, `{"title":"After"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "After", task.Title)
	assert.Equal(t, "alice", task.AssignedTo)

	// Empty patch is rejected.
	rec = doRequest(t, srv, http.MethodPatch, "/api/tasks/"+created.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTaskArchives(t *testing.T) {
	srv, m := newTestServer(t)

	created, err := m.Create(manager.CreateRequest{Title: "Task"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodDelete, "/api/tasks/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, model.StatusArchived, task.Status)

	// Record still exists.
	rec = doRequest(t, srv, http.MethodGet, "/api/tasks/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv, m := newTestServer(t)

	created, err := m.Create(manager.CreateRequest{Title: "Task"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks/"+created.ID+"/status",
		`{"status":"in_progress","author":"agent-1","summary":"Starting."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, model.StatusInProgress, task.Status)
	require.Len(t, task.StatusUpdates, 1)

	rec = doRequest(t, srv, http.MethodPost, "/api/tasks/"+created.ID+"/status",
		`{"status":"nonsense","author":"agent-1","summary":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentsEndpoint(t *testing.T) {
	srv, m := newTestServer(t)

	created, err := m.Create(manager.CreateRequest{Title: "Task"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPost, "/api/tasks/"+created.ID+"/comments",
		`{"author":"alice","content":"Why?","kind":"question"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var comment model.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	assert.Equal(t, model.CommentKindQuestion, comment.Kind)
	assert.NotEmpty(t, comment.ID)

	rec = doRequest(t, srv, http.MethodPost, "/api/tasks/"+created.ID+"/comments",
		`{"author":"alice","content":"x","kind":"shout"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliverableEndpoint(t *testing.T) {
	srv, m := newTestServer(t)

	created, err := m.Create(manager.CreateRequest{
		Title:        "Task",
		Deliverables: []model.Deliverable{{Path: "docs/design.md"}},
	})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodPatch, "/api/tasks/"+created.ID+"/deliverables/docs/design.md", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var task model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, model.DeliverableCompleted, task.Deliverables[0].Status)

	rec = doRequest(t, srv, http.MethodPatch, "/api/tasks/"+created.ID+"/deliverables/nope.md", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv, m := newTestServer(t)

	_, err := m.Create(manager.CreateRequest{Title: "Pipeline refactor"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/search?q=pipeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []model.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	assert.Len(t, tasks, 1)

	rec = doRequest(t, srv, http.MethodGet, "/api/search?q=", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/webhooks",
		`{"url":"https://example.com/hook","events":["task.completed"],"secret":"s3cret"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var hook model.Webhook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hook))
	assert.True(t, strings.HasPrefix(hook.ID, "wh-"))
	assert.True(t, hook.Active)
	// The secret never leaks through the API.
	assert.NotContains(t, rec.Body.String(), "s3cret")

	rec = doRequest(t, srv, http.MethodGet, "/api/webhooks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hooks []model.Webhook
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hooks))
	assert.Len(t, hooks, 1)

	rec = doRequest(t, srv, http.MethodDelete, "/api/webhooks/"+hook.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/api/webhooks/"+hook.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/webhooks",
		`{"url":"","events":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardPages(t *testing.T) {
	srv, m := newTestServer(t)

	_, err := m.Create(manager.CreateRequest{Title: "Visible task", Status: model.StatusInProgress})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "testproj")
	assert.Contains(t, rec.Body.String(), "Visible task")

	rec = doRequest(t, srv, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "task-001")

	rec = doRequest(t, srv, http.MethodGet, "/tasks/task-001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Visible task")

	rec = doRequest(t, srv, http.MethodGet, "/tasks/task-999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "task-999")
}
