// Package webhook manages subscription lifecycle and best-effort event
// delivery. Delivery never blocks or fails a task mutation: events are
// handed to a bounded worker pool and the outcome is only logged.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/pkg/model"
)

// Event names fired by the lifecycle manager.
const (
	EventStatusChanged  = "task.status_changed"
	EventTaskCompleted  = "task.completed"
	EventCommentCreated = "task.comment_created"
	EventTest           = "webhook.test"
)

// Manager is the webhook registry plus the dispatch entry points.
type Manager struct {
	store      *store.WebhookStore
	dispatcher *Dispatcher
	log        *zap.Logger
}

func NewManager(s *store.WebhookStore, d *Dispatcher, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: s, dispatcher: d, log: log}
}

func (m *Manager) List() ([]model.Webhook, error) {
	return m.store.List()
}

func (m *Manager) Create(url string, events []string, secret string, active bool) (*model.Webhook, error) {
	return m.store.Create(url, events, secret, active)
}

func (m *Manager) Get(id string) (*model.Webhook, error) {
	return m.store.Get(id)
}

func (m *Manager) Delete(id string) (bool, error) {
	return m.store.Delete(id)
}

// FireEvent enqueues deliveries for every active subscription listening
// for the event. The caller returns immediately; a full queue drops the
// delivery with a log line rather than blocking a mutation.
func (m *Manager) FireEvent(event string, task *model.Task, metadata map[string]any) {
	webhooks, err := m.store.List()
	if err != nil {
		m.log.Warn("failed to load webhooks for event", zap.String("event", event), zap.Error(err))
		return
	}

	var matched []model.Webhook
	for _, hook := range webhooks {
		if hook.Active && hook.Subscribed(event) {
			matched = append(matched, hook)
		}
	}
	if len(matched) == 0 {
		return
	}

	payload, err := BuildPayload(event, task, metadata)
	if err != nil {
		m.log.Error("failed to build webhook payload", zap.String("event", event), zap.Error(err))
		return
	}

	for _, hook := range matched {
		m.dispatcher.Enqueue(Delivery{
			Webhook:   hook,
			Payload:   payload,
			Signature: Sign(payload, hook.Secret),
		})
	}
}

// Test delivers a synthetic webhook.test event synchronously so an
// operator gets immediate feedback.
func (m *Manager) Test(id string) error {
	hook, err := m.store.Get(id)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"event":        EventTest,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"task":         map[string]any{},
		"triggered_by": "system",
		"action":       "test",
	})
	if err != nil {
		return fmt.Errorf("build test payload: %w", err)
	}

	return m.dispatcher.Deliver(Delivery{
		Webhook:   *hook,
		Payload:   payload,
		Signature: Sign(payload, hook.Secret),
	})
}

// BuildPayload assembles the canonical JSON body: event, timestamp, the
// full task snapshot, and any caller-supplied metadata at the top level.
func BuildPayload(event string, task *model.Task, metadata map[string]any) ([]byte, error) {
	body := map[string]any{
		"event":     event,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"task":      task,
	}
	for k, v := range metadata {
		body[k] = v
	}
	return json.Marshal(body)
}

// Sign computes the hex HMAC-SHA256 of the exact payload bytes.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
