package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/agentjobs/agentjobs/internal/apperr"
	"github.com/agentjobs/agentjobs/internal/yamlfile"
	"github.com/agentjobs/agentjobs/pkg/model"
)

// WebhookStore keeps the full subscription list in a single YAML file.
// The file is read on every operation; subscription churn is rare and
// the list is small.
type WebhookStore struct {
	path string
	log  *zap.Logger
}

type webhookFile struct {
	Webhooks []model.Webhook `yaml:"webhooks"`
}

func NewWebhookStore(path string, log *zap.Logger) (*WebhookStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create webhooks directory: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WebhookStore{path: path, log: log}, nil
}

func (s *WebhookStore) load() ([]model.Webhook, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read webhooks file: %w", err)
	}
	var file webhookFile
	if err := yamlv3.Unmarshal(content, &file); err != nil {
		s.log.Error("failed to parse webhooks file", zap.String("path", s.path), zap.Error(err))
		return nil, nil
	}
	return file.Webhooks, nil
}

func (s *WebhookStore) persist(webhooks []model.Webhook) error {
	if err := yamlfile.AtomicWrite(s.path, webhookFile{Webhooks: webhooks}); err != nil {
		return fmt.Errorf("save webhooks file: %w", err)
	}
	return nil
}

// Create registers a new subscription with a generated id.
func (s *WebhookStore) Create(url string, events []string, secret string, active bool) (*model.Webhook, error) {
	webhooks, err := s.load()
	if err != nil {
		return nil, err
	}
	hook := model.Webhook{
		ID:      "wh-" + uuid.NewString(),
		URL:     url,
		Events:  events,
		Secret:  secret,
		Active:  active,
		Created: time.Now().UTC(),
	}
	webhooks = append(webhooks, hook)
	if err := s.persist(webhooks); err != nil {
		return nil, err
	}
	return &hook, nil
}

func (s *WebhookStore) List() ([]model.Webhook, error) {
	return s.load()
}

func (s *WebhookStore) Get(id string) (*model.Webhook, error) {
	webhooks, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range webhooks {
		if webhooks[i].ID == id {
			return &webhooks[i], nil
		}
	}
	return nil, apperr.NotFound("webhook", id)
}

func (s *WebhookStore) Delete(id string) (bool, error) {
	webhooks, err := s.load()
	if err != nil {
		return false, err
	}
	kept := webhooks[:0]
	found := false
	for _, hook := range webhooks {
		if hook.ID == id {
			found = true
			continue
		}
		kept = append(kept, hook)
	}
	if !found {
		return false, nil
	}
	return true, s.persist(kept)
}

// Save rewrites an existing subscription, used to record trigger
// bookkeeping after a successful delivery.
func (s *WebhookStore) Save(hook *model.Webhook) error {
	webhooks, err := s.load()
	if err != nil {
		return err
	}
	for i := range webhooks {
		if webhooks[i].ID == hook.ID {
			webhooks[i] = *hook
			return s.persist(webhooks)
		}
	}
	return apperr.NotFound("webhook", hook.ID)
}
