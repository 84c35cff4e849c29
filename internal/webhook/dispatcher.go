package webhook

import (
	"bytes"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agentjobs/agentjobs/internal/store"
	"github.com/agentjobs/agentjobs/pkg/model"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	requestTimeout   = 10 * time.Second
)

// Delivery is one signed payload bound for one subscriber.
type Delivery struct {
	Webhook   model.Webhook
	Payload   []byte
	Signature string
}

// Dispatcher runs a fixed pool of workers draining a bounded queue.
// Shutdown is deterministic: Close stops intake and waits for in-flight
// deliveries to finish.
type Dispatcher struct {
	queue     chan Delivery
	wg        sync.WaitGroup
	client    *http.Client
	store     *store.WebhookStore
	log       *zap.Logger
	closeOnce sync.Once
}

func NewDispatcher(s *store.WebhookStore, log *zap.Logger, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{
		queue:  make(chan Delivery, queueSize),
		client: &http.Client{Timeout: requestTimeout},
		store:  s,
		log:    log,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for delivery := range d.queue {
		if err := d.Deliver(delivery); err != nil {
			d.log.Warn("webhook delivery failed",
				zap.String("webhook_id", delivery.Webhook.ID),
				zap.String("url", delivery.Webhook.URL),
				zap.Error(err))
		}
	}
}

// Enqueue hands a delivery to the pool without blocking. A full queue
// drops the delivery; the subscriber misses one notification rather
// than the mutation path stalling.
func (d *Dispatcher) Enqueue(delivery Delivery) {
	select {
	case d.queue <- delivery:
	default:
		d.log.Warn("webhook queue full, dropping delivery",
			zap.String("webhook_id", delivery.Webhook.ID))
	}
}

// Deliver posts the payload and records trigger bookkeeping on success.
func (d *Dispatcher) Deliver(delivery Delivery) error {
	req, err := http.NewRequest(http.MethodPost, delivery.Webhook.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", "sha256="+delivery.Signature)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber returned status %d", resp.StatusCode)
	}

	hook := delivery.Webhook
	hook.RecordTrigger(time.Now().UTC())
	if err := d.store.Save(&hook); err != nil {
		d.log.Warn("failed to record webhook trigger",
			zap.String("webhook_id", hook.ID), zap.Error(err))
	}
	return nil
}

// Close stops intake and waits for workers to drain the queue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
