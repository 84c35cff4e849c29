package model

import "time"

// Webhook is a subscription endpoint notified on lifecycle events via
// signed HTTP callbacks. Owned by the webhook store, independent of any
// task record.
type Webhook struct {
	ID            string     `yaml:"id" json:"id"`
	URL           string     `yaml:"url" json:"url"`
	Events        []string   `yaml:"events" json:"events"`
	Secret        string     `yaml:"secret" json:"-"`
	Active        bool       `yaml:"active" json:"active"`
	Created       time.Time  `yaml:"created" json:"created"`
	LastTriggered *time.Time `yaml:"last_triggered,omitempty" json:"last_triggered,omitempty"`
	TriggerCount  int        `yaml:"trigger_count" json:"trigger_count"`
}

// Subscribed reports whether the webhook listens for the given event.
func (w *Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// RecordTrigger updates the last-triggered bookkeeping after a
// successful delivery.
func (w *Webhook) RecordTrigger(at time.Time) {
	w.LastTriggered = &at
	w.TriggerCount++
}
