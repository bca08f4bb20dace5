package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ProviderPayment = "payment"
	ProviderMux     = "mux"

	EventReceived  = "RECEIVED"
	EventProcessed = "PROCESSED"
	EventIgnored   = "IGNORED"
	EventFailed    = "FAILED"
)

// WebhookEvent is the audit record of every verified provider callback
type WebhookEvent struct {
	gorm.Model
	Provider    string         `json:"provider" gorm:"uniqueIndex:idx_webhook_provider_event;size:32"`
	EventID     string         `json:"event_id" gorm:"uniqueIndex:idx_webhook_provider_event;size:191"`
	EventType   string         `json:"event_type"`
	Payload     datatypes.JSON `json:"payload"`
	Status      string         `json:"status" gorm:"default:'RECEIVED'"`
	Error       string         `json:"error,omitempty"`
	ProcessedAt *time.Time     `json:"processed_at"`
}

// Done reports whether the event reached a final state and must not be re-applied
func (e WebhookEvent) Done() bool {
	return e.Status == EventProcessed || e.Status == EventIgnored
}
