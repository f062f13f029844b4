package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventInfo    EventType = "info"
	EventWarn    EventType = "warn"
	EventSuccess EventType = "success"
	EventError   EventType = "error"
)

const (
	SettingsChanged  = "events:settings:changed"
	SettingsMigrated = "events:settings:migrated"
	SettingsWarning  = "events:settings:warning"
)

// Reasons carried in SettingsEvent.Reason.
const (
	ReasonUpdated  = "updated"
	ReasonReset    = "reset"
	ReasonImported = "imported"
	ReasonMigrated = "migrated"
	ReasonReloaded = "reloaded"
	ReasonPurged   = "purged"
	ReasonUnusable = "unusable"
	ReasonIgnored  = "ignored"
)

// SettingsEvent tells the frontend the settings record changed underneath it.
type SettingsEvent struct {
	ID         string            `json:"id"`
	Type       EventType         `json:"type"`
	Reason     string            `json:"reason"`
	Message    string            `json:"message"`
	LastUpdate int64             `json:"lastUpdate"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func CreateSettingsEvent(eventType EventType, reason, message string, lastUpdate int64) SettingsEvent {
	return SettingsEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Reason:     reason,
		Message:    message,
		LastUpdate: lastUpdate,
		Timestamp:  time.Now(),
	}
}

// NewChanged creates a success event for a committed change.
func NewChanged(reason string, lastUpdate int64) SettingsEvent {
	return CreateSettingsEvent(EventSuccess, reason, "settings "+reason, lastUpdate)
}

// NewWarn creates a warn event. metadata may be nil.
func NewWarn(reason, message string, metadata map[string]string) SettingsEvent {
	evt := CreateSettingsEvent(EventWarn, reason, message, 0)
	if len(metadata) > 0 {
		evt.Metadata = metadata
	}
	return evt
}
