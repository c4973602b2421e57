package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProtocolCreated       EventType = "protocol_created"
	EventProtocolStatusChanged EventType = "protocol_status_changed"
	EventProtocolUpdateAdded   EventType = "protocol_update_added"
	EventProtocolDeleted       EventType = "protocol_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ProtocolID int64       `json:"protocol_id"`
	ActorID    *string     `json:"actor_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ProtocolCreatedPayload payload.
type ProtocolCreatedPayload struct {
	DeviceID    int64                 `json:"device_id"`
	ClientID    *int64                `json:"client_id,omitempty"`
	Status      domain.ProtocolStatus `json:"status"`
	Description string                `json:"description"`
}

// ProtocolStatusChangedPayload payload.
type ProtocolStatusChangedPayload struct {
	OldStatus domain.ProtocolStatus `json:"old_status"`
	NewStatus domain.ProtocolStatus `json:"new_status"`
}

// ProtocolUpdateAddedPayload payload.
type ProtocolUpdateAddedPayload struct {
	UpdateID    int64   `json:"update_id"`
	AuthorID    *string `json:"author_id,omitempty"`
	BodyPreview string  `json:"body_preview"`
}
