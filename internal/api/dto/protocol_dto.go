package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateProtocolRequest is the creation form payload. InitialUpdate is the
// text of the single first timeline entry; it may be blank.
type CreateProtocolRequest struct {
	DeviceID       int64   `json:"device_id"`
	ClientID       *int64  `json:"client_id,omitempty"`
	BUIC           *string `json:"buic,omitempty"`
	MQTTTopic      *string `json:"mqtt_topic,omitempty"`
	ExamplePayload *string `json:"example_payload,omitempty"`
	Description    string  `json:"description"`
	Status         string  `json:"status,omitempty"`
	InitialUpdate  *string `json:"initial_update,omitempty"`
}

// EditProtocolRequest is the console edit payload. There is deliberately
// no technician field.
type EditProtocolRequest struct {
	DeviceID       int64   `json:"device_id"`
	ClientID       *int64  `json:"client_id,omitempty"`
	BUIC           *string `json:"buic,omitempty"`
	MQTTTopic      *string `json:"mqtt_topic,omitempty"`
	ExamplePayload *string `json:"example_payload,omitempty"`
	Description    string  `json:"description"`
	Status         string  `json:"status,omitempty"`
}

// AppendUpdateRequest payload for appending a timeline entry.
type AppendUpdateRequest struct {
	Body string `json:"body"`
}

// ProtocolSummary is a protocol row for console listings. ShortDescription
// is the 50-character presentation truncation.
type ProtocolSummary struct {
	ID               int64                 `json:"id"`
	Number           string                `json:"number"`
	DeviceID         int64                 `json:"device_id"`
	ClientID         *int64                `json:"client_id,omitempty"`
	BUIC             *string               `json:"buic,omitempty"`
	ShortDescription string                `json:"short_description"`
	Status           domain.ProtocolStatus `json:"status"`
	TechnicianID     *string               `json:"technician_id,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ProtocolUpdateResponse is one timeline entry.
type ProtocolUpdateResponse struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	AuthorID  *string   `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProtocolDetailResponse is the full ticket view with its ordered timeline.
type ProtocolDetailResponse struct {
	ID             int64                    `json:"id"`
	Number         string                   `json:"number"`
	DeviceID       int64                    `json:"device_id"`
	ClientID       *int64                   `json:"client_id,omitempty"`
	BUIC           *string                  `json:"buic,omitempty"`
	MQTTTopic      *string                  `json:"mqtt_topic,omitempty"`
	ExamplePayload *string                  `json:"example_payload,omitempty"`
	Description    string                   `json:"description"`
	Status         domain.ProtocolStatus    `json:"status"`
	TechnicianID   *string                  `json:"technician_id,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	Timeline       []ProtocolUpdateResponse `json:"timeline"`
}
