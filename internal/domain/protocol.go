package domain

import (
	"fmt"
	"time"
)

// ProtocolStatus enumerates lifecycle states for protocols.
type ProtocolStatus string

const (
	ProtocolStatusOpen       ProtocolStatus = "OPEN"
	ProtocolStatusInProgress ProtocolStatus = "IN_PROGRESS"
	ProtocolStatusCompleted  ProtocolStatus = "COMPLETED"
)

// ProtocolStatuses lists every valid status, in lifecycle order.
var ProtocolStatuses = []ProtocolStatus{
	ProtocolStatusOpen,
	ProtocolStatusInProgress,
	ProtocolStatusCompleted,
}

// Valid reports whether the status is one of the three known values.
func (s ProtocolStatus) Valid() bool {
	switch s {
	case ProtocolStatusOpen, ProtocolStatusInProgress, ProtocolStatusCompleted:
		return true
	}
	return false
}

// Protocol is the aggregate for support tickets. A protocol always belongs
// to a device; the direct client reference is optional and kept alongside
// the device link. TechnicianID is assigned once at creation and never
// reassigned afterwards; removing the user account nulls it.
type Protocol struct {
	ID             int64
	DeviceID       int64
	ClientID       *int64
	BUIC           *string
	MQTTTopic      *string
	ExamplePayload *string
	Description    string
	Status         ProtocolStatus
	TechnicianID   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Number renders the numeric identifier as the 6-digit zero-padded
// protocol code shown to operators.
func (p *Protocol) Number() string {
	return fmt.Sprintf("%06d", p.ID)
}
