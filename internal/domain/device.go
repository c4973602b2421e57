package domain

import "time"

// Device is a networked unit installed at a client site. The MAC address
// acts as the hardware identity key and is unique across all clients.
// Online is a manually toggled flag; there is no heartbeat mechanism.
type Device struct {
	ID         int64
	ClientID   int64
	Name       string
	Type       string
	MACAddress string
	Location   string
	Online     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
