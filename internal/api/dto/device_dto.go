package dto

import "time"

// DeviceRequest payload for creating or editing a device.
type DeviceRequest struct {
	ClientID   int64  `json:"client_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	MACAddress string `json:"mac_address"`
	Location   string `json:"location"`
	Online     bool   `json:"online"`
}

// DeviceResponse is a device row for console listings and detail.
// OnlineIndicator is the colored presentation marker derived from Online.
type DeviceResponse struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"client_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	MACAddress      string    `json:"mac_address"`
	Location        string    `json:"location"`
	Online          bool      `json:"online"`
	OnlineIndicator string    `json:"online_indicator"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
