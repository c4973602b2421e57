package domain

import "time"

// Client is a customer whose devices are serviced through protocols.
type Client struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
