package domain

import "time"

// ProtocolUpdate is an immutable timeline entry appended to a protocol's
// history. Entries are never edited or deleted once written; they disappear
// only when the owning protocol is deleted. An empty body is a valid entry.
type ProtocolUpdate struct {
	ID         int64
	ProtocolID int64
	Body       string
	AuthorID   *string
	CreatedAt  time.Time
}
