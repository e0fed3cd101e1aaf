package ledger

import "time"

// MonthStatus records whether a month has been closed for edits.
type MonthStatus struct {
	Month    MonthID    `json:"month"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// IsClosed reports whether the month is closed.
func (s MonthStatus) IsClosed() bool { return s.ClosedAt != nil }
