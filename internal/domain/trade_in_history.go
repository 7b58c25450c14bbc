package domain

import "time"

// HistoryEntry is an immutable audit trail record of one status change.
type HistoryEntry struct {
	ID        int64
	Status    TradeInStatus
	Timestamp time.Time
	Note      *string
	UpdatedBy *string
}
