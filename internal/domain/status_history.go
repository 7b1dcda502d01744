package domain

import "time"

// StatusHistoryEntry is one row of the append-only transition ledger.
// Entries are never updated or deleted once written.
type StatusHistoryEntry struct {
	ID        string
	TicketID  string
	OldStatus TicketStatus
	NewStatus TicketStatus
	Reason    string
	ChangedBy string
	CreatedAt time.Time
}
