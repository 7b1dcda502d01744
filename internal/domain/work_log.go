package domain

import "time"

// WorkLogDescriptionLimit matches the work_logs.description column width.
const WorkLogDescriptionLimit = 512

// WorkLogEntry records one open-or-closed work interval for a technician
// on a ticket. EndedAt == nil marks the entry as open; at most one open
// entry may exist per (ticket, technician) pair.
type WorkLogEntry struct {
	ID           string
	TicketID     string
	TechnicianID string
	Description  string
	StartedAt    time.Time
	EndedAt      *time.Time
}

// Open reports whether the interval is still running.
func (w *WorkLogEntry) Open() bool {
	return w.EndedAt == nil
}

// TruncateWorkLogDescription clamps a description to the storage limit.
func TruncateWorkLogDescription(desc string) string {
	if len(desc) <= WorkLogDescriptionLimit {
		return desc
	}
	return desc[:WorkLogDescriptionLimit]
}
