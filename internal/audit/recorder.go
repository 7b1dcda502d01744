// Package audit defines the change-record contract consumed by the
// external audit subsystem, plus the recorder implementations this
// service ships with. Recording is fire-and-forget from the engine's
// perspective: a failed record never rolls back the mutation it describes.
package audit

import (
	"context"
	"time"
)

// Record is one before/after change record.
type Record struct {
	ID     string         `json:"id"`
	Actor  string         `json:"actor"`
	Action string         `json:"action"`
	Table  string         `json:"table"`
	Old    map[string]any `json:"old,omitempty"`
	New    map[string]any `json:"new,omitempty"`
	Origin string         `json:"origin"`
	At     time.Time      `json:"at"`
}

// Recorder receives change records.
type Recorder interface {
	Record(ctx context.Context, record Record) error
}
