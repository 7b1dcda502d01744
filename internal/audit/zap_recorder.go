package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ZapRecorder writes audit records to the structured log. It is the
// default backend when no durable audit sink is configured.
type ZapRecorder struct {
	logger *zap.Logger
}

// NewZapRecorder builds a log-backed recorder.
func NewZapRecorder(logger *zap.Logger) *ZapRecorder {
	return &ZapRecorder{logger: logger}
}

// Record logs the record at Info level.
func (r *ZapRecorder) Record(_ context.Context, record Record) error {
	fill(&record)
	r.logger.Info("audit",
		zap.String("audit_id", record.ID),
		zap.String("actor", record.Actor),
		zap.String("action", record.Action),
		zap.String("table", record.Table),
		zap.String("origin", record.Origin),
		zap.Time("at", record.At),
		zap.Any("old", record.Old),
		zap.Any("new", record.New),
	)
	return nil
}

func fill(record *Record) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.At.IsZero() {
		record.At = time.Now()
	}
	if record.Actor == "" {
		record.Actor = "System"
	}
}
