package audit

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder appends audit records to a Redis stream, where the
// long-term audit subsystem consumes them.
type RedisRecorder struct {
	client *redis.Client
	stream string
}

// NewRedisRecorder builds a stream-backed recorder.
func NewRedisRecorder(client *redis.Client, stream string) *RedisRecorder {
	return &RedisRecorder{client: client, stream: stream}
}

// Record XADDs the record as a single JSON payload.
func (r *RedisRecorder) Record(ctx context.Context, record Record) error {
	fill(&record)
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{"record": payload},
	}).Err()
}
