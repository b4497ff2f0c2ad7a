package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/latihanku/latihanku-backend/internal/config"
	"github.com/latihanku/latihanku-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// ViolationEventQueue fans a raw violation event out to the async persist
// queue (drained by the worker) and the live admin monitor channel. The
// block state machine itself is transactional in PostgreSQL; this queue only
// carries the audit/telemetry copy.
type ViolationEventQueue struct {
	rdb *redis.Client
}

// NewViolationEventQueue creates a new ViolationEventQueue.
func NewViolationEventQueue(rdb *redis.Client) *ViolationEventQueue {
	return &ViolationEventQueue{rdb: rdb}
}

// Enqueue pushes the event for durable persistence and publishes it to the
// monitor channel.
func (q *ViolationEventQueue) Enqueue(ctx context.Context, ev model.ViolationEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	pipe := q.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, raw)
	pipe.Publish(ctx, config.CacheKey.ViolationMonitorChannel(), raw)
	_, err = pipe.Exec(ctx)
	return err
}
