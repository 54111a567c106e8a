package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

// EventQueue carries compliance events (overdue flips, incident
// transitions) to the webhook sender.
type EventQueue struct {
	client *redis.Client
	key    string
}

func NewEventQueue(client *redis.Client, key string) *EventQueue {
	return &EventQueue{client: client, key: key}
}

func (q *EventQueue) Enqueue(ctx context.Context, event domain.ComplianceEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

func (q *EventQueue) BRPop(ctx context.Context, timeout time.Duration) (domain.ComplianceEvent, error) {
	var event domain.ComplianceEvent

	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return event, e.ErrQueueEmpty
		}
		return event, err
	}
	if len(res) < 2 {
		return event, redis.Nil
	}
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return event, err
	}
	return event, nil
}
