package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

// Publisher fans accepted vitals messages out to downstream consumers
// (alarm evaluation, aggregation services). The write path treats fan-out
// as best-effort: a publish failure is logged by the caller and never
// affects the cache or the history store.
type Publisher interface {
	PublishJSON(ctx context.Context, data interface{}) (string, error)
}

// RedisStreamPublisher publishes to a Redis Stream via XADD.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

var _ Publisher = (*RedisStreamPublisher)(nil)

// PublishJSON serializes data and appends it to the stream, returning the
// assigned stream entry ID.
func (p *RedisStreamPublisher) PublishJSON(ctx context.Context, data interface{}) (string, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":      string(jsonBytes),
			"timestamp": time.Now().Unix(),
		},
	}).Result()
}
