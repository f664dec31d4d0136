package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const traceKeyPrefix = "trace:"

type RedisTransport struct {
	rdb *redis.Client
}

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{
		rdb: rdb,
	}
}

func (t *RedisTransport) GetMessageStream(id string) (MessageStream, error) {
	if len(id) == 0 {
		return nil, fmt.Errorf("invalid stream ID")
	}
	rs := &RedisStream{
		id:          id,
		lastRedisID: "0",
		rdb:         t.rdb,
	}
	return rs, nil
}

func (t *RedisTransport) SetTrace(ctx context.Context, trace *RequestTrace) error {
	key := traceKeyPrefix + trace.ID
	if err := t.rdb.HSet(ctx, key, trace).Err(); err != nil {
		return fmt.Errorf("failed to store trace '%s': %w", trace.ID, err)
	}
	return t.rdb.Expire(ctx, key, TraceExpiry).Err()
}

func (t *RedisTransport) GetTrace(ctx context.Context, traceId string) (*RequestTrace, error) {
	res := t.rdb.HGetAll(ctx, traceKeyPrefix+traceId)
	if err := res.Err(); err != nil {
		return nil, err
	}
	if len(res.Val()) == 0 {
		return nil, ErrTraceNotFound
	}

	var trace RequestTrace
	if err := res.Scan(&trace); err != nil {
		return nil, fmt.Errorf("failed to read trace '%s': %w", traceId, err)
	}
	return &trace, nil
}

// RedisStream carries task progress messages over a redis stream keyed
// by the task id. Recv tracks the last message read, one consumer per
// RedisStream value.
type RedisStream struct {
	id          string
	lastRedisID string

	rdb *redis.Client
}

// Send appends a payload to the stream and refreshes its expiry, so
// finished task streams age out together with their trace.
func (s *RedisStream) Send(ctx context.Context, payload MessageStreamPayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: s.id,
		ID:     "*",
		Values: map[string]any{
			"payload": string(payloadJSON),
		},
	}).Result()
	if err != nil {
		return err
	}

	slog.Debug("published stream message", "stream", s.id, "redisId", id)
	return s.rdb.Expire(ctx, s.id, TraceExpiry).Err()
}

// Recv blocks until a message past the last read one arrives.
func (s *RedisStream) Recv(ctx context.Context) (*MessageStreamPayload, error) {
	rstreams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.id, s.lastRedisID},
		Count:   1,
		Block:   0,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(rstreams) == 0 || len(rstreams[0].Messages) == 0 {
		return nil, fmt.Errorf("stream '%s' returned no messages", s.id)
	}

	msg := rstreams[0].Messages[0]
	s.lastRedisID = msg.ID

	payloadJSON, ok := msg.Values["payload"].(string)
	if !ok {
		return nil, fmt.Errorf("stream '%s' message carries no payload", s.id)
	}

	var payload MessageStreamPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode stream message: %w", err)
	}
	return &payload, nil
}

func (s *RedisStream) GetID() string {
	return s.id
}
