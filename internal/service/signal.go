package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mirreg/registry/internal/domain"
)

const eventChannel = "mirreg:events"

// SignalHub fans lifecycle events out to live subscribers through redis
// pub/sub, so every instance behind a load balancer sees every event.
type SignalHub struct {
	rdb *redis.Client
}

func NewSignalHub(redisClient *redis.Client) *SignalHub {
	return &SignalHub{
		rdb: redisClient,
	}
}

func (s *SignalHub) Publish(ctx context.Context, event domain.Event) {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event",
			slog.String("module", "signal"),
			slog.String("error", err.Error()))
		return
	}
	if err := s.rdb.Publish(ctx, eventChannel, jsonstr).Err(); err != nil {
		slog.Error("failed to publish event",
			slog.String("module", "signal"),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()))
	}
}

// Realtime streams events into output until ctx is done or filters is
// closed. Writes to filters narrow the stream to the given event type
// prefixes; an empty filter set passes everything.
func (s *SignalHub) Realtime(ctx context.Context, filters chan []string, output chan domain.Event) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	var active []string
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-filters:
			if !ok {
				return
			}
			active = next
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.Error("failed to unmarshal event",
					slog.String("module", "signal"),
					slog.String("error", err.Error()))
				continue
			}
			if !matches(active, string(event.Type)) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case output <- event:
			}
		}
	}
}

func matches(prefixes []string, eventType string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if len(eventType) >= len(p) && eventType[:len(p)] == p {
			return true
		}
	}
	return false
}
