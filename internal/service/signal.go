package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/guardiansos"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event guardiansos.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime relays events of the owners most recently received on input to
// output until ctx is done or input is closed. Each value on input replaces
// the previous subscription set. output is never closed here.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- guardiansos.Event) {
	pubsub := s.rdb.Subscribe(ctx)
	defer pubsub.Close()

	messages := pubsub.Channel()
	current := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return

		case owners, ok := <-input:
			if !ok {
				return
			}

			next := make(map[string]bool, len(owners))
			for _, owner := range owners {
				next[guardiansos.SignalChannel(owner)] = true
			}

			var stale, fresh []string
			for ch := range current {
				if !next[ch] {
					stale = append(stale, ch)
				}
			}
			for ch := range next {
				if !current[ch] {
					fresh = append(fresh, ch)
				}
			}

			if len(stale) > 0 {
				if err := pubsub.Unsubscribe(ctx, stale...); err != nil {
					slog.ErrorContext(
						ctx, "unsubscribe failed",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
				}
			}
			if len(fresh) > 0 {
				if err := pubsub.Subscribe(ctx, fresh...); err != nil {
					slog.ErrorContext(
						ctx, "subscribe failed",
						slog.String("error", err.Error()),
						slog.String("module", "signal"),
					)
				}
			}
			current = next

		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event guardiansos.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "malformed signal payload",
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
