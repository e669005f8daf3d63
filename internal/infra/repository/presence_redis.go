package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/guardiansos/internal/domain"
)

// RedisPresenceStore keeps presence entries as hashes. Each update is a
// single HSET, so partial telemetry merges atomically server side.
type RedisPresenceStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{rdb: rdb, now: time.Now}
}

func presenceKey(userID string) string {
	return "presence:" + userID
}

func (s *RedisPresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	return s.rdb.HSet(ctx, presenceKey(userID),
		"isOnline", strconv.FormatBool(online),
		"updatedAt", s.now().UTC().Format(time.RFC3339Nano),
	).Err()
}

func (s *RedisPresenceStore) UpdateTelemetry(ctx context.Context, userID string, telemetry domain.Telemetry) error {
	values := []any{"updatedAt", s.now().UTC().Format(time.RFC3339Nano)}
	if telemetry.Battery != nil {
		values = append(values, "battery", strconv.Itoa(*telemetry.Battery))
	}
	if telemetry.Signal != nil {
		values = append(values, "networkSignal", *telemetry.Signal)
	}
	if telemetry.Wifi != nil {
		values = append(values, "wifiState", *telemetry.Wifi)
	}
	return s.rdb.HSet(ctx, presenceKey(userID), values...).Err()
}

func (s *RedisPresenceStore) Get(ctx context.Context, userID string) (domain.Presence, error) {
	fields, err := s.rdb.HGetAll(ctx, presenceKey(userID)).Result()
	if err != nil {
		return domain.Presence{}, err
	}
	if len(fields) == 0 {
		return domain.Presence{}, domain.NotFoundError{Resource: "presence"}
	}

	p := domain.Presence{
		UserID:        userID,
		IsOnline:      fields["isOnline"] == "true",
		NetworkSignal: fields["networkSignal"],
		WifiState:     fields["wifiState"],
	}
	if b, ok := fields["battery"]; ok {
		if battery, err := strconv.Atoi(b); err == nil {
			p.Battery = &battery
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, fields["updatedAt"]); err == nil {
		p.UpdatedAt = t
	}
	return p, nil
}
