// FilePath: internal/repository/redisreg/redisreg.devices.go
package redisreg

import (
	"context"
	"fmt"
	"time"

	"github.com/coldroute/cargomon/internal/config"
	"github.com/coldroute/cargomon/internal/errors"
	"github.com/coldroute/cargomon/internal/models"
	"github.com/redis/go-redis/v9"
)

// seenKey is a sorted set of device ids scored by last-seen unix millis.
const seenKey = "cargomon:devices:seen"

type DeviceRegistry struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) (*DeviceRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewUnavailableError("failed to connect to redis", err)
	}

	return &DeviceRegistry{client: client}, nil
}

func (r *DeviceRegistry) Touch(ctx context.Context, deviceID string, seenAt time.Time) error {
	err := r.client.ZAdd(ctx, seenKey, redis.Z{
		Score:  float64(seenAt.UnixMilli()),
		Member: deviceID,
	}).Err()
	if err != nil {
		return errors.NewDatabaseError("failed to update device last-seen", err)
	}
	return nil
}

func (r *DeviceRegistry) SeenSince(ctx context.Context, window time.Duration) ([]models.DeviceSeen, error) {
	cutoff := time.Now().Add(-window).UnixMilli()
	entries, err := r.client.ZRangeByScoreWithScores(ctx, seenKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", cutoff),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list recently seen devices", err)
	}

	devices := make([]models.DeviceSeen, 0, len(entries))
	for _, entry := range entries {
		id, ok := entry.Member.(string)
		if !ok {
			continue
		}
		devices = append(devices, models.DeviceSeen{
			DeviceID: id,
			LastSeen: time.UnixMilli(int64(entry.Score)),
		})
	}
	return devices, nil
}

func (r *DeviceRegistry) Close() error {
	return r.client.Close()
}
