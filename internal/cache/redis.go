package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trackmonitor/internal/models"
)

// ReadingCache keeps the latest reading per sensor in Redis so dashboards can
// fetch current values without touching SQLite. Strictly best-effort: callers
// treat every error as a cache miss.
type ReadingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReadingCache connects to Redis and verifies the connection.
func NewReadingCache(addr, password string, db int, ttl time.Duration) (*ReadingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     50,
		MinIdleConns: 5,
		MaxRetries:   3,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &ReadingCache{client: client, ttl: ttl}, nil
}

func latestKey(sensorID string) string {
	return "latest_reading:" + sensorID
}

// StoreLatest overwrites the cached reading for the measurement's sensor.
func (c *ReadingCache) StoreLatest(ctx context.Context, m models.Measurement) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal reading: %w", err)
	}
	return c.client.Set(ctx, latestKey(m.SensorID), data, c.ttl).Err()
}

// Latest returns the cached reading for a sensor, or (nil, nil) on a miss.
func (c *ReadingCache) Latest(ctx context.Context, sensorID string) (*models.Measurement, error) {
	data, err := c.client.Get(ctx, latestKey(sensorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m models.Measurement
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal cached reading: %w", err)
	}
	return &m, nil
}

// Ping reports whether Redis is reachable.
func (c *ReadingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *ReadingCache) Close() error {
	return c.client.Close()
}
