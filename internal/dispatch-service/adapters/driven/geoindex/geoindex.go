package geoindex

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"flytaxi/config"
	"flytaxi/internal/dispatch-service/core/domain/model"
	"flytaxi/internal/dispatch-service/core/ports"
)

// RedisIndex keeps driver positions in a redis GEO set. It only narrows the
// candidate roster before matching; the stored roster stays authoritative,
// so a stale or unavailable index degrades to a full scan, never to wrong
// results.
type RedisIndex struct {
	client *redis.Client
	geoKey string
}

var _ ports.ILocationIndex = (*RedisIndex)(nil)

func New(ctx context.Context, cfg *config.Redisconfig) (*RedisIndex, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisIndex{client: client, geoKey: cfg.GeoKey}, nil
}

func (r *RedisIndex) Update(ctx context.Context, driverID string, c model.Coords) error {
	return r.client.GeoAdd(ctx, r.geoKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: c.Lon,
		Latitude:  c.Lat,
	}).Err()
}

func (r *RedisIndex) Nearby(ctx context.Context, c model.Coords, radiusKm float64) ([]string, error) {
	return r.client.GeoSearch(ctx, r.geoKey, &redis.GeoSearchQuery{
		Longitude:  c.Lon,
		Latitude:   c.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
	}).Result()
}

func (r *RedisIndex) Close() error {
	return r.client.Close()
}
