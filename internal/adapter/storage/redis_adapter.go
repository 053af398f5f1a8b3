package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	idempotencyKeyTTL    = 24 * time.Hour
	geocodeKeyPrefix     = "geocode:"
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}

func (r *RedisAdapter) GetCoordinates(ctx context.Context, address string) (*domain.Coordinates, error) {
	val, err := r.client.Get(ctx, geocodeKey(address)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	coords, err := decodeCoordinates(val)
	if err != nil {
		// a corrupt entry is treated as a miss and overwritten on the next set
		return nil, nil
	}
	return &coords, nil
}

func (r *RedisAdapter) SetCoordinates(ctx context.Context, address string, coords domain.Coordinates, ttl time.Duration) error {
	return r.client.Set(ctx, geocodeKey(address), encodeCoordinates(coords), ttl).Err()
}

// geocodeKey normalizes case and whitespace so trivially different spellings share an entry.
func geocodeKey(address string) string {
	return geocodeKeyPrefix + strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func encodeCoordinates(c domain.Coordinates) string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

func decodeCoordinates(val string) (domain.Coordinates, error) {
	latStr, lonStr, ok := strings.Cut(val, ",")
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("malformed coordinates %q", val)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinates{}, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domain.Coordinates{}, err
	}
	return domain.Coordinates{Latitude: lat, Longitude: lon}, nil
}
