package port

import (
	"context"
	"time"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ReleaseIdempotency frees a key whose request failed, so a retry is accepted
	ReleaseIdempotency(ctx context.Context, key string) error
}

type GeocodeCache interface {
	// GetCoordinates returns nil when the address has not been cached
	GetCoordinates(ctx context.Context, address string) (*domain.Coordinates, error)

	SetCoordinates(ctx context.Context, address string, coords domain.Coordinates, ttl time.Duration) error
}
