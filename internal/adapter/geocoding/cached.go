package geocoding

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

// Cached serves repeated addresses from a GeocodeCache. Only resolved addresses
// are stored, and cache failures fall through to the wrapped geocoder.
type Cached struct {
	next   port.Geocoder
	cache  port.GeocodeCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCached(next port.Geocoder, cache port.GeocodeCache, ttl time.Duration, logger zerolog.Logger) *Cached {
	return &Cached{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "geocode-cache").Logger(),
	}
}

func (c *Cached) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	hit, err := c.cache.GetCoordinates(ctx, address)
	if err != nil {
		c.logger.Warn().Err(err).Msg("geocode cache read failed")
	} else if hit != nil {
		return hit, nil
	}

	coords, err := c.next.Geocode(ctx, address)
	if err != nil || coords == nil {
		return coords, err
	}

	if err := c.cache.SetCoordinates(ctx, address, *coords, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("geocode cache write failed")
	}
	return coords, nil
}
