package port

import (
	"context"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

type Geocoder interface {
	// Geocode resolves a free-text address. A nil result with a nil error means
	// the address could not be resolved.
	Geocode(ctx context.Context, address string) (*domain.Coordinates, error)
}
