package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

const (
	WarningAddressNotFound      = "Could not geocode address"
	WarningGeocodingUnavailable = "Geocoding unavailable"
)

type ShelterInput struct {
	Name    string
	Address string
}

// ShelterResult carries the stored location plus any non-fatal geocoding warnings.
type ShelterResult struct {
	Location domain.ShelterLocation
	Warnings []string
}

type ShelterService struct {
	repo           port.ShelterRepository
	geocoder       port.Geocoder
	geocodeTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

func NewShelterService(repo port.ShelterRepository, geocoder port.Geocoder, geocodeTimeout time.Duration, logger zerolog.Logger) *ShelterService {
	return &ShelterService{
		repo:           repo,
		geocoder:       geocoder,
		geocodeTimeout: geocodeTimeout,
		logger:         logger.With().Str("component", "shelter").Logger(),
		now:            time.Now,
	}
}

// Create geocodes the address and stores the location. Geocoding never fails the
// create: unresolved or unavailable lookups leave the coordinates nil and add a warning.
func (s *ShelterService) Create(ctx context.Context, ownerID string, in ShelterInput) (ShelterResult, error) {
	if ownerID == "" {
		return ShelterResult{}, ErrUnauthorized
	}
	if strings.TrimSpace(in.Address) == "" {
		return ShelterResult{}, &ValidationError{Problems: []string{"address is required"}}
	}

	loc := domain.ShelterLocation{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: s.now().UTC(),
	}

	var warnings []string
	coords, err := s.geocode(ctx, in.Address)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("owner", ownerID).Msg("geocoding degraded, storing without coordinates")
		warnings = append(warnings, WarningGeocodingUnavailable)
	case coords == nil:
		warnings = append(warnings, WarningAddressNotFound)
	default:
		loc.Latitude = &coords.Latitude
		loc.Longitude = &coords.Longitude
	}

	if err := s.repo.CreateShelterLocation(ctx, loc); err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Msg("create shelter location failed")
		return ShelterResult{}, fmt.Errorf("create shelter location: %w", err)
	}
	return ShelterResult{Location: loc, Warnings: warnings}, nil
}

// geocode bounds the lookup by geocodeTimeout and folds every failure into
// ErrGeocodingUnavailable.
func (s *ShelterService) geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	if s.geocoder == nil {
		return nil, ErrGeocodingUnavailable
	}
	if s.geocodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.geocodeTimeout)
		defer cancel()
	}

	type result struct {
		coords *domain.Coordinates
		err    error
	}
	done := make(chan result, 1)
	go func() {
		coords, err := s.geocoder.Geocode(ctx, address)
		done <- result{coords, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrGeocodingUnavailable, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, ErrGeocodingUnavailable) {
				return nil, r.err
			}
			return nil, fmt.Errorf("%w: %w", ErrGeocodingUnavailable, r.err)
		}
		return r.coords, nil
	}
}

func (s *ShelterService) List(ctx context.Context, ownerID string) ([]domain.ShelterLocation, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	locs, err := s.repo.ListShelterLocations(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shelter locations: %w", err)
	}
	return locs, nil
}

// Delete is a no-op for ids that do not belong to the owner.
func (s *ShelterService) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthorized
	}
	ok, err := s.repo.DeleteShelterLocation(ctx, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete shelter location: %w", err)
	}
	return ok, nil
}
