package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

func TestShelterCreate_Geocoded(t *testing.T) {
	repo := &mockRecordRepo{}
	geo := &mockGeocoder{coords: &domain.Coordinates{Latitude: 52.37, Longitude: 4.89}}
	svc := NewShelterService(repo, geo, time.Second, zerolog.Nop())

	res, err := svc.Create(context.Background(), owner, ShelterInput{Name: "North", Address: "Dam 1, Amsterdam"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}
	if res.Location.Latitude == nil || *res.Location.Latitude != 52.37 {
		t.Errorf("expected latitude 52.37, got %v", res.Location.Latitude)
	}
	if len(repo.shelters) != 1 {
		t.Error("location not persisted")
	}
}

func TestShelterCreate_AddressNotFound(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewShelterService(repo, &mockGeocoder{}, time.Second, zerolog.Nop())

	res, err := svc.Create(context.Background(), owner, ShelterInput{Address: "nowhere"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarningAddressNotFound {
		t.Errorf("expected not-found warning, got %v", res.Warnings)
	}
	if res.Location.Latitude != nil || res.Location.Longitude != nil {
		t.Error("coordinates must stay nil")
	}
	if len(repo.shelters) != 1 {
		t.Error("location must still be persisted")
	}
}

func TestShelterCreate_GeocoderTimeout(t *testing.T) {
	repo := &mockRecordRepo{}
	geo := &mockGeocoder{delay: time.Second}
	svc := NewShelterService(repo, geo, 20*time.Millisecond, zerolog.Nop())

	start := time.Now()
	res, err := svc.Create(context.Background(), owner, ShelterInput{Address: "slow street"})
	if err != nil {
		t.Fatalf("timeout must not fail the create: %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("create waited for the geocoder past the timeout")
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarningGeocodingUnavailable {
		t.Errorf("expected unavailable warning, got %v", res.Warnings)
	}
}

func TestShelterCreate_GeocoderError(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewShelterService(repo, &mockGeocoder{err: errBoom}, time.Second, zerolog.Nop())

	res, err := svc.Create(context.Background(), owner, ShelterInput{Address: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Warnings) != 1 || res.Warnings[0] != WarningGeocodingUnavailable {
		t.Errorf("expected unavailable warning, got %v", res.Warnings)
	}
}

func TestShelterCreate_Validation(t *testing.T) {
	svc := NewShelterService(&mockRecordRepo{}, &mockGeocoder{}, time.Second, zerolog.Nop())

	_, err := svc.Create(context.Background(), owner, ShelterInput{Address: " "})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got: %v", err)
	}

	_, err = svc.Create(context.Background(), "", ShelterInput{Address: "x"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got: %v", err)
	}
}

func TestShelterDelete_OwnerScoped(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := NewShelterService(repo, &mockGeocoder{}, time.Second, zerolog.Nop())
	ctx := context.Background()

	res, err := svc.Create(ctx, owner, ShelterInput{Address: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := svc.Delete(ctx, "intruder", res.Location.ID)
	if err != nil || ok {
		t.Errorf("foreign delete must be a no-op, got %v / %v", ok, err)
	}
	ok, err = svc.Delete(ctx, owner, res.Location.ID)
	if err != nil || !ok {
		t.Errorf("expected delete, got %v / %v", ok, err)
	}
}
