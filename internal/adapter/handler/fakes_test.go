package handler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/food-shelter/internal/adapter/metrics"
	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/core/service"
	"github.com/rl1809/food-shelter/internal/port"
)

var errStorage = errors.New("connection refused: 10.0.0.5:3306")

// memStore backs every port the services need with plain maps.
type memStore struct {
	mu       sync.Mutex
	items    map[string]domain.StockItem
	plans    map[string][]string
	shelters []domain.ShelterLocation
	notes    []domain.Note
	vols     []domain.Volunteer
	budget   []domain.BudgetEntry
	dons     []domain.Donation
	keys     map[string]bool
	failList bool
}

func newMemStore() *memStore {
	return &memStore{items: map[string]domain.StockItem{}, plans: map[string][]string{}, keys: map[string]bool{}}
}

func (m *memStore) reference(itemID string, plans ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[itemID] = append(m.plans[itemID], plans...)
}

func (m *memStore) CreateStockItem(ctx context.Context, item domain.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memStore) GetStockItem(ctx context.Context, id, ownerID string) (*domain.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, nil
	}
	return &item, nil
}

func (m *memStore) ListStockItems(ctx context.Context, ownerID string) ([]domain.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errStorage
	}
	var out []domain.StockItem
	for _, item := range m.items {
		if item.OwnerID == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (m *memStore) MutateStockItem(ctx context.Context, id, ownerID string, fn func(item *domain.StockItem) error) (*domain.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, nil
	}
	if err := fn(&item); err != nil {
		return nil, err
	}
	m.items[id] = item
	return &item, nil
}

func (m *memStore) DeleteStockItemIfUnreferenced(ctx context.Context, id, ownerID string) (port.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID {
		return port.DeleteResult{}, nil
	}
	if plans := m.plans[id]; len(plans) > 0 {
		return port.DeleteResult{Found: true, Item: item, BlockingMealPlans: append([]string(nil), plans...)}, nil
	}
	delete(m.items, id)
	return port.DeleteResult{Found: true, Item: item}, nil
}

func (m *memStore) ReferencingPlanNames(ctx context.Context, stockItemID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.plans[stockItemID]...), nil
}

func (m *memStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memStore) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memStore) CreateShelterLocation(ctx context.Context, loc domain.ShelterLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shelters = append(m.shelters, loc)
	return nil
}

func (m *memStore) ListShelterLocations(ctx context.Context, ownerID string) ([]domain.ShelterLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owned(m.shelters, ownerID, func(l domain.ShelterLocation) string { return l.OwnerID }), nil
}

func (m *memStore) DeleteShelterLocation(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.shelters, ok = without(m.shelters, func(l domain.ShelterLocation) bool { return l.ID == id && l.OwnerID == ownerID })
	return ok, nil
}

func (m *memStore) CreateNote(ctx context.Context, n domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, n)
	return nil
}

func (m *memStore) ListNotes(ctx context.Context, ownerID string) ([]domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owned(m.notes, ownerID, func(n domain.Note) string { return n.OwnerID }), nil
}

func (m *memStore) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.notes, ok = without(m.notes, func(n domain.Note) bool { return n.ID == id && n.OwnerID == ownerID })
	return ok, nil
}

func (m *memStore) CreateVolunteer(ctx context.Context, v domain.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vols = append(m.vols, v)
	return nil
}

func (m *memStore) ListVolunteers(ctx context.Context, ownerID string) ([]domain.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owned(m.vols, ownerID, func(v domain.Volunteer) string { return v.OwnerID }), nil
}

func (m *memStore) DeleteVolunteer(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.vols, ok = without(m.vols, func(v domain.Volunteer) bool { return v.ID == id && v.OwnerID == ownerID })
	return ok, nil
}

func (m *memStore) CreateBudgetEntry(ctx context.Context, b domain.BudgetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budget = append(m.budget, b)
	return nil
}

func (m *memStore) ListBudgetEntries(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owned(m.budget, ownerID, func(b domain.BudgetEntry) string { return b.OwnerID }), nil
}

func (m *memStore) DeleteBudgetEntry(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.budget, ok = without(m.budget, func(b domain.BudgetEntry) bool { return b.ID == id && b.OwnerID == ownerID })
	return ok, nil
}

func (m *memStore) CreateDonation(ctx context.Context, d domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dons = append(m.dons, d)
	return nil
}

func (m *memStore) ListDonations(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owned(m.dons, ownerID, func(d domain.Donation) string { return d.OwnerID }), nil
}

func (m *memStore) DeleteDonation(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.dons, ok = without(m.dons, func(d domain.Donation) bool { return d.ID == id && d.OwnerID == ownerID })
	return ok, nil
}

func owned[T any](in []T, ownerID string, owner func(T) string) []T {
	var out []T
	for _, v := range in {
		if owner(v) == ownerID {
			out = append(out, v)
		}
	}
	return out
}

func without[T any](in []T, match func(T) bool) ([]T, bool) {
	for i, v := range in {
		if match(v) {
			return append(in[:i:i], in[i+1:]...), true
		}
	}
	return in, false
}

type fixedGeocoder struct {
	coords *domain.Coordinates
	err    error
}

func (g fixedGeocoder) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	return g.coords, g.err
}

type testEnv struct {
	store   *memStore
	metrics *metrics.Metrics
	http    *HTTPHandler
	grpc    *GRPCHandler
}

func newTestEnv(geocoder port.Geocoder) *testEnv {
	store := newMemStore()
	logger := zerolog.Nop()
	inv := service.NewInventoryService(store, store, store, logger)
	shelters := service.NewShelterService(store, geocoder, time.Second, logger)
	records := service.NewRecordService(store, logger)
	dash := service.NewDashboardService(store, store, store)
	m := metrics.New()
	return &testEnv{
		store:   store,
		metrics: m,
		http:    NewHTTPHandler(inv, shelters, records, dash, m, logger),
		grpc:    NewGRPCHandler(inv, m, logger),
	}
}
