package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

// Mock StockRepository + MealPlanIndex
type mockStockRepo struct {
	mu       sync.Mutex
	items    map[string]domain.StockItem
	refs     []domain.MealPlanReference
	failWith error
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{items: make(map[string]domain.StockItem)}
}

func (m *mockStockRepo) addReference(itemID, plan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs = append(m.refs, domain.MealPlanReference{StockItemID: itemID, MealPlanName: plan})
}

func (m *mockStockRepo) removeReferences(itemID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.refs[:0]
	for _, r := range m.refs {
		if r.StockItemID != itemID {
			kept = append(kept, r)
		}
	}
	m.refs = kept
}

func (m *mockStockRepo) CreateStockItem(ctx context.Context, item domain.StockItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockStockRepo) GetStockItem(ctx context.Context, id, ownerID string) (*domain.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID {
		return nil, nil
	}
	return &item, nil
}

func (m *mockStockRepo) ListStockItems(ctx context.Context, ownerID string) ([]domain.StockItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
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

func (m *mockStockRepo) MutateStockItem(ctx context.Context, id, ownerID string, fn func(item *domain.StockItem) error) (*domain.StockItem, error) {
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

func (m *mockStockRepo) DeleteStockItemIfUnreferenced(ctx context.Context, id, ownerID string) (port.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.OwnerID != ownerID {
		return port.DeleteResult{}, nil
	}
	res := port.DeleteResult{Found: true, Item: item, BlockingMealPlans: m.namesLocked(id)}
	if len(res.BlockingMealPlans) == 0 {
		delete(m.items, id)
	}
	return res, nil
}

func (m *mockStockRepo) ReferencingPlanNames(ctx context.Context, stockItemID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.namesLocked(stockItemID), nil
}

// namesLocked returns raw names, duplicates included, so callers must dedupe.
func (m *mockStockRepo) namesLocked(id string) []string {
	var names []string
	for _, r := range m.refs {
		if r.StockItemID == id {
			names = append(names, r.MealPlanName)
		}
	}
	return names
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.idempotencySet, key)
	return nil
}

// Mock Geocoder
type mockGeocoder struct {
	coords *domain.Coordinates
	err    error
	delay  time.Duration
}

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (*domain.Coordinates, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.coords, m.err
}

// Mock ShelterRepository + RecordRepository
type mockRecordRepo struct {
	mu         sync.Mutex
	shelters   []domain.ShelterLocation
	notes      []domain.Note
	volunteers []domain.Volunteer
	budget     []domain.BudgetEntry
	donations  []domain.Donation
	failWith   error
}

var errBoom = errors.New("boom")

func (m *mockRecordRepo) CreateShelterLocation(ctx context.Context, loc domain.ShelterLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.shelters = append(m.shelters, loc)
	return nil
}

func (m *mockRecordRepo) ListShelterLocations(ctx context.Context, ownerID string) ([]domain.ShelterLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterOwned(m.shelters, ownerID, func(l domain.ShelterLocation) string { return l.OwnerID }), nil
}

func (m *mockRecordRepo) DeleteShelterLocation(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.shelters, ok = removeOwned(m.shelters, id, ownerID, func(l domain.ShelterLocation) (string, string) { return l.ID, l.OwnerID })
	return ok, nil
}

func (m *mockRecordRepo) CreateNote(ctx context.Context, note domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.notes = append(m.notes, note)
	return nil
}

func (m *mockRecordRepo) ListNotes(ctx context.Context, ownerID string) ([]domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	return filterOwned(m.notes, ownerID, func(n domain.Note) string { return n.OwnerID }), nil
}

func (m *mockRecordRepo) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.notes, ok = removeOwned(m.notes, id, ownerID, func(n domain.Note) (string, string) { return n.ID, n.OwnerID })
	return ok, nil
}

func (m *mockRecordRepo) CreateVolunteer(ctx context.Context, v domain.Volunteer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volunteers = append(m.volunteers, v)
	return nil
}

func (m *mockRecordRepo) ListVolunteers(ctx context.Context, ownerID string) ([]domain.Volunteer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterOwned(m.volunteers, ownerID, func(v domain.Volunteer) string { return v.OwnerID }), nil
}

func (m *mockRecordRepo) DeleteVolunteer(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.volunteers, ok = removeOwned(m.volunteers, id, ownerID, func(v domain.Volunteer) (string, string) { return v.ID, v.OwnerID })
	return ok, nil
}

func (m *mockRecordRepo) CreateBudgetEntry(ctx context.Context, b domain.BudgetEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budget = append(m.budget, b)
	return nil
}

func (m *mockRecordRepo) ListBudgetEntries(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterOwned(m.budget, ownerID, func(b domain.BudgetEntry) string { return b.OwnerID }), nil
}

func (m *mockRecordRepo) DeleteBudgetEntry(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.budget, ok = removeOwned(m.budget, id, ownerID, func(b domain.BudgetEntry) (string, string) { return b.ID, b.OwnerID })
	return ok, nil
}

func (m *mockRecordRepo) CreateDonation(ctx context.Context, d domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donations = append(m.donations, d)
	return nil
}

func (m *mockRecordRepo) ListDonations(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filterOwned(m.donations, ownerID, func(d domain.Donation) string { return d.OwnerID }), nil
}

func (m *mockRecordRepo) DeleteDonation(ctx context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.donations, ok = removeOwned(m.donations, id, ownerID, func(d domain.Donation) (string, string) { return d.ID, d.OwnerID })
	return ok, nil
}

func filterOwned[T any](all []T, ownerID string, owner func(T) string) []T {
	var out []T
	for _, v := range all {
		if owner(v) == ownerID {
			out = append(out, v)
		}
	}
	return out
}

func removeOwned[T any](all []T, id, ownerID string, key func(T) (string, string)) ([]T, bool) {
	for i, v := range all {
		if vid, vowner := key(v); vid == id && vowner == ownerID {
			return append(all[:i:i], all[i+1:]...), true
		}
	}
	return all, false
}
