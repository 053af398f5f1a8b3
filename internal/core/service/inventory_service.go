package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

// ExpiringSoonWindow is how far ahead ExpiringSoon looks, inclusive.
const ExpiringSoonWindow = 7 * 24 * time.Hour

type DeleteOutcome int

const (
	DeleteOutcomeNotFound DeleteOutcome = iota
	DeleteOutcomeDeleted
)

func (o DeleteOutcome) String() string {
	if o == DeleteOutcomeDeleted {
		return "deleted"
	}
	return "not_found"
}

// DeleteCheck is the answer to "may this stock item be removed right now".
type DeleteCheck struct {
	Allowed           bool
	BlockingMealPlans []string
}

type InventoryService struct {
	stock     port.StockRepository
	mealPlans port.MealPlanIndex
	cache     port.CacheRepository
	logger    zerolog.Logger
	now       func() time.Time
}

// NewInventoryService wires the inventory rules. cache may be nil, in which case
// create requests are not deduplicated.
func NewInventoryService(stock port.StockRepository, mealPlans port.MealPlanIndex, cache port.CacheRepository, logger zerolog.Logger) *InventoryService {
	return &InventoryService{
		stock:     stock,
		mealPlans: mealPlans,
		cache:     cache,
		logger:    logger.With().Str("component", "inventory").Logger(),
		now:       time.Now,
	}
}

func (s *InventoryService) Create(ctx context.Context, ownerID, requestID string, in StockItemInput) (domain.StockItem, error) {
	if ownerID == "" {
		return domain.StockItem{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return domain.StockItem{}, err
	}

	var idempotencyKey string
	if requestID != "" && s.cache != nil {
		idempotencyKey = fmt.Sprintf("stock:create:%s:%s", ownerID, requestID)
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return domain.StockItem{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.StockItem{}, ErrDuplicateRequest
		}
	}

	now := s.now().UTC()
	item := domain.StockItem{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		ItemName:       in.ItemName,
		Category:       in.Category,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		MinimumStock:   in.MinimumStock,
		ExpirationDate: in.ExpirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.stock.CreateStockItem(ctx, item); err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Str("item_name", in.ItemName).Msg("create stock item failed")
		s.releaseIdempotency(ctx, idempotencyKey)
		return domain.StockItem{}, fmt.Errorf("create stock item: %w", err)
	}
	return item, nil
}

// releaseIdempotency frees the request id of a create that did not persist. It runs
// detached from ctx so a cancelled request still releases its key.
func (s *InventoryService) releaseIdempotency(ctx context.Context, key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.cache.ReleaseIdempotency(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("release idempotency key failed")
	}
}

// Get returns nil when the item does not exist for the owner.
func (s *InventoryService) Get(ctx context.Context, ownerID, id string) (*domain.StockItem, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	item, err := s.stock.GetStockItem(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get stock item: %w", err)
	}
	return item, nil
}

func (s *InventoryService) List(ctx context.Context, ownerID string) ([]domain.StockItem, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	items, err := s.stock.ListStockItems(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list stock items: %w", err)
	}
	return items, nil
}

// ApplyPatch merges a sparse string-keyed patch into the stored item. See mergePatch
// for the per-field rules.
func (s *InventoryService) ApplyPatch(ctx context.Context, ownerID, id string, fields map[string]string) (domain.StockItem, error) {
	if ownerID == "" {
		return domain.StockItem{}, ErrUnauthorized
	}
	return s.mutate(ctx, ownerID, id, func(item *domain.StockItem) error {
		return mergePatch(item, fields)
	})
}

// Replace overwrites every editable field from a complete record.
func (s *InventoryService) Replace(ctx context.Context, ownerID, id string, in StockItemInput) (domain.StockItem, error) {
	if ownerID == "" {
		return domain.StockItem{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return domain.StockItem{}, err
	}
	return s.mutate(ctx, ownerID, id, func(item *domain.StockItem) error {
		item.ItemName = in.ItemName
		item.Category = in.Category
		item.Quantity = in.Quantity
		item.Unit = in.Unit
		item.ExpirationDate = in.ExpirationDate
		item.MinimumStock = in.MinimumStock
		return nil
	})
}

func (s *InventoryService) mutate(ctx context.Context, ownerID, id string, fn func(item *domain.StockItem) error) (domain.StockItem, error) {
	now := s.now().UTC()
	updated, err := s.stock.MutateStockItem(ctx, id, ownerID, func(item *domain.StockItem) error {
		if err := fn(item); err != nil {
			return err
		}
		item.UpdatedAt = now
		return nil
	})
	if err != nil {
		if isDomainError(err) {
			return domain.StockItem{}, err
		}
		s.logger.Error().Err(err).Str("owner", ownerID).Str("item", id).Msg("update stock item failed")
		return domain.StockItem{}, fmt.Errorf("update stock item: %w", err)
	}
	if updated == nil {
		return domain.StockItem{}, ErrNotFound
	}
	return *updated, nil
}

// CanDelete reports which meal plans, if any, prevent removing the item.
func (s *InventoryService) CanDelete(ctx context.Context, ownerID, id string) (DeleteCheck, error) {
	item, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return DeleteCheck{}, err
	}
	if item == nil {
		return DeleteCheck{}, ErrNotFound
	}
	names, err := s.mealPlans.ReferencingPlanNames(ctx, id)
	if err != nil {
		return DeleteCheck{}, fmt.Errorf("meal plan references: %w", err)
	}
	names = distinctSorted(names)
	return DeleteCheck{Allowed: len(names) == 0, BlockingMealPlans: names}, nil
}

// Delete removes the item unless a meal plan still references it. A missing item
// is reported as DeleteOutcomeNotFound rather than an error.
func (s *InventoryService) Delete(ctx context.Context, ownerID, id string) (DeleteOutcome, error) {
	if ownerID == "" {
		return DeleteOutcomeNotFound, ErrUnauthorized
	}
	res, err := s.stock.DeleteStockItemIfUnreferenced(ctx, id, ownerID)
	if err != nil {
		s.logger.Error().Err(err).Str("owner", ownerID).Str("item", id).Msg("delete stock item failed")
		return DeleteOutcomeNotFound, fmt.Errorf("delete stock item: %w", err)
	}
	if !res.Found {
		return DeleteOutcomeNotFound, nil
	}
	if len(res.BlockingMealPlans) > 0 {
		conflict := &DependencyConflictError{
			ItemName:  res.Item.ItemName,
			MealPlans: distinctSorted(res.BlockingMealPlans),
		}
		s.logger.Info().Str("owner", ownerID).Str("item", id).Strs("meal_plans", conflict.MealPlans).Msg("delete blocked by meal plans")
		return DeleteOutcomeNotFound, conflict
	}
	return DeleteOutcomeDeleted, nil
}

// LowStock returns the items whose quantity is at or below their minimum.
func (s *InventoryService) LowStock(ctx context.Context, ownerID string) ([]domain.StockItem, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	low := make([]domain.StockItem, 0, len(items))
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low, nil
}

// ExpiringSoon returns the items expiring within ExpiringSoonWindow of now,
// including already expired ones. Items without an expiration date never match.
// Expiration dates are calendar days stored at UTC midnight, so the window is
// counted in whole days from the calendar date of now in its own location.
func (s *InventoryService) ExpiringSoon(ctx context.Context, ownerID string, now time.Time) ([]domain.StockItem, error) {
	items, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(ExpiringSoonWindow)
	expiring := make([]domain.StockItem, 0, len(items))
	for _, item := range items {
		if item.ExpiresBy(cutoff) {
			expiring = append(expiring, item)
		}
	}
	return expiring, nil
}

func isDomainError(err error) bool {
	var (
		missing *MissingFieldError
		invalid *InvalidFieldError
		verr    *ValidationError
	)
	return errors.As(err, &missing) || errors.As(err, &invalid) || errors.As(err, &verr)
}

func distinctSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
