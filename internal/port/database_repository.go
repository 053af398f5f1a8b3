package port

import (
	"context"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

// DeleteResult describes the outcome of a dependency-gated delete.
type DeleteResult struct {
	// Found is false when no item with that id belongs to the owner.
	Found bool
	Item  domain.StockItem
	// BlockingMealPlans holds the distinct, sorted plan names referencing the item.
	// When non-empty nothing was deleted.
	BlockingMealPlans []string
}

// Deleted reports whether the row was actually removed.
func (r DeleteResult) Deleted() bool {
	return r.Found && len(r.BlockingMealPlans) == 0
}

type StockRepository interface {
	// CreateStockItem persists a new stock item
	CreateStockItem(ctx context.Context, item domain.StockItem) error

	// GetStockItem returns nil when the item does not exist or belongs to another owner
	GetStockItem(ctx context.Context, id, ownerID string) (*domain.StockItem, error)

	// ListStockItems returns every item of the owner, in no particular order
	ListStockItems(ctx context.Context, ownerID string) ([]domain.StockItem, error)

	// MutateStockItem locks the row, applies fn and writes the result in one transaction.
	// It returns nil without error when the item is missing; an error from fn aborts the write.
	MutateStockItem(ctx context.Context, id, ownerID string, fn func(item *domain.StockItem) error) (*domain.StockItem, error)

	// DeleteStockItemIfUnreferenced reads the meal plan references and removes the row
	// in one transaction, holding the row lock between the check and the delete
	DeleteStockItemIfUnreferenced(ctx context.Context, id, ownerID string) (DeleteResult, error)
}

// MealPlanIndex is the read-only view of which meal plans consume a stock item.
type MealPlanIndex interface {
	// ReferencingPlanNames returns distinct plan names, sorted
	ReferencingPlanNames(ctx context.Context, stockItemID string) ([]string, error)
}

type ShelterRepository interface {
	CreateShelterLocation(ctx context.Context, loc domain.ShelterLocation) error
	ListShelterLocations(ctx context.Context, ownerID string) ([]domain.ShelterLocation, error)
	// DeleteShelterLocation reports false when nothing owned by ownerID matched
	DeleteShelterLocation(ctx context.Context, id, ownerID string) (bool, error)
}

// RecordRepository stores the plain owner-scoped records shown on the dashboard.
type RecordRepository interface {
	CreateNote(ctx context.Context, note domain.Note) error
	ListNotes(ctx context.Context, ownerID string) ([]domain.Note, error)
	DeleteNote(ctx context.Context, id, ownerID string) (bool, error)

	CreateVolunteer(ctx context.Context, v domain.Volunteer) error
	ListVolunteers(ctx context.Context, ownerID string) ([]domain.Volunteer, error)
	DeleteVolunteer(ctx context.Context, id, ownerID string) (bool, error)

	CreateBudgetEntry(ctx context.Context, b domain.BudgetEntry) error
	ListBudgetEntries(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error)
	DeleteBudgetEntry(ctx context.Context, id, ownerID string) (bool, error)

	CreateDonation(ctx context.Context, d domain.Donation) error
	ListDonations(ctx context.Context, ownerID string) ([]domain.Donation, error)
	DeleteDonation(ctx context.Context, id, ownerID string) (bool, error)
}
