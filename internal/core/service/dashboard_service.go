package service

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

type DashboardService struct {
	stock    port.StockRepository
	shelters port.ShelterRepository
	records  port.RecordRepository
}

func NewDashboardService(stock port.StockRepository, shelters port.ShelterRepository, records port.RecordRepository) *DashboardService {
	return &DashboardService{stock: stock, shelters: shelters, records: records}
}

// Load fetches every collection of the owner concurrently. Notes are newest first,
// budget entries and donations are ordered by date, newest first.
func (s *DashboardService) Load(ctx context.Context, ownerID string) (domain.Dashboard, error) {
	if ownerID == "" {
		return domain.Dashboard{}, ErrUnauthorized
	}

	var d domain.Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.StockItems, err = s.stock.ListStockItems(ctx, ownerID)
		return wrap("stock items", err)
	})
	g.Go(func() (err error) {
		d.ShelterLocations, err = s.shelters.ListShelterLocations(ctx, ownerID)
		return wrap("shelter locations", err)
	})
	g.Go(func() (err error) {
		d.Notes, err = s.records.ListNotes(ctx, ownerID)
		return wrap("notes", err)
	})
	g.Go(func() (err error) {
		d.Volunteers, err = s.records.ListVolunteers(ctx, ownerID)
		return wrap("volunteers", err)
	})
	g.Go(func() (err error) {
		d.BudgetEntries, err = s.records.ListBudgetEntries(ctx, ownerID)
		return wrap("budget entries", err)
	})
	g.Go(func() (err error) {
		d.Donations, err = s.records.ListDonations(ctx, ownerID)
		return wrap("donations", err)
	})
	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}

	sort.SliceStable(d.Notes, func(i, j int) bool {
		return d.Notes[i].CreatedAt.After(d.Notes[j].CreatedAt)
	})
	sort.SliceStable(d.BudgetEntries, func(i, j int) bool {
		return d.BudgetEntries[i].Date.After(d.BudgetEntries[j].Date)
	})
	sort.SliceStable(d.Donations, func(i, j int) bool {
		return d.Donations[i].Date.After(d.Donations[j].Date)
	})
	return d, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
