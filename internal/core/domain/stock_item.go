package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem is one inventory line owned by exactly one user.
type StockItem struct {
	ID             string
	OwnerID        string
	ItemName       string
	Category       string
	Quantity       decimal.Decimal
	Unit           string
	MinimumStock   int
	ExpirationDate *time.Time // nil means the item does not expire
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsLowStock reports whether the quantity has fallen to or below the threshold.
func (s StockItem) IsLowStock() bool {
	return s.Quantity.LessThanOrEqual(decimal.NewFromInt(int64(s.MinimumStock)))
}

// ExpiresBy reports whether the item has an expiration date at or before the cutoff.
func (s StockItem) ExpiresBy(cutoff time.Time) bool {
	return s.ExpirationDate != nil && !s.ExpirationDate.After(cutoff)
}
