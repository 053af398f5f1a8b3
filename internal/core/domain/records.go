package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Note struct {
	ID        string
	OwnerID   string
	Content   string
	CreatedAt time.Time
}

type Volunteer struct {
	ID           string
	OwnerID      string
	Name         string
	Email        string
	Phone        string
	Availability string
	CreatedAt    time.Time
}

type BudgetEntry struct {
	ID          string
	OwnerID     string
	Description string
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
}

type Donation struct {
	ID          string
	OwnerID     string
	DonorName   string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
}

// Dashboard is everything one owner sees on the landing page.
type Dashboard struct {
	StockItems       []StockItem
	ShelterLocations []ShelterLocation
	Notes            []Note
	Volunteers       []Volunteer
	BudgetEntries    []BudgetEntry
	Donations        []Donation
}
