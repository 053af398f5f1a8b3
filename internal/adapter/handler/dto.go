package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/core/service"
)

const dateLayout = "2006-01-02"

// Response is the envelope shared by every HTTP endpoint.
type Response struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message,omitempty"`
	Errors            []string `json:"errors,omitempty"`
	BlockingMealPlans []string `json:"blockingMealPlans,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	Item              any      `json:"item,omitempty"`
	Items             any      `json:"items,omitempty"`
}

type StockItemJSON struct {
	ID             string          `json:"id"`
	ItemName       string          `json:"itemName"`
	Category       string          `json:"category"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	MinimumStock   int             `json:"minimumStock"`
	ExpirationDate *string         `json:"expirationDate"`
	LowStock       bool            `json:"lowStock"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func toStockItemJSON(item domain.StockItem) StockItemJSON {
	out := StockItemJSON{
		ID:           item.ID,
		ItemName:     item.ItemName,
		Category:     item.Category,
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		MinimumStock: item.MinimumStock,
		LowStock:     item.IsLowStock(),
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
	if item.ExpirationDate != nil {
		d := item.ExpirationDate.Format(dateLayout)
		out.ExpirationDate = &d
	}
	return out
}

func toStockItemsJSON(items []domain.StockItem) []StockItemJSON {
	out := make([]StockItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toStockItemJSON(item))
	}
	return out
}

// StockItemRequest is the body of create and replace. ID is only checked on replace.
type StockItemRequest struct {
	ID             string          `json:"id,omitempty"`
	RequestID      string          `json:"requestId,omitempty"`
	ItemName       string          `json:"itemName"`
	Category       string          `json:"category"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	MinimumStock   int             `json:"minimumStock"`
	ExpirationDate string          `json:"expirationDate,omitempty"`
}

func (r StockItemRequest) toInput() (service.StockItemInput, error) {
	exp, ok := service.ParseDate(r.ExpirationDate)
	if !ok {
		return service.StockItemInput{}, &service.ValidationError{
			Problems: []string{fmt.Sprintf("expiration date %q is not a date", r.ExpirationDate)},
		}
	}
	return service.StockItemInput{
		ItemName:       r.ItemName,
		Category:       r.Category,
		Quantity:       r.Quantity,
		Unit:           r.Unit,
		MinimumStock:   r.MinimumStock,
		ExpirationDate: exp,
	}, nil
}

// patchFields flattens a loosely typed JSON object into the string map a patch
// works on. Numbers keep their literal spelling and null becomes "".
func patchFields(raw map[string]any) map[string]string {
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		default:
			b, _ := json.Marshal(val)
			fields[k] = string(b)
		}
	}
	return fields
}

type ShelterLocationJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

func toShelterJSON(loc domain.ShelterLocation) ShelterLocationJSON {
	return ShelterLocationJSON{
		ID:        loc.ID,
		Name:      loc.Name,
		Address:   loc.Address,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		CreatedAt: loc.CreatedAt,
	}
}

type NoteJSON struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type VolunteerJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BudgetEntryJSON struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
}

type DonationJSON struct {
	ID          string          `json:"id"`
	DonorName   string          `json:"donorName"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
}

type DashboardJSON struct {
	StockItems       []StockItemJSON       `json:"stockItems"`
	ShelterLocations []ShelterLocationJSON `json:"shelterLocations"`
	Notes            []NoteJSON            `json:"notes"`
	Volunteers       []VolunteerJSON       `json:"volunteers"`
	BudgetEntries    []BudgetEntryJSON     `json:"budgetEntries"`
	Donations        []DonationJSON        `json:"donations"`
}

// mapSlice converts with a non-nil result so empty lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func toNoteJSON(n domain.Note) NoteJSON {
	return NoteJSON{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt}
}

func toVolunteerJSON(v domain.Volunteer) VolunteerJSON {
	return VolunteerJSON{ID: v.ID, Name: v.Name, Email: v.Email, Phone: v.Phone, Availability: v.Availability, CreatedAt: v.CreatedAt}
}

func toBudgetEntryJSON(b domain.BudgetEntry) BudgetEntryJSON {
	return BudgetEntryJSON{ID: b.ID, Description: b.Description, Category: b.Category, Amount: b.Amount, Date: b.Date.Format(dateLayout)}
}

func toDonationJSON(d domain.Donation) DonationJSON {
	return DonationJSON{ID: d.ID, DonorName: d.DonorName, Description: d.Description, Amount: d.Amount, Date: d.Date.Format(dateLayout)}
}

func toDashboardJSON(d domain.Dashboard) DashboardJSON {
	return DashboardJSON{
		StockItems:       toStockItemsJSON(d.StockItems),
		ShelterLocations: mapSlice(d.ShelterLocations, toShelterJSON),
		Notes:            mapSlice(d.Notes, toNoteJSON),
		Volunteers:       mapSlice(d.Volunteers, toVolunteerJSON),
		BudgetEntries:    mapSlice(d.BudgetEntries, toBudgetEntryJSON),
		Donations:        mapSlice(d.Donations, toDonationJSON),
	}
}

// parseDay turns an optional request date into a time; empty yields the zero time.
func parseDay(field, raw string) (time.Time, error) {
	t, ok := service.ParseDate(raw)
	if !ok {
		return time.Time{}, &service.ValidationError{Problems: []string{fmt.Sprintf("%s %q is not a date", field, raw)}}
	}
	if t == nil {
		return time.Time{}, nil
	}
	return *t, nil
}
