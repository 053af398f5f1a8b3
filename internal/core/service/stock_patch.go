package service

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

// Patch keys. Lookup is case-insensitive so "ItemName" and "itemName" both match.
const (
	FieldItemName       = "itemName"
	FieldCategory       = "category"
	FieldQuantity       = "quantity"
	FieldUnit           = "unit"
	FieldMinimumStock   = "minimumStock"
	FieldExpirationDate = "expirationDate"
)

// Quantities are stored as DECIMAL(14,3).
const quantityScale = 3

var maxQuantity = decimal.New(1, 14-quantityScale)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
}

// StockItemInput is the fully typed record used by create and replace.
type StockItemInput struct {
	ItemName       string
	Category       string
	Quantity       decimal.Decimal
	Unit           string
	MinimumStock   int
	ExpirationDate *time.Time
}

func (in StockItemInput) validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(in.ItemName) == "" {
		verr.add("item name is required")
	}
	if problem := checkQuantity(in.Quantity); problem != "" {
		verr.add("quantity " + problem)
	}
	if in.MinimumStock < 0 {
		verr.add("minimum stock must not be negative")
	}
	return verr.orNil()
}

// checkQuantity returns why q cannot be stored, or "" when it can.
func checkQuantity(q decimal.Decimal) string {
	switch {
	case q.IsNegative():
		return "must not be negative"
	case !q.Equal(q.Truncate(quantityScale)):
		return "must have at most 3 decimal places"
	case q.GreaterThanOrEqual(maxQuantity):
		return "is too large"
	}
	return ""
}

// mergePatch applies a string-keyed patch to item. The rules differ per field:
//   - quantity: unparsable values are skipped silently
//   - itemName, category: the key must be present
//   - minimumStock: must parse as a number, truncated toward zero
//   - expirationDate: unparsable or empty clears the date
//
// Absent keys leave the field untouched. item is only modified when the whole patch applies.
func mergePatch(item *domain.StockItem, fields map[string]string) error {
	name, ok := lookupField(fields, FieldItemName)
	if !ok {
		return &MissingFieldError{Field: FieldItemName}
	}
	if strings.TrimSpace(name) == "" {
		return &InvalidFieldError{Field: FieldItemName, Value: name, Reason: "must not be empty"}
	}

	category, ok := lookupField(fields, FieldCategory)
	if !ok {
		return &MissingFieldError{Field: FieldCategory}
	}

	minimumStock := item.MinimumStock
	if raw, ok := lookupField(fields, FieldMinimumStock); ok {
		n, err := parseThreshold(raw)
		if err != nil {
			return err
		}
		minimumStock = n
	}

	quantity := item.Quantity
	if raw, ok := lookupField(fields, FieldQuantity); ok {
		if q, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			if problem := checkQuantity(q); problem != "" {
				return &InvalidFieldError{Field: FieldQuantity, Value: raw, Reason: problem}
			}
			quantity = q
		}
	}

	expiration := item.ExpirationDate
	if raw, ok := lookupField(fields, FieldExpirationDate); ok {
		expiration = parseDate(raw)
	}

	unit := item.Unit
	if raw, ok := lookupField(fields, FieldUnit); ok {
		unit = raw
	}

	item.ItemName = name
	item.Category = category
	item.MinimumStock = minimumStock
	item.Quantity = quantity
	item.ExpirationDate = expiration
	item.Unit = unit
	return nil
}

func parseThreshold(raw string) (int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, &InvalidFieldError{Field: FieldMinimumStock, Value: raw, Reason: "not a number"}
	}
	d = d.Truncate(0)
	if d.IsNegative() {
		return 0, &InvalidFieldError{Field: FieldMinimumStock, Value: raw, Reason: "must not be negative"}
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, &InvalidFieldError{Field: FieldMinimumStock, Value: raw, Reason: "out of range"}
	}
	return int(d.IntPart()), nil
}

// ParseDate reads a date in any layout a patch accepts. ok is false only for a
// non-empty value that matches none of them.
func ParseDate(raw string) (t *time.Time, ok bool) {
	t = parseDate(raw)
	return t, t != nil || strings.TrimSpace(raw) == ""
}

func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func lookupField(fields map[string]string, key string) (string, bool) {
	if v, ok := fields[key]; ok {
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v, true
		}
	}
	return "", false
}
