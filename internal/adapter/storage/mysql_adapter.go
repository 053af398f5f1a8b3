package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rl1809/food-shelter/internal/core/domain"
	"github.com/rl1809/food-shelter/internal/port"
)

const stockColumns = `id, owner_id, item_name, category, quantity, unit, minimum_stock, expiration_date, created_at, updated_at`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (m *MySQLAdapter) CreateStockItem(ctx context.Context, item domain.StockItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO stock_items (`+stockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.OwnerID, item.ItemName, item.Category, item.Quantity, item.Unit,
		item.MinimumStock, nullTime(item.ExpirationDate), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock item: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetStockItem(ctx context.Context, id, ownerID string) (*domain.StockItem, error) {
	item, err := scanStockItem(m.db.QueryRowContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items WHERE id = ? AND owner_id = ?`, id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query stock item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListStockItems(ctx context.Context, ownerID string) ([]domain.StockItem, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items WHERE owner_id = ?`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stock items: %w", err)
	}
	defer rows.Close()

	var items []domain.StockItem
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) MutateStockItem(ctx context.Context, id, ownerID string, fn func(item *domain.StockItem) error) (*domain.StockItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := scanStockItem(tx.QueryRowContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock stock item: %w", err)
	}

	if err := fn(&item); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE stock_items
		SET item_name = ?, category = ?, quantity = ?, unit = ?, minimum_stock = ?, expiration_date = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		item.ItemName, item.Category, item.Quantity, item.Unit, item.MinimumStock,
		nullTime(item.ExpirationDate), item.UpdatedAt, id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update stock item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &item, nil
}

// DeleteStockItemIfUnreferenced holds the row lock from the reference check until
// the delete commits, so two concurrent deletes cannot both succeed.
func (m *MySQLAdapter) DeleteStockItemIfUnreferenced(ctx context.Context, id, ownerID string) (port.DeleteResult, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return port.DeleteResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	item, err := scanStockItem(tx.QueryRowContext(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items WHERE id = ? AND owner_id = ? FOR UPDATE`, id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return port.DeleteResult{}, nil
	}
	if err != nil {
		return port.DeleteResult{}, fmt.Errorf("lock stock item: %w", err)
	}

	names, err := referencingPlanNames(ctx, tx, id)
	if err != nil {
		return port.DeleteResult{}, err
	}
	if len(names) > 0 {
		return port.DeleteResult{Found: true, Item: item, BlockingMealPlans: names}, nil
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM stock_items WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return port.DeleteResult{}, fmt.Errorf("delete stock item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.DeleteResult{}, nil
	}

	if err := tx.Commit(); err != nil {
		return port.DeleteResult{}, fmt.Errorf("commit: %w", err)
	}
	return port.DeleteResult{Found: true, Item: item}, nil
}

func (m *MySQLAdapter) ReferencingPlanNames(ctx context.Context, stockItemID string) ([]string, error) {
	return referencingPlanNames(ctx, m.db, stockItemID)
}

func referencingPlanNames(ctx context.Context, q queryer, stockItemID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT mp.name
		FROM meal_ingredients mi
		JOIN meal_plans mp ON mp.id = mi.meal_plan_id
		WHERE mi.stock_item_id = ?`, stockItemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query meal plan references: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan meal plan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func scanStockItem(row rowScanner) (domain.StockItem, error) {
	var (
		item       domain.StockItem
		expiration sql.NullTime
	)
	err := row.Scan(
		&item.ID, &item.OwnerID, &item.ItemName, &item.Category, &item.Quantity, &item.Unit,
		&item.MinimumStock, &expiration, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.StockItem{}, err
	}
	if expiration.Valid {
		t := expiration.Time
		item.ExpirationDate = &t
	}
	return item, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
