package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl1809/food-shelter/internal/core/domain"
)

func (m *MySQLAdapter) CreateShelterLocation(ctx context.Context, loc domain.ShelterLocation) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO shelter_locations (id, owner_id, name, address, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		loc.ID, loc.OwnerID, loc.Name, loc.Address, nullFloat(loc.Latitude), nullFloat(loc.Longitude), loc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert shelter location: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListShelterLocations(ctx context.Context, ownerID string) ([]domain.ShelterLocation, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, name, address, latitude, longitude, created_at
		FROM shelter_locations WHERE owner_id = ?`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query shelter locations: %w", err)
	}
	defer rows.Close()

	var locs []domain.ShelterLocation
	for rows.Next() {
		var (
			loc      domain.ShelterLocation
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&loc.ID, &loc.OwnerID, &loc.Name, &loc.Address, &lat, &lon, &loc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shelter location: %w", err)
		}
		if lat.Valid && lon.Valid {
			loc.Latitude, loc.Longitude = &lat.Float64, &lon.Float64
		}
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

func (m *MySQLAdapter) DeleteShelterLocation(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwned(ctx, "shelter_locations", id, ownerID)
}

func (m *MySQLAdapter) CreateNote(ctx context.Context, note domain.Note) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner_id, content, created_at) VALUES (?, ?, ?, ?)`,
		note.ID, note.OwnerID, note.Content, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListNotes(ctx context.Context, ownerID string) ([]domain.Note, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, content, created_at
		FROM notes WHERE owner_id = ? ORDER BY created_at DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (m *MySQLAdapter) DeleteNote(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwned(ctx, "notes", id, ownerID)
}

func (m *MySQLAdapter) CreateVolunteer(ctx context.Context, v domain.Volunteer) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO volunteers (id, owner_id, name, email, phone, availability, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.OwnerID, v.Name, v.Email, v.Phone, v.Availability, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert volunteer: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListVolunteers(ctx context.Context, ownerID string) ([]domain.Volunteer, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, name, email, phone, availability, created_at
		FROM volunteers WHERE owner_id = ?`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query volunteers: %w", err)
	}
	defer rows.Close()

	var vs []domain.Volunteer
	for rows.Next() {
		var v domain.Volunteer
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Email, &v.Phone, &v.Availability, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		vs = append(vs, v)
	}
	return vs, rows.Err()
}

func (m *MySQLAdapter) DeleteVolunteer(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwned(ctx, "volunteers", id, ownerID)
}

func (m *MySQLAdapter) CreateBudgetEntry(ctx context.Context, b domain.BudgetEntry) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO budget_entries (id, owner_id, description, category, amount, entry_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Description, b.Category, b.Amount, b.Date,
	)
	if err != nil {
		return fmt.Errorf("insert budget entry: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListBudgetEntries(ctx context.Context, ownerID string) ([]domain.BudgetEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, description, category, amount, entry_date
		FROM budget_entries WHERE owner_id = ? ORDER BY entry_date DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query budget entries: %w", err)
	}
	defer rows.Close()

	var bs []domain.BudgetEntry
	for rows.Next() {
		var b domain.BudgetEntry
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Description, &b.Category, &b.Amount, &b.Date); err != nil {
			return nil, fmt.Errorf("scan budget entry: %w", err)
		}
		bs = append(bs, b)
	}
	return bs, rows.Err()
}

func (m *MySQLAdapter) DeleteBudgetEntry(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwned(ctx, "budget_entries", id, ownerID)
}

func (m *MySQLAdapter) CreateDonation(ctx context.Context, d domain.Donation) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO donations (id, owner_id, donor_name, description, amount, donation_date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.OwnerID, d.DonorName, d.Description, d.Amount, d.Date,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListDonations(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, owner_id, donor_name, description, amount, donation_date
		FROM donations WHERE owner_id = ? ORDER BY donation_date DESC`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()

	var ds []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.DonorName, &d.Description, &d.Amount, &d.Date); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		ds = append(ds, d)
	}
	return ds, rows.Err()
}

func (m *MySQLAdapter) DeleteDonation(ctx context.Context, id, ownerID string) (bool, error) {
	return m.deleteOwned(ctx, "donations", id, ownerID)
}

// deleteOwned only ever receives table names from this file.
func (m *MySQLAdapter) deleteOwned(ctx context.Context, table, id, ownerID string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
