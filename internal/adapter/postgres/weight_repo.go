package postgres

import (
	"context"
	"database/sql"
	"errors"

	"weighttracker/internal/domain"

	"github.com/google/uuid"
)

var _ domain.WeightRepository = (*DB)(nil)

const entryColumns = "id, weight, measured_at, notes, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.WeightEntry, error) {
	var (
		e  domain.WeightEntry
		id uuid.UUID
	)
	if err := row.Scan(&id, &e.Weight, &e.Date, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ID = id.String()
	e.Date = e.Date.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

// ListWeightEntries returns all entries, newest measurement first.
func (d *DB) ListWeightEntries(ctx context.Context) ([]domain.WeightEntry, error) {
	if err := d.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM weight_entries ORDER BY measured_at DESC, created_at DESC",
	)
	if err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]domain.WeightEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrapErr("scan weight entry", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list weight entries", err)
	}
	return entries, nil
}

// GetWeightEntry returns the entry with the given id. Ids that are not UUIDs
// cannot exist and are reported as not found.
func (d *DB) GetWeightEntry(ctx context.Context, id string) (*domain.WeightEntry, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := d.ensureSchema(ctx); err != nil {
		return nil, err
	}
	e, err := scanEntry(d.sql.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM weight_entries WHERE id = $1", uid,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get weight entry", err)
	}
	return e, nil
}

// CreateWeightEntry validates and inserts a new entry.
func (d *DB) CreateWeightEntry(ctx context.Context, entry domain.WeightEntry) (*domain.WeightEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := d.ensureSchema(ctx); err != nil {
		return nil, err
	}
	now := d.now().UTC()
	e, err := scanEntry(d.sql.QueryRowContext(ctx,
		"INSERT INTO weight_entries ("+entryColumns+") VALUES ($1, $2, $3, $4, $5, $5) RETURNING "+entryColumns,
		uuid.New(), entry.Weight, entry.Date.UTC(), entry.Notes, now,
	))
	if err != nil {
		return nil, wrapErr("create weight entry", err)
	}
	return e, nil
}

// UpdateWeightEntry applies update to an existing entry. Nil notes keep the
// stored value.
func (d *DB) UpdateWeightEntry(ctx context.Context, id string, update domain.WeightUpdate) (*domain.WeightEntry, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if err := d.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var notes sql.NullString
	if update.Notes != nil {
		notes = sql.NullString{String: *update.Notes, Valid: true}
	}
	e, err := scanEntry(d.sql.QueryRowContext(ctx,
		`UPDATE weight_entries
		SET weight = $2, measured_at = $3, notes = COALESCE($4, notes), updated_at = $5
		WHERE id = $1
		RETURNING `+entryColumns,
		uid, update.Weight, update.Date.UTC(), notes, d.now().UTC(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("update weight entry", err)
	}
	return e, nil
}

// DeleteWeightEntry removes an entry.
func (d *DB) DeleteWeightEntry(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrNotFound
	}
	if err := d.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_entries WHERE id = $1", uid)
	if err != nil {
		return wrapErr("delete weight entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete weight entry", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
