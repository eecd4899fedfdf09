package storage

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
)

// CategoryRepository manages the category list. Categories are only ever added.
type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, &core.StoreError{Op: "list categories", Err: err}
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, &core.StoreError{Op: "scan category", Err: err}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StoreError{Op: "list categories", Err: err}
	}
	return out, nil
}

// Add inserts name unless it already exists. A duplicate is not an error.
func (r *CategoryRepository) Add(ctx context.Context, name string) error {
	name, err := core.NormalizeCategoryName(name)
	if err != nil {
		return err
	}
	return r.insertIgnore(ctx, name)
}

// EnsureDefaults inserts every missing name. A failure on one name does not
// stop the others; all failures are returned joined.
func (r *CategoryRepository) EnsureDefaults(ctx context.Context, names []string) error {
	var errs []error
	for _, name := range names {
		n, err := core.NormalizeCategoryName(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.insertIgnore(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("category %q: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

func (r *CategoryRepository) insertIgnore(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return &core.StoreError{Op: "insert category", Err: err}
	}
	return nil
}
