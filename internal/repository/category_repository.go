package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campushq/campus-events/internal/model"
)

// CategoryRepo reads event categories for browse endpoints. Categories
// are catalog-owned and consumed read-only here.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo returns a new CategoryRepo bound to the given database.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.EventCategory, error) {
	const q = `SELECT id, name, description, created_at FROM event_categories ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]model.EventCategory, 0)
	for rows.Next() {
		var c model.EventCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
