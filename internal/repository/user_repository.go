package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campushq/campus-events/internal/model"
)

// UserRepo provides read access to the identity directory. Accounts are
// created and maintained by an external onboarding process; this
// service only resolves and displays them.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByID returns the user row or ErrUserNotFound. The identity
// resolver uses this lookup to confirm a token subject still exists and
// to read the authoritative role.
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	const q = `SELECT id, name, email, role, student_id, department, year, phone, created_at
	           FROM users WHERE id = ?`
	var u model.User
	var role string
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&u.ID, &u.Name, &u.Email, &role, &u.StudentID, &u.Department, &u.Year, &u.Phone, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}
