package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summercamp/backend/internal/models"
)

// Repository handles admin account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail returns an admin by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const q = `SELECT id, email, password_hash, full_name, role, created_at, updated_at
		FROM admins WHERE email = $1`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, email).Scan(
		&a.ID, &a.Email, &a.Password, &a.FullName, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new admin account.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string) (*models.Admin, error) {
	const q = `INSERT INTO admins (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, full_name, role, created_at, updated_at`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, email, passwordHash, fullName, models.RoleAdmin).Scan(
		&a.ID, &a.Email, &a.Password, &a.FullName, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
