package cleanup

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository calls the cleanup stored procedure.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a cleanup repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CleanupUnverified runs cleanup_unverified_registrations() and returns the
// deleted-row count reported by the function.
func (r *Repository) CleanupUnverified(ctx context.Context) (int, error) {
	var deleted int
	err := r.pool.QueryRow(ctx, `SELECT cleanup_unverified_registrations()`).Scan(&deleted)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
