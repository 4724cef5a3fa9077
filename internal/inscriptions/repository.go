package inscriptions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/summercamp/backend/internal/models"
)

// Repository handles inscription persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an inscriptions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping probes the inscriptions table with a lightweight read. Used to block
// submissions with a distinct unavailable state when the store is down.
func (r *Repository) Ping(ctx context.Context) error {
	rows, err := r.pool.Query(ctx, `SELECT id FROM inscriptions LIMIT 1`)
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}

// CreateWithAteliers persists an inscription and its workshop selections as a
// single transaction: either the row and all its selections become visible
// together, or nothing does.
func (r *Repository) CreateWithAteliers(ctx context.Context, ins *models.Inscription, atelierIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertInscription = `INSERT INTO inscriptions (nom, prenom, date_naissance, email, telephone, preuve_url, token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, valide, created_at, updated_at`
	err = tx.QueryRow(ctx, insertInscription,
		ins.Nom, ins.Prenom, ins.DateNaissance, ins.Email, ins.Telephone, ins.PreuveURL, ins.Token).
		Scan(&ins.ID, &ins.Valide, &ins.CreatedAt, &ins.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inscription: %w", err)
	}

	const insertAtelier = `INSERT INTO inscription_ateliers (inscription_id, atelier_id) VALUES ($1, $2)`
	for _, atelierID := range atelierIDs {
		if _, err := tx.Exec(ctx, insertAtelier, ins.ID, atelierID); err != nil {
			return fmt.Errorf("insert atelier selection %s: %w", atelierID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	ins.Ateliers = atelierIDs
	return nil
}

const selectColumns = `i.id, i.nom, i.prenom, i.date_naissance, i.email, i.telephone, i.preuve_url, i.token, i.valide,
	COALESCE(array_agg(a.atelier_id ORDER BY a.atelier_id) FILTER (WHERE a.atelier_id IS NOT NULL), '{}'),
	i.created_at, i.updated_at`

// GetByToken returns the inscription holding the given confirmation token.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.Inscription, error) {
	q := `SELECT ` + selectColumns + `
		FROM inscriptions i
		LEFT JOIN inscription_ateliers a ON a.inscription_id = i.id
		WHERE i.token = $1
		GROUP BY i.id`
	var ins models.Inscription
	err := r.pool.QueryRow(ctx, q, token).Scan(
		&ins.ID, &ins.Nom, &ins.Prenom, &ins.DateNaissance, &ins.Email, &ins.Telephone,
		&ins.PreuveURL, &ins.Token, &ins.Valide, &ins.Ateliers, &ins.CreatedAt, &ins.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

// GetByID returns an inscription with its workshop selections.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Inscription, error) {
	q := `SELECT ` + selectColumns + `
		FROM inscriptions i
		LEFT JOIN inscription_ateliers a ON a.inscription_id = i.id
		WHERE i.id = $1
		GROUP BY i.id`
	var ins models.Inscription
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&ins.ID, &ins.Nom, &ins.Prenom, &ins.DateNaissance, &ins.Email, &ins.Telephone,
		&ins.PreuveURL, &ins.Token, &ins.Valide, &ins.Ateliers, &ins.CreatedAt, &ins.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

// MarkVerified flips valide to true for the inscription holding token and
// refreshes updated_at. The valide = false predicate makes the update
// idempotent: re-confirming an already-verified inscription touches no row.
func (r *Repository) MarkVerified(ctx context.Context, token string) error {
	const q = `UPDATE inscriptions SET valide = true, updated_at = NOW() WHERE token = $1 AND valide = false`
	_, err := r.pool.Exec(ctx, q, token)
	return err
}

// List returns all inscriptions with their selections, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Inscription, error) {
	q := `SELECT ` + selectColumns + `
		FROM inscriptions i
		LEFT JOIN inscription_ateliers a ON a.inscription_id = i.id
		GROUP BY i.id
		ORDER BY i.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Inscription
	for rows.Next() {
		var ins models.Inscription
		if err := rows.Scan(
			&ins.ID, &ins.Nom, &ins.Prenom, &ins.DateNaissance, &ins.Email, &ins.Telephone,
			&ins.PreuveURL, &ins.Token, &ins.Valide, &ins.Ateliers, &ins.CreatedAt, &ins.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, ins)
	}
	return list, rows.Err()
}

// CountUnverified returns the number of inscriptions still awaiting
// confirmation.
func (r *Repository) CountUnverified(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inscriptions WHERE valide = false`).Scan(&count)
	return count, err
}
