package profile

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository defines the data access contract for profile records.
type Repository interface {
	Upsert(ctx context.Context, p *Profile) error
}

// repository implements Repository with hand-written MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new profile repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts or replaces the profile row for the user. Registration is
// the only writer, but upsert semantics keep a retried registration step
// from failing on a duplicate key.
func (r *repository) Upsert(ctx context.Context, p *Profile) error {
	query := `INSERT INTO user_profiles (user_id, name, email, created_at)
	          VALUES (?, ?, ?, ?)
	          ON DUPLICATE KEY UPDATE name = VALUES(name), email = VALUES(email)`

	_, err := r.db.ExecContext(ctx, query, p.UserID, p.Name, p.Email, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	return nil
}
