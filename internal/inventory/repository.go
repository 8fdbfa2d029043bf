package inventory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads inventory items owned by an account.
type Repository interface {
	// ListByUser returns all items for the account, newest acquisitions first.
	ListByUser(ctx context.Context, userID int64) ([]Item, error)
}

// PostgresRepository reads inventory items from PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByUser returns all items for the account ordered by acquisition time descending.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Item, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, name, rarity, value, COALESCE(image, ''), obtained_at
        FROM inventory
        WHERE user_id = $1
        ORDER BY obtained_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Rarity, &item.Value, &item.Image, &item.ObtainedAt); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory: %w", err)
	}
	return items, nil
}
