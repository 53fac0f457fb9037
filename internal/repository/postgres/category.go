package postgres

import (
	"context"
	"fmt"

	"github.com/Agamvashisht/fintrack/internal/domain"
)

// CategoryRepository implements repository.CategoryRepository using PostgreSQL.
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// SeedDefaults inserts the starter categories for a new user. ON CONFLICT
// DO NOTHING keeps the operation idempotent against the per-user name
// uniqueness constraint.
func (r *CategoryRepository) SeedDefaults(ctx context.Context, userID string) error {
	query := `
		INSERT INTO categories (user_id, name, icon, color)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, name) DO NOTHING`

	for _, c := range domain.DefaultCategories() {
		if _, err := r.db.Exec(ctx, query, userID, c.Name, c.Icon, c.Color); err != nil {
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	return nil
}

// ListByUserID returns all categories for the given user ordered by name.
func (r *CategoryRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Category, error) {
	query := `
		SELECT id, user_id, name, icon, color, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}
