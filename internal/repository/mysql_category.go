package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// CategoryStore is the MySQL implementation of CategoryRepository
type CategoryStore struct {
	store *SQLStore
}

// NewCategoryStore creates a MySQL-backed category repository
func NewCategoryStore(store *SQLStore) *CategoryStore {
	return &CategoryStore{store: store}
}

var _ CategoryRepository = (*CategoryStore)(nil)

func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	start := time.Now()
	query := "SELECT id, name, description FROM categories ORDER BY id"
	rows, err := s.store.q(ctx).QueryContext(ctx, query)
	s.store.record(ctx, "SELECT", "categories", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *CategoryStore) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	start := time.Now()
	query := "SELECT id, name, description FROM categories WHERE id = ?"
	var c models.Category
	err := s.store.q(ctx).QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Description)
	s.store.record(ctx, "SELECT", "categories", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	start := time.Now()
	query := "INSERT INTO categories (name, description) VALUES (?, ?)"
	result, err := s.store.q(ctx).ExecContext(ctx, query, c.Name, c.Description)
	s.store.record(ctx, "INSERT", "categories", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}
	c.ID = id
	return nil
}
