package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// ProductStore is the MySQL implementation of ProductRepository
type ProductStore struct {
	store *SQLStore
}

// NewProductStore creates a MySQL-backed product repository
func NewProductStore(store *SQLStore) *ProductStore {
	return &ProductStore{store: store}
}

var _ ProductRepository = (*ProductStore)(nil)

const productColumns = "id, seller_id, category_id, name, description, price, stock, image_url, is_active, created_at, updated_at"

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(&p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Description,
		&p.Price, &p.Stock, &p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (s *ProductStore) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	start := time.Now()
	rows, err := s.store.q(ctx).QueryContext(ctx, query, args...)
	s.store.record(ctx, "SELECT", "products", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *ProductStore) ListActive(ctx context.Context) ([]models.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE is_active = TRUE ORDER BY id")
}

func (s *ProductStore) getByID(ctx context.Context, id int64, forUpdate bool) (*models.Product, error) {
	start := time.Now()
	query := "SELECT " + productColumns + " FROM products WHERE id = ?"
	if forUpdate && s.store.inTx(ctx) {
		query += " FOR UPDATE"
	}
	var p models.Product
	err := scanProduct(s.store.q(ctx).QueryRowContext(ctx, query, id), &p)
	s.store.record(ctx, "SELECT", "products", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (s *ProductStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return s.getByID(ctx, id, false)
}

// GetByIDForUpdate locks the product row for the duration of the enclosing
// transaction, serializing stock checks against concurrent order placement.
func (s *ProductStore) GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error) {
	return s.getByID(ctx, id, true)
}

func (s *ProductStore) Search(ctx context.Context, keyword string) ([]models.Product, error) {
	pattern := "%" + keyword + "%"
	query := "SELECT " + productColumns + ` FROM products
		WHERE is_active = TRUE AND (LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?))
		ORDER BY id`
	return s.queryProducts(ctx, query, pattern, pattern)
}

func (s *ProductStore) ListByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE category_id = ? ORDER BY id", categoryID)
}

func (s *ProductStore) ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	return s.queryProducts(ctx, "SELECT "+productColumns+" FROM products WHERE seller_id = ? ORDER BY id", sellerID)
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	start := time.Now()
	now := start.Truncate(time.Millisecond)
	query := `INSERT INTO products (seller_id, category_id, name, description, price, stock, image_url, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := s.store.q(ctx).ExecContext(ctx, query,
		p.SellerID, p.CategoryID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL, p.IsActive, now, now)
	s.store.record(ctx, "INSERT", "products", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product ID: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	start := time.Now()
	now := start.Truncate(time.Millisecond)
	query := `UPDATE products SET name = ?, description = ?, price = ?, stock = ?, image_url = ?, updated_at = ?
		WHERE id = ?`
	_, err := s.store.q(ctx).ExecContext(ctx, query,
		p.Name, p.Description, p.Price, p.Stock, p.ImageURL, now, p.ID)
	s.store.record(ctx, "UPDATE", "products", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// Deactivate soft-deletes the product: the row is kept for existing orders
func (s *ProductStore) Deactivate(ctx context.Context, id int64) error {
	start := time.Now()
	query := "UPDATE products SET is_active = FALSE, updated_at = NOW(3) WHERE id = ?"
	result, err := s.store.q(ctx).ExecContext(ctx, query, id)
	s.store.record(ctx, "UPDATE", "products", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		// already inactive rows report zero affected on some drivers
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
