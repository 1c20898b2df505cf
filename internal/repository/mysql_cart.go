package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/techmarket/marketplace-api/internal/models"
)

// isDuplicateKey reports a MySQL duplicate-entry error (code 1062)
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// CartStore is the MySQL implementation of CartRepository
type CartStore struct {
	store *SQLStore
}

// NewCartStore creates a MySQL-backed cart repository
func NewCartStore(store *SQLStore) *CartStore {
	return &CartStore{store: store}
}

var _ CartRepository = (*CartStore)(nil)

func (s *CartStore) GetByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	start := time.Now()
	query := "SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = ?"
	if s.store.inTx(ctx) {
		query += " FOR UPDATE"
	}
	var c models.Cart
	err := s.store.q(ctx).QueryRowContext(ctx, query, userID).Scan(
		&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	s.store.record(ctx, "SELECT", "carts", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &c, nil
}

func (s *CartStore) Create(ctx context.Context, c *models.Cart) error {
	start := time.Now()
	now := start.Truncate(time.Millisecond)
	query := "INSERT INTO carts (user_id, created_at, updated_at) VALUES (?, ?, ?)"
	result, err := s.store.q(ctx).ExecContext(ctx, query, c.UserID, now, now)
	s.store.record(ctx, "INSERT", "carts", query, start, err)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get cart ID: %w", err)
	}
	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

// CountWithItems counts the carts holding at least one item
func (s *CartStore) CountWithItems(ctx context.Context) (int64, error) {
	start := time.Now()
	query := "SELECT COUNT(DISTINCT cart_id) FROM cart_items"
	var n int64
	err := s.store.q(ctx).QueryRowContext(ctx, query).Scan(&n)
	s.store.record(ctx, "SELECT", "cart_items", query, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count active carts: %w", err)
	}
	return n, nil
}

// Touch stamps the cart's updated_at; called inside the same transaction as
// the mutation that triggered it.
func (s *CartStore) Touch(ctx context.Context, cartID int64, at time.Time) error {
	start := time.Now()
	query := "UPDATE carts SET updated_at = ? WHERE id = ?"
	_, err := s.store.q(ctx).ExecContext(ctx, query, at, cartID)
	s.store.record(ctx, "UPDATE", "carts", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

func (s *CartStore) ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	start := time.Now()
	query := `SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.price
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = ?
		ORDER BY ci.id`
	rows, err := s.store.q(ctx).QueryContext(ctx, query, cartID)
	s.store.record(ctx, "SELECT", "cart_items", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *CartStore) GetItem(ctx context.Context, itemID int64) (*models.CartItem, error) {
	start := time.Now()
	query := "SELECT id, cart_id, product_id, quantity FROM cart_items WHERE id = ?"
	var item models.CartItem
	err := s.store.q(ctx).QueryRowContext(ctx, query, itemID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity)
	s.store.record(ctx, "SELECT", "cart_items", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}

// FindItem looks up the (cart, product) row, locking it inside a transaction
// so a concurrent add cannot race past the existence check.
func (s *CartStore) FindItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error) {
	start := time.Now()
	query := "SELECT id, cart_id, product_id, quantity FROM cart_items WHERE cart_id = ? AND product_id = ?"
	if s.store.inTx(ctx) {
		query += " FOR UPDATE"
	}
	var item models.CartItem
	err := s.store.q(ctx).QueryRowContext(ctx, query, cartID, productID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity)
	s.store.record(ctx, "SELECT", "cart_items", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart item: %w", err)
	}
	return &item, nil
}

func (s *CartStore) CreateItem(ctx context.Context, item *models.CartItem) error {
	start := time.Now()
	query := "INSERT INTO cart_items (cart_id, product_id, quantity) VALUES (?, ?, ?)"
	result, err := s.store.q(ctx).ExecContext(ctx, query, item.CartID, item.ProductID, item.Quantity)
	s.store.record(ctx, "INSERT", "cart_items", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get cart item ID: %w", err)
	}
	item.ID = id
	return nil
}

func (s *CartStore) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	start := time.Now()
	query := "UPDATE cart_items SET quantity = ? WHERE id = ?"
	_, err := s.store.q(ctx).ExecContext(ctx, query, quantity, itemID)
	s.store.record(ctx, "UPDATE", "cart_items", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

func (s *CartStore) DeleteItem(ctx context.Context, itemID int64) error {
	start := time.Now()
	query := "DELETE FROM cart_items WHERE id = ?"
	result, err := s.store.q(ctx).ExecContext(ctx, query, itemID)
	s.store.record(ctx, "DELETE", "cart_items", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartStore) ClearItems(ctx context.Context, cartID int64) error {
	start := time.Now()
	query := "DELETE FROM cart_items WHERE cart_id = ?"
	_, err := s.store.q(ctx).ExecContext(ctx, query, cartID)
	s.store.record(ctx, "DELETE", "cart_items", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return nil
}
