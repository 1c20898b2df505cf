package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// OrderStore is the MySQL implementation of OrderRepository
type OrderStore struct {
	store *SQLStore
}

// NewOrderStore creates a MySQL-backed order repository
func NewOrderStore(store *SQLStore) *OrderStore {
	return &OrderStore{store: store}
}

var _ OrderRepository = (*OrderStore)(nil)

const orderColumns = "id, user_id, status, shipping_address, total_amount, created_at, updated_at"

func scanOrder(row interface{ Scan(...any) error }, o *models.Order) error {
	return row.Scan(&o.ID, &o.UserID, &o.Status, &o.ShippingAddress,
		&o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
}

func (s *OrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	start := time.Now()
	rows, err := s.store.q(ctx).QueryContext(ctx, query, args...)
	s.store.record(ctx, "SELECT", "orders", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := s.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *OrderStore) listItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	start := time.Now()
	query := `SELECT id, order_id, product_id, quantity, price_at_purchase, subtotal
		FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := s.store.q(ctx).QueryContext(ctx, query, orderID)
	s.store.record(ctx, "SELECT", "order_items", query, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.PriceAtPurchase, &item.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *OrderStore) List(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC, id DESC")
}

func (s *OrderStore) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	start := time.Now()
	query := "SELECT " + orderColumns + " FROM orders WHERE id = ?"
	var o models.Order
	err := scanOrder(s.store.q(ctx).QueryRowContext(ctx, query, id), &o)
	s.store.record(ctx, "SELECT", "orders", query, start, err)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := s.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.queryOrders(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListBySeller returns the distinct orders containing at least one of the
// seller's products, newest first.
func (s *OrderStore) ListBySeller(ctx context.Context, sellerID int64) ([]models.Order, error) {
	query := `SELECT DISTINCT o.id, o.user_id, o.status, o.shipping_address, o.total_amount, o.created_at, o.updated_at
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN products p ON p.id = oi.product_id
		WHERE p.seller_id = ?
		ORDER BY o.created_at DESC, o.id DESC`
	return s.queryOrders(ctx, query, sellerID)
}

// Create persists the order and its items. Callers are expected to run this
// inside a transaction together with the stock decrements.
func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	start := time.Now()
	now := start.Truncate(time.Millisecond)
	query := "INSERT INTO orders (user_id, status, shipping_address, total_amount, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := s.store.q(ctx).ExecContext(ctx, query,
		o.UserID, o.Status, o.ShippingAddress, o.TotalAmount, now, now)
	s.store.record(ctx, "INSERT", "orders", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order ID: %w", err)
	}
	o.ID = orderID
	o.CreatedAt = now
	o.UpdatedAt = now

	itemQuery := `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase, subtotal)
		VALUES (?, ?, ?, ?, ?)`
	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = orderID
		start = time.Now()
		res, err := s.store.q(ctx).ExecContext(ctx, itemQuery,
			orderID, item.ProductID, item.Quantity, item.PriceAtPurchase, item.Subtotal)
		s.store.record(ctx, "INSERT", "order_items", itemQuery, start, err)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			item.ID = id
		}
	}
	return nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, at time.Time) error {
	start := time.Now()
	query := "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?"
	result, err := s.store.q(ctx).ExecContext(ctx, query, status, at, id)
	s.store.record(ctx, "UPDATE", "orders", query, start, err)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
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
