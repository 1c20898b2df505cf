package services

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MinOrderTotal is the minimum accepted order total, inclusive
const MinOrderTotal = 50.0

// totalTolerance absorbs float rounding when comparing the client-declared
// total against the computed one.
const totalTolerance = 1e-9

// OrderService handles order placement and lifecycle
type OrderService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	metrics  *metrics.AppMetrics
}

// NewOrderService creates a new order service
func NewOrderService(
	users repository.UserRepository,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	tx repository.TxManager,
	m *metrics.AppMetrics,
) *OrderService {
	return &OrderService{users: users, products: products, orders: orders, tx: tx, metrics: m}
}

// ListOrders returns all orders, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

// GetOrder returns an order with its items
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListUserOrders returns a user's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListSellerOrders returns the distinct orders containing any of the
// seller's products, newest first.
func (s *OrderService) ListSellerOrders(ctx context.Context, sellerID int64) ([]models.Order, error) {
	return s.orders.ListBySeller(ctx, sellerID)
}

// CreateOrder places an order. Inside a single transaction every product
// row is locked, its stock checked and decremented, and the order inserted
// with per-item price snapshots; any failure rolls the whole sequence back.
// The server-computed total is authoritative: a client total that disagrees
// is logged and overridden, never reported back as an error.
func (s *OrderService) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, validationErrorf("order must contain at least one item")
	}
	if req.TotalAmount == nil {
		return nil, validationErrorf("total amount is required")
	}
	if *req.TotalAmount < MinOrderTotal {
		return nil, validationErrorf("minimum order total is %.0f", MinOrderTotal)
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("user not found")
		}
		return nil, err
	}

	var order *models.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// read and validate every line item before the first write so a
		// rejected request leaves no partial state behind
		items := make([]models.OrderItem, 0, len(req.Items))
		updated := make([]*models.Product, 0, len(req.Items))
		var computedTotal float64

		for _, line := range req.Items {
			if line.Quantity <= 0 {
				return validationErrorf("quantity must be positive for product %d", line.ProductID)
			}
			p, err := s.products.GetByIDForUpdate(ctx, line.ProductID)
			if errors.Is(err, repository.ErrNotFound) {
				return validationErrorf("product not found: %d", line.ProductID)
			}
			if err != nil {
				return err
			}
			if p.Stock < line.Quantity {
				return validationErrorf("insufficient stock for product %d", p.ID)
			}

			subtotal := p.Price * float64(line.Quantity)
			items = append(items, models.OrderItem{
				ProductID:       p.ID,
				Quantity:        line.Quantity,
				PriceAtPurchase: p.Price,
				Subtotal:        subtotal,
			})
			computedTotal += subtotal

			p.Stock -= line.Quantity
			updated = append(updated, p)
		}

		if math.Abs(computedTotal-*req.TotalAmount) > totalTolerance {
			log.Printf("[ORDER] computed total %.2f does not match client total %.2f, using computed value",
				computedTotal, *req.TotalAmount)
		}

		for _, p := range updated {
			if err := s.products.Update(ctx, p); err != nil {
				return err
			}
		}

		order = &models.Order{
			UserID:          req.UserID,
			Status:          models.OrderStatusPending,
			ShippingAddress: req.ShippingAddress,
			TotalAmount:     computedTotal,
			Items:           items,
		}
		return s.orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ORDER] order created: order_id=%d user_id=%d total=%.2f items=%d",
		order.ID, order.UserID, order.TotalAmount, len(order.Items))
	s.recordOrderMetrics(ctx, order)
	return order, nil
}

// UpdateStatus applies a status transition, rejecting values outside the
// enum and moves not allowed by the transition table.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, validationErrorf("invalid status: %s", status)
	}

	var order *models.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(status) {
			return &InvalidTransitionError{From: o.Status, To: status}
		}
		now := time.Now().Truncate(time.Millisecond)
		if err := s.orders.UpdateStatus(ctx, id, status, now); err != nil {
			return err
		}
		o.Status = status
		o.UpdatedAt = now
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) recordOrderMetrics(ctx context.Context, order *models.Order) {
	if s.metrics == nil {
		return
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.String("order_status", string(order.Status)),
	})
	s.metrics.OrdersCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	s.metrics.RevenueTotal.Add(ctx, order.TotalAmount, metric.WithAttributes(attrs...))

	for _, item := range order.Items {
		if p, err := s.products.GetByID(ctx, item.ProductID); err == nil {
			stockAttrs := s.metrics.WithServiceName([]attribute.KeyValue{
				attribute.Int64("product_id", p.ID),
			})
			s.metrics.StockLevel.Record(ctx, int64(p.Stock), metric.WithAttributes(stockAttrs...))
		}
	}
}
