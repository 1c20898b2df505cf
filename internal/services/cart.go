package services

import (
	"context"
	"errors"
	"time"

	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CartService handles shopping cart workflows. Every mutation runs inside a
// transaction that also stamps the cart's updated_at, and the item existence
// check holds a row lock so concurrent adds for the same (user, product)
// increment one row instead of inserting two.
type CartService struct {
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	tx       repository.TxManager
	metrics  *metrics.AppMetrics
}

// NewCartService creates a new cart service
func NewCartService(
	users repository.UserRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	tx repository.TxManager,
	m *metrics.AppMetrics,
) *CartService {
	return &CartService{users: users, products: products, carts: carts, tx: tx, metrics: m}
}

// GetOrCreateCart returns the user's cart with items and a computed total,
// creating an empty cart when the user exists but has none. Returns
// repository.ErrNotFound when the user does not exist. The creation side
// effect is deliberate and part of the contract.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID int64) (*models.CartView, error) {
	var view *models.CartView
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		items, err := s.carts.ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		var total float64
		for _, item := range items {
			total += item.UnitPrice * float64(item.Quantity)
		}
		view = &models.CartView{Cart: cart, Items: items, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	cart = &models.Cart{UserID: userID}
	if err := s.carts.Create(ctx, cart); err != nil {
		// a concurrent request created the cart first; use theirs
		if errors.Is(err, repository.ErrDuplicate) {
			return s.carts.GetByUserID(ctx, userID)
		}
		return nil, err
	}
	return cart, nil
}

// AddToCart adds a product to the user's cart, creating the cart when
// absent and incrementing the quantity when the item already exists.
func (s *CartService) AddToCart(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return validationErrorf("quantity must be positive")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationErrorf("user or product not found")
		}
		return err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationErrorf("user or product not found")
		}
		return err
	}

	var cartID int64
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID

		item, err := s.carts.FindItem(ctx, cart.ID, productID)
		switch {
		case err == nil:
			if err := s.carts.UpdateItemQuantity(ctx, item.ID, item.Quantity+quantity); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			newItem := &models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: quantity}
			if err := s.carts.CreateItem(ctx, newItem); err != nil {
				return err
			}
		default:
			return err
		}
		return s.carts.Touch(ctx, cart.ID, time.Now())
	})
	if err != nil {
		return err
	}

	s.recordItemCount(ctx, userID, cartID)
	return nil
}

// UpdateItem overwrites a cart item's quantity; a quantity of zero or below
// removes the item entirely.
func (s *CartService) UpdateItem(ctx context.Context, itemID int64, quantity int) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := s.carts.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			if err := s.carts.DeleteItem(ctx, itemID); err != nil {
				return err
			}
		} else {
			if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
				return err
			}
		}
		return s.carts.Touch(ctx, item.CartID, time.Now())
	})
}

// RemoveItem deletes a cart item by id
func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		item, err := s.carts.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if err := s.carts.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, item.CartID, time.Now())
	})
}

// ClearCart removes every item from the user's cart. Returns
// repository.ErrNotFound when the user has no cart.
func (s *CartService) ClearCart(ctx context.Context, userID int64) error {
	var cartID int64
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		cartID = cart.ID
		if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, cart.ID, time.Now())
	})
	if err != nil {
		return err
	}

	s.recordItemCount(ctx, userID, cartID)
	return nil
}

func (s *CartService) recordItemCount(ctx context.Context, userID, cartID int64) {
	if s.metrics == nil {
		return
	}
	items, err := s.carts.ListItems(ctx, cartID)
	if err != nil {
		return
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("user_id", userID),
	})
	s.metrics.CartItemsCount.Record(ctx, int64(count), metric.WithAttributes(attrs...))

	if active, err := s.carts.CountWithItems(ctx); err == nil {
		s.metrics.ActiveCarts.Record(ctx, active, metric.WithAttributes(s.metrics.WithServiceName(nil)...))
	}
}
