package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
)

func TestGetOrCreateCartProvisionsEmptyCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	buyer := env.seedUser(t, models.UserTypeBuyer)

	view, err := env.cartService.GetOrCreateCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if view.Cart.UserID != buyer {
		t.Errorf("cart user = %d, want %d", view.Cart.UserID, buyer)
	}
	if len(view.Items) != 0 || view.Total != 0 {
		t.Errorf("new cart has items=%d total=%.2f, want empty", len(view.Items), view.Total)
	}

	// a second lookup returns the same cart, not another one
	again, err := env.cartService.GetOrCreateCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if again.Cart.ID != view.Cart.ID {
		t.Errorf("second lookup cart = %d, want %d", again.Cart.ID, view.Cart.ID)
	}
}

func TestGetOrCreateCartUnknownUser(t *testing.T) {
	env := newTestEnv()

	_, err := env.cartService.GetOrCreateCart(context.Background(), 9999)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAddToCartTwiceIncrementsOneItem(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	productID := env.seedProduct(t, seller, 20, 10)

	if err := env.cartService.AddToCart(ctx, buyer, productID, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := env.cartService.AddToCart(ctx, buyer, productID, 3); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}

	view, err := env.cartService.GetOrCreateCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", view.Items[0].Quantity)
	}
	if view.Total != 100 {
		t.Errorf("total = %.2f, want 100", view.Total)
	}
}

func TestAddToCartUnknownUserOrProduct(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	productID := env.seedProduct(t, seller, 20, 10)

	var ve *ValidationError
	if err := env.cartService.AddToCart(ctx, 9999, productID, 1); !errors.As(err, &ve) {
		t.Errorf("unknown user: err = %v, want ValidationError", err)
	}
	if err := env.cartService.AddToCart(ctx, buyer, 9999, 1); !errors.As(err, &ve) {
		t.Errorf("unknown product: err = %v, want ValidationError", err)
	}
	if err := env.cartService.AddToCart(ctx, buyer, productID, 0); !errors.As(err, &ve) {
		t.Errorf("zero quantity: err = %v, want ValidationError", err)
	}
}

// staleCarts misses the first cart lookup even when the cart exists,
// reproducing the window where two first-time adds for the same user both
// observe no cart and both try to create one.
type staleCarts struct {
	repository.CartRepository
	missed bool
}

func (s *staleCarts) GetByUserID(ctx context.Context, userID int64) (*models.Cart, error) {
	if !s.missed {
		s.missed = true
		return nil, repository.ErrNotFound
	}
	return s.CartRepository.GetByUserID(ctx, userID)
}

func TestAddToCartRecoversFromConcurrentCartCreation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	productID := env.seedProduct(t, seller, 20, 10)

	// the competing request already created the user's cart
	existing := &models.Cart{UserID: buyer}
	if err := env.carts.Create(ctx, existing); err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if err := env.carts.Create(ctx, &models.Cart{UserID: buyer}); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("second create: err = %v, want ErrDuplicate", err)
	}

	svc := NewCartService(env.users, env.products,
		&staleCarts{CartRepository: env.carts}, repository.NewMemoryTx(env.store), nil)
	if err := svc.AddToCart(ctx, buyer, productID, 1); err != nil {
		t.Fatalf("AddToCart after lost race: %v", err)
	}

	view, err := env.cartService.GetOrCreateCart(ctx, buyer)
	if err != nil {
		t.Fatalf("GetOrCreateCart: %v", err)
	}
	if view.Cart.ID != existing.ID {
		t.Errorf("cart = %d, want the existing cart %d", view.Cart.ID, existing.ID)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 1 {
		t.Errorf("items = %+v, want one item with quantity 1", view.Items)
	}
}

func TestUpdateItemZeroQuantityRemoves(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	productID := env.seedProduct(t, seller, 20, 10)

	if err := env.cartService.AddToCart(ctx, buyer, productID, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	view, _ := env.cartService.GetOrCreateCart(ctx, buyer)
	itemID := view.Items[0].ID

	if err := env.cartService.UpdateItem(ctx, itemID, 4); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	view, _ = env.cartService.GetOrCreateCart(ctx, buyer)
	if view.Items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", view.Items[0].Quantity)
	}

	if err := env.cartService.UpdateItem(ctx, itemID, 0); err != nil {
		t.Fatalf("UpdateItem(0): %v", err)
	}
	view, _ = env.cartService.GetOrCreateCart(ctx, buyer)
	if len(view.Items) != 0 {
		t.Errorf("items = %d, want 0 after zero-quantity update", len(view.Items))
	}

	if err := env.cartService.UpdateItem(ctx, itemID, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("updating removed item: err = %v, want ErrNotFound", err)
	}
}

func TestClearCartEmptiesItemsAndTouchesCart(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	first := env.seedProduct(t, seller, 20, 10)
	second := env.seedProduct(t, seller, 30, 10)

	if err := env.cartService.AddToCart(ctx, buyer, first, 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := env.cartService.AddToCart(ctx, buyer, second, 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	before, _ := env.cartService.GetOrCreateCart(ctx, buyer)

	time.Sleep(5 * time.Millisecond)
	if err := env.cartService.ClearCart(ctx, buyer); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}

	after, _ := env.cartService.GetOrCreateCart(ctx, buyer)
	if len(after.Items) != 0 || after.Total != 0 {
		t.Errorf("cleared cart has items=%d total=%.2f", len(after.Items), after.Total)
	}
	if !after.Cart.UpdatedAt.After(before.Cart.UpdatedAt) {
		t.Errorf("updated_at not bumped: before=%v after=%v", before.Cart.UpdatedAt, after.Cart.UpdatedAt)
	}
}

func TestClearCartWithoutCart(t *testing.T) {
	env := newTestEnv()
	buyer := env.seedUser(t, models.UserTypeBuyer)

	err := env.cartService.ClearCart(context.Background(), buyer)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound when no cart exists", err)
	}
}

func TestRemoveItem(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	seller := env.seedUser(t, models.UserTypeSeller)
	buyer := env.seedUser(t, models.UserTypeBuyer)
	productID := env.seedProduct(t, seller, 20, 10)

	if err := env.cartService.AddToCart(ctx, buyer, productID, 2); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	view, _ := env.cartService.GetOrCreateCart(ctx, buyer)

	if err := env.cartService.RemoveItem(ctx, view.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	view, _ = env.cartService.GetOrCreateCart(ctx, buyer)
	if len(view.Items) != 0 {
		t.Errorf("items = %d, want 0", len(view.Items))
	}

	if err := env.cartService.RemoveItem(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
