package repository

import (
	"context"
	"errors"
	"time"

	"github.com/techmarket/marketplace-api/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint,
// such as two concurrent first-time cart creations for the same user.
var ErrDuplicate = errors.New("duplicate entry")

// UserRepository provides access to user accounts
type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository provides access to product categories
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
}

// ProductRepository provides access to product listings.
// GetByIDForUpdate must lock the row against concurrent writers when called
// inside a transaction; outside one it behaves like GetByID.
type ProductRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Product, error)
	Search(ctx context.Context, keyword string) ([]models.Product, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]models.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Deactivate(ctx context.Context, id int64) error
}

// CartRepository provides access to carts and their items. FindItem locks
// the matching row when called inside a transaction so concurrent adds for
// the same (cart, product) pair serialize instead of double-inserting.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	CountWithItems(ctx context.Context) (int64, error)
	Touch(ctx context.Context, cartID int64, at time.Time) error
	ListItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetItem(ctx context.Context, itemID int64) (*models.CartItem, error)
	FindItem(ctx context.Context, cartID, productID int64) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}

// OrderRepository provides access to orders. Create persists the order and
// all of its items; GetByID and the listings return orders with items
// populated.
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, at time.Time) error
}

// TxManager runs fn inside a transaction. Repository methods called with the
// ctx passed to fn join that transaction; any error rolls it back entirely.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
