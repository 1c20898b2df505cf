package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
)

// testEnv wires the services over the in-memory store with metrics disabled.
type testEnv struct {
	store      *repository.MemoryStore
	users      *repository.MemoryUsers
	categories *repository.MemoryCategories
	products   *repository.MemoryProducts
	carts      *repository.MemoryCarts
	orders     *repository.MemoryOrders

	userService     *UserService
	categoryService *CategoryService
	productService  *ProductService
	cartService     *CartService
	orderService    *OrderService
}

func newTestEnv() *testEnv {
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	categories := repository.NewMemoryCategories(store)
	products := repository.NewMemoryProducts(store)
	carts := repository.NewMemoryCarts(store)
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)

	return &testEnv{
		store:           store,
		users:           users,
		categories:      categories,
		products:        products,
		carts:           carts,
		orders:          orders,
		userService:     NewUserService(users, nil),
		categoryService: NewCategoryService(categories),
		productService:  NewProductService(products, users, categories, nil),
		cartService:     NewCartService(users, products, carts, tx, nil),
		orderService:    NewOrderService(users, products, orders, tx, nil),
	}
}

func (e *testEnv) seedCategory(t *testing.T) int64 {
	t.Helper()
	c := &models.Category{Name: "Electronics"}
	if err := e.categories.Create(context.Background(), c); err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return c.ID
}

func (e *testEnv) seedUser(t *testing.T, userType models.UserType) int64 {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", len(mustList(t, e.users))+1),
		PasswordHash: "unused",
		FirstName:    "Test",
		UserType:     userType,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func (e *testEnv) seedProduct(t *testing.T, sellerID int64, price float64, stock int) int64 {
	t.Helper()
	p := &models.Product{
		SellerID:   sellerID,
		CategoryID: 1,
		Name:       "Widget",
		Price:      price,
		Stock:      stock,
		IsActive:   true,
	}
	if err := e.products.Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p.ID
}

func mustList(t *testing.T, users *repository.MemoryUsers) []models.User {
	t.Helper()
	out, err := users.List(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }
