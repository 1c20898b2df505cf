package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
	"github.com/techmarket/marketplace-api/internal/services"
)

func newTestRouter() *mux.Router {
	store := repository.NewMemoryStore()
	users := repository.NewMemoryUsers(store)
	categories := repository.NewMemoryCategories(store)
	products := repository.NewMemoryProducts(store)
	carts := repository.NewMemoryCarts(store)
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)

	app := NewApp(nil,
		services.NewUserService(users, nil),
		services.NewCategoryService(categories),
		services.NewProductService(products, users, categories, nil),
		services.NewCartService(users, products, carts, tx, nil),
		services.NewOrderService(users, products, orders, tx, nil),
	)

	router := mux.NewRouter()
	app.SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// registerUser creates an account through the API and returns its id
func registerUser(t *testing.T, router *mux.Router, email string, userType models.UserType) int64 {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/users", models.RegisterUserRequest{
		Email:    email,
		Password: "pw",
		UserType: userType,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d: %s", email, rec.Code, rec.Body.String())
	}
	var user models.User
	decodeBody(t, rec, &user)
	return user.ID
}

func createProduct(t *testing.T, router *mux.Router, sellerID, categoryID int64, price float64, stock int) int64 {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/products", models.ProductRequest{
		SellerID:   sellerID,
		CategoryID: categoryID,
		Name:       "Widget",
		Price:      price,
		Stock:      stock,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create product: status %d: %s", rec.Code, rec.Body.String())
	}
	var p models.Product
	decodeBody(t, rec, &p)
	return p.ID
}

func createCategory(t *testing.T, router *mux.Router) int64 {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/categories", models.Category{Name: "Electronics"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create category: status %d: %s", rec.Code, rec.Body.String())
	}
	var c models.Category
	decodeBody(t, rec, &c)
	return c.ID
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestRegisterHidesPasswordHash(t *testing.T) {
	router := newTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/api/users", models.RegisterUserRequest{
		Email:    "alice@example.com",
		Password: "s3cret",
		UserType: models.UserTypeBuyer,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if bytes.Contains([]byte(body), []byte("s3cret")) || bytes.Contains([]byte(body), []byte("passwordHash")) {
		t.Errorf("response leaks credentials: %s", body)
	}
}

func TestLoginStatusCodes(t *testing.T) {
	router := newTestRouter()
	registerUser(t, router, "alice@example.com", models.UserTypeBuyer)

	rec := doJSON(t, router, http.MethodPost, "/api/users/login", models.LoginRequest{Email: "alice@example.com", Password: "pw"})
	if rec.Code != http.StatusOK {
		t.Errorf("valid login: status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/users/login", models.LoginRequest{Email: "alice@example.com", Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}
}

func TestGetMissingResourcesReturn404(t *testing.T) {
	router := newTestRouter()
	for _, path := range []string{
		"/api/users/42",
		"/api/products/42",
		"/api/categories/42",
		"/api/orders/42",
		"/api/cart/user/42",
	} {
		rec := doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want 404", path, rec.Code)
		}
	}
}

func TestOrderPlacementFlow(t *testing.T) {
	router := newTestRouter()
	seller := registerUser(t, router, "seller@example.com", models.UserTypeSeller)
	buyer := registerUser(t, router, "buyer@example.com", models.UserTypeBuyer)
	category := createCategory(t, router)
	productID := createProduct(t, router, seller, category, 50, 10)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", models.CreateOrderRequest{
		UserID:          buyer,
		TotalAmount:     floatPtr(100),
		ShippingAddress: "1 Main St",
		Items:           []models.OrderItemRequest{{ProductID: productID, Quantity: 2}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create order: status = %d: %s", rec.Code, rec.Body.String())
	}
	var order models.Order
	decodeBody(t, rec, &order)
	if order.TotalAmount != 100 {
		t.Errorf("total = %.2f, want 100", order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].Subtotal != 100 {
		t.Errorf("items = %+v, want one line with subtotal 100", order.Items)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}

	// stock visible through the API reflects the decrement
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil)
	var p models.Product
	decodeBody(t, rec, &p)
	if p.Stock != 8 {
		t.Errorf("stock = %d, want 8", p.Stock)
	}

	// the order shows up for both the buyer and the seller
	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/orders/user/%d", buyer), nil)
	var mine []models.Order
	decodeBody(t, rec, &mine)
	if len(mine) != 1 || mine[0].ID != order.ID {
		t.Errorf("buyer orders = %+v, want the placed order", mine)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/orders/seller/%d", seller), nil)
	var sold []models.Order
	decodeBody(t, rec, &sold)
	if len(sold) != 1 || sold[0].ID != order.ID {
		t.Errorf("seller orders = %+v, want the placed order", sold)
	}
}

func TestOrderRejectionsLeaveStockUntouched(t *testing.T) {
	router := newTestRouter()
	seller := registerUser(t, router, "seller@example.com", models.UserTypeSeller)
	buyer := registerUser(t, router, "buyer@example.com", models.UserTypeBuyer)
	category := createCategory(t, router)
	productID := createProduct(t, router, seller, category, 50, 1)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", models.CreateOrderRequest{
		UserID:      buyer,
		TotalAmount: floatPtr(100),
		Items:       []models.OrderItemRequest{{ProductID: productID, Quantity: 2}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversell: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/orders", models.CreateOrderRequest{
		UserID:      buyer,
		TotalAmount: floatPtr(49.99),
		Items:       []models.OrderItemRequest{{ProductID: productID, Quantity: 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("below minimum: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil)
	var p models.Product
	decodeBody(t, rec, &p)
	if p.Stock != 1 {
		t.Errorf("stock = %d, want unchanged 1", p.Stock)
	}
}

func TestOrderStatusEndpoint(t *testing.T) {
	router := newTestRouter()
	seller := registerUser(t, router, "seller@example.com", models.UserTypeSeller)
	buyer := registerUser(t, router, "buyer@example.com", models.UserTypeBuyer)
	category := createCategory(t, router)
	productID := createProduct(t, router, seller, category, 50, 10)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", models.CreateOrderRequest{
		UserID:      buyer,
		TotalAmount: floatPtr(50),
		Items:       []models.OrderItemRequest{{ProductID: productID, Quantity: 1}},
	})
	var order models.Order
	decodeBody(t, rec, &order)

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID),
		models.UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	if rec.Code != http.StatusOK {
		t.Fatalf("legal transition: status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID),
		models.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("illegal transition: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/orders/%d/status", order.ID),
		models.UpdateOrderStatusRequest{Status: "refunded"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status: status = %d, want 400", rec.Code)
	}
}

func TestCartEndpoints(t *testing.T) {
	router := newTestRouter()
	seller := registerUser(t, router, "seller@example.com", models.UserTypeSeller)
	buyer := registerUser(t, router, "buyer@example.com", models.UserTypeBuyer)
	category := createCategory(t, router)
	productID := createProduct(t, router, seller, category, 25, 10)

	rec := doJSON(t, router, http.MethodPost, "/api/cart/add",
		models.AddToCartRequest{UserID: buyer, ProductID: productID, Quantity: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add: status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/api/cart/add",
		models.AddToCartRequest{UserID: buyer, ProductID: productID, Quantity: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("second add: status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/cart/user/%d", buyer), nil)
	var view models.CartView
	decodeBody(t, rec, &view)
	if len(view.Items) != 1 || view.Items[0].Quantity != 3 {
		t.Fatalf("cart = %+v, want one item with quantity 3", view.Items)
	}
	if view.Total != 75 {
		t.Errorf("total = %.2f, want 75", view.Total)
	}

	// zero quantity removes the line and says so
	rec = doJSON(t, router, http.MethodPut, "/api/cart/update",
		models.UpdateCartItemRequest{CartItemID: view.Items[0].ID, Quantity: 0})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d", rec.Code)
	}
	var msg map[string]string
	decodeBody(t, rec, &msg)
	if msg["message"] != "product removed from cart" {
		t.Errorf("message = %q", msg["message"])
	}

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/cart/user/%d", buyer), nil)
	decodeBody(t, rec, &view)
	if len(view.Items) != 0 {
		t.Errorf("items = %d, want 0", len(view.Items))
	}

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/cart/clear/%d", buyer), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("clear: status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/cart/add",
		models.AddToCartRequest{UserID: 9999, ProductID: productID, Quantity: 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown user: status = %d, want 400", rec.Code)
	}
}

func TestProductSearchRoute(t *testing.T) {
	router := newTestRouter()
	seller := registerUser(t, router, "seller@example.com", models.UserTypeSeller)
	category := createCategory(t, router)
	createProduct(t, router, seller, category, 10, 1)

	// /products/search must not be swallowed by the /products/{id} route
	rec := doJSON(t, router, http.MethodGet, "/api/products/search?keyword=widget", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status = %d: %s", rec.Code, rec.Body.String())
	}
	var got []models.Product
	decodeBody(t, rec, &got)
	if len(got) != 1 {
		t.Errorf("matches = %d, want 1", len(got))
	}
}

func floatPtr(f float64) *float64 { return &f }
