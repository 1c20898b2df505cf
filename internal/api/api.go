package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/middleware"
	"github.com/techmarket/marketplace-api/internal/repository"
	"github.com/techmarket/marketplace-api/internal/services"
)

// App holds the HTTP handler dependencies
type App struct {
	metrics         *metrics.AppMetrics
	userService     *services.UserService
	categoryService *services.CategoryService
	productService  *services.ProductService
	cartService     *services.CartService
	orderService    *services.OrderService
}

// NewApp creates a new application instance
func NewApp(
	m *metrics.AppMetrics,
	us *services.UserService,
	cs *services.CategoryService,
	ps *services.ProductService,
	carts *services.CartService,
	os *services.OrderService,
) *App {
	return &App{
		metrics:         m,
		userService:     us,
		categoryService: cs,
		productService:  ps,
		cartService:     carts,
		orderService:    os,
	}
}

// SetupRoutes configures the HTTP routes
func (a *App) SetupRoutes(r *mux.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS)
	r.Use(middleware.Recover)
	if a.metrics != nil {
		r.Use(middleware.Metrics(a.metrics))
	}

	api := r.PathPrefix("/api").Subrouter()

	// Users
	api.HandleFunc("/users", a.ListUsersHandler).Methods("GET")
	api.HandleFunc("/users", a.RegisterUserHandler).Methods("POST")
	api.HandleFunc("/users/login", a.LoginHandler).Methods("POST")
	api.HandleFunc("/users/{id:[0-9]+}", a.GetUserHandler).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}", a.UpdateUserHandler).Methods("PUT")
	api.HandleFunc("/users/{id:[0-9]+}", a.DeleteUserHandler).Methods("DELETE")

	// Categories
	api.HandleFunc("/categories", a.ListCategoriesHandler).Methods("GET")
	api.HandleFunc("/categories", a.CreateCategoryHandler).Methods("POST")
	api.HandleFunc("/categories/{id:[0-9]+}", a.GetCategoryHandler).Methods("GET")

	// Products
	api.HandleFunc("/products", a.ListProductsHandler).Methods("GET")
	api.HandleFunc("/products", a.CreateProductHandler).Methods("POST")
	api.HandleFunc("/products/search", a.SearchProductsHandler).Methods("GET")
	api.HandleFunc("/products/category/{categoryId:[0-9]+}", a.ListProductsByCategoryHandler).Methods("GET")
	api.HandleFunc("/products/seller/{sellerId:[0-9]+}", a.ListProductsBySellerHandler).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", a.GetProductHandler).Methods("GET")
	api.HandleFunc("/products/{id:[0-9]+}", a.UpdateProductHandler).Methods("PUT")
	api.HandleFunc("/products/{id:[0-9]+}", a.DeleteProductHandler).Methods("DELETE")

	// Cart
	api.HandleFunc("/cart/user/{userId:[0-9]+}", a.GetCartHandler).Methods("GET")
	api.HandleFunc("/cart/add", a.AddToCartHandler).Methods("POST")
	api.HandleFunc("/cart/update", a.UpdateCartItemHandler).Methods("PUT")
	api.HandleFunc("/cart/item/{cartItemId:[0-9]+}", a.RemoveCartItemHandler).Methods("DELETE")
	api.HandleFunc("/cart/clear/{userId:[0-9]+}", a.ClearCartHandler).Methods("DELETE")

	// Orders
	api.HandleFunc("/orders", a.ListOrdersHandler).Methods("GET")
	api.HandleFunc("/orders", a.CreateOrderHandler).Methods("POST")
	api.HandleFunc("/orders/user/{userId:[0-9]+}", a.ListOrdersByUserHandler).Methods("GET")
	api.HandleFunc("/orders/seller/{sellerId:[0-9]+}", a.ListOrdersBySellerHandler).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}", a.GetOrderHandler).Methods("GET")
	api.HandleFunc("/orders/{id:[0-9]+}/status", a.UpdateOrderStatusHandler).Methods("PUT")

	// Health
	r.HandleFunc("/health", a.HealthHandler).Methods("GET")
}

// HealthHandler handles health check requests
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// writeServiceError maps the service error taxonomy to HTTP statuses:
// missing entity to 404, validation and illegal transitions to 400, bad
// credentials to 401. Anything else is a generic 500 with the cause logged
// server-side only.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *services.ValidationError
	var te *services.InvalidTransitionError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &te):
		respondError(w, http.StatusBadRequest, te.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		log.Printf("[ERROR] %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
