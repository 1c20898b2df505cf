package api

import (
	"net/http"

	"github.com/techmarket/marketplace-api/internal/models"
)

// ListOrdersHandler handles GET /api/orders
func (a *App) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := a.orderService.ListOrders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrderHandler handles GET /api/orders/{id}
func (a *App) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	order, err := a.orderService.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListOrdersByUserHandler handles GET /api/orders/user/{userId}
func (a *App) ListOrdersByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	orders, err := a.orderService.ListUserOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// ListOrdersBySellerHandler handles GET /api/orders/seller/{sellerId}
func (a *App) ListOrdersBySellerHandler(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(r, "sellerId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid seller ID")
		return
	}
	orders, err := a.orderService.ListSellerOrders(r.Context(), sellerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// CreateOrderHandler handles POST /api/orders
func (a *App) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.orderService.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// UpdateOrderStatusHandler handles PUT /api/orders/{id}/status
func (a *App) UpdateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order ID")
		return
	}
	var req models.UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	order, err := a.orderService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
