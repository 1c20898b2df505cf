package api

import (
	"net/http"

	"github.com/techmarket/marketplace-api/internal/models"
)

// GetCartHandler handles GET /api/cart/user/{userId}. The lookup provisions
// an empty cart when the user exists but has none yet; a missing user is a
// plain 404.
func (a *App) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	cart, err := a.cartService.GetOrCreateCart(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

// AddToCartHandler handles POST /api/cart/add
func (a *App) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.cartService.AddToCart(r.Context(), req.UserID, req.ProductID, req.Quantity); err != nil {
		writeServiceError(w, err)
		return
	}
	respondMessage(w, "product added to cart")
}

// UpdateCartItemHandler handles PUT /api/cart/update; a quantity of zero or
// below removes the item.
func (a *App) UpdateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.cartService.UpdateItem(r.Context(), req.CartItemID, req.Quantity); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Quantity <= 0 {
		respondMessage(w, "product removed from cart")
		return
	}
	respondMessage(w, "cart updated")
}

// RemoveCartItemHandler handles DELETE /api/cart/item/{cartItemId}
func (a *App) RemoveCartItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "cartItemId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid cart item ID")
		return
	}
	if err := a.cartService.RemoveItem(r.Context(), itemID); err != nil {
		writeServiceError(w, err)
		return
	}
	respondMessage(w, "product removed from cart")
}

// ClearCartHandler handles DELETE /api/cart/clear/{userId}
func (a *App) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	if err := a.cartService.ClearCart(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	respondMessage(w, "cart cleared")
}
