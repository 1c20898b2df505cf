package api

import (
	"net/http"

	"github.com/techmarket/marketplace-api/internal/models"
)

// ListProductsHandler handles GET /api/products
func (a *App) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := a.productService.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GetProductHandler handles GET /api/products/{id}
func (a *App) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	product, err := a.productService.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// SearchProductsHandler handles GET /api/products/search?keyword=
func (a *App) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	products, err := a.productService.SearchProducts(r.Context(), keyword)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// ListProductsByCategoryHandler handles GET /api/products/category/{categoryId}
func (a *App) ListProductsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "categoryId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	products, err := a.productService.ListByCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// ListProductsBySellerHandler handles GET /api/products/seller/{sellerId}
func (a *App) ListProductsBySellerHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "sellerId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid seller ID")
		return
	}
	products, err := a.productService.ListBySeller(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// CreateProductHandler handles POST /api/products
func (a *App) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := a.productService.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// UpdateProductHandler handles PUT /api/products/{id}
func (a *App) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	var req models.ProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	product, err := a.productService.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DeleteProductHandler handles DELETE /api/products/{id}; the listing is
// deactivated, not removed.
func (a *App) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	if err := a.productService.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategoriesHandler handles GET /api/categories
func (a *App) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categoryService.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// GetCategoryHandler handles GET /api/categories/{id}
func (a *App) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category ID")
		return
	}
	category, err := a.categoryService.GetCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// CreateCategoryHandler handles POST /api/categories
func (a *App) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req models.Category
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	category, err := a.categoryService.CreateCategory(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}
