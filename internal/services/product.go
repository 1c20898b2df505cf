package services

import (
	"context"
	"errors"
	"strings"

	"github.com/techmarket/marketplace-api/internal/metrics"
	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProductService handles product listings
type ProductService struct {
	products   repository.ProductRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	metrics    *metrics.AppMetrics
}

// NewProductService creates a new product service
func NewProductService(
	products repository.ProductRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	m *metrics.AppMetrics,
) *ProductService {
	return &ProductService{products: products, users: users, categories: categories, metrics: m}
}

// ListProducts returns active products only
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.ListActive(ctx)
}

// GetProduct returns a product by id, active or not
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		attrs := s.metrics.WithServiceName([]attribute.KeyValue{
			attribute.Int64("product_id", p.ID),
		})
		s.metrics.ProductsViewed.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	return p, nil
}

// SearchProducts matches keyword against name and description of active
// products, case-insensitively.
func (s *ProductService) SearchProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	return s.products.Search(ctx, keyword)
}

func (s *ProductService) ListByCategory(ctx context.Context, categoryID int64) ([]models.Product, error) {
	return s.products.ListByCategory(ctx, categoryID)
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64) ([]models.Product, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

// CreateProduct validates the owning seller and category before inserting
func (s *ProductService) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationErrorf("product name is required")
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, validationErrorf("price and stock must not be negative")
	}
	if _, err := s.users.GetByID(ctx, req.SellerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("seller not found")
		}
		return nil, err
	}
	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, validationErrorf("category not found")
		}
		return nil, err
	}

	p := &models.Product{
		SellerID:    req.SellerID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		IsActive:    true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	s.recordStockLevel(ctx, p)
	return p, nil
}

// UpdateProduct overwrites the listing fields and stamps updated_at
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req models.ProductRequest) (*models.Product, error) {
	if req.Price < 0 || req.Stock < 0 {
		return nil, validationErrorf("price and stock must not be negative")
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.Stock = req.Stock
	p.ImageURL = req.ImageURL
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.recordStockLevel(ctx, p)
	return p, nil
}

// DeleteProduct soft-deletes the listing
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.Deactivate(ctx, id)
}

func (s *ProductService) recordStockLevel(ctx context.Context, p *models.Product) {
	if s.metrics == nil {
		return
	}
	attrs := s.metrics.WithServiceName([]attribute.KeyValue{
		attribute.Int64("product_id", p.ID),
	})
	s.metrics.StockLevel.Record(ctx, int64(p.Stock), metric.WithAttributes(attrs...))
}
