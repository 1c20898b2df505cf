package services

import (
	"context"
	"strings"

	"github.com/techmarket/marketplace-api/internal/models"
	"github.com/techmarket/marketplace-api/internal/repository"
)

// CategoryService handles the static product classification
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService creates a new category service
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) CreateCategory(ctx context.Context, c models.Category) (*models.Category, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, validationErrorf("category name is required")
	}
	if err := s.categories.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
