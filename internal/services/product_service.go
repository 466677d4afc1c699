package services

import (
	"context"
	"fmt"

	"shop/internal/models"
	"shop/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// GetAllProducts retrieves the catalog, optionally narrowed by category.
func (s *ProductService) GetAllProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.repo.GetAll(ctx, filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct creates a product from whatever fields are supplied.
func (s *ProductService) CreateProduct(ctx context.Context, patch models.ProductPatch) (*models.Product, error) {
	if err := checkPatch(patch); err != nil {
		return nil, err
	}
	product := &models.Product{}
	patch.Apply(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct changes only the supplied fields of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := checkPatch(patch); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

// DeleteProduct deletes a product by its ID. Carts and orders referencing it are left alone.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func checkPatch(patch models.ProductPatch) error {
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return fmt.Errorf("price must not be negative: %w", ErrValidation)
		}
		if !patch.Price.Equal(patch.Price.Round(2)) {
			return fmt.Errorf("price must have at most two decimal places: %w", ErrValidation)
		}
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		return fmt.Errorf("stock must not be negative: %w", ErrValidation)
	}
	return nil
}
