package services_test

import (
	"context"
	"fmt"
	"testing"

	"shop/internal/models"
	"shop/internal/repositories"
	"shop/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100, Category: "Audio"},
		{ID: "2", Name: "Product B", Price: decimal.NewFromInt(20), Stock: 50, Category: "Audio"},
	}
	filter := models.ProductFilter{Category: "Audio"}

	mockRepo.On("GetAll", ctx, filter).Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: decimal.NewFromInt(10), Stock: 100}

	// Test successful retrieval
	mockRepo.On("GetByID", ctx, "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID(ctx, "1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)

	// Test product not found
	mockRepo.On("GetByID", ctx, "99").Return(nil, fmt.Errorf("product with ID 99 not found: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID(ctx, "99")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Nil(t, product)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	patch := models.ProductPatch{Name: ptr("New Product"), Price: ptr(decimal.NewFromInt(50)), Stock: ptr(20)}

	// Test successful creation
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "New Product" && p.Stock == 20 && p.Price.Equal(decimal.NewFromInt(50))
	})).Return(nil).Once()
	product, err := service.CreateProduct(ctx, patch)
	require.NoError(t, err)
	assert.Equal(t, "New Product", product.Name)

	// Test creation failure (e.g., database error)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Product")).Return(fmt.Errorf("database error")).Once()
	_, err = service.CreateProduct(ctx, patch)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)

	// Negative values never reach the repository.
	_, err = service.CreateProduct(ctx, models.ProductPatch{Price: ptr(decimal.NewFromInt(-1))})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = service.CreateProduct(ctx, models.ProductPatch{Stock: ptr(-5)})
	assert.ErrorIs(t, err, services.ErrValidation)
	// Prices are stored with two decimal places.
	_, err = service.CreateProduct(ctx, models.ProductPatch{Price: ptr(decimal.RequireFromString("10.005"))})
	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertNumberOfCalls(t, "Create", 2)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Price.Equal(decimal.RequireFromString("10.5"))
	})).Return(nil).Once()
	_, err = service.CreateProduct(ctx, models.ProductPatch{Price: ptr(decimal.RequireFromString("10.500"))})
	assert.NoError(t, err)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	stored := &models.Product{ID: "1", Name: "Product A", Description: "keep me", Price: decimal.NewFromInt(10), Stock: 95}

	// The patch goes to the repository as is.
	patch := models.ProductPatch{Stock: ptr(95)}
	mockRepo.On("Update", ctx, "1", patch).Return(stored, nil).Once()
	updated, err := service.UpdateProduct(ctx, "1", patch)
	require.NoError(t, err)
	assert.Equal(t, 95, updated.Stock)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(10)))

	// Test update failure (product not found in repo)
	missing := models.ProductPatch{Name: ptr("x")}
	mockRepo.On("Update", ctx, "99", missing).Return(nil, fmt.Errorf("product with ID 99 not found for update: %w", repositories.ErrNotFound)).Once()
	_, err = service.UpdateProduct(ctx, "99", missing)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = service.UpdateProduct(ctx, "1", models.ProductPatch{Price: ptr(decimal.RequireFromString("10.005"))})
	assert.ErrorIs(t, err, services.ErrValidation)
	mockRepo.AssertExpectations(t)
}

// stockRacingRepo lets a checkout commit between the caller deciding to update and the write.
type stockRacingRepo struct {
	repositories.ProductRepository
	sold int
}

func (r *stockRacingRepo) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := r.ProductRepository.DecrementStock(ctx, id, r.sold); err != nil {
		return nil, err
	}
	return r.ProductRepository.Update(ctx, id, patch)
}

func TestProductService_UpdateProductKeepsConcurrentStockChanges(t *testing.T) {
	ctx := context.Background()
	memory := repositories.NewMockProductRepository()
	p := &models.Product{Name: "Mouse", Price: decimal.NewFromInt(25), Stock: 5}
	require.NoError(t, memory.Create(ctx, p))

	service := services.NewProductService(&stockRacingRepo{ProductRepository: memory, sold: 3})
	updated, err := service.UpdateProduct(ctx, p.ID, models.ProductPatch{Name: ptr("Wireless Mouse")})
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", updated.Name)
	assert.Equal(t, 2, updated.Stock)

	got, err := memory.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Stock)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)
	ctx := context.Background()

	// Test successful deletion
	mockRepo.On("Delete", ctx, "1").Return(nil).Once()
	err := service.DeleteProduct(ctx, "1")
	assert.NoError(t, err)

	// Test deletion failure (e.g., product not found)
	mockRepo.On("Delete", ctx, "99").Return(fmt.Errorf("product with ID 99 not found for deletion: %w", repositories.ErrNotFound)).Once()
	err = service.DeleteProduct(ctx, "99")
	assert.ErrorIs(t, err, services.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
