package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop/internal/models"

	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database, oldest first.
func (r *GORMProductRepository) GetAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products := []models.Product{}
	q := conn(ctx, r.db).Order("created_at").Order("name")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := conn(ctx, r.db).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update sets the patched columns only, so a concurrent stock decrement is never overwritten.
func (r *GORMProductRepository) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now()
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(cols)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("product with ID %s not found for update: %w", id, ErrNotFound)
	}
	return r.GetByID(ctx, id)
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementStock lowers the stock of a product in a single conditional UPDATE.
func (r *GORMProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	db := conn(ctx, r.db)
	res := db.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumns(map[string]any{
			"stock":      gorm.Expr("stock - ?", qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for product %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("product with ID %s not found: %w", id, ErrNotFound)
	}
	return fmt.Errorf("product %s cannot cover quantity %d: %w", id, qty, ErrInsufficientStock)
}
