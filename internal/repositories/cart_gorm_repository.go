package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// GetByUserID loads the user's cart with its items and their products.
// Inside a transaction the cart row stays locked until it ends, so two checkouts
// of one cart run one after the other.
func (r *GORMCartRepository) GetByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := connForUpdate(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Preload("Items.Product").
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for user %s: %w", userID, err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Create stores a new cart together with its initial items.
func (r *GORMCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(cart).Error; err != nil {
			return err
		}
		for i := range cart.Items {
			cart.Items[i].CartID = cart.ID
		}
		if len(cart.Items) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&cart.Items).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("cart for user %s already exists: %w", cart.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// SetItem upserts one product line on (cart_id, product_id).
func (r *GORMCartRepository) SetItem(ctx context.Context, cartID, productID string, qty int) error {
	db := conn(ctx, r.db)
	item := models.CartItem{CartID: cartID, ProductID: productID, Quantity: qty}
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to set product %s in cart %s: %w", productID, cartID, err)
	}
	return r.touch(db, cartID)
}

// RemoveItem deletes one product line. Removing an absent product is not an error.
func (r *GORMCartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	db := conn(ctx, r.db)
	if err := db.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to remove product %s from cart %s: %w", productID, cartID, err)
	}
	return r.touch(db, cartID)
}

// ClearItems empties the cart but keeps the cart row.
func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID string) error {
	db := conn(ctx, r.db)
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return r.touch(db, cartID)
}

func (r *GORMCartRepository) touch(db *gorm.DB, cartID string) error {
	if err := db.Model(&models.Cart{}).Where("id = ?", cartID).UpdateColumn("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("failed to touch cart %s: %w", cartID, err)
	}
	return nil
}
