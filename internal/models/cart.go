package models

import "time"

// CartItem is one product line of a cart. At most one item per product.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_cart_product"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);uniqueIndex:idx_cart_product"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int       `json:"qty"`
	CreatedAt time.Time `json:"-"`
}

// Cart is the pre-purchase collection owned by exactly one user.
type Cart struct {
	ID        string     `json:"id,omitempty" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id,omitempty" gorm:"type:varchar(36);uniqueIndex"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Find returns the index of the item for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}
