package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(255)"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	Category    string          `json:"category" gorm:"type:varchar(100);index"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category string
}

// ProductPatch is a free-form set of product fields. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Image       *string          `json:"image"`
}

// Apply copies every set field of the patch onto p.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
}

// Columns maps the set fields of the patch to their column names.
func (patch ProductPatch) Columns() map[string]any {
	cols := map[string]any{}
	if patch.Name != nil {
		cols["name"] = *patch.Name
	}
	if patch.Description != nil {
		cols["description"] = *patch.Description
	}
	if patch.Price != nil {
		cols["price"] = *patch.Price
	}
	if patch.Stock != nil {
		cols["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		cols["category"] = *patch.Category
	}
	if patch.Image != nil {
		cols["image"] = *patch.Image
	}
	return cols
}
