package database

import (
	"context"
	"fmt"
	"log/slog"

	"shop/internal/models"
	"shop/internal/repositories"

	"github.com/shopspring/decimal"
)

// UserSeeder creates a user unless one with the same username exists.
type UserSeeder interface {
	EnsureUser(ctx context.Context, user *models.User) (bool, error)
}

// SeedOptions controls what Seed writes.
type SeedOptions struct {
	Catalog bool
	Admin   *models.User // plain-text password; skipped when nil or password empty
}

// Seed fills an empty catalog with demo products and makes sure the admin exists.
func Seed(ctx context.Context, products repositories.ProductRepository, users UserSeeder, opts SeedOptions, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if opts.Admin != nil && opts.Admin.Password != "" {
		admin := *opts.Admin
		admin.Role = models.RoleAdmin
		created, err := users.EnsureUser(ctx, &admin)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			log.Info("seeded admin user", "username", admin.Username)
		}
	}

	if !opts.Catalog {
		return nil
	}
	existing, err := products.GetAll(ctx, models.ProductFilter{})
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	if len(existing) > 0 {
		log.Debug("catalog already populated, skipping seed", "products", len(existing))
		return nil
	}
	for _, p := range DemoCatalog() {
		if err := products.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}
	log.Info("seeded demo catalog", "products", len(DemoCatalog()))
	return nil
}

// DemoCatalog returns the demo products written by Seed.
func DemoCatalog() []models.Product {
	product := func(name, description string, price int64, category string, stock int, image string) models.Product {
		return models.Product{
			Name:        name,
			Description: description,
			Price:       decimal.NewFromInt(price),
			Category:    category,
			Stock:       stock,
			Image:       image,
		}
	}
	return []models.Product{
		product("Laptop HP", "HP 15.6 inch laptop, Intel Core i5, 8GB RAM", 2499, "Computers", 15,
			"https://images.unsplash.com/photo-1496181133206-80ce9b88a853?w=400"),
		product("iPhone 14 Pro", "Apple iPhone 14 Pro smartphone, 256GB, black", 4999, "Phones", 8,
			"https://images.unsplash.com/photo-1592286927505-b0e2e279d6fd?w=400"),
		product("Samsung Galaxy S23", "Samsung Galaxy S23 smartphone, 128GB, white", 3499, "Phones", 12,
			"https://images.unsplash.com/photo-1610945415295-d9bbf067e59c?w=400"),
		product("AirPods Pro", "Apple AirPods Pro wireless earbuds with noise cancellation", 899, "Audio", 25,
			"https://images.unsplash.com/photo-1606841837239-c5a1a4a07af7?w=400"),
		product("Sony WH-1000XM5", "Sony headphones with active noise cancellation", 1299, "Audio", 10,
			"https://images.unsplash.com/photo-1545127398-14699f92334b?w=400"),
		product("iPad Air", "Apple iPad Air 10.9 inch tablet, 64GB, space gray", 2199, "Tablets", 7,
			"https://images.unsplash.com/photo-1544244015-0df4b3ffc6b0?w=400"),
		product("Samsung Galaxy Tab S8", "Samsung Galaxy Tab S8 tablet, 128GB with S Pen", 1899, "Tablets", 9,
			"https://images.unsplash.com/photo-1585790050230-5dd28404f749?w=400"),
		product("MacBook Pro 14", "Apple MacBook Pro 14 inch, M2 Pro, 16GB RAM, 512GB SSD", 8999, "Computers", 5,
			"https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400"),
		product("Dell XPS 13", "Dell XPS 13 ultrabook, Intel Core i7, 16GB RAM, 512GB SSD", 4499, "Computers", 6,
			"https://images.unsplash.com/photo-1593642632823-8f785ba67e45?w=400"),
		product("Apple Watch Series 8", "Apple Watch Series 8 smartwatch, GPS + Cellular", 1699, "Watches", 14,
			"https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=400"),
		product("JBL Flip 6", "JBL Flip 6 portable waterproof Bluetooth speaker", 449, "Audio", 20,
			"https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=400"),
		product("Logitech MX Master 3", "Logitech MX Master 3 high precision wireless mouse", 299, "Accessories", 30,
			"https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=400"),
	}
}
