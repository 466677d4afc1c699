package services

import (
	"context"
	"errors"
	"fmt"

	"shop/internal/models"
	"shop/internal/repositories"
)

// CartService handles business logic related to carts.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart returns the user's cart with resolved products, or an empty cart if none exists.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

// AddOrUpdateItem sets the quantity of productID in the user's cart, creating the cart on first use.
// The quantity replaces any previous one. Stock is not checked here.
func (s *CartService) AddOrUpdateItem(ctx context.Context, userID, productID string, qty int) (*models.Cart, error) {
	if productID == "" {
		return nil, fmt.Errorf("product id is required: %w", ErrValidation)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("quantity must be positive: %w", ErrValidation)
	}
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		cart = &models.Cart{
			UserID: userID,
			Items:  []models.CartItem{{ProductID: productID, Quantity: qty}},
		}
		err = s.cartRepo.Create(ctx, cart)
		if err == nil {
			return s.GetCart(ctx, userID)
		}
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, err
		}
		// A concurrent request created the cart first.
		if cart, err = s.cartRepo.GetByUserID(ctx, userID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	if err := s.cartRepo.SetItem(ctx, cart.ID, productID, qty); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem drops productID from the user's cart. Removing an absent product is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	cart, err := s.cartRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("cart not found: %w", ErrNotFound)
		}
		return nil, err
	}
	if cart.Find(productID) == -1 {
		return cart, nil
	}
	if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}
