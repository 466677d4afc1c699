package services_test

import (
	"context"
	"errors"
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

type orderFixture struct {
	service   *services.OrderService
	carts     *services.CartService
	products  *repositories.MockProductRepository
	orders    *repositories.MockOrderRepository
	publisher *MockPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	products := repositories.NewMockProductRepository()
	users := repositories.NewMockUserRepository()
	cartRepo := repositories.NewMockCartRepository(products)
	orders := repositories.NewMockOrderRepository(products, users)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("models.OrderEvent")).Return(nil).Maybe()

	return &orderFixture{
		service:   services.NewOrderService(orders, cartRepo, products, repositories.NewMockTransactor(), publisher, nil, nil),
		carts:     services.NewCartService(cartRepo, products),
		products:  products,
		orders:    orders,
		publisher: publisher,
	}
}

func (f *orderFixture) product(t *testing.T, name string, price int64, stock int) string {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p.ID
}

func (f *orderFixture) add(t *testing.T, userID, productID string, qty int) {
	t.Helper()
	_, err := f.carts.AddOrUpdateItem(context.Background(), userID, productID, qty)
	require.NoError(t, err)
}

var (
	buyer = models.Identity{UserID: "user-1", Role: models.RoleUser}
	admin = models.Identity{UserID: "admin-1", Role: models.RoleAdmin}
)

func TestOrderService_Checkout(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 100, 10)
	productB := f.product(t, "B", 50, 4)
	f.add(t, buyer.UserID, productA, 2)
	f.add(t, buyer.UserID, productB, 1)

	order, err := f.service.Checkout(ctx, buyer)
	require.NoError(t, err)

	assert.True(t, order.Total.Equal(decimal.NewFromInt(250)), order.Total.String())
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, buyer.UserID, order.UserID)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Total.Equal(models.SumItems(order.Items)))

	// Cart is emptied but kept.
	cart, err := f.carts.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Empty(t, cart.Items)

	// Stock reduced by exactly the ordered quantity.
	a, err := f.products.GetByID(ctx, productA)
	require.NoError(t, err)
	assert.Equal(t, 8, a.Stock)
	b, err := f.products.GetByID(ctx, productB)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Stock)

	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Type == models.EventOrderCreated && e.OrderID == order.ID && e.Total.Equal(order.Total)
	}))
}

func TestOrderService_CheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	// Nonexistent cart.
	_, err := f.service.Checkout(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrCartEmpty)

	// Existing but emptied cart.
	productA := f.product(t, "A", 100, 10)
	f.add(t, buyer.UserID, productA, 1)
	_, err = f.carts.RemoveItem(ctx, buyer.UserID, productA)
	require.NoError(t, err)
	_, err = f.service.Checkout(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrCartEmpty)

	orders, err := f.orders.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOrderService_PriceChangeDoesNotAlterOrder(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 100, 10)
	f.add(t, buyer.UserID, productA, 2)

	order, err := f.service.Checkout(ctx, buyer)
	require.NoError(t, err)

	_, err = f.products.Update(ctx, productA, models.ProductPatch{Price: ptr(decimal.NewFromInt(999))})
	require.NoError(t, err)

	stored, err := f.service.GetOrderByID(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(200)))
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, stored.Items[0].Product)
	assert.True(t, stored.Items[0].Product.Price.Equal(decimal.NewFromInt(999)))
}

func TestOrderService_CheckoutInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 10, 1)
	f.add(t, buyer.UserID, productA, 3)

	_, err := f.service.Checkout(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	a, err := f.products.GetByID(ctx, productA)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Stock)
	cart, err := f.carts.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestOrderService_CheckoutDeletedProduct(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 10, 5)
	f.add(t, buyer.UserID, productA, 1)
	require.NoError(t, f.products.Delete(ctx, productA))

	_, err := f.service.Checkout(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestOrderService_PublishFailureDoesNotFailCheckout(t *testing.T) {
	products := repositories.NewMockProductRepository()
	cartRepo := repositories.NewMockCartRepository(products)
	orders := repositories.NewMockOrderRepository(products, nil)
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
	service := services.NewOrderService(orders, cartRepo, products, repositories.NewMockTransactor(), publisher, nil, nil)
	ctx := context.Background()

	p := &models.Product{Name: "A", Price: decimal.NewFromInt(5), Stock: 1}
	require.NoError(t, products.Create(ctx, p))
	_, err := services.NewCartService(cartRepo, products).AddOrUpdateItem(ctx, buyer.UserID, p.ID, 1)
	require.NoError(t, err)

	order, err := service.Checkout(ctx, buyer)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	publisher.AssertExpectations(t)
}

func TestOrderService_AdminOnly(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 10, 5)
	f.add(t, buyer.UserID, productA, 1)
	order, err := f.service.Checkout(ctx, buyer)
	require.NoError(t, err)

	orders, err := f.service.GetAllOrders(ctx, buyer)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.Nil(t, orders)

	updated, err := f.service.UpdateOrderStatus(ctx, buyer, order.ID, models.OrderStatusShipped)
	assert.ErrorIs(t, err, services.ErrForbidden)
	assert.Nil(t, updated)

	orders, err = f.service.GetAllOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 10, 5)
	f.add(t, buyer.UserID, productA, 1)
	order, err := f.service.Checkout(ctx, buyer)
	require.NoError(t, err)

	_, err = f.service.UpdateOrderStatus(ctx, admin, order.ID, "lost")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.service.UpdateOrderStatus(ctx, admin, "missing", models.OrderStatusShipped)
	assert.ErrorIs(t, err, services.ErrNotFound)

	for _, status := range []models.OrderStatus{models.OrderStatusDelivered, models.OrderStatusPending, models.OrderStatusProcessing} {
		updated, err := f.service.UpdateOrderStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
		assert.True(t, updated.Total.Equal(order.Total))
	}

	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e models.OrderEvent) bool {
		return e.Type == models.EventOrderStatusChanged && e.Status == models.OrderStatusProcessing
	}))
}

func TestOrderService_GetOrderByIDVisibility(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	productA := f.product(t, "A", 10, 5)
	f.add(t, buyer.UserID, productA, 1)
	order, err := f.service.Checkout(ctx, buyer)
	require.NoError(t, err)

	stranger := models.Identity{UserID: "user-2", Role: models.RoleUser}
	_, err = f.service.GetOrderByID(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	own, err := f.service.GetOrderByID(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Nil(t, own.User)

	_, err = f.service.GetOrderByID(ctx, admin, order.ID)
	assert.NoError(t, err)

	mine, err := f.service.GetUserOrders(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := f.service.GetUserOrders(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestOrderService_CheckoutRepositoryFailure(t *testing.T) {
	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	ctx := context.Background()
	service := services.NewOrderService(nil, cartRepo, productRepo, repositories.NewMockTransactor(), nil, nil, nil)

	cartRepo.On("GetByUserID", mock.Anything, buyer.UserID).Return(nil, fmt.Errorf("connection reset")).Once()
	_, err := service.Checkout(ctx, buyer)
	assert.EqualError(t, err, "connection reset")
	cartRepo.AssertExpectations(t)
}
