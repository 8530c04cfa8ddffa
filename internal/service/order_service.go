package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shopcart/internal/domain"
	"shopcart/internal/repository"

	"github.com/google/uuid"
)

var (
	// ErrEmptyCart rejects checkout on a cart with no line items
	ErrEmptyCart = errors.New("cart is empty")

	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderService defines the interface for order business logic
type OrderService interface {
	// Checkout atomically converts the user's cart into an immutable order,
	// freezing each product's current price into the order items, and empties
	// the cart. Inventory is not touched: stock was already reserved when the
	// items entered the cart.
	Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error)

	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)

	// UpdateStatus advances an order's status. Cancelling an order does not
	// restore inventory; stock only returns through cart item removal.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	pricing   *PricingEngine
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	pricing *PricingEngine,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		pricing:   pricing,
	}
}

// Checkout snapshots the cart into an order inside one transaction
func (s *orderService) Checkout(ctx context.Context, userID uuid.UUID) (*domain.Order, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	now := time.Now()
	order := &domain.Order{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		Total:     s.pricing.CartSubtotal(items),
		CreatedAt: now,
		UpdatedAt: now,
	}

	orderItems := make([]*domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, &domain.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			// Frozen copy of the current price, decoupled from future changes.
			Price:     item.Product.Price,
			CreatedAt: now,
		})
	}

	// Order insert, item inserts and cart clearing commit or roll back together.
	if err := s.orderRepo.PlaceOrder(ctx, cart.ID, order, orderItems); err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	order.Items = orderItems

	return order, nil
}

// GetOrder retrieves one of the user's orders; other users' orders are not found
func (s *orderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders retrieves the user's order history, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus advances an order's status
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	return s.orderRepo.FindByID(ctx, orderID)
}
