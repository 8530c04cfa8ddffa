package service

import (
	"context"
	"errors"
	"fmt"

	"shopcart/internal/domain"
	"shopcart/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity rejects zero or negative quantities. Removing an item
	// is an explicit operation, never a side effect of a quantity update.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	ErrProductUnavailable = errors.New("product is not available")
)

// CartLine is a cart item with its computed prices
type CartLine struct {
	ID         uuid.UUID       `json:"id"`
	Product    *domain.Product `json:"product"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// CartView is a cart with live totals computed at read time
type CartView struct {
	ID       uuid.UUID       `json:"id"`
	UserID   uuid.UUID       `json:"user_id"`
	Items    []*CartLine     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CartService defines the interface for cart business logic. Every mutation
// keeps the inventory ledger consistent: the quantity held across cart items
// always equals the stock removed from the affected products.
type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	pricing     *PricingEngine
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	pricing *PricingEngine,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		pricing:     pricing,
	}
}

// GetCart returns the user's cart with computed totals, creating an empty
// cart on first access
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return s.buildView(ctx, cart)
}

// AddItem reserves stock for the added quantity and adds it to the cart,
// merging into an existing line item for the same product
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsAvailable {
		return nil, ErrProductUnavailable
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	// The repository reserves the increase and upserts the line item in one
	// transaction; on ErrInsufficientInventory neither stock nor cart change.
	if err := s.cartRepo.AddItem(ctx, cart.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.buildView(ctx, cart)
}

// UpdateItemQuantity sets a line item to a new absolute quantity, moving the
// signed difference through the inventory ledger
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	cart, err := s.ownedCartForItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, err
	}

	return s.buildView(ctx, cart)
}

// RemoveItem returns the item's full quantity to stock and deletes it
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	cart, err := s.ownedCartForItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.RemoveItem(ctx, itemID); err != nil {
		return nil, err
	}

	return s.buildView(ctx, cart)
}

// ownedCartForItem loads the user's cart and verifies the item belongs to it.
// Items in other users' carts are reported as not found, not forbidden.
func (s *cartService) ownedCartForItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.FindItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.CartID != cart.ID {
		return nil, repository.ErrCartItemNotFound
	}

	return cart, nil
}

func (s *cartService) buildView(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	items, err := s.cartRepo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	lines := make([]*CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, &CartLine{
			ID:         item.ID,
			Product:    item.Product,
			Quantity:   item.Quantity,
			Subtotal:   s.pricing.Subtotal(item),
			Tax:        s.pricing.Tax(item),
			TotalPrice: s.pricing.TotalPrice(item),
		})
	}

	return &CartView{
		ID:       cart.ID,
		UserID:   cart.UserID,
		Items:    lines,
		Subtotal: s.pricing.CartSubtotal(items),
		Tax:      s.pricing.CartTax(items),
		Total:    s.pricing.CartTotalWithTax(items),
	}, nil
}
