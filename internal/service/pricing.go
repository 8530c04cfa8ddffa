package service

import (
	"shopcart/internal/domain"

	"github.com/shopspring/decimal"
)

// PricingEngine computes line item and cart prices. It is pure: all inputs
// come from the cart items passed in and the injected tax rate, and every
// amount is a fixed-point decimal rounded to 2 places. Floating point never
// enters price computation.
type PricingEngine struct {
	taxRate decimal.Decimal
}

// NewPricingEngine creates a pricing engine with the given fractional tax
// rate (e.g. 0.08 for 8%)
func NewPricingEngine(taxRate decimal.Decimal) *PricingEngine {
	return &PricingEngine{taxRate: taxRate}
}

// TaxRate returns the configured tax rate
func (p *PricingEngine) TaxRate() decimal.Decimal {
	return p.taxRate
}

// Subtotal is the item's product price multiplied by its quantity
func (p *PricingEngine) Subtotal(item *domain.CartItem) decimal.Decimal {
	return item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Tax is the rounded tax amount for the item, zero when the product's
// department is not taxable
func (p *PricingEngine) Tax(item *domain.CartItem) decimal.Decimal {
	if item.Product.Department == nil || !item.Product.Department.IsTaxable {
		return decimal.Zero
	}
	return p.Subtotal(item).Mul(p.taxRate).Round(2)
}

// TotalPrice is the item's subtotal plus its tax
func (p *PricingEngine) TotalPrice(item *domain.CartItem) decimal.Decimal {
	return p.Subtotal(item).Add(p.Tax(item))
}

// CartSubtotal sums line subtotals, tax excluded. This is the amount frozen
// into an order's total at checkout; tax is reported separately.
func (p *PricingEngine) CartSubtotal(items []*domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(p.Subtotal(item))
	}
	return total
}

// CartTax sums line taxes
func (p *PricingEngine) CartTax(items []*domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(p.Tax(item))
	}
	return total
}

// CartTotalWithTax sums line totals. Kept distinct from CartSubtotal: the
// checkout total excludes tax while displays may include it.
func (p *PricingEngine) CartTotalWithTax(items []*domain.CartItem) decimal.Decimal {
	return p.CartSubtotal(items).Add(p.CartTax(items))
}
