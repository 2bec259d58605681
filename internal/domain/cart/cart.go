// Package cart implements the in-memory sale-in-progress aggregate for one
// register: line items, the selected customer, order-level discount, and the
// derived totals the checkout flow reads.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/agripos/pos-terminal/internal/domain/customer"
	"github.com/agripos/pos-terminal/internal/domain/pricing"
	"github.com/agripos/pos-terminal/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// ErrLineNotFound is returned by line update operations when the cart holds no
// line for the given product. Removing an absent line is a no-op instead.
var ErrLineNotFound = errors.New("no cart line for product")

// Line is one product entry in the cart. The derived amounts are recomputed
// from the other fields on every mutation and are never edited directly.
type Line struct {
	Product         product.Product
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal

	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// taxable returns the discounted pre-tax base for the line.
func (l Line) taxable() decimal.Decimal {
	return l.UnitPrice.Mul(l.Quantity).Sub(l.DiscountAmount)
}

// Cart holds the current sale for a register. It is not safe for concurrent
// use; the register serializes access.
type Cart struct {
	lines           []Line
	customer        *customer.Customer
	discountPercent decimal.Decimal
	creditSale      bool
	notes           string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem adds quantity of the product to the cart. If a line for the product
// already exists its quantity grows and the line keeps its unit price and
// discount; otherwise a new line starts at the product's selling price with no
// discount.
func (c *Cart) AddItem(p product.Product, quantity decimal.Decimal) error {
	if i := c.index(p.ID); i >= 0 {
		return c.recompute(i, func(l *Line) {
			l.Quantity = l.Quantity.Add(quantity)
		})
	}

	if !quantity.IsPositive() {
		return pricing.ErrInvalidQuantity
	}
	amounts, err := pricing.ComputeLine(p.SellingPrice, quantity, decimal.Zero, p.TaxRate)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, Line{
		Product:         p,
		Quantity:        quantity,
		UnitPrice:       p.SellingPrice,
		DiscountPercent: decimal.Zero,
		DiscountAmount:  amounts.DiscountAmount,
		TaxAmount:       amounts.TaxAmount,
		Total:           amounts.Total,
	})
	return nil
}

// RemoveItem removes the line for the product. Removing an absent line is a
// no-op.
func (c *Cart) RemoveItem(productID string) {
	if i := c.index(productID); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	}
}

// UpdateQuantity replaces the line's quantity. Non-positive quantities are
// rejected; callers decrementing to zero should remove the line instead.
func (c *Cart) UpdateQuantity(productID string, quantity decimal.Decimal) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	return c.recompute(i, func(l *Line) { l.Quantity = quantity })
}

// UpdateDiscountPercent replaces the line's discount percent. Values outside
// [0, 100] are rejected rather than clamped so the caller can surface a
// validation error.
func (c *Cart) UpdateDiscountPercent(productID string, percent decimal.Decimal) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	return c.recompute(i, func(l *Line) { l.DiscountPercent = percent })
}

// UpdateUnitPrice overrides the line's unit price.
func (c *Cart) UpdateUnitPrice(productID string, price decimal.Decimal) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	return c.recompute(i, func(l *Line) { l.UnitPrice = price })
}

// SetCustomer attaches the customer to the sale, or detaches with nil.
func (c *Cart) SetCustomer(cu *customer.Customer) {
	c.customer = cu
}

// SetOrderDiscountPercent sets the discount applied to the whole cart's
// subtotal, independent of any per-line discount.
func (c *Cart) SetOrderDiscountPercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return pricing.ErrInvalidDiscount
	}
	c.discountPercent = percent
	return nil
}

// SetCreditSale marks the sale to be charged against the customer's credit.
// The checkout flow rejects credit sales without a customer.
func (c *Cart) SetCreditSale(credit bool) {
	c.creditSale = credit
}

// SetNotes replaces the free-text order notes.
func (c *Cart) SetNotes(notes string) {
	c.notes = notes
}

// Clear resets the cart to its empty initial state.
func (c *Cart) Clear() {
	*c = Cart{}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Customer returns the attached customer, or nil.
func (c *Cart) Customer() *customer.Customer {
	return c.customer
}

// OrderDiscountPercent returns the order-level discount percent.
func (c *Cart) OrderDiscountPercent() decimal.Decimal {
	return c.discountPercent
}

// IsCreditSale reports whether the sale is flagged as a credit sale.
func (c *Cart) IsCreditSale() bool {
	return c.creditSale
}

// Notes returns the free-text order notes.
func (c *Cart) Notes() string {
	return c.notes
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal is the sum of discounted, pre-tax line bases.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.taxable())
	}
	return sum
}

// OrderDiscountAmount is the order-level discount applied to the subtotal.
func (c *Cart) OrderDiscountAmount() decimal.Decimal {
	return c.Subtotal().Mul(c.discountPercent).Div(hundred).Round(2)
}

// TaxTotal is the sum of per-line tax amounts. Tax is computed per line after
// the line discount; the order-level discount does not shrink the taxable
// base.
func (c *Cart) TaxTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.TaxAmount)
	}
	return sum
}

// GrandTotal is subtotal minus order discount plus tax.
func (c *Cart) GrandTotal() decimal.Decimal {
	return c.Subtotal().Sub(c.OrderDiscountAmount()).Add(c.TaxTotal())
}

// index returns the position of the line for productID, or -1.
func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// recompute applies mutate to the line at i, recalculates its derived amounts,
// and rolls the mutation back if the result violates a precondition.
func (c *Cart) recompute(i int, mutate func(*Line)) error {
	next := c.lines[i]
	mutate(&next)

	amounts, err := pricing.ComputeLine(next.UnitPrice, next.Quantity, next.DiscountPercent, next.Product.TaxRate)
	if err != nil {
		return err
	}
	next.DiscountAmount = amounts.DiscountAmount
	next.TaxAmount = amounts.TaxAmount
	next.Total = amounts.Total
	c.lines[i] = next
	return nil
}
