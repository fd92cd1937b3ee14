// Package cart holds the line items of one in-progress sale. A Cart has a
// single owner and is not safe for concurrent use.
package cart

import (
	"github.com/shopspring/decimal"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/money"
)

type Line struct {
	Product         domain.Product
	Quantity        int
	DiscountPercent decimal.Decimal
}

type Cart struct {
	lines []Line
	index map[string]int
}

func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add increments the quantity of a product already in the cart or appends a
// new undiscounted line. Non-positive quantities are ignored.
func (c *Cart) Add(product domain.Product, qty int) {
	if qty <= 0 {
		return
	}
	if idx, ok := c.index[product.ID]; ok {
		c.lines[idx].Quantity += qty
		return
	}
	c.index[product.ID] = len(c.lines)
	c.lines = append(c.lines, Line{Product: product, Quantity: qty, DiscountPercent: decimal.Zero})
}

func (c *Cart) Remove(productID string) {
	idx, ok := c.index[productID]
	if !ok {
		return
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	delete(c.index, productID)
	for i := idx; i < len(c.lines); i++ {
		c.index[c.lines[i].Product.ID] = i
	}
}

// SetQuantity replaces a line quantity, dropping the line when qty <= 0.
func (c *Cart) SetQuantity(productID string, qty int) bool {
	idx, ok := c.index[productID]
	if !ok {
		return false
	}
	if qty <= 0 {
		c.Remove(productID)
		return true
	}
	c.lines[idx].Quantity = qty
	return true
}

func (c *Cart) SetDiscount(productID string, pct decimal.Decimal) bool {
	idx, ok := c.index[productID]
	if !ok || !money.ValidPercent(pct) {
		return false
	}
	c.lines[idx].DiscountPercent = pct
	return true
}

func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) Line(productID string) (Line, bool) {
	idx, ok := c.index[productID]
	if !ok {
		return Line{}, false
	}
	return c.lines[idx], true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Totals returns the unrounded aggregate; call Rounded for display values.
func (c *Cart) Totals() money.Breakdown {
	priced := make([]money.Line, 0, len(c.lines))
	for _, line := range c.lines {
		priced = append(priced, money.Line{
			UnitPrice:       line.Product.UnitPrice,
			Quantity:        line.Quantity,
			DiscountPercent: line.DiscountPercent,
			VATRate:         line.Product.VATRate,
		})
	}
	return money.Sum(priced)
}
