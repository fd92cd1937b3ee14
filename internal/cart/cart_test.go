package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpos/backend/internal/domain"
)

func product(id string, price string) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      "product " + id,
		UnitPrice: decimal.RequireFromString(price),
		VATRate:   decimal.NewFromInt(18),
	}
}

func TestAddMergesSameProduct(t *testing.T) {
	c := New()
	c.Add(product("p1", "1000"), 1)
	c.Add(product("p2", "500"), 1)
	c.Add(product("p1", "1000"), 2)

	require.Equal(t, 2, c.Len())
	line, ok := c.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, line.DiscountPercent.IsZero())
	assert.Equal(t, "p1", c.Lines()[0].Product.ID)
}

func TestSetQuantityRemovesOnZero(t *testing.T) {
	c := New()
	c.Add(product("p1", "1000"), 1)
	c.Add(product("p2", "500"), 1)
	c.Add(product("p3", "200"), 1)

	assert.True(t, c.SetQuantity("p2", 0))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Line("p2")
	assert.False(t, ok)

	assert.True(t, c.SetQuantity("p3", 7))
	line, _ := c.Line("p3")
	assert.Equal(t, 7, line.Quantity)

	assert.False(t, c.SetQuantity("missing", 1))
}

func TestSetDiscountRejectsOutOfRange(t *testing.T) {
	c := New()
	c.Add(product("p1", "500"), 1)

	assert.False(t, c.SetDiscount("p1", decimal.NewFromInt(101)))
	assert.False(t, c.SetDiscount("p1", decimal.NewFromInt(-1)))
	line, _ := c.Line("p1")
	assert.True(t, line.DiscountPercent.IsZero())

	assert.True(t, c.SetDiscount("p1", decimal.NewFromInt(10)))
	totals := c.Totals().Rounded()
	assert.True(t, decimal.RequireFromString("450").Equal(totals.Total), "total %s", totals.Total)
	assert.True(t, decimal.RequireFromString("381.36").Equal(totals.Net), "net %s", totals.Net)
	assert.True(t, decimal.RequireFromString("68.64").Equal(totals.VAT), "vat %s", totals.VAT)
}

func TestTotalsForTwoUnits(t *testing.T) {
	c := New()
	c.Add(product("p1", "1000"), 2)

	totals := c.Totals().Rounded()
	assert.True(t, decimal.RequireFromString("2000").Equal(totals.Total))
	assert.True(t, decimal.RequireFromString("1694.92").Equal(totals.Net))
	assert.True(t, decimal.RequireFromString("305.08").Equal(totals.VAT))
}

func TestClearAndRemove(t *testing.T) {
	c := New()
	assert.True(t, c.IsEmpty())
	c.Add(product("p1", "10"), 1)
	c.Add(product("p2", "10"), 1)
	c.Remove("p1")
	line, ok := c.Line("p2")
	require.True(t, ok)
	assert.Equal(t, "p2", line.Product.ID)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Totals().Total.IsZero())
}
