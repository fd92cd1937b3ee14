package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeDecomposesTaxInclusivePrice(t *testing.T) {
	cases := []struct {
		name     string
		line     Line
		subtotal string
		discount string
		net      string
		vat      string
		total    string
	}{
		{
			name:     "no discount",
			line:     Line{UnitPrice: d("1000"), Quantity: 2, DiscountPercent: d("0"), VATRate: d("18")},
			subtotal: "2000",
			discount: "0",
			net:      "1694.92",
			vat:      "305.08",
			total:    "2000",
		},
		{
			name:     "ten percent discount",
			line:     Line{UnitPrice: d("500"), Quantity: 1, DiscountPercent: d("10"), VATRate: d("18")},
			subtotal: "500",
			discount: "50",
			net:      "381.36",
			vat:      "68.64",
			total:    "450",
		},
		{
			name:     "zero vat",
			line:     Line{UnitPrice: d("99.99"), Quantity: 3, DiscountPercent: d("0"), VATRate: d("0")},
			subtotal: "299.97",
			discount: "0",
			net:      "299.97",
			vat:      "0",
			total:    "299.97",
		},
		{
			name:     "full discount",
			line:     Line{UnitPrice: d("250"), Quantity: 4, DiscountPercent: d("100"), VATRate: d("18")},
			subtotal: "1000",
			discount: "1000",
			net:      "0",
			vat:      "0",
			total:    "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.line).Rounded()
			assert.True(t, d(tc.subtotal).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
			assert.True(t, d(tc.discount).Equal(got.Discount), "discount %s", got.Discount)
			assert.True(t, d(tc.net).Equal(got.Net), "net %s", got.Net)
			assert.True(t, d(tc.vat).Equal(got.VAT), "vat %s", got.VAT)
			assert.True(t, d(tc.total).Equal(got.Total), "total %s", got.Total)
		})
	}
}

func TestSumAddsComponentsBeforeRounding(t *testing.T) {
	// Three lines of 0.10 at 18% VAT: each net is 0.0847..., so rounding per
	// line would give 0.24 instead of 0.25.
	line := Line{UnitPrice: d("0.10"), Quantity: 1, DiscountPercent: d("0"), VATRate: d("18")}
	total := Sum([]Line{line, line, line}).Rounded()

	require.True(t, d("0.30").Equal(total.Total), "total %s", total.Total)
	assert.True(t, d("0.25").Equal(total.Net), "net %s", total.Net)
	assert.True(t, d("0.05").Equal(total.VAT), "vat %s", total.VAT)
}

func TestSumOfNothingIsZero(t *testing.T) {
	total := Sum(nil)
	assert.True(t, total.Total.IsZero())
	assert.True(t, total.Net.IsZero())
}

func TestValidPercent(t *testing.T) {
	assert.True(t, ValidPercent(d("0")))
	assert.True(t, ValidPercent(d("100")))
	assert.False(t, ValidPercent(d("-0.01")))
	assert.False(t, ValidPercent(d("100.5")))
}
