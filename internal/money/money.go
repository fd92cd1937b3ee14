// Package money decomposes tax-inclusive (TTC) prices into net (HT) and VAT
// amounts. Every component is carried at full precision; rounding to cents
// happens once, in Rounded.
package money

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Line is one priced quantity. Prices are tax inclusive and percentages are
// expressed on a 0-100 scale.
type Line struct {
	UnitPrice       decimal.Decimal
	Quantity        int
	DiscountPercent decimal.Decimal
	VATRate         decimal.Decimal
}

type Breakdown struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

func Compute(line Line) Breakdown {
	subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
	discounted := subtotal.Mul(one.Sub(line.DiscountPercent.Div(hundred)))
	net := discounted.Div(one.Add(line.VATRate.Div(hundred)))
	vat := discounted.Sub(net)

	return Breakdown{
		Subtotal: subtotal,
		Discount: subtotal.Sub(discounted),
		Net:      net,
		VAT:      vat,
		Total:    net.Add(vat),
	}
}

// Sum aggregates lines component by component.
func Sum(lines []Line) Breakdown {
	total := Breakdown{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Net:      decimal.Zero,
		VAT:      decimal.Zero,
	}
	for _, line := range lines {
		b := Compute(line)
		total.Subtotal = total.Subtotal.Add(b.Subtotal)
		total.Discount = total.Discount.Add(b.Discount)
		total.Net = total.Net.Add(b.Net)
		total.VAT = total.VAT.Add(b.VAT)
	}
	total.Total = total.Net.Add(total.VAT)
	return total
}

func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal: Round(b.Subtotal),
		Discount: Round(b.Discount),
		Net:      Round(b.Net),
		VAT:      Round(b.VAT),
		Total:    Round(b.Total),
	}
}

// Round rounds to cents, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ValidPercent reports whether p lies in [0, 100].
func ValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
