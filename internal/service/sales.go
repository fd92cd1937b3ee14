package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockpos/backend/internal/cart"
	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/money"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

// QuoteCart prices a set of lines without persisting anything.
func (s *Service) QuoteCart(ctx context.Context, lines []domain.SaleLineRequest) (domain.CartQuote, error) {
	c, err := s.buildCart(ctx, lines)
	if err != nil {
		return domain.CartQuote{}, err
	}
	return domain.CartQuote{
		Lines:  saleLines(c),
		Totals: toTotals(c.Totals().Rounded()),
	}, nil
}

// ProcessSale validates the request, merges lines through a cart and persists
// the sale, its lines and its receipt as one unit. With ledger sales enabled
// each line also books an EXIT in the same transaction.
func (s *Service) ProcessSale(ctx context.Context, req domain.SaleRequest) (domain.SaleReceipt, error) {
	actor := actorOf(ctx)

	if !req.PaymentMethod.Valid() {
		return domain.SaleReceipt{}, store.Invalid("payment_method", "must be cash, mobile_money, card or cheque")
	}
	if req.AmountTendered.IsNegative() {
		return domain.SaleReceipt{}, store.Invalid("amount_tendered", "must be >= 0")
	}

	c, err := s.buildCart(ctx, req.Lines)
	if err != nil {
		return domain.SaleReceipt{}, err
	}
	for _, line := range c.Lines() {
		if line.Quantity > line.Product.Stock {
			return domain.SaleReceipt{}, &store.InsufficientStockError{
				ProductID: line.Product.ID,
				Requested: line.Quantity,
				Available: line.Product.Stock,
			}
		}
	}

	totals := c.Totals().Rounded()
	tendered := req.AmountTendered
	if tendered.IsZero() {
		tendered = totals.Total
	}
	if tendered.LessThan(totals.Total) {
		return domain.SaleReceipt{}, store.Invalid("amount_tendered", fmt.Sprintf("must cover the total of %s", totals.Total.StringFixed(2)))
	}

	now := s.now()
	saleID := xid.New("sale")
	lines := saleLines(c)
	for i := range lines {
		lines[i].SaleID = saleID
	}
	sale := domain.Sale{
		ID:            saleID,
		ActorID:       actor.ID,
		PaymentMethod: req.PaymentMethod,
		CreatedAt:     now,
		Lines:         lines,
		Receipt: domain.Receipt{
			ID:             xid.New("rcp"),
			SaleID:         saleID,
			PaymentMethod:  req.PaymentMethod,
			Subtotal:       totals.Subtotal,
			DiscountTotal:  totals.Discount,
			TotalHT:        totals.Net,
			VATAmount:      totals.VAT,
			TotalTTC:       totals.Total,
			AmountTendered: tendered,
			ChangeDue:      money.Round(tendered.Sub(totals.Total)),
			CreatedAt:      now,
		},
	}

	var exits []domain.StockMovement
	if s.opts.LedgerSales {
		exits = make([]domain.StockMovement, 0, len(lines))
		for _, line := range lines {
			exits = append(exits, domain.StockMovement{
				ProductID: line.ProductID,
				Type:      domain.MovementExit,
				Quantity:  line.Quantity,
				ActorID:   actor.ID,
				Comment:   "sale " + saleID,
				SaleID:    saleID,
				CreatedAt: now,
			})
		}
	}

	saved, err := s.repo.CreateSale(ctx, sale, exits)
	if err != nil {
		return domain.SaleReceipt{}, storageErr(err)
	}
	for _, m := range exits {
		s.invalidateRecommendation(ctx, m.ProductID)
	}

	s.logAudit(ctx, "sale_create", "sale", saved.ID,
		fmt.Sprintf("lines=%d,total=%s,payment=%s", len(saved.Lines), saved.Receipt.TotalTTC.StringFixed(2), saved.PaymentMethod))
	s.logger.Info("sale recorded",
		zap.String("sale_id", saved.ID),
		zap.String("actor_id", actor.ID),
		zap.String("total_ttc", saved.Receipt.TotalTTC.StringFixed(2)),
		zap.Bool("ledger", s.opts.LedgerSales),
	)

	return domain.SaleReceipt{
		SaleID:  saved.ID,
		Receipt: saved.Receipt,
		Lines:   saved.Lines,
	}, nil
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Sale{}, storageErr(err)
	}
	return *sale, nil
}

// buildCart validates line requests, loads their products and merges lines
// for the same product. Merged lines must agree on their discount.
func (s *Service) buildCart(ctx context.Context, requests []domain.SaleLineRequest) (*cart.Cart, error) {
	if len(requests) == 0 {
		return nil, store.Invalid("lines", "at least one line is required")
	}
	requests = slices.Clone(requests)

	ids := make([]string, 0, len(requests))
	discounts := make(map[string]decimal.Decimal, len(requests))
	for i, req := range requests {
		req.ProductID = strings.TrimSpace(req.ProductID)
		requests[i].ProductID = req.ProductID
		if req.ProductID == "" {
			return nil, store.Invalid(fmt.Sprintf("lines[%d].product_id", i), "is required")
		}
		if req.Quantity < 1 {
			return nil, store.Invalid(fmt.Sprintf("lines[%d].quantity", i), "must be >= 1")
		}
		if !money.ValidPercent(req.DiscountPercent) {
			return nil, store.Invalid(fmt.Sprintf("lines[%d].discount_percent", i), "must be between 0 and 100")
		}
		if prev, seen := discounts[req.ProductID]; seen {
			if !prev.Equal(req.DiscountPercent) {
				return nil, store.Invalid(fmt.Sprintf("lines[%d].discount_percent", i), "conflicts with another line for the same product")
			}
			continue
		}
		discounts[req.ProductID] = req.DiscountPercent
		ids = append(ids, req.ProductID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, storageErr(err)
	}

	c := cart.New()
	for _, req := range requests {
		product, ok := products[req.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, req.ProductID)
		}
		c.Add(product, req.Quantity)
	}
	for id, pct := range discounts {
		c.SetDiscount(id, pct)
	}
	return c, nil
}

func saleLines(c *cart.Cart) []domain.SaleLine {
	lines := make([]domain.SaleLine, 0, c.Len())
	for i, line := range c.Lines() {
		lines = append(lines, domain.SaleLine{
			LineNo:          i + 1,
			ProductID:       line.Product.ID,
			ProductName:     line.Product.Name,
			Quantity:        line.Quantity,
			UnitPrice:       line.Product.UnitPrice,
			VATRate:         line.Product.VATRate,
			DiscountPercent: line.DiscountPercent,
		})
	}
	return lines
}

func toTotals(b money.Breakdown) domain.CartTotals {
	return domain.CartTotals{
		Subtotal:      b.Subtotal,
		DiscountTotal: b.Discount,
		TotalHT:       b.Net,
		VATAmount:     b.VAT,
		TotalTTC:      b.Total,
	}
}
