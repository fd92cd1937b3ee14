package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/money"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	return products, storageErr(err)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, storageErr(err)
	}
	return *p, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	req.SupplierID = strings.TrimSpace(req.SupplierID)

	if req.Name == "" {
		return domain.Product{}, store.Invalid("name", "is required")
	}
	if !req.UnitPrice.IsPositive() {
		return domain.Product{}, store.Invalid("unit_price", "must be > 0")
	}
	if req.InitialStock < 0 {
		return domain.Product{}, store.Invalid("initial_stock", "must be >= 0")
	}
	if req.AlertThreshold < 0 {
		return domain.Product{}, store.Invalid("alert_threshold", "must be >= 0")
	}
	vat := s.opts.DefaultVATRate
	if req.VATRate != nil {
		vat = *req.VATRate
	}
	if !money.ValidPercent(vat) {
		return domain.Product{}, store.Invalid("vat_rate", "must be between 0 and 100")
	}
	if req.SupplierID != "" {
		if _, err := s.repo.GetSupplier(ctx, req.SupplierID); err != nil {
			return domain.Product{}, storageErr(err)
		}
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		ID:             xid.New("prd"),
		Name:           req.Name,
		CategoryID:     req.CategoryID,
		SupplierID:     req.SupplierID,
		UnitPrice:      req.UnitPrice,
		VATRate:        vat,
		Stock:          req.InitialStock,
		BaselineStock:  req.InitialStock,
		AlertThreshold: req.AlertThreshold,
		CreatedAt:      s.now(),
	})
	if err != nil {
		return domain.Product{}, storageErr(err)
	}

	s.logAudit(ctx, "product_create", "product", created.ID,
		fmt.Sprintf("name=%s,price=%s,stock=%d,threshold=%d", created.Name, created.UnitPrice, created.Stock, created.AlertThreshold))
	return *created, nil
}

func (s *Service) UpdateProductThreshold(ctx context.Context, productID string, req domain.ThresholdUpdateRequest) (domain.Product, error) {
	productID = strings.TrimSpace(productID)
	if req.Threshold < 0 {
		return domain.Product{}, store.Invalid("threshold", "must be >= 0")
	}

	updated, err := s.repo.UpdateProductThreshold(ctx, productID, req.Threshold)
	if err != nil {
		return domain.Product{}, storageErr(err)
	}
	s.invalidateRecommendation(ctx, productID)

	s.logAudit(ctx, "threshold_update", "product", productID, fmt.Sprintf("threshold=%d", req.Threshold))
	return *updated, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return domain.Supplier{}, store.Invalid("name", "is required")
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		ID:        xid.New("sup"),
		Name:      req.Name,
		Contact:   strings.TrimSpace(req.Contact),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Supplier{}, storageErr(err)
	}

	s.logAudit(ctx, "supplier_create", "supplier", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	return suppliers, storageErr(err)
}

func (s *Service) invalidateRecommendation(ctx context.Context, productID string) {
	if err := s.recommender.Invalidate(ctx, productID); err != nil {
		s.logger.Warn("failed to invalidate order recommendation", zap.String("product_id", productID), zap.Error(err))
	}
}
