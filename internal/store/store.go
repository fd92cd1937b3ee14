package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockpos/backend/internal/domain"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrStorageFailure         = errors.New("storage failure")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// IsKnown reports whether err is one of the business conditions above rather
// than an unexpected storage fault.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrStorageFailure)
}

type AlertFilter struct {
	Statuses        []domain.AlertStatus
	ProductID       string
	PurchaseOrderID string
	Limit           int
}

// Repository is implemented by every backing store. Each mutating method is a
// single atomic unit: it either applies all of its effects or none.
type Repository interface {
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	UpdateProductThreshold(ctx context.Context, id string, threshold int) (*domain.Product, error)

	// CreateSale inserts the sale, its lines and its receipt. When movements is
	// non-empty each EXIT is applied with a conditional decrement in the same
	// transaction.
	CreateSale(ctx context.Context, sale domain.Sale, movements []domain.StockMovement) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)

	RecordMovement(ctx context.Context, movement domain.StockMovement) (*domain.StockMovement, error)
	ListMovements(ctx context.Context, productID string, limit int) ([]domain.StockMovement, error)

	// CreateAlert fills the stock and threshold snapshot from the product row
	// inside the insert transaction.
	CreateAlert(ctx context.Context, alert domain.Alert) (*domain.Alert, error)
	GetAlert(ctx context.Context, id string) (*domain.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]domain.Alert, error)
	TransitionAlert(ctx context.Context, id string, next domain.AlertStatus, comment string, at time.Time) (*domain.Alert, error)

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)

	// CreatePurchaseOrder inserts a PENDING order and moves every open alert in
	// linkedAlertIDs to ORDER_PLACED. It returns the ids actually linked.
	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder, linkedAlertIDs []string) (*domain.PurchaseOrder, []string, error)
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, status domain.OrderStatus, limit int) ([]domain.PurchaseOrder, error)
	ConfirmPurchaseReceipt(ctx context.Context, id string, actorID string, at time.Time) (*domain.ReceiptReconciliation, error)
	GetPurchaseHistory(ctx context.Context, productID string) (domain.PurchaseHistory, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}

const (
	ReceiptComment       = "purchase order receipt"
	ManualAlertComment   = "created manually by %s"
	LinkedAlertComment   = "[auto] purchase order %s created"
	ArchivedAlertComment = "[auto] purchase order %s received"
)
