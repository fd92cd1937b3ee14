package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Actor struct {
	ID   string
	Role string
}

type Product struct {
	ID                string          `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	CategoryID        string          `json:"category_id" db:"category_id"`
	SupplierID        string          `json:"supplier_id,omitempty" db:"supplier_id"`
	UnitPrice         decimal.Decimal `json:"unit_price" db:"unit_price"`
	VATRate           decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	Stock             int             `json:"stock" db:"stock"`
	BaselineStock     int             `json:"baseline_stock" db:"baseline_stock"`
	AlertThreshold    int             `json:"alert_threshold" db:"alert_threshold"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price" db:"last_purchase_price"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

type ProductCreateRequest struct {
	Name           string           `json:"name"`
	CategoryID     string           `json:"category_id"`
	SupplierID     string           `json:"supplier_id"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	VATRate        *decimal.Decimal `json:"vat_rate,omitempty"`
	InitialStock   int              `json:"initial_stock"`
	AlertThreshold int              `json:"alert_threshold"`
}

type ThresholdUpdateRequest struct {
	Threshold int `json:"threshold"`
}

type Sale struct {
	ID            string        `json:"id" db:"id"`
	ActorID       string        `json:"actor_id" db:"actor_id"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	Lines         []SaleLine    `json:"lines" db:"-"`
	Receipt       Receipt       `json:"receipt" db:"-"`
}

type SaleLine struct {
	SaleID          string          `json:"-" db:"sale_id"`
	LineNo          int             `json:"line_no" db:"line_no"`
	ProductID       string          `json:"product_id" db:"product_id"`
	ProductName     string          `json:"product_name" db:"product_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" db:"unit_price"`
	VATRate         decimal.Decimal `json:"vat_rate" db:"vat_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent" db:"discount_percent"`
}

type Receipt struct {
	ID             string          `json:"id" db:"id"`
	SaleID         string          `json:"sale_id" db:"sale_id"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal  decimal.Decimal `json:"discount_total" db:"discount_total"`
	TotalHT        decimal.Decimal `json:"total_ht" db:"total_ht"`
	VATAmount      decimal.Decimal `json:"vat_amount" db:"vat_amount"`
	TotalTTC       decimal.Decimal `json:"total_ttc" db:"total_ttc"`
	AmountTendered decimal.Decimal `json:"amount_tendered" db:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due" db:"change_due"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

type SaleLineRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type SaleRequest struct {
	Lines          []SaleLineRequest `json:"lines"`
	PaymentMethod  PaymentMethod     `json:"payment_method"`
	AmountTendered decimal.Decimal   `json:"amount_tendered"`
}

type CartTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TotalHT       decimal.Decimal `json:"total_ht"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
}

type CartQuote struct {
	Lines  []SaleLine `json:"lines"`
	Totals CartTotals `json:"totals"`
}

type SaleReceipt struct {
	SaleID  string     `json:"sale_id"`
	Receipt Receipt    `json:"receipt"`
	Lines   []SaleLine `json:"lines"`
}

type StockMovement struct {
	ID              string       `json:"id" db:"id"`
	ProductID       string       `json:"product_id" db:"product_id"`
	Type            MovementType `json:"type" db:"movement_type"`
	Quantity        int          `json:"quantity" db:"quantity"`
	ActorID         string       `json:"actor_id" db:"actor_id"`
	Comment         string       `json:"comment,omitempty" db:"comment"`
	PurchaseOrderID string       `json:"purchase_order_id,omitempty" db:"purchase_order_id"`
	SaleID          string       `json:"sale_id,omitempty" db:"sale_id"`
	StockBefore     int          `json:"stock_before" db:"stock_before"`
	StockAfter      int          `json:"stock_after" db:"stock_after"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

type MovementRequest struct {
	ProductID string       `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	Comment   string       `json:"comment"`
}

type StockVerification struct {
	ProductID     string `json:"product_id"`
	BaselineStock int    `json:"baseline_stock"`
	TotalEntries  int    `json:"total_entries"`
	TotalExits    int    `json:"total_exits"`
	Adjustments   int    `json:"adjustments"`
	ExpectedStock int    `json:"expected_stock"`
	RecordedStock int    `json:"recorded_stock"`
	Consistent    bool   `json:"consistent"`
}

type Alert struct {
	ID              string        `json:"id" db:"id"`
	ProductID       string        `json:"product_id" db:"product_id"`
	Priority        AlertPriority `json:"priority" db:"priority"`
	Status          AlertStatus   `json:"status" db:"status"`
	StockSnapshot   int           `json:"stock_snapshot" db:"stock_snapshot"`
	Threshold       int           `json:"threshold" db:"threshold"`
	PurchaseOrderID string        `json:"purchase_order_id,omitempty" db:"purchase_order_id"`
	Comment         string        `json:"comment,omitempty" db:"comment"`
	CreatedBy       string        `json:"created_by" db:"created_by"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	ProcessedAt     *time.Time    `json:"processed_at,omitempty" db:"processed_at"`
}

type ManualAlertRequest struct {
	ProductID string        `json:"product_id"`
	Priority  AlertPriority `json:"priority"`
	Comment   string        `json:"comment"`
}

type AlertStatusRequest struct {
	Status  AlertStatus `json:"status"`
	Comment string      `json:"comment"`
}

type AlertListResponse struct {
	Alerts []Alert `json:"alerts"`
}

type Supplier struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Contact   string    `json:"contact,omitempty" db:"contact"`
	Address   string    `json:"address,omitempty" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type SupplierCreateRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

type PurchaseOrderLine struct {
	PurchaseOrderID string          `json:"-" db:"purchase_order_id"`
	LineNo          int             `json:"line_no" db:"line_no"`
	ProductID       string          `json:"product_id" db:"product_id"`
	Quantity        int             `json:"quantity" db:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price" db:"unit_price"`
}

type PurchaseOrder struct {
	ID         string              `json:"id" db:"id"`
	SupplierID string              `json:"supplier_id" db:"supplier_id"`
	Status     OrderStatus         `json:"status" db:"status"`
	CreatedBy  string              `json:"created_by" db:"created_by"`
	CreatedAt  time.Time           `json:"created_at" db:"created_at"`
	ReceivedBy string              `json:"received_by,omitempty" db:"received_by"`
	ReceivedAt *time.Time          `json:"received_at,omitempty" db:"received_at"`
	Lines      []PurchaseOrderLine `json:"lines" db:"-"`
}

// Total is the negotiated order value, quantity times unit price summed over lines.
func (po PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range po.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

type PurchaseOrderLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PurchaseOrderCreateRequest struct {
	SupplierID     string                     `json:"supplier_id"`
	Lines          []PurchaseOrderLineRequest `json:"lines"`
	LinkedAlertIDs []string                   `json:"linked_alert_ids"`
}

type PurchaseOrderResponse struct {
	PurchaseOrder  PurchaseOrder   `json:"purchase_order"`
	Total          decimal.Decimal `json:"total"`
	LinkedAlertIDs []string        `json:"linked_alert_ids"`
}

type PurchaseOrderListResponse struct {
	PurchaseOrders []PurchaseOrder `json:"purchase_orders"`
}

type ReceiptReconciliation struct {
	PurchaseOrder    PurchaseOrder   `json:"purchase_order"`
	Movements        []StockMovement `json:"movements"`
	ArchivedAlertIDs []string        `json:"archived_alert_ids"`
}

type PurchaseHistory struct {
	ProductID        string          `json:"product_id"`
	LastSupplierID   string          `json:"last_supplier_id,omitempty"`
	AverageUnitPrice decimal.Decimal `json:"average_unit_price"`
	OrderCount       int             `json:"order_count"`
}

type OrderRecommendation struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	CurrentStock   int             `json:"current_stock"`
	Threshold      int             `json:"threshold"`
	SuggestedQty   int             `json:"suggested_qty"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
	PriceSource    string          `json:"price_source"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

type ReplenishmentNeed struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"current_stock"`
	Threshold    int    `json:"threshold"`
	SuggestedQty int    `json:"suggested_qty"`
	OpenAlert    bool   `json:"open_alert"`
}

type ReplenishmentResponse struct {
	GeneratedAt string              `json:"generated_at"`
	Needs       []ReplenishmentNeed `json:"needs"`
}

type AuditLog struct {
	ID         string    `json:"id" db:"id"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	ActorRole  string    `json:"actor_role" db:"actor_role"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Detail     string    `json:"detail" db:"detail"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
