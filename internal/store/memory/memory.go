package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/xid"
)

// Store keeps every entity in maps guarded by one mutex. Mutating methods
// validate and stage their full effect before touching any map, so an error
// at any point leaves the store as it was.
type Store struct {
	mu             sync.RWMutex
	products       map[string]domain.Product
	movements      []domain.StockMovement
	sales          map[string]domain.Sale
	alerts         map[string]domain.Alert
	suppliers      map[string]domain.Supplier
	purchaseOrders map[string]domain.PurchaseOrder
	auditLogs      []domain.AuditLog

	// beforeCommit runs after staging and before applying; tests use it to
	// inject a failure at the commit point of an operation.
	beforeCommit func(op string) error
}

func New() *Store {
	return &Store{
		products:       make(map[string]domain.Product),
		movements:      make([]domain.StockMovement, 0, 256),
		sales:          make(map[string]domain.Sale),
		alerts:         make(map[string]domain.Alert),
		suppliers:      make(map[string]domain.Supplier),
		purchaseOrders: make(map[string]domain.PurchaseOrder),
		auditLogs:      make([]domain.AuditLog, 0, 128),
	}
}

func NewSeeded() *Store {
	s := New()
	suppliers, products := store.DemoCatalog(time.Now().UTC())
	for _, sup := range suppliers {
		s.suppliers[sup.ID] = sup
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *Store) commit(op string) error {
	if s.beforeCommit == nil {
		return nil
	}
	return s.beforeCommit(op)
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.ID == "" || product.Name == "" {
		return nil, store.Invalid("product", "id and name are required")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return nil, store.Invalid("id", "already exists")
	}
	if product.SupplierID != "" {
		if _, ok := s.suppliers[product.SupplierID]; !ok {
			return nil, fmt.Errorf("%w: supplier %s", store.ErrNotFound, product.SupplierID)
		}
	}
	s.products[product.ID] = product
	saved := product
	return &saved, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	return &p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].CategoryID == products[j].CategoryID {
			return products[i].Name < products[j].Name
		}
		return products[i].CategoryID < products[j].CategoryID
	})
	return products, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []string) (map[string]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			result[id] = p
		}
	}
	return result, nil
}

func (s *Store) UpdateProductThreshold(_ context.Context, id string, threshold int) (*domain.Product, error) {
	if threshold < 0 {
		return nil, store.Invalid("threshold", "must be >= 0")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, id)
	}
	p.AlertThreshold = threshold
	s.products[id] = p
	return &p, nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale, movements []domain.StockMovement) (*domain.Sale, error) {
	if sale.ID == "" || len(sale.Lines) == 0 {
		return nil, store.Invalid("sale", "id and at least one line are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[sale.ID]; exists {
		return nil, store.Invalid("id", "already exists")
	}
	for _, line := range sale.Lines {
		if _, ok := s.products[line.ProductID]; !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, line.ProductID)
		}
	}

	staged := make(map[string]domain.Product)
	applied := make([]domain.StockMovement, 0, len(movements))
	for _, m := range movements {
		next, err := s.stageMovement(staged, m)
		if err != nil {
			return nil, err
		}
		applied = append(applied, next)
	}

	if err := s.commit("sale"); err != nil {
		return nil, err
	}

	for id, p := range staged {
		s.products[id] = p
	}
	s.movements = append(s.movements, applied...)
	s.sales[sale.ID] = cloneSale(sale)
	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, fmt.Errorf("%w: sale %s", store.ErrNotFound, id)
	}
	saved := cloneSale(sale)
	return &saved, nil
}

func (s *Store) RecordMovement(_ context.Context, movement domain.StockMovement) (*domain.StockMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]domain.Product, 1)
	next, err := s.stageMovement(staged, movement)
	if err != nil {
		return nil, err
	}
	if err := s.commit("movement"); err != nil {
		return nil, err
	}

	for id, p := range staged {
		s.products[id] = p
	}
	s.movements = append(s.movements, next)
	return &next, nil
}

// stageMovement computes the effect of m on top of products already staged in
// the same operation. Callers hold the write lock.
func (s *Store) stageMovement(staged map[string]domain.Product, m domain.StockMovement) (domain.StockMovement, error) {
	if m.Quantity <= 0 {
		return domain.StockMovement{}, store.Invalid("quantity", "must be > 0")
	}
	if !m.Type.Valid() {
		return domain.StockMovement{}, store.Invalid("type", "must be ENTRY, EXIT or ADJUSTMENT")
	}
	p, ok := staged[m.ProductID]
	if !ok {
		p, ok = s.products[m.ProductID]
		if !ok {
			return domain.StockMovement{}, fmt.Errorf("%w: product %s", store.ErrNotFound, m.ProductID)
		}
	}

	m.StockBefore = p.Stock
	switch m.Type {
	case domain.MovementEntry:
		p.Stock += m.Quantity
	case domain.MovementExit:
		if m.Quantity > p.Stock {
			return domain.StockMovement{}, &store.InsufficientStockError{ProductID: p.ID, Requested: m.Quantity, Available: p.Stock}
		}
		p.Stock -= m.Quantity
	}
	m.StockAfter = p.Stock

	if m.ID == "" {
		m.ID = xid.New("mv")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	staged[p.ID] = p
	return m, nil
}

func (s *Store) ListMovements(_ context.Context, productID string, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, 0, 32)
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if productID != "" && m.ProductID != productID {
			continue
		}
		result = append(result, m)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *Store) CreateAlert(_ context.Context, alert domain.Alert) (*domain.Alert, error) {
	if !alert.Priority.Valid() {
		return nil, store.Invalid("priority", "must be CRITICAL, HIGH, MEDIUM or LOW")
	}
	if alert.ID == "" {
		alert.ID = xid.New("alr")
	}
	if alert.Status == "" {
		alert.Status = domain.AlertUnread
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[alert.ProductID]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, alert.ProductID)
	}
	alert.StockSnapshot = p.Stock
	alert.Threshold = p.AlertThreshold
	alert.ProcessedAt = nil
	s.alerts[alert.ID] = alert
	saved := cloneAlert(alert)
	return &saved, nil
}

func (s *Store) GetAlert(_ context.Context, id string) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", store.ErrNotFound, id)
	}
	saved := cloneAlert(alert)
	return &saved, nil
}

func (s *Store) ListAlerts(_ context.Context, filter store.AlertFilter) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Alert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, alert.Status) {
			continue
		}
		if filter.ProductID != "" && alert.ProductID != filter.ProductID {
			continue
		}
		if filter.PurchaseOrderID != "" && alert.PurchaseOrderID != filter.PurchaseOrderID {
			continue
		}
		result = append(result, cloneAlert(alert))
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := result[i].Priority.Rank(), result[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *Store) TransitionAlert(_ context.Context, id string, next domain.AlertStatus, comment string, at time.Time) (*domain.Alert, error) {
	if !next.Valid() {
		return nil, store.Invalid("status", "unknown alert status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("%w: alert %s", store.ErrNotFound, id)
	}
	if !alert.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: alert %s cannot move from %s to %s", store.ErrInvalidStateTransition, id, alert.Status, next)
	}

	alert.Status = next
	alert.Comment = domain.AppendComment(alert.Comment, comment)
	if next.Stamped() {
		stamped := at.UTC()
		alert.ProcessedAt = &stamped
	}
	s.alerts[id] = alert
	saved := cloneAlert(alert)
	return &saved, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return nil, store.Invalid("name", "is required")
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.suppliers {
		if strings.EqualFold(existing.Name, supplier.Name) {
			return nil, store.Invalid("name", "already exists")
		}
	}
	s.suppliers[supplier.ID] = supplier
	saved := supplier
	return &saved, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sup, ok := s.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("%w: supplier %s", store.ErrNotFound, id)
	}
	return &sup, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		suppliers = append(suppliers, sup)
	}
	sort.Slice(suppliers, func(i, j int) bool {
		return suppliers[i].Name < suppliers[j].Name
	})
	return suppliers, nil
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder, linkedAlertIDs []string) (*domain.PurchaseOrder, []string, error) {
	if po.ID == "" {
		po.ID = xid.New("po")
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now().UTC()
	}
	po.Status = domain.OrderPending
	if len(po.Lines) == 0 {
		return nil, nil, store.Invalid("lines", "at least one line is required")
	}
	po.Lines = slices.Clone(po.Lines)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[po.SupplierID]; !ok {
		return nil, nil, fmt.Errorf("%w: supplier %s", store.ErrNotFound, po.SupplierID)
	}
	for i := range po.Lines {
		if _, ok := s.products[po.Lines[i].ProductID]; !ok {
			return nil, nil, fmt.Errorf("%w: product %s", store.ErrNotFound, po.Lines[i].ProductID)
		}
		po.Lines[i].PurchaseOrderID = po.ID
		po.Lines[i].LineNo = i + 1
	}

	comment := fmt.Sprintf(store.LinkedAlertComment, po.ID)
	stagedAlerts := make([]domain.Alert, 0, len(linkedAlertIDs))
	linked := make([]string, 0, len(linkedAlertIDs))
	for _, alertID := range linkedAlertIDs {
		alert, ok := s.alerts[alertID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: alert %s", store.ErrNotFound, alertID)
		}
		if !slices.Contains(domain.OpenAlertStatuses, alert.Status) || slices.Contains(linked, alertID) {
			continue
		}
		processed := po.CreatedAt
		alert.Status = domain.AlertOrderPlaced
		alert.PurchaseOrderID = po.ID
		alert.ProcessedAt = &processed
		alert.Comment = domain.AppendComment(alert.Comment, comment)
		stagedAlerts = append(stagedAlerts, alert)
		linked = append(linked, alertID)
	}

	if err := s.commit("purchase_order"); err != nil {
		return nil, nil, err
	}

	s.purchaseOrders[po.ID] = clonePurchaseOrder(po)
	for _, alert := range stagedAlerts {
		s.alerts[alert.ID] = alert
	}
	saved := clonePurchaseOrder(po)
	return &saved, linked, nil
}

func (s *Store) GetPurchaseOrder(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	po, ok := s.purchaseOrders[id]
	if !ok {
		return nil, fmt.Errorf("%w: purchase order %s", store.ErrNotFound, id)
	}
	saved := clonePurchaseOrder(po)
	return &saved, nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, status domain.OrderStatus, limit int) ([]domain.PurchaseOrder, error) {
	if limit < 1 {
		limit = 200
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PurchaseOrder, 0, len(s.purchaseOrders))
	for _, po := range s.purchaseOrders {
		if status != "" && po.Status != status {
			continue
		}
		result = append(result, clonePurchaseOrder(po))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ConfirmPurchaseReceipt(_ context.Context, id string, actorID string, at time.Time) (*domain.ReceiptReconciliation, error) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = "system"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	po, ok := s.purchaseOrders[id]
	if !ok {
		return nil, fmt.Errorf("%w: purchase order %s", store.ErrNotFound, id)
	}
	if po.Status != domain.OrderPending {
		return nil, fmt.Errorf("%w: purchase order %s is %s", store.ErrInvalidStateTransition, id, po.Status)
	}

	staged := make(map[string]domain.Product, len(po.Lines))
	movements := make([]domain.StockMovement, 0, len(po.Lines))
	for _, line := range po.Lines {
		m, err := s.stageMovement(staged, domain.StockMovement{
			ProductID:       line.ProductID,
			Type:            domain.MovementEntry,
			Quantity:        line.Quantity,
			ActorID:         actorID,
			Comment:         store.ReceiptComment,
			PurchaseOrderID: po.ID,
			CreatedAt:       at,
		})
		if err != nil {
			return nil, err
		}
		p := staged[line.ProductID]
		p.LastPurchasePrice = line.UnitPrice
		staged[line.ProductID] = p
		movements = append(movements, m)
	}

	received := at.UTC()
	po = clonePurchaseOrder(po)
	po.Status = domain.OrderReceived
	po.ReceivedBy = actorID
	po.ReceivedAt = &received

	archiveComment := fmt.Sprintf(store.ArchivedAlertComment, po.ID)
	archived := make([]domain.Alert, 0, 4)
	for _, alert := range s.alerts {
		if alert.PurchaseOrderID != po.ID || alert.Status == domain.AlertArchived {
			continue
		}
		processed := received
		alert.Status = domain.AlertArchived
		alert.ProcessedAt = &processed
		alert.Comment = domain.AppendComment(alert.Comment, archiveComment)
		archived = append(archived, alert)
	}
	sort.Slice(archived, func(i, j int) bool { return archived[i].ID < archived[j].ID })

	if err := s.commit("receipt"); err != nil {
		return nil, err
	}

	for pid, p := range staged {
		s.products[pid] = p
	}
	s.movements = append(s.movements, movements...)
	s.purchaseOrders[po.ID] = po
	archivedIDs := make([]string, 0, len(archived))
	for _, alert := range archived {
		s.alerts[alert.ID] = alert
		archivedIDs = append(archivedIDs, alert.ID)
	}

	return &domain.ReceiptReconciliation{
		PurchaseOrder:    clonePurchaseOrder(po),
		Movements:        movements,
		ArchivedAlertIDs: archivedIDs,
	}, nil
}

func (s *Store) GetPurchaseHistory(_ context.Context, productID string) (domain.PurchaseHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := domain.PurchaseHistory{ProductID: productID, AverageUnitPrice: decimal.Zero}
	if _, ok := s.products[productID]; !ok {
		return history, fmt.Errorf("%w: product %s", store.ErrNotFound, productID)
	}

	var latest time.Time
	sum := decimal.Zero
	lines := 0
	for _, po := range s.purchaseOrders {
		found := false
		for _, line := range po.Lines {
			if line.ProductID != productID {
				continue
			}
			sum = sum.Add(line.UnitPrice)
			lines++
			found = true
		}
		if !found {
			continue
		}
		history.OrderCount++
		if po.CreatedAt.After(latest) {
			latest = po.CreatedAt
			history.LastSupplierID = po.SupplierID
		}
	}
	if lines > 0 {
		history.AverageUnitPrice = sum.Div(decimal.NewFromInt(int64(lines)))
	}
	return history, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 200
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.auditLogs[i])
	}
	return result, nil
}

func cloneSale(sale domain.Sale) domain.Sale {
	out := sale
	out.Lines = slices.Clone(sale.Lines)
	return out
}

func cloneAlert(alert domain.Alert) domain.Alert {
	out := alert
	if alert.ProcessedAt != nil {
		at := *alert.ProcessedAt
		out.ProcessedAt = &at
	}
	return out
}

func clonePurchaseOrder(po domain.PurchaseOrder) domain.PurchaseOrder {
	out := po
	out.Lines = slices.Clone(po.Lines)
	if po.ReceivedAt != nil {
		at := *po.ReceivedAt
		out.ReceivedAt = &at
	}
	return out
}
