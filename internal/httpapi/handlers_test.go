package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/recommendation"
	"stockpos/backend/internal/service"
	"stockpos/backend/internal/store"
	"stockpos/backend/internal/store/memory"
)

type testServer struct {
	app  *fiber.App
	auth *AuthManager
}

// newTestServer wires a real service over the given repository so handler
// tests exercise the complete request path.
func newTestServer(t *testing.T, repo store.Repository, opts Options) *testServer {
	t.Helper()

	if repo == nil {
		repo = memory.NewSeeded()
	}
	svc := service.New(repo, recommendation.NewEngine(nil, 0), zap.NewNop(), service.Options{
		LedgerSales:    true,
		DefaultVATRate: decimal.NewFromInt(18),
	})
	auth, err := NewAuthManager(testSecret, time.Hour)
	require.NoError(t, err)
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "http://127.0.0.1:3000"
	}
	return &testServer{app: New(svc, auth, zap.NewNop(), opts).App(), auth: auth}
}

func (s *testServer) token(t *testing.T, actorID string, role string) string {
	t.Helper()
	token, _, err := s.auth.Issue(actorID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method string, path string, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t, nil, Options{})

	resp := srv.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, true, body["ok"])
}

func TestRoutesRequireBearerTokenAndRole(t *testing.T) {
	srv := newTestServer(t, nil, Options{})

	resp := srv.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/products", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cashier := srv.token(t, "cashier-1", RoleCashier)
	resp = srv.do(t, http.MethodGet, "/api/v1/products", cashier, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/stock/movements", cashier, domain.MovementRequest{ProductID: "prd-oil-1l", Type: domain.MovementEntry, Quantity: 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/audit-logs", srv.token(t, "buyer-1", RolePurchasing), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/audit-logs", srv.token(t, "admin-1", RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuoteCartEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	cashier := srv.token(t, "cashier-1", RoleCashier)

	resp := srv.do(t, http.MethodPost, "/api/v1/cart/quote", cashier, map[string]any{
		"lines": []map[string]any{{"product_id": "prd-rice-5kg", "quantity": 2}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var quote domain.CartQuote
	decodeBody(t, resp, &quote)
	assert.Equal(t, "9000.00", quote.Totals.TotalTTC.StringFixed(2))
	assert.Equal(t, "7627.12", quote.Totals.TotalHT.StringFixed(2))
	assert.Equal(t, "1372.88", quote.Totals.VATAmount.StringFixed(2))
}

func TestCreateSaleEndpoint(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	cashier := srv.token(t, "cashier-1", RoleCashier)

	resp := srv.do(t, http.MethodPost, "/api/v1/sales", cashier, map[string]any{
		"payment_method":  "cash",
		"amount_tendered": 5000,
		"lines":           []map[string]any{{"product_id": "prd-oil-1l", "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var receipt domain.SaleReceipt
	decodeBody(t, resp, &receipt)
	assert.Equal(t, "3000.00", receipt.Receipt.TotalTTC.StringFixed(2))
	assert.Equal(t, "2000.00", receipt.Receipt.ChangeDue.StringFixed(2))

	resp = srv.do(t, http.MethodGet, "/api/v1/products/prd-oil-1l", cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var oil domain.Product
	decodeBody(t, resp, &oil)
	assert.Equal(t, 23, oil.Stock)

	resp = srv.do(t, http.MethodGet, "/api/v1/sales/"+receipt.SaleID, cashier, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sale domain.Sale
	decodeBody(t, resp, &sale)
	assert.Equal(t, "cashier-1", sale.ActorID)
	require.Len(t, sale.Lines, 1)
}

func TestCreateSaleErrors(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	cashier := srv.token(t, "cashier-1", RoleCashier)

	resp := srv.do(t, http.MethodPost, "/api/v1/sales", cashier, map[string]any{
		"payment_method": "card",
		"lines":          []map[string]any{{"product_id": "prd-sugar-1kg", "quantity": 7}},
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var short map[string]any
	decodeBody(t, resp, &short)
	assert.Equal(t, "insufficient_stock", short["code"])
	assert.Equal(t, "prd-sugar-1kg", short["product_id"])
	assert.EqualValues(t, 6, short["available"])

	resp = srv.do(t, http.MethodPost, "/api/v1/sales", cashier, `{"payment_method":"cash","lines":[],"coupon":"X"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/sales", cashier, map[string]any{
		"payment_method": "barter",
		"lines":          []map[string]any{{"product_id": "prd-oil-1l", "quantity": 1}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var invalid map[string]any
	decodeBody(t, resp, &invalid)
	assert.Equal(t, "payment_method", invalid["field"])

	resp = srv.do(t, http.MethodGet, "/api/v1/sales/sale-missing", cashier, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProcurementFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	stockManager := srv.token(t, "stock-1", RoleStockManager)
	buyer := srv.token(t, "buyer-1", RolePurchasing)

	resp := srv.do(t, http.MethodPost, "/api/v1/alerts", stockManager, domain.ManualAlertRequest{ProductID: "prd-sugar-1kg", Priority: domain.PriorityHigh})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var alert domain.Alert
	decodeBody(t, resp, &alert)
	assert.Equal(t, 6, alert.StockSnapshot)

	resp = srv.do(t, http.MethodPost, "/api/v1/purchase-orders", buyer, map[string]any{
		"supplier_id":      "sup-agrifresh",
		"lines":            []map[string]any{{"product_id": "prd-sugar-1kg", "quantity": 20, "unit_price": "650"}},
		"linked_alert_ids": []string{alert.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.PurchaseOrderResponse
	decodeBody(t, resp, &created)
	assert.Equal(t, domain.OrderPending, created.PurchaseOrder.Status)
	assert.Equal(t, "13000.00", created.Total.StringFixed(2))

	resp = srv.do(t, http.MethodGet, "/api/v1/alerts/"+alert.ID, buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &alert)
	assert.Equal(t, domain.AlertOrderPlaced, alert.Status)

	resp = srv.do(t, http.MethodPost, "/api/v1/purchase-orders/"+created.PurchaseOrder.ID+"/receive", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result domain.ReceiptReconciliation
	decodeBody(t, resp, &result)
	assert.Equal(t, domain.OrderReceived, result.PurchaseOrder.Status)
	assert.Equal(t, []string{alert.ID}, result.ArchivedAlertIDs)
	require.Len(t, result.Movements, 1)
	assert.Equal(t, 26, result.Movements[0].StockAfter)

	resp = srv.do(t, http.MethodPost, "/api/v1/purchase-orders/"+created.PurchaseOrder.ID+"/receive", stockManager, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/products/prd-sugar-1kg/verify", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verification domain.StockVerification
	decodeBody(t, resp, &verification)
	assert.True(t, verification.Consistent)
	assert.Equal(t, 26, verification.RecordedStock)

	resp = srv.do(t, http.MethodGet, "/api/v1/purchase-orders?status=received", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed domain.PurchaseOrderListResponse
	decodeBody(t, resp, &listed)
	require.Len(t, listed.PurchaseOrders, 1)
}

func TestAlertEndpointsRejectBackwardTransitions(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	stockManager := srv.token(t, "stock-1", RoleStockManager)

	resp := srv.do(t, http.MethodPost, "/api/v1/alerts", stockManager, domain.ManualAlertRequest{ProductID: "prd-soap"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var alert domain.Alert
	decodeBody(t, resp, &alert)
	assert.Equal(t, domain.PriorityMedium, alert.Priority)

	resp = srv.do(t, http.MethodPatch, "/api/v1/alerts/"+alert.ID+"/status", stockManager, domain.AlertStatusRequest{Status: domain.AlertInProgress})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPatch, "/api/v1/alerts/"+alert.ID+"/status", stockManager, domain.AlertStatusRequest{Status: domain.AlertSeen})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPatch, "/api/v1/alerts/alr-missing/status", stockManager, domain.AlertStatusRequest{Status: domain.AlertSeen})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/alerts?status=IN_PROGRESS&product_id=prd-soap", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed domain.AlertListResponse
	decodeBody(t, resp, &listed)
	require.Len(t, listed.Alerts, 1)
	assert.Equal(t, alert.ID, listed.Alerts[0].ID)

	resp = srv.do(t, http.MethodGet, "/api/v1/alerts?status=LOST", stockManager, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStockEndpoints(t *testing.T) {
	srv := newTestServer(t, nil, Options{})
	stockManager := srv.token(t, "stock-1", RoleStockManager)

	resp := srv.do(t, http.MethodPost, "/api/v1/stock/movements", stockManager, domain.MovementRequest{ProductID: "prd-milk-400g", Type: "exit", Quantity: 20})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/v1/stock/movements", stockManager, domain.MovementRequest{ProductID: "prd-milk-400g", Type: "exit", Quantity: 15})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/v1/products/prd-milk-400g/movements?limit=5", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movements struct {
		Movements []domain.StockMovement `json:"movements"`
	}
	decodeBody(t, resp, &movements)
	require.Len(t, movements.Movements, 1)
	assert.Equal(t, 3, movements.Movements[0].StockAfter)

	resp = srv.do(t, http.MethodGet, "/api/v1/stock/replenishment", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var needs domain.ReplenishmentResponse
	decodeBody(t, resp, &needs)
	require.Len(t, needs.Needs, 3)
	assert.Equal(t, "prd-soap", needs.Needs[0].ProductID)
	assert.Equal(t, "prd-milk-400g", needs.Needs[1].ProductID)

	resp = srv.do(t, http.MethodGet, "/api/v1/products/prd-milk-400g/order-recommendation", stockManager, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rec domain.OrderRecommendation
	decodeBody(t, resp, &rec)
	assert.Equal(t, 15, rec.SuggestedQty)
	assert.Equal(t, "sup-agrifresh", rec.SupplierID)

	resp = srv.do(t, http.MethodPut, "/api/v1/products/prd-milk-400g/threshold", stockManager, domain.ThresholdUpdateRequest{Threshold: -2})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type unavailableRepo struct {
	store.Repository
}

func (unavailableRepo) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestStorageFailureReturns503WithoutDetails(t *testing.T) {
	srv := newTestServer(t, unavailableRepo{Repository: memory.NewSeeded()}, Options{})

	resp := srv.do(t, http.MethodGet, "/api/v1/products", srv.token(t, "cashier-1", RoleCashier), nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "10.0.0.5")
	assert.Contains(t, string(raw), "storage_failure")
}
