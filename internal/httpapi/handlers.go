package httpapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"stockpos/backend/internal/domain"
)

func (a *API) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleListProducts(c *fiber.Ctx) error {
	products, err := a.service.ListProducts(c.UserContext())
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(fiber.Map{"products": products})
}

func (a *API) handleCreateProduct(c *fiber.Ctx) error {
	var req domain.ProductCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	product, err := a.service.CreateProduct(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (a *API) handleGetProduct(c *fiber.Ctx) error {
	product, err := a.service.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(product)
}

func (a *API) handleUpdateThreshold(c *fiber.Ctx) error {
	var req domain.ThresholdUpdateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	product, err := a.service.UpdateProductThreshold(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(product)
}

func (a *API) handleListMovements(c *fiber.Ctx) error {
	limit := parsePositiveLimit(c.Query("limit"), 100, 1000)
	movements, err := a.service.ListMovements(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(fiber.Map{"movements": movements})
}

func (a *API) handleVerifyStock(c *fiber.Ctx) error {
	result, err := a.service.VerifyStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(result)
}

func (a *API) handleOrderRecommendation(c *fiber.Ctx) error {
	rec, err := a.service.OrderRecommendation(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(rec)
}

type cartQuoteRequest struct {
	Lines []domain.SaleLineRequest `json:"lines"`
}

func (a *API) handleQuoteCart(c *fiber.Ctx) error {
	var req cartQuoteRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	quote, err := a.service.QuoteCart(c.UserContext(), req.Lines)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(quote)
}

func (a *API) handleCreateSale(c *fiber.Ctx) error {
	var req domain.SaleRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	receipt, err := a.service.ProcessSale(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(receipt)
}

func (a *API) handleGetSale(c *fiber.Ctx) error {
	sale, err := a.service.GetSale(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(sale)
}

func (a *API) handleRecordMovement(c *fiber.Ctx) error {
	var req domain.MovementRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	movement, err := a.service.RecordMovement(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(movement)
}

func (a *API) handleReplenishment(c *fiber.Ctx) error {
	resp, err := a.service.ReplenishmentNeeds(c.UserContext())
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(resp)
}

func (a *API) handleListAlerts(c *fiber.Ctx) error {
	var statuses []domain.AlertStatus
	for _, raw := range strings.Split(c.Query("status"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			statuses = append(statuses, domain.AlertStatus(raw))
		}
	}
	limit := parsePositiveLimit(c.Query("limit"), 200, 500)

	resp, err := a.service.ListAlerts(c.UserContext(), statuses, c.Query("product_id"), limit)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(resp)
}

func (a *API) handleCreateAlert(c *fiber.Ctx) error {
	var req domain.ManualAlertRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	alert, err := a.service.CreateManualAlert(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(alert)
}

func (a *API) handleGetAlert(c *fiber.Ctx) error {
	alert, err := a.service.GetAlert(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(alert)
}

func (a *API) handleUpdateAlertStatus(c *fiber.Ctx) error {
	var req domain.AlertStatusRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	alert, err := a.service.UpdateAlertStatus(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(alert)
}

func (a *API) handleListSuppliers(c *fiber.Ctx) error {
	suppliers, err := a.service.ListSuppliers(c.UserContext())
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(fiber.Map{"suppliers": suppliers})
}

func (a *API) handleCreateSupplier(c *fiber.Ctx) error {
	var req domain.SupplierCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	supplier, err := a.service.CreateSupplier(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(supplier)
}

func (a *API) handleListPurchaseOrders(c *fiber.Ctx) error {
	limit := parsePositiveLimit(c.Query("limit"), 200, 500)
	resp, err := a.service.ListPurchaseOrders(c.UserContext(), c.Query("status"), limit)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(resp)
}

func (a *API) handleCreatePurchaseOrder(c *fiber.Ctx) error {
	var req domain.PurchaseOrderCreateRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeCoded(c, fiber.StatusBadRequest, "invalid_body", err.Error())
	}
	resp, err := a.service.CreatePurchaseOrder(c.UserContext(), req)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (a *API) handleGetPurchaseOrder(c *fiber.Ctx) error {
	resp, err := a.service.GetPurchaseOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(resp)
}

func (a *API) handleReceivePurchaseOrder(c *fiber.Ctx) error {
	result, err := a.service.ConfirmPurchaseReceipt(c.UserContext(), c.Params("id"))
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(result)
}

func (a *API) handleAuditLogs(c *fiber.Ctx) error {
	limit := parsePositiveLimit(c.Query("limit"), 200, 500)
	logs, err := a.service.ListAuditLogs(c.UserContext(), limit)
	if err != nil {
		return a.writeError(c, err)
	}
	return c.JSON(fiber.Map{"audit_logs": logs})
}
