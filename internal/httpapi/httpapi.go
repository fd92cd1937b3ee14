package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"stockpos/backend/internal/domain"
	"stockpos/backend/internal/service"
	"stockpos/backend/internal/store"
)

const maxBodyBytes = 1 << 20

type Options struct {
	AllowedOrigin      string
	RequestsPerMinute  int
	DisableRateLimiter bool
}

type API struct {
	service *service.Service
	auth    *AuthManager
	logger  *zap.Logger
	opts    Options
}

func New(svc *service.Service, auth *AuthManager, logger *zap.Logger, opts Options) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestsPerMinute < 1 {
		opts.RequestsPerMinute = 300
	}
	return &API{service: svc, auth: auth, logger: logger, opts: opts}
}

// App builds the fiber application with every /api/v1 route registered.
func (a *API) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stockpos",
		BodyLimit:             maxBodyBytes,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          a.handleFiberError,
	})

	app.Use(requestid.New())
	app.Use(a.accessLog)
	app.Use(recover.New())
	app.Use(helmet.New(helmet.Config{
		XFrameOptions:  "DENY",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: a.opts.AllowedOrigin,
		AllowHeaders: "Content-Type, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,OPTIONS",
	}))

	app.Get("/healthz", a.handleHealth)

	api := app.Group("/api/v1")
	if !a.opts.DisableRateLimiter {
		api.Use(limiter.New(limiter.Config{
			Max:        a.opts.RequestsPerMinute,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				a.logger.Warn("rate limit reached", zap.String("ip", c.IP()), zap.String("path", c.Path()))
				return writeMessage(c, fiber.StatusTooManyRequests, "rate limit exceeded, retry soon")
			},
		}))
	}

	anyRole := a.requireAuth(RoleCashier, RoleStockManager, RolePurchasing, RoleAdmin)
	backOffice := a.requireAuth(RoleStockManager, RolePurchasing, RoleAdmin)
	counter := a.requireAuth(RoleCashier, RoleAdmin)
	stock := a.requireAuth(RoleStockManager, RoleAdmin)
	buying := a.requireAuth(RolePurchasing, RoleAdmin)
	admin := a.requireAuth(RoleAdmin)

	api.Get("/products", anyRole, a.handleListProducts)
	api.Post("/products", stock, a.handleCreateProduct)
	api.Get("/products/:id", anyRole, a.handleGetProduct)
	api.Put("/products/:id/threshold", stock, a.handleUpdateThreshold)
	api.Get("/products/:id/movements", backOffice, a.handleListMovements)
	api.Get("/products/:id/verify", stock, a.handleVerifyStock)
	api.Get("/products/:id/order-recommendation", backOffice, a.handleOrderRecommendation)

	api.Post("/cart/quote", counter, a.handleQuoteCart)
	api.Post("/sales", counter, a.handleCreateSale)
	api.Get("/sales/:id", counter, a.handleGetSale)

	api.Post("/stock/movements", stock, a.handleRecordMovement)
	api.Get("/stock/replenishment", backOffice, a.handleReplenishment)

	api.Get("/alerts", backOffice, a.handleListAlerts)
	api.Post("/alerts", backOffice, a.handleCreateAlert)
	api.Get("/alerts/:id", backOffice, a.handleGetAlert)
	api.Patch("/alerts/:id/status", backOffice, a.handleUpdateAlertStatus)

	api.Get("/suppliers", backOffice, a.handleListSuppliers)
	api.Post("/suppliers", buying, a.handleCreateSupplier)

	api.Get("/purchase-orders", backOffice, a.handleListPurchaseOrders)
	api.Post("/purchase-orders", buying, a.handleCreatePurchaseOrder)
	api.Get("/purchase-orders/:id", backOffice, a.handleGetPurchaseOrder)
	api.Post("/purchase-orders/:id/receive", backOffice, a.handleReceivePurchaseOrder)

	api.Get("/audit-logs", admin, a.handleAuditLogs)

	return app
}

func (a *API) requireAuth(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			return writeMessage(c, fiber.StatusUnauthorized, "missing bearer token")
		}

		actor, err := a.auth.ParseToken(strings.TrimSpace(authorization[len("Bearer "):]))
		if err != nil {
			return writeMessage(c, fiber.StatusUnauthorized, err.Error())
		}
		if len(roles) > 0 && !slices.Contains(roles, actor.Role) {
			a.logger.Warn("access denied",
				zap.String("actor_id", actor.ID),
				zap.String("role", actor.Role),
				zap.String("path", c.Path()),
			)
			return writeMessage(c, fiber.StatusForbidden, "forbidden role")
		}

		c.Locals("actor", actor)
		c.SetUserContext(service.WithActor(c.UserContext(), actor))
		return c.Next()
	}
}

// accessLog writes one structured line per request. Errors returned by the
// chain are rendered here so the logged status is the one the client sees.
func (a *API) accessLog(c *fiber.Ctx) error {
	startedAt := time.Now()
	if chainErr := c.Next(); chainErr != nil {
		if err := c.App().ErrorHandler(c, chainErr); err != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(startedAt)),
		zap.String("ip", c.IP()),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if actor, ok := c.Locals("actor").(domain.Actor); ok {
		fields = append(fields, zap.String("actor_id", actor.ID))
	}
	a.logger.Info("http request", fields...)
	return nil
}

func (a *API) handleFiberError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	if code >= fiber.StatusInternalServerError {
		a.logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return writeMessage(c, code, "internal server error")
	}
	return writeMessage(c, code, fiberErr.Message)
}

// writeError maps service errors onto HTTP statuses. Storage failures never
// expose their cause to the client.
func (a *API) writeError(c *fiber.Ctx, err error) error {
	var short *store.InsufficientStockError
	if errors.As(err, &short) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":      err.Error(),
			"code":       "insufficient_stock",
			"product_id": short.ProductID,
			"requested":  short.Requested,
			"available":  short.Available,
		})
	}

	var invalid *store.ValidationError
	switch {
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
			"code":  "validation_failed",
			"field": invalid.Field,
		})
	case errors.Is(err, store.ErrValidation):
		return writeCoded(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, store.ErrNotFound):
		return writeCoded(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrInvalidStateTransition):
		return writeCoded(c, fiber.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, store.ErrInsufficientStock):
		return writeCoded(c, fiber.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, store.ErrStorageFailure):
		a.logger.Error("storage failure", zap.String("path", c.Path()), zap.Error(err))
		return writeCoded(c, fiber.StatusServiceUnavailable, "storage_failure", "storage unavailable")
	default:
		a.logger.Error("unexpected error", zap.String("path", c.Path()), zap.Error(err))
		return writeCoded(c, fiber.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeMessage(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func writeCoded(c *fiber.Ctx, status int, code string, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg, "code": code})
}

func decodeJSON(c *fiber.Ctx, dest any) error {
	decoder := json.NewDecoder(bytes.NewReader(c.Body()))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if decoder.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

func parsePositiveLimit(raw string, fallback int, max int) int {
	limit := fallback
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" {
		if parsed, err := strconv.Atoi(trimmed); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
