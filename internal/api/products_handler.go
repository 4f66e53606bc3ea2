package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/trade-enrichment/internal/catalog"
)

// Fixed failure bodies returned by the mutation endpoints.
const (
	msgAlreadyPresent = "product_id already present"
	msgNotFound       = "product_id not found"
)

// ProductCatalog is the catalog surface the HTTP layer needs.
type ProductCatalog interface {
	Snapshot() catalog.Snapshot
	Add(id, name string) bool
	Change(id, name string) bool
	Remove(id string) bool
}

// ProductsHandler serves the product listing and mutation endpoints.
type ProductsHandler struct {
	logger  *zap.Logger
	catalog ProductCatalog
}

func NewProductsHandler(logger *zap.Logger, c ProductCatalog) *ProductsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductsHandler{logger: logger, catalog: c}
}

// GET /api/v1/products
func (h *ProductsHandler) ListProducts(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(catalog.Render(h.catalog.Snapshot()))
}

// PUT /api/v1/products?product_id=&product_name=
func (h *ProductsHandler) AddProduct(c *fiber.Ctx) error {
	id, err := requiredQuery(c, "product_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	name, err := requiredQuery(c, "product_name")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if !h.catalog.Add(id, name) {
		return badRequest(c, msgAlreadyPresent)
	}
	h.logger.Info("products.added", zap.String("product_id", id), zap.String("product_name", name))
	return c.Status(fiber.StatusOK).Send(nil)
}

// PATCH /api/v1/products?product_id=&product_name=
func (h *ProductsHandler) ChangeProduct(c *fiber.Ctx) error {
	id, err := requiredQuery(c, "product_id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	name, err := requiredQuery(c, "product_name")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if !h.catalog.Change(id, name) {
		return badRequest(c, msgNotFound)
	}
	h.logger.Info("products.changed", zap.String("product_id", id), zap.String("product_name", name))
	return c.Status(fiber.StatusOK).Send(nil)
}

// DELETE /api/v1/products?product_id=
func (h *ProductsHandler) RemoveProduct(c *fiber.Ctx) error {
	id, err := requiredQuery(c, "product_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if !h.catalog.Remove(id) {
		return badRequest(c, msgNotFound)
	}
	h.logger.Info("products.removed", zap.String("product_id", id))
	return c.Status(fiber.StatusOK).Send(nil)
}

// requiredQuery returns the trimmed query value for key, rejecting absent or blank values.
func requiredQuery(c *fiber.Ctx, key string) (string, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return "", errors.New(key + " is required")
	}
	return val, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusBadRequest).SendString(msg)
}
