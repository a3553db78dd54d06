package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Orden relevante: los errores más específicos primero.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrOpeningStockExists, fiber.StatusConflict, "OPENING_STOCK_EXISTS"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrTransferIncomplete, fiber.StatusConflict, "TRANSFER_INCOMPLETE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrProductNotTracked, fiber.StatusUnprocessableEntity, "PRODUCT_NOT_TRACKED"},
	{domain.ErrStoreUnavailable, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
	{domain.ErrWriteConflict, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
}

// writeError traduce un error de dominio a status HTTP + dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status == fiber.StatusServiceUnavailable {
				c.Set(fiber.HeaderRetryAfter, "1")
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// writeTransferResult responde 207 con el detalle por ítem si el traslado quedó parcial;
// en otro caso delega en writeError.
func writeTransferResult(c *fiber.Ctx, err error, status int, res *dto.TransferResponse) error {
	if pe, ok := inventory.IsPartial(err); ok {
		return c.Status(fiber.StatusMultiStatus).JSON(dto.TransferPartialResponse{
			Code:      "TRANSFER_PARTIAL",
			Message:   pe.Error(),
			Stage:     pe.Stage,
			Transfer:  res,
			Succeeded: toItemResults(pe.Succeeded),
			Failed:    toItemResults(pe.Failed),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(res)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
