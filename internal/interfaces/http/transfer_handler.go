package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// TransferHandler maneja los traslados entre sucursales.
type TransferHandler struct {
	movements *inventory.MovementUseCase
	transfers *inventory.TransferCoordinator
}

// NewTransferHandler construye el handler.
func NewTransferHandler(movements *inventory.MovementUseCase, transfers *inventory.TransferCoordinator) *TransferHandler {
	return &TransferHandler{movements: movements, transfers: transfers}
}

// authorize rechaza la operación si el usuario está limitado a una sucursal
// que no es origen ni destino del traslado.
func (h *TransferHandler) authorize(c *fiber.Ctx, companyID, transferID string) error {
	scope := GetBranchID(c)
	if scope == "" {
		return nil
	}
	t, err := h.transfers.GetTransfer(c.UserContext(), companyID, transferID)
	if err != nil {
		return err
	}
	if t.FromBranchID != scope && t.ToBranchID != scope {
		return fmt.Errorf("%w: el usuario solo opera en la sucursal %s", domain.ErrForbidden, scope)
	}
	return nil
}

// Create godoc
// @Summary      Crear traslado entre sucursales
// @Description  Descuenta cada ítem en origen; con status=completed también acredita en destino.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTransferRequest  true  "from_branch_id, to_branch_id, items, status"
// @Success      201   {object}  dto.TransferResponse
// @Success      207   {object}  dto.TransferPartialResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !inBranchScope(c, in.FromBranchID) {
		return forbiddenBranch(c)
	}
	t, err := h.movements.CreateTransfer(c.UserContext(), companyID, userID, in)
	return writeTransferResult(c, err, fiber.StatusCreated, toTransferResponse(t))
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal origen o destino"
// @Param        status     query  string  false  "Estado"
// @Param        limit      query  int     false  "Límite"
// @Param        offset     query  int     false  "Offset"
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/inventory/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	filter := repository.TransferFilter{
		BranchID: c.Query("branch_id"),
		Status:   entity.TransferStatus(c.Query("status")),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	if scope := GetBranchID(c); scope != "" {
		if filter.BranchID != "" && filter.BranchID != scope {
			return forbiddenBranch(c)
		}
		filter.BranchID = scope
	}
	list, err := h.transfers.ListTransfers(c.UserContext(), companyID, filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]*dto.TransferResponse, 0, len(list))
	for _, t := range list {
		out = append(out, toTransferResponse(t))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	t, err := h.transfers.GetTransfer(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !inBranchScope(c, t.FromBranchID) && !inBranchScope(c, t.ToBranchID) {
		return forbiddenBranch(c)
	}
	return c.JSON(toTransferResponse(t))
}

// Advance godoc
// @Summary      Avanzar estado de un traslado (pending, in_transit)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "ID del traslado"
// @Param        body  body      dto.AdvanceTransferRequest  true  "status"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id}/status [patch]
func (h *TransferHandler) Advance(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.AdvanceTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.authorize(c, companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	t, err := h.transfers.AdvanceTransfer(c.UserContext(), companyID, c.Params("id"), entity.TransferStatus(in.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Complete godoc
// @Summary      Completar traslado (acreditar en destino)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Success      207  {object}  dto.TransferPartialResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id}/complete [post]
func (h *TransferHandler) Complete(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	if err := h.authorize(c, companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	t, err := h.transfers.CompleteTransfer(c.UserContext(), companyID, c.Params("id"), userID)
	return writeTransferResult(c, err, fiber.StatusOK, toTransferResponse(t))
}

// Cancel godoc
// @Summary      Cancelar traslado con ajustes compensatorios
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Success      207  {object}  dto.TransferPartialResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	if err := h.authorize(c, companyID, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	t, err := h.transfers.CancelTransfer(c.UserContext(), companyID, c.Params("id"), userID)
	return writeTransferResult(c, err, fiber.StatusOK, toTransferResponse(t))
}
