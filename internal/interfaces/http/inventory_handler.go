package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// InventoryHandler maneja transacciones del ledger, consulta de stock, reservas y estadísticas.
type InventoryHandler struct {
	movements *inventory.MovementUseCase
	ledger    *inventory.Ledger
	stats     *inventory.StatisticsUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(movements *inventory.MovementUseCase, ledger *inventory.Ledger, stats *inventory.StatisticsUseCase) *InventoryHandler {
	return &InventoryHandler{movements: movements, ledger: ledger, stats: stats}
}

// inBranchScope verifica que un usuario limitado a una sucursal solo opere sobre ella.
func inBranchScope(c *fiber.Ctx, branchIDs ...string) bool {
	scope := GetBranchID(c)
	if scope == "" {
		return true
	}
	for _, b := range branchIDs {
		if b != scope {
			return false
		}
	}
	return true
}

func forbiddenBranch(c *fiber.Ctx) error {
	return writeError(c, fmt.Errorf("%w: el usuario solo opera en la sucursal %s", domain.ErrForbidden, GetBranchID(c)))
}

// ApplyTransaction godoc
// @Summary      Registrar transacción de inventario
// @Description  Aplica un delta con signo al stock de (sucursal, producto) y agrega la entrada al ledger.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ApplyTransactionRequest  true  "branch_id, product_id, type, quantity (con signo)"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) ApplyTransaction(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ApplyTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !inBranchScope(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	entry, err := h.movements.RecordTransaction(c.UserContext(), companyID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryResponse(entry))
}

// ListTransactions godoc
// @Summary      Listar transacciones
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id      query  string  false  "Producto"
// @Param        branch_id       query  string  false  "Sucursal"
// @Param        type            query  string  false  "Tipo de transacción"
// @Param        from            query  string  false  "Desde (RFC3339)"
// @Param        to              query  string  false  "Hasta (RFC3339)"
// @Param        reference_type  query  string  false  "Tipo de referencia"
// @Param        reference_id    query  string  false  "ID de referencia"
// @Param        limit           query  int     false  "Límite"
// @Param        offset          query  int     false  "Offset"
// @Success      200  {object}  dto.LedgerListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	filter := repository.LedgerFilter{
		ProductID:     c.Query("product_id"),
		BranchID:      c.Query("branch_id"),
		Type:          entity.LedgerEntryType(c.Query("type")),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Limit:         c.QueryInt("limit", 0),
		Offset:        c.QueryInt("offset", 0),
	}
	if scope := GetBranchID(c); scope != "" {
		if filter.BranchID != "" && filter.BranchID != scope {
			return forbiddenBranch(c)
		}
		filter.BranchID = scope
	}
	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.ListTransactions(c.UserContext(), companyID, filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LedgerListResponse{
		Items: toLedgerEntryResponses(list),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset},
	})
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if d, derr := time.Parse(time.DateOnly, raw); derr == nil {
			return &d, nil
		}
		return nil, fmt.Errorf("%w: %s no es una fecha RFC3339", domain.ErrInvalidInput, key)
	}
	return &t, nil
}

// InitializeOpeningStock godoc
// @Summary      Registrar stock inicial de un producto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.OpeningStockRequest  true  "product_id y cantidades por sucursal"
// @Success      201   {array}   dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/opening-stock [post]
func (h *InventoryHandler) InitializeOpeningStock(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.OpeningStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	for branchID := range in.Quantities {
		if !inBranchScope(c, branchID) {
			return forbiddenBranch(c)
		}
	}
	entries, err := h.movements.InitializeOpeningStock(c.UserContext(), companyID, userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryResponses(entries))
}

func (h *InventoryHandler) stockKey(c *fiber.Ctx) (entity.StockKey, bool) {
	key := entity.StockKey{CompanyID: GetCompanyID(c), BranchID: c.Params("branch_id"), ProductID: c.Params("product_id")}
	return key, inBranchScope(c, key.BranchID)
}

// GetStockLine godoc
// @Summary      Consultar stock de un producto en una sucursal
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id   path  string  true  "Sucursal"
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.StockLineResponse
// @Router       /api/inventory/stock/{branch_id}/{product_id} [get]
func (h *InventoryHandler) GetStockLine(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	key, ok := h.stockKey(c)
	if !ok {
		return forbiddenBranch(c)
	}
	line, err := h.ledger.GetStockLine(c.UserContext(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockLineResponse(line))
}

// VerifyProjection godoc
// @Summary      Verificar la proyección de stock contra el ledger
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id   path  string  true  "Sucursal"
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.ProjectionCheckResponse
// @Router       /api/inventory/stock/{branch_id}/{product_id}/verify [get]
func (h *InventoryHandler) VerifyProjection(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	key, ok := h.stockKey(c)
	if !ok {
		return forbiddenBranch(c)
	}
	check, err := h.ledger.VerifyProjection(c.UserContext(), key)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProjectionCheckResponse{
		BranchID:          key.BranchID,
		ProductID:         key.ProductID,
		ProjectedQuantity: check.ProjectedQuantity,
		LedgerQuantity:    check.LedgerQuantity,
		EntryCount:        check.EntryCount,
		Consistent:        check.Consistent,
	})
}

// Reserve godoc
// @Summary      Reservar stock disponible
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branch_id   path  string                  true  "Sucursal"
// @Param        product_id  path  string                  true  "Producto"
// @Param        body        body  dto.ReservationRequest  true  "quantity"
// @Success      200  {object}  dto.StockLineResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{branch_id}/{product_id}/reserve [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.reservation(c, h.ledger.Reserve)
}

// Release godoc
// @Summary      Liberar stock reservado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        branch_id   path  string                  true  "Sucursal"
// @Param        product_id  path  string                  true  "Producto"
// @Param        body        body  dto.ReservationRequest  true  "quantity"
// @Success      200  {object}  dto.StockLineResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/{branch_id}/{product_id}/release [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.reservation(c, h.ledger.Release)
}

func (h *InventoryHandler) reservation(c *fiber.Ctx, op func(ctx context.Context, key entity.StockKey, qty int64) (*entity.StockLine, error)) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	key, ok := h.stockKey(c)
	if !ok {
		return forbiddenBranch(c)
	}
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	line, err := op(c.UserContext(), key, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockLineResponse(line))
}

// GetStatistics godoc
// @Summary      Estadísticas de inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal (vacío = todas)"
// @Success      200  {object}  dto.StatisticsResponse
// @Router       /api/inventory/statistics [get]
func (h *InventoryHandler) GetStatistics(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	branchID := c.Query("branch_id")
	if scope := GetBranchID(c); scope != "" {
		if branchID != "" && branchID != scope {
			return forbiddenBranch(c)
		}
		branchID = scope
	}
	s, err := h.stats.GetStatistics(c.UserContext(), companyID, branchID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StatisticsResponse{
		TotalValue:      s.TotalValue,
		TotalCost:       s.TotalCost,
		LowStockCount:   s.LowStockCount,
		OutOfStockCount: s.OutOfStockCount,
		AveragePrice:    s.AveragePrice,
		TotalUnits:      s.TotalUnits,
		ProductCount:    s.ProductCount,
		StockLineCount:  s.StockLineCount,
	})
}
