package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// AlertHandler expone las alertas de stock.
type AlertHandler struct {
	alerts *inventory.AlertGenerator
}

// NewAlertHandler construye el handler.
func NewAlertHandler(alerts *inventory.AlertGenerator) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// List godoc
// @Summary      Listar alertas de stock
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        branch_id   query  string  false  "Sucursal"
// @Param        unresolved  query  bool    false  "Solo sin resolver"
// @Param        limit       query  int     false  "Límite"
// @Param        offset      query  int     false  "Offset"
// @Success      200  {array}  dto.StockAlertResponse
// @Router       /api/inventory/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	filter := repository.AlertFilter{
		BranchID:       c.Query("branch_id"),
		UnresolvedOnly: c.QueryBool("unresolved", false),
		Limit:          c.QueryInt("limit", 0),
		Offset:         c.QueryInt("offset", 0),
	}
	if scope := GetBranchID(c); scope != "" {
		if filter.BranchID != "" && filter.BranchID != scope {
			return forbiddenBranch(c)
		}
		filter.BranchID = scope
	}
	list, err := h.alerts.ListAlerts(c.UserContext(), companyID, filter)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockAlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return c.JSON(out)
}

// MarkRead godoc
// @Summary      Marcar alerta como leída
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la alerta"
// @Success      200  {object}  dto.StockAlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/read [patch]
func (h *AlertHandler) MarkRead(c *fiber.Ctx) error {
	return h.update(c, h.alerts.MarkRead)
}

// Resolve godoc
// @Summary      Resolver alerta manualmente
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la alerta"
// @Success      200  {object}  dto.StockAlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/alerts/{id}/resolve [patch]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	return h.update(c, h.alerts.Resolve)
}

type alertOp func(ctx context.Context, companyID, alertID string) (*entity.StockAlert, error)

func (h *AlertHandler) update(c *fiber.Ctx, op alertOp) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	a, err := op(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}
