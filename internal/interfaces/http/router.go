package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements *inventory.MovementUseCase
	Ledger    *inventory.Ledger
	Transfers *inventory.TransferCoordinator
	Alerts    *inventory.AlertGenerator
	Stats     *inventory.StatisticsUseCase
	JWTSecret string
	JWTIssuer string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	stockRoles := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	inventoryHandler := NewInventoryHandler(deps.Movements, deps.Ledger, deps.Stats)
	inv.Post("/transactions", anyRole, inventoryHandler.ApplyTransaction)
	inv.Get("/transactions", anyRole, inventoryHandler.ListTransactions)
	inv.Post("/opening-stock", stockRoles, inventoryHandler.InitializeOpeningStock)
	inv.Get("/statistics", anyRole, inventoryHandler.GetStatistics)

	const stockPath = "/stock/:branch_id/:product_id"
	inv.Get(stockPath, anyRole, inventoryHandler.GetStockLine)
	inv.Get(stockPath+"/verify", stockRoles, inventoryHandler.VerifyProjection)
	inv.Post(stockPath+"/reserve", anyRole, inventoryHandler.Reserve)
	inv.Post(stockPath+"/release", anyRole, inventoryHandler.Release)

	// Traslados
	transferHandler := NewTransferHandler(deps.Movements, deps.Transfers)
	transfers := inv.Group("/transfers")
	transfers.Post("/", stockRoles, transferHandler.Create)
	transfers.Get("/", anyRole, transferHandler.List)
	transfers.Get("/:id", anyRole, transferHandler.GetByID)
	transfers.Patch("/:id/status", stockRoles, transferHandler.Advance)
	transfers.Post("/:id/complete", stockRoles, transferHandler.Complete)
	transfers.Post("/:id/cancel", adminOnly, transferHandler.Cancel)

	// Alertas
	alertHandler := NewAlertHandler(deps.Alerts)
	alerts := inv.Group("/alerts")
	alerts.Get("/", anyRole, alertHandler.List)
	alerts.Patch("/:id/read", anyRole, alertHandler.MarkRead)
	alerts.Patch("/:id/resolve", stockRoles, alertHandler.Resolve)
}
