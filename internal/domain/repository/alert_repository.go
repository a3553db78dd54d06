package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// AlertFilter filtros para listar alertas.
type AlertFilter struct {
	BranchID       string
	UnresolvedOnly bool
	Limit          int
	Offset         int
}

// AlertRepository define el puerto de persistencia para StockAlert.
type AlertRepository interface {
	// Create devuelve domain.ErrConflict si ya existe una alerta sin resolver del mismo (producto, sucursal, tipo).
	Create(ctx context.Context, alert *entity.StockAlert) error
	GetByID(ctx context.Context, id string) (*entity.StockAlert, error)
	Update(ctx context.Context, alert *entity.StockAlert) error
	// ListUnresolved devuelve las alertas sin resolver de una línea de stock.
	ListUnresolved(ctx context.Context, key entity.StockKey) ([]*entity.StockAlert, error)
	List(ctx context.Context, companyID string, filter AlertFilter) ([]*entity.StockAlert, error)
}
