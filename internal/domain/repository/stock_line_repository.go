package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// StockLineRepository define el puerto de la proyección de stock por sucursal+producto.
// Usado dentro de transacciones para garantizar consistencia con el ledger.
type StockLineRepository interface {
	// Get devuelve la línea; si no existe devuelve una línea con cantidad 0 (nunca nil sin error).
	Get(ctx context.Context, key entity.StockKey) (*entity.StockLine, error)
	// GetForUpdate como Get pero bloquea la línea hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error)
	Upsert(ctx context.Context, line *entity.StockLine) error
	// List devuelve las líneas de la empresa; branchID vacío = todas las sucursales.
	List(ctx context.Context, companyID, branchID string) ([]*entity.StockLine, error)
}
