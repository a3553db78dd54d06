package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// TransferFilter filtros para listar traslados.
type TransferFilter struct {
	BranchID string // origen o destino
	Status   entity.TransferStatus
	Limit    int
	Offset   int
}

// TransferRepository define el puerto de persistencia para StockTransfer (incluye sus ítems).
type TransferRepository interface {
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea el traslado hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	Update(ctx context.Context, transfer *entity.StockTransfer) error
	List(ctx context.Context, companyID string, filter TransferFilter) ([]*entity.StockTransfer, error)
}
