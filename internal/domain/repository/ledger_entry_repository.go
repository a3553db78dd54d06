package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// LedgerFilter filtros para listar transacciones (todos opcionales).
type LedgerFilter struct {
	ProductID     string
	BranchID      string
	Type          entity.LedgerEntryType
	From          *time.Time
	To            *time.Time
	ReferenceType string
	ReferenceID   string
	Limit         int
	Offset        int
}

// LedgerEntryRepository define el puerto del log append-only de transacciones.
// No expone Update ni Delete: las correcciones son nuevas entradas.
type LedgerEntryRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	// List ordena por fecha descendente.
	List(ctx context.Context, companyID string, filter LedgerFilter) ([]*entity.LedgerEntry, error)
	// SumDeltas suma los deltas comprometidos de una línea (plegado del log).
	SumDeltas(ctx context.Context, key entity.StockKey) (sum int64, count int, err error)
}
