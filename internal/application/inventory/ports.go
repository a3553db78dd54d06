package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacenamiento, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn devuelve error no queda nada escrito.
// Las colisiones de concurrencia se reportan como domain.ErrWriteConflict y los fallos de conexión
// como domain.ErrStoreUnavailable.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerEntryRepository,
		stockRepo repository.StockLineRepository,
		transferRepo repository.TransferRepository,
	) error) error
}

// StockObserver recibe la línea de stock resultante después de cada commit del ledger.
// Sus errores nunca revierten la transacción ya comprometida.
type StockObserver interface {
	StockChanged(ctx context.Context, line *entity.StockLine) error
}
