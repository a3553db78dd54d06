package inventory

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

// StockError detalle de un rechazo por stock insuficiente (envuelve domain.ErrInsufficientStock).
type StockError struct {
	BranchID  string
	ProductID string
	Current   int64
	Reserved  int64
	Requested int64 // delta solicitado (negativo)
}

func (e *StockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s en sucursal %s (actual %d, reservado %d, solicitado %d)",
		e.ProductID, e.BranchID, e.Current, e.Reserved, e.Requested)
}

func (e *StockError) Unwrap() error { return domain.ErrInsufficientStock }

// ItemResult resultado por ítem de una operación de traslado.
type ItemResult struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	EntryID   string `json:"entry_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TransferPartialError indica que solo una parte de los ítems del traslado se aplicó.
// Las entradas ya aplicadas NO se revierten automáticamente; requieren CancelTransfer o ajuste manual.
type TransferPartialError struct {
	TransferID string
	Stage      string // debit, credit, cancel
	Succeeded  []ItemResult
	Failed     []ItemResult
	Cause      error // primer error encontrado
}

func (e *TransferPartialError) Error() string {
	failed := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		failed = append(failed, fmt.Sprintf("%s x%d: %s", f.ProductID, f.Quantity, f.Error))
	}
	return fmt.Sprintf("traslado %s aplicado parcialmente (%s): %d ok, %d con error [%s]",
		e.TransferID, e.Stage, len(e.Succeeded), len(e.Failed), strings.Join(failed, "; "))
}

func (e *TransferPartialError) Unwrap() error { return e.Cause }
