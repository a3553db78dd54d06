package entity

import "time"

// TransferStatus estado del traslado entre sucursales.
type TransferStatus string

// Estados del traslado: draft → pending → in_transit → completed, o cancelled.
const (
	TransferDraft     TransferStatus = "draft"
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// TransferItem línea de un traslado con los IDs de las transacciones que la respaldan.
type TransferItem struct {
	ProductID             string
	Quantity              int64
	OutEntryID            string // transfer_out en origen
	InEntryID             string // transfer_in en destino
	SourceReversalEntryID string // ajuste compensatorio en origen (cancelación)
	DestReversalEntryID   string // ajuste compensatorio en destino (cancelación con crédito previo)
	LastError             string
}

// Debited indica si el ítem ya se descontó del origen.
func (i *TransferItem) Debited() bool { return i.OutEntryID != "" }

// Credited indica si el ítem ya se acreditó en destino.
func (i *TransferItem) Credited() bool { return i.InEntryID != "" }

// StockTransfer movimiento lógico de stock entre dos sucursales.
type StockTransfer struct {
	ID           string
	CompanyID    string
	FromBranchID string
	ToBranchID   string
	TransferDate time.Time
	Items        []TransferItem
	Status       TransferStatus
	Notes        string
	CreatedBy    string
	ReceivedBy   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// IsTerminal indica si el traslado ya no admite cambios.
func (t *StockTransfer) IsTerminal() bool {
	return t.Status == TransferCompleted || t.Status == TransferCancelled
}

// Item devuelve el ítem del producto (nil si no existe).
func (t *StockTransfer) Item(productID string) *TransferItem {
	for i := range t.Items {
		if t.Items[i].ProductID == productID {
			return &t.Items[i]
		}
	}
	return nil
}
