package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType tipo de transacción de inventario.
type LedgerEntryType string

// Tipos de transacción del ledger.
const (
	EntryPurchase       LedgerEntryType = "purchase"
	EntrySale           LedgerEntryType = "sale"
	EntryUsage          LedgerEntryType = "usage"
	EntryAdjustment     LedgerEntryType = "adjustment"
	EntryTransferIn     LedgerEntryType = "transfer_in"
	EntryTransferOut    LedgerEntryType = "transfer_out"
	EntryReturnVendor   LedgerEntryType = "return_vendor"
	EntryReturnCustomer LedgerEntryType = "return_customer"
	EntryDamage         LedgerEntryType = "damage"
	EntryOpening        LedgerEntryType = "opening"
)

// Tipos de referencia a eventos de negocio que originan una transacción.
const (
	ReferenceTransfer      = "transfer"
	ReferenceAppointment   = "appointment"
	ReferenceSale          = "sale"
	ReferencePurchaseOrder = "purchase_order"
)

// Sign indica el signo exigido para el delta: 1 entradas, -1 salidas, 0 ambos (ajuste).
// Devuelve ok=false si el tipo no es válido.
func (t LedgerEntryType) Sign() (sign int, ok bool) {
	switch t {
	case EntryPurchase, EntryTransferIn, EntryReturnCustomer, EntryOpening:
		return 1, true
	case EntrySale, EntryUsage, EntryTransferOut, EntryReturnVendor, EntryDamage:
		return -1, true
	case EntryAdjustment:
		return 0, true
	}
	return 0, false
}

// IsRestock indica si el tipo cuenta como reabastecimiento (actualiza LastRestockDate).
func (t LedgerEntryType) IsRestock() bool {
	return t == EntryPurchase || t == EntryTransferIn || t == EntryOpening
}

// LedgerEntry registro inmutable de un cambio de cantidad y su causa.
// PreviousQuantity y NewQuantity son una foto de auditoría tomada al escribir; no se recalculan.
type LedgerEntry struct {
	ID               string
	CompanyID        string
	BranchID         string
	ProductID        string
	Type             LedgerEntryType
	Date             time.Time
	Quantity         int64 // delta con signo; positivo = aumento
	PreviousQuantity int64
	NewQuantity      int64
	UnitCost         *decimal.Decimal
	TotalCost        *decimal.Decimal
	UnitPrice        *decimal.Decimal
	ReferenceType    string
	ReferenceID      string
	Notes            string
	PerformedBy      string
	CreatedAt        time.Time
}
