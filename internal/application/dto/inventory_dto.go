package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplyTransactionRequest body para POST /api/inventory/transactions.
type ApplyTransactionRequest struct {
	BranchID      string           `json:"branch_id"`
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`
	Quantity      int64            `json:"quantity"` // delta con signo
	Notes         string           `json:"notes,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	Location      string           `json:"location,omitempty"` // código de estante
}

// OpeningStockRequest body para POST /api/inventory/opening-stock.
type OpeningStockRequest struct {
	ProductID  string           `json:"product_id"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	Quantities map[string]int64 `json:"quantities"` // branch_id → cantidad
}

// ReservationRequest body para reservar/liberar stock.
type ReservationRequest struct {
	Quantity int64 `json:"quantity"`
}

// LedgerEntryResponse salida de una transacción del ledger.
type LedgerEntryResponse struct {
	ID               string           `json:"id"`
	BranchID         string           `json:"branch_id"`
	ProductID        string           `json:"product_id"`
	Type             string           `json:"type"`
	Date             time.Time        `json:"date"`
	Quantity         int64            `json:"quantity"`
	PreviousQuantity int64            `json:"previous_quantity"`
	NewQuantity      int64            `json:"new_quantity"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost        *decimal.Decimal `json:"total_cost,omitempty"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	ReferenceType    string           `json:"reference_type,omitempty"`
	ReferenceID      string           `json:"reference_id,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	PerformedBy      string           `json:"performed_by"`
}

// LedgerListResponse lista paginada de transacciones.
type LedgerListResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// StockLineResponse salida de la proyección de stock.
type StockLineResponse struct {
	BranchID          string          `json:"branch_id"`
	ProductID         string          `json:"product_id"`
	Quantity          int64           `json:"quantity"`
	ReservedQuantity  int64           `json:"reserved_quantity"`
	AvailableQuantity int64           `json:"available_quantity"`
	Location          string          `json:"location,omitempty"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	LastStockCheck    *time.Time      `json:"last_stock_check,omitempty"`
	LastRestockDate   *time.Time      `json:"last_restock_date,omitempty"`
}

// ProjectionCheckResponse resultado de verificar la proyección contra el ledger.
type ProjectionCheckResponse struct {
	BranchID          string `json:"branch_id"`
	ProductID         string `json:"product_id"`
	ProjectedQuantity int64  `json:"projected_quantity"`
	LedgerQuantity    int64  `json:"ledger_quantity"`
	EntryCount        int    `json:"entry_count"`
	Consistent        bool   `json:"consistent"`
}

// TransferItemRequest ítem de un traslado.
type TransferItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// CreateTransferRequest body para POST /api/inventory/transfers.
type CreateTransferRequest struct {
	FromBranchID string                `json:"from_branch_id"`
	ToBranchID   string                `json:"to_branch_id"`
	Items        []TransferItemRequest `json:"items"`
	Status       string                `json:"status,omitempty"` // draft | pending | in_transit | completed
	Notes        string                `json:"notes,omitempty"`
	TransferDate *time.Time            `json:"transfer_date,omitempty"`
}

// AdvanceTransferRequest body para PATCH /api/inventory/transfers/:id/status.
type AdvanceTransferRequest struct {
	Status string `json:"status"`
}

// TransferItemResponse ítem de traslado con sus transacciones.
type TransferItemResponse struct {
	ProductID             string `json:"product_id"`
	Quantity              int64  `json:"quantity"`
	OutEntryID            string `json:"out_entry_id,omitempty"`
	InEntryID             string `json:"in_entry_id,omitempty"`
	SourceReversalEntryID string `json:"source_reversal_entry_id,omitempty"`
	DestReversalEntryID   string `json:"dest_reversal_entry_id,omitempty"`
	LastError             string `json:"last_error,omitempty"`
}

// TransferResponse salida de un traslado.
type TransferResponse struct {
	ID           string                 `json:"id"`
	FromBranchID string                 `json:"from_branch_id"`
	ToBranchID   string                 `json:"to_branch_id"`
	TransferDate time.Time              `json:"transfer_date"`
	Status       string                 `json:"status"`
	Items        []TransferItemResponse `json:"items"`
	Notes        string                 `json:"notes,omitempty"`
	CreatedBy    string                 `json:"created_by"`
	ReceivedBy   string                 `json:"received_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
	CancelledAt  *time.Time             `json:"cancelled_at,omitempty"`
}

// TransferItemResultDTO resultado por ítem en un fallo parcial.
type TransferItemResultDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	EntryID   string `json:"entry_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// TransferPartialResponse cuerpo 207 cuando un traslado se aplicó parcialmente.
type TransferPartialResponse struct {
	Code      string                  `json:"code"`
	Message   string                  `json:"message"`
	Stage     string                  `json:"stage"`
	Transfer  *TransferResponse       `json:"transfer,omitempty"`
	Succeeded []TransferItemResultDTO `json:"succeeded"`
	Failed    []TransferItemResultDTO `json:"failed"`
}

// StockAlertResponse salida de una alerta.
type StockAlertResponse struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	BranchID        string     `json:"branch_id"`
	Type            string     `json:"type"`
	Severity        string     `json:"severity"`
	CurrentQuantity int64      `json:"current_quantity"`
	Threshold       int64      `json:"threshold"`
	IsRead          bool       `json:"is_read"`
	IsResolved      bool       `json:"is_resolved"`
	CreatedAt       time.Time  `json:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// StatisticsResponse salida de GET /api/inventory/statistics.
type StatisticsResponse struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	AveragePrice    decimal.Decimal `json:"average_price"`
	TotalUnits      int64           `json:"total_units"`
	ProductCount    int             `json:"product_count"`
	StockLineCount  int             `json:"stock_line_count"`
}
