package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLine es la proyección materializada del stock de un producto en una sucursal.
// Solo el Ledger modifica Quantity; nunca se escribe directamente desde otros componentes.
type StockLine struct {
	CompanyID        string
	BranchID         string
	ProductID        string
	Quantity         int64 // siempre >= 0
	ReservedQuantity int64 // 0 <= ReservedQuantity <= Quantity
	Location         string          // código de estante (texto libre)
	AverageCost      decimal.Decimal // costo promedio ponderado de las entradas costeadas
	LastStockCheck   *time.Time
	LastRestockDate  *time.Time
	UpdatedAt        time.Time
}

// Available devuelve la cantidad disponible (Quantity - ReservedQuantity).
func (s *StockLine) Available() int64 {
	return s.Quantity - s.ReservedQuantity
}

// StockKey identifica una línea de stock.
type StockKey struct {
	CompanyID string
	BranchID  string
	ProductID string
}

// Key devuelve la clave de la línea.
func (s *StockLine) Key() StockKey {
	return StockKey{CompanyID: s.CompanyID, BranchID: s.BranchID, ProductID: s.ProductID}
}
