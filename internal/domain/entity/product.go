package entity

import "github.com/shopspring/decimal"

// Product metadatos del catálogo que consume el motor de inventario (solo lectura).
type Product struct {
	ID                string
	CompanyID         string
	SKU               string
	Name              string
	RetailPrice       decimal.Decimal
	Cost              decimal.Decimal
	LowStockThreshold int64
	TrackInventory    bool
	IsActive          bool
}
