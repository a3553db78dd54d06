package entity

import "time"

// AlertType tipo de alerta de stock.
type AlertType string

const (
	AlertLowStock     AlertType = "low_stock"
	AlertOutOfStock   AlertType = "out_of_stock"
	AlertReorderPoint AlertType = "reorder_point"
	AlertExpiringSoon AlertType = "expiring_soon"
)

// AlertSeverity severidad de la alerta.
type AlertSeverity string

const (
	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// StockAlert señal derivada de la proyección; nunca modifica el stock.
type StockAlert struct {
	ID              string
	CompanyID       string
	ProductID       string
	BranchID        string
	Type            AlertType
	Severity        AlertSeverity
	CurrentQuantity int64
	Threshold       int64
	IsRead          bool
	IsResolved      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolvedAt      *time.Time
}
