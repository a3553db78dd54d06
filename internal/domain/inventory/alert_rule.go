package inventory

import "github.com/jhoicas/Inventario-ledger/internal/domain/entity"

// AlertDecision resultado de evaluar una línea de stock contra su umbral.
type AlertDecision struct {
	Type     entity.AlertType
	Severity entity.AlertSeverity
}

// EvaluateAlert es la regla pura de alertas:
//   - cantidad 0 → out_of_stock, severidad high
//   - 0 < cantidad <= umbral → low_stock; medium si cantidad <= umbral/2, si no low
//
// Devuelve ok=false si la línea no requiere alerta.
func EvaluateAlert(quantity, threshold int64) (AlertDecision, bool) {
	if quantity <= 0 {
		return AlertDecision{Type: entity.AlertOutOfStock, Severity: entity.SeverityHigh}, true
	}
	if quantity > threshold {
		return AlertDecision{}, false
	}
	sev := entity.SeverityLow
	if 2*quantity <= threshold {
		sev = entity.SeverityMedium
	}
	return AlertDecision{Type: entity.AlertLowStock, Severity: sev}, true
}

// IsThresholdAlert indica si el tipo lo gestiona la regla de umbral (low_stock / out_of_stock).
func IsThresholdAlert(t entity.AlertType) bool {
	return t == entity.AlertLowStock || t == entity.AlertOutOfStock
}
