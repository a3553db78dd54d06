package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Regla de alertas
// ──────────────────────────────────────────────────────────────────────────────

func TestEvaluateAlert(t *testing.T) {
	cases := []struct {
		name      string
		qty       int64
		threshold int64
		want      inventory.AlertDecision
		ok        bool
	}{
		{"agotado", 0, 10, inventory.AlertDecision{Type: entity.AlertOutOfStock, Severity: entity.SeverityHigh}, true},
		{"agotado sin umbral", 0, 0, inventory.AlertDecision{Type: entity.AlertOutOfStock, Severity: entity.SeverityHigh}, true},
		{"bajo leve", 9, 10, inventory.AlertDecision{Type: entity.AlertLowStock, Severity: entity.SeverityLow}, true},
		{"en el umbral", 10, 10, inventory.AlertDecision{Type: entity.AlertLowStock, Severity: entity.SeverityLow}, true},
		{"mitad exacta", 5, 10, inventory.AlertDecision{Type: entity.AlertLowStock, Severity: entity.SeverityMedium}, true},
		{"umbral impar", 5, 9, inventory.AlertDecision{Type: entity.AlertLowStock, Severity: entity.SeverityLow}, true},
		{"sobre el umbral", 11, 10, inventory.AlertDecision{}, false},
		{"sin umbral con stock", 3, 0, inventory.AlertDecision{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := inventory.EvaluateAlert(tc.qty, tc.threshold)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Máquina de estados del traslado
// ──────────────────────────────────────────────────────────────────────────────

func TestCanTransition(t *testing.T) {
	assert.True(t, inventory.CanTransition(entity.TransferDraft, entity.TransferPending))
	assert.True(t, inventory.CanTransition(entity.TransferPending, entity.TransferInTransit))
	assert.True(t, inventory.CanTransition(entity.TransferInTransit, entity.TransferCompleted))
	assert.True(t, inventory.CanTransition(entity.TransferDraft, entity.TransferCancelled))
	assert.True(t, inventory.CanTransition(entity.TransferInTransit, entity.TransferCancelled))

	assert.False(t, inventory.CanTransition(entity.TransferInTransit, entity.TransferPending), "no se retrocede")
	assert.False(t, inventory.CanTransition(entity.TransferCompleted, entity.TransferCancelled), "completed es terminal")
	assert.False(t, inventory.CanTransition(entity.TransferCancelled, entity.TransferPending), "cancelled es terminal")
	assert.False(t, inventory.CanTransition(entity.TransferPending, entity.TransferPending))
}

func TestCanComplete(t *testing.T) {
	assert.True(t, inventory.CanComplete(entity.TransferPending))
	assert.True(t, inventory.CanComplete(entity.TransferInTransit))
	assert.False(t, inventory.CanComplete(entity.TransferDraft))
	assert.False(t, inventory.CanComplete(entity.TransferCompleted))
}

// ──────────────────────────────────────────────────────────────────────────────
// Costo promedio ponderado
// ──────────────────────────────────────────────────────────────────────────────

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// (10 * 100 + 10 * 200) / 20 = 150
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(150)), "got %s", got)
}

func TestCostCalculator_SinStockPrevio(t *testing.T) {
	got := inventory.CostCalculator(0, decimal.Zero, 5, decimal.NewFromInt(42))
	assert.True(t, got.Equal(decimal.NewFromInt(42)), "got %s", got)
}

func TestCostCalculator_SumaCero(t *testing.T) {
	got := inventory.CostCalculator(0, decimal.Zero, 0, decimal.NewFromInt(42))
	assert.True(t, got.IsZero())
}
