package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

func TestAlerts_BajoLuegoAgotado(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 11)
	assert.Empty(t, h.openAlerts(t, branchA, product1))

	h.apply(t, branchA, product1, entity.EntrySale, -2) // 9 con umbral 10
	open := h.openAlerts(t, branchA, product1)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertLowStock, open[0].Type)
	assert.Equal(t, entity.SeverityLow, open[0].Severity)
	assert.Equal(t, int64(9), open[0].CurrentQuantity)
	lowID := open[0].ID

	h.apply(t, branchA, product1, entity.EntrySale, -9)
	open = h.openAlerts(t, branchA, product1)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertOutOfStock, open[0].Type)
	assert.Equal(t, entity.SeverityHigh, open[0].Severity)

	low, err := h.alertRepo.GetByID(context.Background(), lowID)
	require.NoError(t, err)
	assert.True(t, low.IsResolved)
	assert.NotNil(t, low.ResolvedAt)

	h.apply(t, branchA, product1, entity.EntryPurchase, 20)
	assert.Empty(t, h.openAlerts(t, branchA, product1))
}

func TestAlerts_ActualizaEnSuLugar(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 9)
	first := h.openAlerts(t, branchA, product1)
	require.Len(t, first, 1)

	h.apply(t, branchA, product1, entity.EntrySale, -5) // 4 ≤ 10/2
	open := h.openAlerts(t, branchA, product1)
	require.Len(t, open, 1)
	assert.Equal(t, first[0].ID, open[0].ID)
	assert.Equal(t, entity.SeverityMedium, open[0].Severity)
	assert.Equal(t, int64(4), open[0].CurrentQuantity)
}

func TestAlerts_ProductoSinControlNoGeneraAlertas(t *testing.T) {
	h := newHarness(t)
	err := h.alerts.Evaluate(context.Background(), &entity.StockLine{CompanyID: company, BranchID: branchA, ProductID: service})
	require.NoError(t, err)
	assert.Empty(t, h.openAlerts(t, branchA, service))

	err = h.alerts.Evaluate(context.Background(), &entity.StockLine{CompanyID: company, BranchID: branchA, ProductID: "desconocido"})
	require.NoError(t, err)
}

func TestAlerts_EvaluacionConcurrenteSinDuplicados(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 3)
	line := &entity.StockLine{CompanyID: company, BranchID: branchA, ProductID: product1, Quantity: 3}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.alerts.Evaluate(context.Background(), line))
		}()
	}
	wg.Wait()
	assert.Len(t, h.openAlerts(t, branchA, product1), 1)
}

func TestAlerts_NotificacionAtrasadaUsaLineaVigente(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.apply(t, branchA, product1, entity.EntryPurchase, 11)
	h.apply(t, branchA, product1, entity.EntrySale, -2)
	stale, err := h.ledger.GetStockLine(ctx, stockKey(branchA, product1))
	require.NoError(t, err)
	require.Equal(t, int64(9), stale.Quantity)

	h.apply(t, branchA, product1, entity.EntrySale, -9)
	require.NoError(t, h.alerts.StockChanged(ctx, stale))

	open := h.openAlerts(t, branchA, product1)
	require.Len(t, open, 1)
	assert.Equal(t, entity.AlertOutOfStock, open[0].Type)
	assert.Equal(t, int64(0), open[0].CurrentQuantity)
}

func TestAlerts_MarcarLeidaYResolver(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.apply(t, branchA, product1, entity.EntryPurchase, 2)
	open := h.openAlerts(t, branchA, product1)
	require.Len(t, open, 1)
	id := open[0].ID

	a, err := h.alerts.MarkRead(ctx, company, id)
	require.NoError(t, err)
	assert.True(t, a.IsRead)
	assert.False(t, a.IsResolved)

	_, err = h.alerts.MarkRead(ctx, "otra", id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.alerts.Resolve(ctx, company, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	a, err = h.alerts.Resolve(ctx, company, id)
	require.NoError(t, err)
	assert.True(t, a.IsResolved)

	unresolved, err := h.alerts.ListAlerts(ctx, company, repository.AlertFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unresolved)
	all, err := h.alerts.ListAlerts(ctx, company, repository.AlertFilter{BranchID: branchA})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
