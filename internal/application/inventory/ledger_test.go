package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_CompraYVenta(t *testing.T) {
	h := newHarness(t)
	buy := h.apply(t, branchA, product1, entity.EntryPurchase, 10)
	assert.Equal(t, int64(0), buy.PreviousQuantity)
	assert.Equal(t, int64(10), buy.NewQuantity)

	sale := h.apply(t, branchA, product1, entity.EntrySale, -4)
	assert.Equal(t, int64(10), sale.PreviousQuantity)
	assert.Equal(t, int64(6), sale.NewQuantity)
	assert.Equal(t, int64(6), h.qty(t, branchA, product1))

	line, err := h.ledger.GetStockLine(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	require.NotNil(t, line.LastRestockDate)
	assert.Nil(t, line.LastStockCheck)
}

func TestApply_StockInsuficienteNoEscribeNada(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 10)

	_, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntrySale, Quantity: -12,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var se *inventory.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(10), se.Current)
	assert.Equal(t, int64(-12), se.Requested)

	assert.Equal(t, int64(10), h.qty(t, branchA, product1))
	assert.Len(t, h.entries(t, repository.LedgerFilter{ProductID: product1}), 1)
}

func TestApply_LineaInexistenteEmpiezaEnCero(t *testing.T) {
	h := newHarness(t)
	_, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryDamage, Quantity: -1,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(0), h.qty(t, branchA, product1))
}

func TestApply_Validaciones(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name string
		in   inventory.ApplyInput
	}{
		{"cantidad cero", inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase}},
		{"tipo desconocido", inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: "gift", Quantity: 1}},
		{"compra negativa", inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase, Quantity: -1}},
		{"venta positiva", inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntrySale, Quantity: 1}},
		{"sin sucursal", inventory.ApplyInput{CompanyID: company, ProductID: product1, Type: entity.EntryPurchase, Quantity: 1}},
		{"costo negativo", inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase, Quantity: 1,
			UnitCost: ptr(decimal.NewFromInt(-1))}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.ledger.Apply(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, h.entries(t, repository.LedgerFilter{}))
}

func TestApply_AjusteEnAmbosSentidos(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryAdjustment, 8)
	h.apply(t, branchA, product1, entity.EntryAdjustment, -3)
	assert.Equal(t, int64(5), h.qty(t, branchA, product1))

	line, err := h.ledger.GetStockLine(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	assert.NotNil(t, line.LastStockCheck)
}

func TestApply_UbicacionYConteoFisico(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1,
		Type: entity.EntryPurchase, Quantity: 10, Location: "E-3"})
	require.NoError(t, err)
	_, err = h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1,
		Type: entity.EntryAdjustment, Quantity: 2, ReferenceType: entity.ReferenceTransfer, ReferenceID: "t1"})
	require.NoError(t, err)

	line, err := h.ledger.GetStockLine(ctx, stockKey(branchA, product1))
	require.NoError(t, err)
	assert.Equal(t, "E-3", line.Location)
	assert.Nil(t, line.LastStockCheck, "una compensación de traslado no es un conteo físico")

	h.apply(t, branchA, product1, entity.EntrySale, -1)
	line, err = h.ledger.GetStockLine(ctx, stockKey(branchA, product1))
	require.NoError(t, err)
	assert.Equal(t, "E-3", line.Location, "sin ubicación se conserva la anterior")
}

func TestApply_CostoPromedioPonderado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1,
		Type: entity.EntryPurchase, Quantity: 10, UnitCost: ptr(decimal.NewFromInt(100))})
	require.NoError(t, err)
	_, err = h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1,
		Type: entity.EntryPurchase, Quantity: 10, UnitCost: ptr(decimal.NewFromInt(200))})
	require.NoError(t, err)

	sale, err := h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1,
		Type: entity.EntrySale, Quantity: -5, UnitPrice: ptr(decimal.NewFromInt(300))})
	require.NoError(t, err)
	require.NotNil(t, sale.UnitCost)
	assert.True(t, sale.UnitCost.Equal(decimal.NewFromInt(150)), sale.UnitCost.String())
	assert.True(t, sale.TotalCost.Equal(decimal.NewFromInt(-750)), sale.TotalCost.String())
	assert.True(t, sale.UnitPrice.Equal(decimal.NewFromInt(300)))
}

func TestApply_FalloDeAlertasNoRevierte(t *testing.T) {
	s := memory.NewStore()
	obs := &failingObserver{}
	ledger := inventory.NewLedger(memory.NewTxRunner(s), memory.NewLedgerEntryRepository(s), memory.NewStockLineRepository(s),
		obs, inventory.LedgerConfig{}, zerolog.Nop())

	e, err := ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.NewQuantity)
	assert.Equal(t, 1, obs.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia y reintentos
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_VentasConcurrentesNuncaDejanStockNegativo(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 30)

	const workers = 50
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
				CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntrySale, Quantity: -1,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrInsufficientStock):
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, ok)
	assert.Equal(t, workers-30, rejected)
	assert.Equal(t, int64(0), h.qty(t, branchA, product1))

	check, err := h.ledger.VerifyProjection(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, 31, check.EntryCount)
}

func TestApply_ReintentaConflictosDeEscritura(t *testing.T) {
	flaky := &flakyRunner{failures: 2}
	h := newHarnessWith(t, func(r inventory.TxRunner) inventory.TxRunner {
		flaky.inner = r
		return flaky
	})
	h.apply(t, branchA, product1, entity.EntryPurchase, 4)
	assert.Equal(t, 3, flaky.calls)
	assert.Equal(t, int64(4), h.qty(t, branchA, product1))
}

func TestApply_ReintentosAgotadosEsStoreUnavailable(t *testing.T) {
	flaky := &flakyRunner{failures: 100}
	h := newHarnessWith(t, func(r inventory.TxRunner) inventory.TxRunner {
		flaky.inner = r
		return flaky
	})
	_, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase, Quantity: 4,
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 4, flaky.calls) // intento inicial + 3 reintentos
	assert.Equal(t, int64(0), h.qty(t, branchA, product1))
}

func TestApply_ContextoCanceladoCortaReintentos(t *testing.T) {
	flaky := &flakyRunner{failures: 100}
	h := newHarnessWith(t, func(r inventory.TxRunner) inventory.TxRunner {
		flaky.inner = r
		return flaky
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.ledger.Apply(ctx, inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntryPurchase, Quantity: 4,
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, flaky.calls)
}

func TestApply_ErrorNoReintentableNoSeEnvuelve(t *testing.T) {
	flaky := &flakyRunner{failures: 1}
	h := newHarnessWith(t, func(r inventory.TxRunner) inventory.TxRunner {
		flaky.inner = r
		return flaky
	})
	_, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntrySale, Quantity: -1,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 2, flaky.calls)
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock inicial
// ──────────────────────────────────────────────────────────────────────────────

func TestInitializeOpeningStock(t *testing.T) {
	h := newHarness(t)
	entries, err := h.ledger.InitializeOpeningStock(context.Background(), inventory.OpeningStockInput{
		CompanyID: company, ProductID: product1, PerformedBy: "u1",
		UnitCost:   ptr(decimal.NewFromInt(40)),
		Quantities: map[string]int64{branchA: 12, branchB: 0},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.EntryOpening, entries[0].Type)
	assert.Equal(t, int64(12), h.qty(t, branchA, product1))
	assert.Equal(t, int64(0), h.qty(t, branchB, product1))

	line, err := h.ledger.GetStockLine(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	assert.True(t, line.AverageCost.Equal(decimal.NewFromInt(40)))
}

func TestInitializeOpeningStock_NoSobrescribe(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 3)

	_, err := h.ledger.InitializeOpeningStock(context.Background(), inventory.OpeningStockInput{
		CompanyID: company, ProductID: product1, Quantities: map[string]int64{branchA: 20},
	})
	assert.ErrorIs(t, err, domain.ErrOpeningStockExists)
	assert.Equal(t, int64(3), h.qty(t, branchA, product1))

	_, err = h.ledger.InitializeOpeningStock(context.Background(), inventory.OpeningStockInput{
		CompanyID: company, ProductID: product1, Quantities: map[string]int64{branchA: -1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas, verificación y reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestListTransactions_Filtros(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 10)
	h.apply(t, branchA, product1, entity.EntrySale, -2)
	h.apply(t, branchB, product2, entity.EntryPurchase, 5)

	assert.Len(t, h.entries(t, repository.LedgerFilter{}), 3)
	assert.Len(t, h.entries(t, repository.LedgerFilter{BranchID: branchA}), 2)
	sales := h.entries(t, repository.LedgerFilter{Type: entity.EntrySale})
	require.Len(t, sales, 1)
	assert.Equal(t, int64(-2), sales[0].Quantity)
	assert.Len(t, h.entries(t, repository.LedgerFilter{Limit: 2}), 2)

	_, err := h.ledger.ListTransactions(context.Background(), company, repository.LedgerFilter{Type: "gift"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	from, to := time.Now(), time.Now().Add(-time.Hour)
	_, err = h.ledger.ListTransactions(context.Background(), company, repository.LedgerFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerifyProjection_DetectaDesviacion(t *testing.T) {
	h := newHarness(t)
	h.apply(t, branchA, product1, entity.EntryPurchase, 10)
	h.apply(t, branchA, product1, entity.EntrySale, -3)

	check, err := h.ledger.VerifyProjection(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, int64(7), check.LedgerQuantity)

	// Escritura directa fuera del ledger: la proyección deja de coincidir con el log
	line, _ := h.stockRepo.Get(context.Background(), stockKey(branchA, product1))
	line.Quantity = 99
	require.NoError(t, h.stockRepo.Upsert(context.Background(), line))

	check, err = h.ledger.VerifyProjection(context.Background(), stockKey(branchA, product1))
	require.NoError(t, err)
	assert.False(t, check.Consistent)
	assert.Equal(t, int64(99), check.ProjectedQuantity)
	assert.Equal(t, int64(7), check.LedgerQuantity)
}

func TestReserveRelease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	key := stockKey(branchA, product1)
	h.apply(t, branchA, product1, entity.EntryPurchase, 10)

	line, err := h.ledger.Reserve(ctx, key, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(2), line.Available())

	// Una salida no puede consumir lo reservado
	_, err = h.ledger.Apply(ctx, inventory.ApplyInput{CompanyID: company, BranchID: branchA, ProductID: product1, Type: entity.EntrySale, Quantity: -3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	h.apply(t, branchA, product1, entity.EntrySale, -2)

	_, err = h.ledger.Reserve(ctx, key, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = h.ledger.Release(ctx, key, 9)
	assert.ErrorIs(t, err, domain.ErrConflict)

	line, err = h.ledger.Release(ctx, key, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(0), line.ReservedQuantity)
	assert.Equal(t, int64(8), line.Quantity)

	_, err = h.ledger.Reserve(ctx, key, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, h.entries(t, repository.LedgerFilter{}), 2)
}

func ptr[T any](v T) *T { return &v }
