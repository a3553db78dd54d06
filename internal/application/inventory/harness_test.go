package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

const (
	company  = "c1"
	branchA  = "bA"
	branchB  = "bB"
	product1 = "p1"
	product2 = "p2"
	service  = "svc"
)

// harness arma el motor completo sobre el almacén en memoria.
type harness struct {
	store     *memory.Store
	ledger    *inventory.Ledger
	transfers *inventory.TransferCoordinator
	alerts    *inventory.AlertGenerator
	movements *inventory.MovementUseCase
	stats     *inventory.StatisticsUseCase
	alertRepo *memory.AlertRepo
	stockRepo *memory.StockLineRepo
	entryRepo *memory.LedgerEntryRepo
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, nil)
}

// newHarnessWith permite envolver el TxRunner (inyección de fallos).
func newHarnessWith(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *harness {
	t.Helper()
	s := memory.NewStore()
	s.AddBranch(entity.Branch{ID: branchA, CompanyID: company, Name: "Centro", IsActive: true})
	s.AddBranch(entity.Branch{ID: branchB, CompanyID: company, Name: "Norte", IsActive: true})
	s.AddBranch(entity.Branch{ID: "bX", CompanyID: "otra", Name: "Ajena", IsActive: true})
	s.AddProduct(entity.Product{ID: product1, CompanyID: company, SKU: "SH-01", Name: "Shampoo",
		RetailPrice: decimal.NewFromInt(100), LowStockThreshold: 10, TrackInventory: true, IsActive: true})
	s.AddProduct(entity.Product{ID: product2, CompanyID: company, SKU: "AC-01", Name: "Acondicionador",
		RetailPrice: decimal.NewFromInt(50), LowStockThreshold: 5, TrackInventory: true, IsActive: true})
	s.AddProduct(entity.Product{ID: service, CompanyID: company, SKU: "SV-01", Name: "Corte",
		RetailPrice: decimal.NewFromInt(30), TrackInventory: false, IsActive: true})

	var runner inventory.TxRunner = memory.NewTxRunner(s)
	if wrap != nil {
		runner = wrap(runner)
	}
	log := zerolog.Nop()
	alertRepo := memory.NewAlertRepository(s)
	productRepo := memory.NewProductRepository(s)
	stockRepo := memory.NewStockLineRepository(s)
	entryRepo := memory.NewLedgerEntryRepository(s)

	alerts := inventory.NewAlertGenerator(alertRepo, productRepo, stockRepo, log)
	ledger := inventory.NewLedger(runner, entryRepo, stockRepo, alerts, inventory.LedgerConfig{
		Retry: inventory.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond},
	}, log)
	transfers := inventory.NewTransferCoordinator(ledger, memory.NewTransferRepository(s), log)

	return &harness{
		store:     s,
		ledger:    ledger,
		transfers: transfers,
		alerts:    alerts,
		movements: inventory.NewMovementUseCase(ledger, transfers, productRepo, memory.NewBranchRepository(s)),
		stats:     inventory.NewStatisticsUseCase(stockRepo, productRepo),
		alertRepo: alertRepo,
		stockRepo: stockRepo,
		entryRepo: entryRepo,
	}
}

func (h *harness) apply(t *testing.T, branchID, productID string, typ entity.LedgerEntryType, qty int64) *entity.LedgerEntry {
	t.Helper()
	e, err := h.ledger.Apply(context.Background(), inventory.ApplyInput{
		CompanyID: company, BranchID: branchID, ProductID: productID, Type: typ, Quantity: qty, PerformedBy: "u1",
	})
	require.NoError(t, err)
	return e
}

func (h *harness) qty(t *testing.T, branchID, productID string) int64 {
	t.Helper()
	line, err := h.ledger.GetStockLine(context.Background(), stockKey(branchID, productID))
	require.NoError(t, err)
	return line.Quantity
}

func (h *harness) entries(t *testing.T, f repository.LedgerFilter) []*entity.LedgerEntry {
	t.Helper()
	list, err := h.ledger.ListTransactions(context.Background(), company, f)
	require.NoError(t, err)
	return list
}

func (h *harness) openAlerts(t *testing.T, branchID, productID string) []*entity.StockAlert {
	t.Helper()
	list, err := h.alertRepo.ListUnresolved(context.Background(), stockKey(branchID, productID))
	require.NoError(t, err)
	return list
}

func stockKey(branchID, productID string) entity.StockKey {
	return entity.StockKey{CompanyID: company, BranchID: branchID, ProductID: productID}
}

// flakyRunner devuelve ErrWriteConflict en los primeros failures intentos.
type flakyRunner struct {
	inner    inventory.TxRunner
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyRunner) Run(ctx context.Context, fn func(repository.LedgerEntryRepository, repository.StockLineRepository, repository.TransferRepository) error) error {
	f.mu.Lock()
	f.calls++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()
	if fail {
		return domain.ErrWriteConflict
	}
	return f.inner.Run(ctx, fn)
}

// failingObserver simula un fallo del generador de alertas.
type failingObserver struct{ calls int }

func (o *failingObserver) StockChanged(context.Context, *entity.StockLine) error {
	o.calls++
	return domain.ErrStoreUnavailable
}

// nthFailRunner falla con ErrStoreUnavailable en las llamadas marcadas con failNext.
type nthFailRunner struct {
	inner inventory.TxRunner
	mu    sync.Mutex
	calls int
	fail  map[int]bool
}

// failNext marca las llamadas calls+offset; failNext(1) hace fallar la próxima.
func (r *nthFailRunner) failNext(offsets ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail == nil {
		r.fail = make(map[int]bool)
	}
	for _, o := range offsets {
		r.fail[r.calls+o] = true
	}
}

func (r *nthFailRunner) Run(ctx context.Context, fn func(repository.LedgerEntryRepository, repository.StockLineRepository, repository.TransferRepository) error) error {
	r.mu.Lock()
	r.calls++
	fail := r.fail[r.calls]
	r.mu.Unlock()
	if fail {
		return domain.ErrStoreUnavailable
	}
	return r.inner.Run(ctx, fn)
}

func newHarnessWithFailures(t *testing.T) (*harness, *nthFailRunner) {
	t.Helper()
	var r *nthFailRunner
	h := newHarnessWith(t, func(in inventory.TxRunner) inventory.TxRunner {
		r = &nthFailRunner{inner: in}
		return r
	})
	return h, r
}
