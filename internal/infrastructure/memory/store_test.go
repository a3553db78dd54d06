package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var key = entity.StockKey{CompanyID: "c1", BranchID: "b1", ProductID: "p1"}

// ── Transacciones ────────────────────────────────────────────────────────────

func TestTxRunner_CommitPublicaEscrituras(t *testing.T) {
	s := NewStore()
	runner := NewTxRunner(s)
	ctx := context.Background()

	err := runner.Run(ctx, func(ledgerRepo repository.LedgerEntryRepository, stockRepo repository.StockLineRepository, _ repository.TransferRepository) error {
		line, err := stockRepo.GetForUpdate(ctx, key)
		require.NoError(t, err)
		line.Quantity = 7
		require.NoError(t, ledgerRepo.Append(ctx, &entity.LedgerEntry{ID: "e1", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Quantity: 7, NewQuantity: 7}))
		return stockRepo.Upsert(ctx, line)
	})
	require.NoError(t, err)

	line, err := NewStockLineRepository(s).Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(7), line.Quantity)

	sum, count, err := NewLedgerEntryRepository(s).SumDeltas(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(7), sum)
	assert.Equal(t, 1, count)
}

func TestTxRunner_ErrorDescartaEscrituras(t *testing.T) {
	s := NewStore()
	runner := NewTxRunner(s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := runner.Run(ctx, func(ledgerRepo repository.LedgerEntryRepository, stockRepo repository.StockLineRepository, transferRepo repository.TransferRepository) error {
		_ = stockRepo.Upsert(ctx, &entity.StockLine{CompanyID: "c1", BranchID: "b1", ProductID: "p1", Quantity: 3})
		_ = ledgerRepo.Append(ctx, &entity.LedgerEntry{ID: "e1", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Quantity: 3})
		_ = transferRepo.Create(ctx, &entity.StockTransfer{ID: "t1", CompanyID: "c1"})
		return boom
	})
	require.ErrorIs(t, err, boom)

	line, _ := NewStockLineRepository(s).Get(ctx, key)
	assert.Equal(t, int64(0), line.Quantity)
	_, count, _ := NewLedgerEntryRepository(s).SumDeltas(ctx, key)
	assert.Equal(t, 0, count)
	tr, _ := NewTransferRepository(s).GetByID(ctx, "t1")
	assert.Nil(t, tr)
}

func TestTxRunner_LecturaDentroDeTxVeEscriturasPendientes(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	err := NewTxRunner(s).Run(ctx, func(_ repository.LedgerEntryRepository, stockRepo repository.StockLineRepository, _ repository.TransferRepository) error {
		require.NoError(t, stockRepo.Upsert(ctx, &entity.StockLine{CompanyID: "c1", BranchID: "b1", ProductID: "p1", Quantity: 4}))
		line, err := stockRepo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(4), line.Quantity)
		return nil
	})
	require.NoError(t, err)
}

func TestTxRunner_BloqueoDeFilaRespetaContexto(t *testing.T) {
	s := NewStore()
	runner := NewTxRunner(s)
	locked := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = runner.Run(context.Background(), func(_ repository.LedgerEntryRepository, stockRepo repository.StockLineRepository, _ repository.TransferRepository) error {
			_, err := stockRepo.GetForUpdate(context.Background(), key)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := runner.Run(ctx, func(_ repository.LedgerEntryRepository, stockRepo repository.StockLineRepository, _ repository.TransferRepository) error {
		_, err := stockRepo.GetForUpdate(ctx, key)
		return err
	})
	close(done)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ── Repositorios ─────────────────────────────────────────────────────────────

func TestLedgerEntryRepo_ListOrdenYFiltros(t *testing.T) {
	s := NewStore()
	repo := NewLedgerEntryRepository(s)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{ID: "a", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Type: entity.EntryPurchase, Date: base, Quantity: 5}))
	require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{ID: "b", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Type: entity.EntrySale, Date: base.Add(time.Hour), Quantity: -1}))
	require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{ID: "c", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Type: entity.EntrySale, Date: base.Add(time.Hour), Quantity: -2}))
	require.NoError(t, repo.Append(ctx, &entity.LedgerEntry{ID: "d", CompanyID: "c2", BranchID: "b9", ProductID: "p1", Type: entity.EntrySale, Date: base, Quantity: -2}))

	list, err := repo.List(ctx, "c1", repository.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{list[0].ID, list[1].ID, list[2].ID})

	sales, err := repo.List(ctx, "c1", repository.LedgerFilter{Type: entity.EntrySale, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "b", sales[0].ID)

	from := base.Add(30 * time.Minute)
	recent, err := repo.List(ctx, "c1", repository.LedgerFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	assert.ErrorIs(t, repo.Append(ctx, &entity.LedgerEntry{ID: "a", CompanyID: "c1"}), domain.ErrConflict)
}

func TestAlertRepo_UnaVigentePorTipo(t *testing.T) {
	s := NewStore()
	repo := NewAlertRepository(s)
	ctx := context.Background()
	now := time.Now()

	a := &entity.StockAlert{ID: "a1", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Type: entity.AlertLowStock, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, a))
	dup := &entity.StockAlert{ID: "a2", CompanyID: "c1", BranchID: "b1", ProductID: "p1", Type: entity.AlertLowStock, CreatedAt: now}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	a.IsResolved = true
	require.NoError(t, repo.Update(ctx, a))
	require.NoError(t, repo.Create(ctx, dup))

	open, err := repo.ListUnresolved(ctx, key)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a2", open[0].ID)

	assert.ErrorIs(t, repo.Update(ctx, &entity.StockAlert{ID: "nope"}), domain.ErrNotFound)
}

func TestTransferRepo_CopiasIndependientes(t *testing.T) {
	s := NewStore()
	repo := NewTransferRepository(s)
	ctx := context.Background()

	tr := &entity.StockTransfer{ID: "t1", CompanyID: "c1", FromBranchID: "b1", ToBranchID: "b2",
		Items: []entity.TransferItem{{ProductID: "p1", Quantity: 2}}}
	require.NoError(t, repo.Create(ctx, tr))

	tr.Items[0].OutEntryID = "mutado"
	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, got.Items[0].OutEntryID)

	byBranch, err := repo.List(ctx, "c1", repository.TransferFilter{BranchID: "b2"})
	require.NoError(t, err)
	assert.Len(t, byBranch, 1)
	assert.ErrorIs(t, repo.Create(ctx, tr), domain.ErrConflict)
}

func TestStore_LoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	raw := `{
		"branches": [{"id": "b1", "company_id": "c1", "name": "Centro"}],
		"products": [
			{"id": "p1", "company_id": "c1", "sku": "SH-01", "name": "Shampoo", "retail_price": "25000", "low_stock_threshold": 10},
			{"id": "p2", "company_id": "c1", "sku": "SV-01", "name": "Servicio", "track_inventory": false}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	s := NewStore()
	require.NoError(t, s.LoadSeedFile(path))

	p1, err := NewProductRepository(s).GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, p1)
	assert.True(t, p1.TrackInventory)
	assert.Equal(t, "25000", p1.RetailPrice.String())

	p2, _ := NewProductRepository(s).GetByID(context.Background(), "p2")
	assert.False(t, p2.TrackInventory)

	b, _ := NewBranchRepository(s).GetByID(context.Background(), "b1")
	require.NotNil(t, b)
	assert.Equal(t, "Centro", b.Name)
}
