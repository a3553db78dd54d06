package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// storage agrupa los puertos de persistencia del driver elegido.
type storage struct {
	txRunner     inventory.TxRunner
	entryRepo    repository.LedgerEntryRepository
	stockRepo    repository.StockLineRepository
	transferRepo repository.TransferRepository
	alertRepo    repository.AlertRepository
	productRepo  repository.ProductRepository
	branchRepo   repository.BranchRepository
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		return &storage{
			txRunner:     postgres.NewTxRunner(pool),
			entryRepo:    postgres.NewLedgerEntryRepository(pool),
			stockRepo:    postgres.NewStockLineRepository(pool),
			transferRepo: postgres.NewTransferRepository(pool),
			alertRepo:    postgres.NewAlertRepository(pool),
			productRepo:  postgres.NewProductRepository(pool),
			branchRepo:   postgres.NewBranchRepository(pool),
			close:        pool.Close,
		}, nil
	case config.DriverMemory:
		s := memory.NewStore()
		if cfg.Store.SeedFile != "" {
			if err := s.LoadSeedFile(cfg.Store.SeedFile); err != nil {
				return nil, fmt.Errorf("cargar semilla %s: %w", cfg.Store.SeedFile, err)
			}
			log.Info().Str("file", cfg.Store.SeedFile).Msg("catálogo en memoria cargado")
		}
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{
			txRunner:     memory.NewTxRunner(s),
			entryRepo:    memory.NewLedgerEntryRepository(s),
			stockRepo:    memory.NewStockLineRepository(s),
			transferRepo: memory.NewTransferRepository(s),
			alertRepo:    memory.NewAlertRepository(s),
			productRepo:  memory.NewProductRepository(s),
			branchRepo:   memory.NewBranchRepository(s),
			close:        func() {},
		}, nil
	default:
		return nil, fmt.Errorf("STORE_DRIVER desconocido: %q", cfg.Store.Driver)
	}
}
