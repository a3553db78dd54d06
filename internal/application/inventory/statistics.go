package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Statistics resumen del inventario a la fecha de lectura (vista de reporte, sin garantías de atomicidad).
type Statistics struct {
	TotalValue      decimal.Decimal // Σ cantidad × precio de venta
	TotalCost       decimal.Decimal // Σ cantidad × costo promedio de la línea
	LowStockCount   int
	OutOfStockCount int
	AveragePrice    decimal.Decimal // promedio del precio de venta de productos activos
	TotalUnits      int64
	ProductCount    int // productos activos
	StockLineCount  int
}

// StatisticsUseCase agrega la proyección de stock con los metadatos del catálogo.
type StatisticsUseCase struct {
	stockRepo   repository.StockLineRepository
	productRepo repository.ProductRepository
}

// NewStatisticsUseCase construye el caso de uso.
func NewStatisticsUseCase(stockRepo repository.StockLineRepository, productRepo repository.ProductRepository) *StatisticsUseCase {
	return &StatisticsUseCase{stockRepo: stockRepo, productRepo: productRepo}
}

// GetStatistics calcula los totales; branchID vacío = todas las sucursales.
func (uc *StatisticsUseCase) GetStatistics(ctx context.Context, companyID, branchID string) (*Statistics, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}

	// Consultas independientes en paralelo
	var (
		lines    []*entity.StockLine
		products []*entity.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = uc.stockRepo.List(gctx, companyID, branchID)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = uc.productRepo.ListByCompany(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.Product, len(products))
	stats := &Statistics{}
	var priceSum decimal.Decimal
	for _, p := range products {
		byID[p.ID] = p
		if p.IsActive {
			stats.ProductCount++
			priceSum = priceSum.Add(p.RetailPrice)
		}
	}
	if stats.ProductCount > 0 {
		stats.AveragePrice = priceSum.Div(decimal.NewFromInt(int64(stats.ProductCount))).Round(2)
	}

	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.TrackInventory {
			continue
		}
		stats.StockLineCount++
		stats.TotalUnits += l.Quantity
		qty := decimal.NewFromInt(l.Quantity)
		stats.TotalValue = stats.TotalValue.Add(qty.Mul(p.RetailPrice))
		stats.TotalCost = stats.TotalCost.Add(qty.Mul(l.AverageCost))
		switch {
		case l.Quantity == 0:
			stats.OutOfStockCount++
		case l.Quantity <= p.LowStockThreshold:
			stats.LowStockCount++
		}
	}
	stats.TotalValue = stats.TotalValue.Round(2)
	stats.TotalCost = stats.TotalCost.Round(2)
	return stats, nil
}
