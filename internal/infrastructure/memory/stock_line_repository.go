package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.StockLineRepository = (*StockLineRepo)(nil)

// StockLineRepo proyección de stock en memoria. Sin tx escribe directamente (autocommit).
type StockLineRepo struct {
	s  *Store
	tx *tx
}

// NewStockLineRepository construye el repositorio de lectura/escritura fuera de transacción.
func NewStockLineRepository(s *Store) *StockLineRepo {
	return &StockLineRepo{s: s}
}

func (r *StockLineRepo) read(key entity.StockKey) *entity.StockLine {
	if r.tx != nil {
		if l, ok := r.tx.lines[key]; ok {
			return copyLine(l)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.lines[key]; ok {
		return copyLine(l)
	}
	return &entity.StockLine{CompanyID: key.CompanyID, BranchID: key.BranchID, ProductID: key.ProductID}
}

// Get devuelve la línea (cantidad 0 si no existe).
func (r *StockLineRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockLine, error) {
	return r.read(key), nil
}

// GetForUpdate bloquea la línea hasta el commit o rollback de la tx.
func (r *StockLineRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, lineLockName(key)); err != nil {
			return nil, err
		}
	}
	return r.read(key), nil
}

// Upsert guarda la línea.
func (r *StockLineRepo) Upsert(_ context.Context, line *entity.StockLine) error {
	c := copyLine(line)
	if r.tx != nil {
		r.tx.lines[c.Key()] = c
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lines[c.Key()] = c
	return nil
}

// List devuelve las líneas comprometidas de la empresa ordenadas por sucursal y producto.
func (r *StockLineRepo) List(_ context.Context, companyID, branchID string) ([]*entity.StockLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockLine
	for key, l := range r.s.lines {
		if key.CompanyID != companyID || (branchID != "" && key.BranchID != branchID) {
			continue
		}
		list = append(list, copyLine(l))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].BranchID != list[j].BranchID {
			return list[i].BranchID < list[j].BranchID
		}
		return list[i].ProductID < list[j].ProductID
	})
	return list, nil
}
