package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas en memoria; impone una sola alerta vigente por (línea, tipo).
type AlertRepo struct {
	s *Store
}

// NewAlertRepository construye el repositorio de alertas.
func NewAlertRepository(s *Store) *AlertRepo {
	return &AlertRepo{s: s}
}

// Create guarda la alerta; ErrConflict si ya existe una vigente del mismo tipo en la línea.
func (r *AlertRepo) Create(_ context.Context, a *entity.StockAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.alerts[a.ID]; ok {
		return fmt.Errorf("%w: alerta %s ya existe", domain.ErrConflict, a.ID)
	}
	if !a.IsResolved {
		for _, cur := range r.s.alerts {
			if !cur.IsResolved && cur.CompanyID == a.CompanyID && cur.BranchID == a.BranchID &&
				cur.ProductID == a.ProductID && cur.Type == a.Type {
				return fmt.Errorf("%w: alerta %s vigente para %s/%s", domain.ErrConflict, a.Type, a.BranchID, a.ProductID)
			}
		}
	}
	r.s.alerts[a.ID] = copyAlert(a)
	r.s.alertSeq = append(r.s.alertSeq, a.ID)
	return nil
}

// GetByID obtiene una alerta (nil si no existe).
func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.StockAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if a, ok := r.s.alerts[id]; ok {
		return copyAlert(a), nil
	}
	return nil, nil
}

// Update reemplaza la alerta; ErrNotFound si no existe.
func (r *AlertRepo) Update(_ context.Context, a *entity.StockAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.alerts[a.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.alerts[a.ID] = copyAlert(a)
	return nil
}

// ListUnresolved alertas vigentes de la línea en orden de creación.
func (r *AlertRepo) ListUnresolved(_ context.Context, key entity.StockKey) ([]*entity.StockAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var list []*entity.StockAlert
	for _, id := range r.s.alertSeq {
		a := r.s.alerts[id]
		if !a.IsResolved && a.CompanyID == key.CompanyID && a.BranchID == key.BranchID && a.ProductID == key.ProductID {
			list = append(list, copyAlert(a))
		}
	}
	return list, nil
}

// List alertas de la empresa, más recientes primero.
func (r *AlertRepo) List(_ context.Context, companyID string, f repository.AlertFilter) ([]*entity.StockAlert, error) {
	r.s.mu.RLock()
	var list []*entity.StockAlert
	for i := len(r.s.alertSeq) - 1; i >= 0; i-- {
		a := r.s.alerts[r.s.alertSeq[i]]
		if a.CompanyID != companyID || (f.BranchID != "" && a.BranchID != f.BranchID) || (f.UnresolvedOnly && a.IsResolved) {
			continue
		}
		list = append(list, copyAlert(a))
	}
	r.s.mu.RUnlock()
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, f.Limit, f.Offset), nil
}
