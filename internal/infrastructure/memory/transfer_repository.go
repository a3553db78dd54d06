package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados en memoria.
type TransferRepo struct {
	s  *Store
	tx *tx
}

// NewTransferRepository construye el repositorio fuera de transacción.
func NewTransferRepository(s *Store) *TransferRepo {
	return &TransferRepo{s: s}
}

func (r *TransferRepo) read(id string) *entity.StockTransfer {
	if r.tx != nil {
		if t, ok := r.tx.transfers[id]; ok {
			return copyTransfer(t)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if t, ok := r.s.transfers[id]; ok {
		return copyTransfer(t)
	}
	return nil
}

// Create guarda un traslado nuevo; ErrConflict si el ID ya existe.
func (r *TransferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	if t.ID == "" {
		return fmt.Errorf("%w: traslado sin ID", domain.ErrInvalidInput)
	}
	c := copyTransfer(t)
	if r.tx != nil {
		if r.read(c.ID) != nil {
			return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, c.ID)
		}
		r.tx.transfers[c.ID] = c
		r.tx.created[c.ID] = true
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.transfers[c.ID]; exists {
		return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, c.ID)
	}
	r.s.transfers[c.ID] = c
	return nil
}

// GetByID obtiene un traslado (nil si no existe).
func (r *TransferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	return r.read(id), nil
}

// GetForUpdate bloquea el traslado hasta el fin de la tx.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, transferLockName(id)); err != nil {
			return nil, err
		}
	}
	return r.read(id), nil
}

// Update reemplaza el traslado; ErrNotFound si no existe.
func (r *TransferRepo) Update(_ context.Context, t *entity.StockTransfer) error {
	c := copyTransfer(t)
	if r.tx != nil {
		if r.read(c.ID) == nil {
			return domain.ErrNotFound
		}
		r.tx.transfers[c.ID] = c
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.transfers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.transfers[c.ID] = c
	return nil
}

// List lista traslados comprometidos de la empresa, más recientes primero.
func (r *TransferRepo) List(_ context.Context, companyID string, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	r.s.mu.RLock()
	var list []*entity.StockTransfer
	for _, t := range r.s.transfers {
		if t.CompanyID != companyID {
			continue
		}
		if f.BranchID != "" && t.FromBranchID != f.BranchID && t.ToBranchID != f.BranchID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		list = append(list, copyTransfer(t))
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}
