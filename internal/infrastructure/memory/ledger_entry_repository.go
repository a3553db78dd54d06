package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

// LedgerEntryRepo log append-only en memoria.
type LedgerEntryRepo struct {
	s  *Store
	tx *tx
}

// NewLedgerEntryRepository construye el repositorio fuera de transacción.
func NewLedgerEntryRepository(s *Store) *LedgerEntryRepo {
	return &LedgerEntryRepo{s: s}
}

// Append agrega una entrada al log.
func (r *LedgerEntryRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: entrada sin ID", domain.ErrInvalidInput)
	}
	c := copyEntry(e)
	if r.tx != nil {
		r.tx.entries = append(r.tx.entries, c)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.entryIdx[c.ID]; exists {
		return fmt.Errorf("%w: entrada %s ya existe", domain.ErrConflict, c.ID)
	}
	r.s.entryIdx[c.ID] = len(r.s.entries)
	r.s.entries = append(r.s.entries, c)
	return nil
}

// GetByID obtiene una entrada (nil si no existe).
func (r *LedgerEntryRepo) GetByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	if r.tx != nil {
		for _, e := range r.tx.entries {
			if e.ID == id {
				return copyEntry(e), nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if i, ok := r.s.entryIdx[id]; ok {
		return copyEntry(r.s.entries[i]), nil
	}
	return nil, nil
}

// snapshot devuelve las entradas comprometidas más las pendientes de la tx, en orden de append.
func (r *LedgerEntryRepo) snapshot() []*entity.LedgerEntry {
	r.s.mu.RLock()
	all := make([]*entity.LedgerEntry, 0, len(r.s.entries))
	all = append(all, r.s.entries...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		all = append(all, r.tx.entries...)
	}
	return all
}

func matches(e *entity.LedgerEntry, companyID string, f repository.LedgerFilter) bool {
	switch {
	case e.CompanyID != companyID:
		return false
	case f.ProductID != "" && e.ProductID != f.ProductID:
		return false
	case f.BranchID != "" && e.BranchID != f.BranchID:
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.From != nil && e.Date.Before(*f.From):
		return false
	case f.To != nil && e.Date.After(*f.To):
		return false
	case f.ReferenceType != "" && e.ReferenceType != f.ReferenceType:
		return false
	case f.ReferenceID != "" && e.ReferenceID != f.ReferenceID:
		return false
	}
	return true
}

// List devuelve las entradas filtradas por fecha descendente; empates por orden de append inverso.
func (r *LedgerEntryRepo) List(_ context.Context, companyID string, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	all := r.snapshot()
	var list []*entity.LedgerEntry
	for i := len(all) - 1; i >= 0; i-- {
		if matches(all[i], companyID, f) {
			list = append(list, all[i])
		}
	}
	// El recorrido inverso deja los empates de fecha en seq descendente.
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	list = page(list, f.Limit, f.Offset)
	out := make([]*entity.LedgerEntry, len(list))
	for i, e := range list {
		out[i] = copyEntry(e)
	}
	return out, nil
}

// SumDeltas pliega el log de la línea.
func (r *LedgerEntryRepo) SumDeltas(_ context.Context, key entity.StockKey) (int64, int, error) {
	var (
		sum   int64
		count int
	)
	for _, e := range r.snapshot() {
		if e.CompanyID == key.CompanyID && e.BranchID == key.BranchID && e.ProductID == key.ProductID {
			sum += e.Quantity
			count++
		}
	}
	return sum, count, nil
}
