// Package memory implementa los puertos de persistencia en memoria (STORE_DRIVER=memory y tests).
// Replica la semántica del adaptador PostgreSQL: bloqueos de fila por transacción,
// escrituras diferidas hasta el commit y rollback sin efectos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// Store contiene todas las tablas en memoria. Es seguro para uso concurrente.
type Store struct {
	mu        sync.RWMutex
	lines     map[entity.StockKey]*entity.StockLine
	entries   []*entity.LedgerEntry // en orden de append (seq = índice)
	entryIdx  map[string]int
	transfers map[string]*entity.StockTransfer
	alerts    map[string]*entity.StockAlert
	alertSeq  []string // orden de creación
	products  map[string]*entity.Product
	branches  map[string]*entity.Branch

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		lines:     make(map[entity.StockKey]*entity.StockLine),
		entryIdx:  make(map[string]int),
		transfers: make(map[string]*entity.StockTransfer),
		alerts:    make(map[string]*entity.StockAlert),
		products:  make(map[string]*entity.Product),
		branches:  make(map[string]*entity.Branch),
		locks:     make(map[string]chan struct{}),
	}
}

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// AddBranch registra una sucursal.
func (s *Store) AddBranch(b entity.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = &b
}

// rowLock devuelve el semáforo de una fila (capacidad 1).
func (s *Store) rowLock(name string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	ch, ok := s.locks[name]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[name] = ch
	}
	return ch
}

func lineLockName(key entity.StockKey) string {
	return "line:" + key.CompanyID + "/" + key.BranchID + "/" + key.ProductID
}

func transferLockName(id string) string {
	return "transfer:" + id
}

// tx acumula escrituras pendientes y los bloqueos de fila tomados.
type tx struct {
	s         *Store
	held      map[string]chan struct{}
	lines     map[entity.StockKey]*entity.StockLine
	entries   []*entity.LedgerEntry
	transfers map[string]*entity.StockTransfer
	created   map[string]bool
}

func newTx(s *Store) *tx {
	return &tx{
		s:         s,
		held:      make(map[string]chan struct{}),
		lines:     make(map[entity.StockKey]*entity.StockLine),
		transfers: make(map[string]*entity.StockTransfer),
		created:   make(map[string]bool),
	}
}

// lock toma el bloqueo de fila hasta el fin de la tx (equivalente a SELECT ... FOR UPDATE).
// Si el contexto vence esperando, devuelve domain.ErrStoreUnavailable.
func (t *tx) lock(ctx context.Context, name string) error {
	if _, ok := t.held[name]; ok {
		return nil
	}
	ch := t.s.rowLock(name)
	select {
	case ch <- struct{}{}:
		t.held[name] = ch
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: esperando bloqueo %s: %w", domain.ErrStoreUnavailable, name, ctx.Err())
	}
}

func (t *tx) release() {
	for name, ch := range t.held {
		<-ch
		delete(t.held, name)
	}
}

// commit publica las escrituras pendientes de forma atómica respecto a los lectores.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.created {
		if _, exists := s.transfers[id]; exists {
			return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, id)
		}
	}
	for _, e := range t.entries {
		if _, exists := s.entryIdx[e.ID]; exists {
			return fmt.Errorf("%w: entrada %s ya existe", domain.ErrConflict, e.ID)
		}
	}
	for _, e := range t.entries {
		s.entryIdx[e.ID] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	for key, line := range t.lines {
		s.lines[key] = line
	}
	for id, tr := range t.transfers {
		s.transfers[id] = tr
	}
	return nil
}

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con repositorios atados a una tx en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn; si devuelve error las escrituras pendientes se descartan.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerEntryRepository,
	stockRepo repository.StockLineRepository,
	transferRepo repository.TransferRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	t := newTx(r.s)
	defer t.release()

	if err := fn(
		&LedgerEntryRepo{s: r.s, tx: t},
		&StockLineRepo{s: r.s, tx: t},
		&TransferRepo{s: r.s, tx: t},
	); err != nil {
		return err
	}
	return t.commit()
}

func copyLine(l *entity.StockLine) *entity.StockLine {
	c := *l
	if l.LastStockCheck != nil {
		v := *l.LastStockCheck
		c.LastStockCheck = &v
	}
	if l.LastRestockDate != nil {
		v := *l.LastRestockDate
		c.LastRestockDate = &v
	}
	return &c
}

func copyEntry(e *entity.LedgerEntry) *entity.LedgerEntry {
	c := *e
	return &c
}

func copyTransfer(t *entity.StockTransfer) *entity.StockTransfer {
	c := *t
	c.Items = append([]entity.TransferItem(nil), t.Items...)
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.CancelledAt != nil {
		v := *t.CancelledAt
		c.CancelledAt = &v
	}
	return &c
}

func copyAlert(a *entity.StockAlert) *entity.StockAlert {
	c := *a
	if a.ResolvedAt != nil {
		v := *a.ResolvedAt
		c.ResolvedAt = &v
	}
	return &c
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
