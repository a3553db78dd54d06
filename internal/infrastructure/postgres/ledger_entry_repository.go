package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerEntryRepository = (*LedgerEntryRepo)(nil)

// LedgerEntryRepo implementación del log append-only sobre PostgreSQL.
// La columna seq (BIGSERIAL) desempata entradas con la misma fecha.
type LedgerEntryRepo struct {
	q Querier
}

// NewLedgerEntryRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerEntryRepository(q Querier) *LedgerEntryRepo {
	return &LedgerEntryRepo{q: q}
}

const ledgerColumns = `id, company_id, branch_id, product_id, type, date, quantity, previous_quantity, new_quantity,
	unit_cost, total_cost, unit_price, reference_type, reference_id, notes, performed_by, created_at`

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e                               entity.LedgerEntry
		typ                             string
		refType, refID, notes, performer *string
	)
	err := row.Scan(&e.ID, &e.CompanyID, &e.BranchID, &e.ProductID, &typ, &e.Date, &e.Quantity,
		&e.PreviousQuantity, &e.NewQuantity, &e.UnitCost, &e.TotalCost, &e.UnitPrice,
		&refType, &refID, &notes, &performer, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Type = entity.LedgerEntryType(typ)
	e.ReferenceType = derefString(refType)
	e.ReferenceID = derefString(refID)
	e.Notes = derefString(notes)
	e.PerformedBy = derefString(performer)
	return &e, nil
}

// Append inserta una entrada; nunca actualiza.
func (r *LedgerEntryRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.BranchID, e.ProductID, string(e.Type), e.Date, e.Quantity,
		e.PreviousQuantity, e.NewQuantity, e.UnitCost, e.TotalCost, e.UnitPrice,
		nullString(e.ReferenceType), nullString(e.ReferenceID), nullString(e.Notes), nullString(e.PerformedBy), e.CreatedAt,
	)
	if err != nil {
		return wrap("insert ledger entry", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID (nil si no existe).
func (r *LedgerEntryRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get ledger entry", err)
	}
	return e, nil
}

// List devuelve las entradas de la empresa con filtros opcionales, fecha descendente.
func (r *LedgerEntryRepo) List(ctx context.Context, companyID string, f repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	conds := []string{"company_id = $1"}
	args := []any{companyID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.BranchID != "" {
		add("branch_id = $%d", f.BranchID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if f.ReferenceType != "" {
		add("reference_type = $%d", f.ReferenceType)
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY date DESC, seq DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list ledger entries", err)
	}
	defer rows.Close()

	var list []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list ledger entries", err)
	}
	return list, nil
}

// SumDeltas pliega el log de una línea: suma de deltas y número de entradas.
func (r *LedgerEntryRepo) SumDeltas(ctx context.Context, key entity.StockKey) (int64, int, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0), COUNT(*)
		FROM ledger_entries WHERE company_id = $1 AND branch_id = $2 AND product_id = $3`
	var (
		sum   int64
		count int
	)
	if err := r.q.QueryRow(ctx, query, key.CompanyID, key.BranchID, key.ProductID).Scan(&sum, &count); err != nil {
		return 0, 0, wrap("sum ledger deltas", err)
	}
	return sum, count, nil
}
