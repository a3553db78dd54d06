package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo persiste traslados (stock_transfers) y sus ítems (stock_transfer_items).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador de traslados. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

const transferColumns = `id, company_id, from_branch_id, to_branch_id, transfer_date, status, notes,
	created_by, received_by, created_at, updated_at, completed_at, cancelled_at`

func scanTransfer(row pgx.Row) (*entity.StockTransfer, error) {
	var (
		t                          entity.StockTransfer
		status                     string
		notes, createdBy, received *string
	)
	err := row.Scan(&t.ID, &t.CompanyID, &t.FromBranchID, &t.ToBranchID, &t.TransferDate, &status, &notes,
		&createdBy, &received, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.CancelledAt)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	t.Notes = derefString(notes)
	t.CreatedBy = derefString(createdBy)
	t.ReceivedBy = derefString(received)
	return &t, nil
}

// Create inserta el traslado y sus ítems (en el orden recibido).
func (r *TransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.CompanyID, t.FromBranchID, t.ToBranchID, t.TransferDate, string(t.Status), nullString(t.Notes),
		nullString(t.CreatedBy), nullString(t.ReceivedBy), t.CreatedAt, t.UpdatedAt, t.CompletedAt, t.CancelledAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return wrap("insert transfer", err)
	}
	return r.saveItems(ctx, t)
}

// saveItems inserta o actualiza los ítems por (transfer_id, product_id).
func (r *TransferRepo) saveItems(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		INSERT INTO stock_transfer_items (transfer_id, position, product_id, quantity, out_entry_id, in_entry_id,
			source_reversal_entry_id, dest_reversal_entry_id, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transfer_id, product_id) DO UPDATE SET
			out_entry_id = EXCLUDED.out_entry_id,
			in_entry_id = EXCLUDED.in_entry_id,
			source_reversal_entry_id = EXCLUDED.source_reversal_entry_id,
			dest_reversal_entry_id = EXCLUDED.dest_reversal_entry_id,
			last_error = EXCLUDED.last_error`
	for i, it := range t.Items {
		_, err := r.q.Exec(ctx, query,
			t.ID, i, it.ProductID, it.Quantity, nullString(it.OutEntryID), nullString(it.InEntryID),
			nullString(it.SourceReversalEntryID), nullString(it.DestReversalEntryID), nullString(it.LastError),
		)
		if err != nil {
			return wrap("save transfer item", err)
		}
	}
	return nil
}

func (r *TransferRepo) loadItems(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		SELECT product_id, quantity, out_entry_id, in_entry_id, source_reversal_entry_id, dest_reversal_entry_id, last_error
		FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, t.ID)
	if err != nil {
		return wrap("list transfer items", err)
	}
	defer rows.Close()

	t.Items = t.Items[:0]
	for rows.Next() {
		var (
			it                                  entity.TransferItem
			outID, inID, srcRev, dstRev, lastErr *string
		)
		if err := rows.Scan(&it.ProductID, &it.Quantity, &outID, &inID, &srcRev, &dstRev, &lastErr); err != nil {
			return fmt.Errorf("scan transfer item: %w", err)
		}
		it.OutEntryID = derefString(outID)
		it.InEntryID = derefString(inID)
		it.SourceReversalEntryID = derefString(srcRev)
		it.DestReversalEntryID = derefString(dstRev)
		it.LastError = derefString(lastErr)
		t.Items = append(t.Items, it)
	}
	return rows.Err()
}

func (r *TransferRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get transfer", err)
	}
	if err := r.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID obtiene un traslado con sus ítems (nil si no existe).
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene y bloquea el traslado hasta el fin de la tx.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, true)
}

// Update actualiza estado, trazabilidad e ítems.
func (r *TransferRepo) Update(ctx context.Context, t *entity.StockTransfer) error {
	query := `
		UPDATE stock_transfers SET status = $2, notes = $3, received_by = $4, updated_at = $5,
			completed_at = $6, cancelled_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		t.ID, string(t.Status), nullString(t.Notes), nullString(t.ReceivedBy), t.UpdatedAt, t.CompletedAt, t.CancelledAt,
	)
	if err != nil {
		return wrap("update transfer", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return r.saveItems(ctx, t)
}

// List lista traslados de la empresa (más recientes primero).
func (r *TransferRepo) List(ctx context.Context, companyID string, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	conds := []string{"company_id = $1"}
	args := []any{companyID}
	if f.BranchID != "" {
		args = append(args, f.BranchID)
		conds = append(conds, fmt.Sprintf("(from_branch_id = $%d OR to_branch_id = $%d)", len(args), len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id`
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
		return nil, wrap("list transfers", err)
	}
	var list []*entity.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("list transfers", err)
	}
	// Los ítems se cargan después de cerrar el cursor: una conexión de tx no admite dos consultas abiertas.
	for _, t := range list {
		if err := r.loadItems(ctx, t); err != nil {
			return nil, err
		}
	}
	return list, nil
}
