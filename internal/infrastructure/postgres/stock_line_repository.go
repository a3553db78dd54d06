package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.StockLineRepository = (*StockLineRepo)(nil)

// StockLineRepo implementación del puerto StockLineRepository sobre PostgreSQL (pool o tx).
type StockLineRepo struct {
	q Querier
}

// NewStockLineRepository construye el adaptador de la proyección de stock.
func NewStockLineRepository(q Querier) *StockLineRepo {
	return &StockLineRepo{q: q}
}

const stockLineColumns = `company_id, branch_id, product_id, quantity, reserved_quantity, location,
	average_cost, last_stock_check, last_restock_date, updated_at`

func scanStockLine(row pgx.Row) (*entity.StockLine, error) {
	var (
		s        entity.StockLine
		location *string
	)
	err := row.Scan(&s.CompanyID, &s.BranchID, &s.ProductID, &s.Quantity, &s.ReservedQuantity, &location,
		&s.AverageCost, &s.LastStockCheck, &s.LastRestockDate, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Location = derefString(location)
	return &s, nil
}

func emptyLine(key entity.StockKey) *entity.StockLine {
	return &entity.StockLine{CompanyID: key.CompanyID, BranchID: key.BranchID, ProductID: key.ProductID}
}

// Get obtiene la línea; si no existe devuelve cantidad 0.
func (r *StockLineRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	query := `SELECT ` + stockLineColumns + `
		FROM stock_lines WHERE company_id = $1 AND branch_id = $2 AND product_id = $3`
	s, err := scanStockLine(r.q.QueryRow(ctx, query, key.CompanyID, key.BranchID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return emptyLine(key), nil
		}
		return nil, wrap("get stock line", err)
	}
	return s, nil
}

// GetForUpdate crea la fila si falta (cantidad 0) y la bloquea con FOR UPDATE hasta el fin de la tx.
// Insertar primero garantiza que dos primeras escrituras concurrentes sobre la misma línea se serialicen.
func (r *StockLineRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	insert := `
		INSERT INTO stock_lines (company_id, branch_id, product_id, quantity, reserved_quantity, average_cost, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, NOW())
		ON CONFLICT (company_id, branch_id, product_id) DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.CompanyID, key.BranchID, key.ProductID); err != nil {
		return nil, wrap("ensure stock line", err)
	}
	query := `SELECT ` + stockLineColumns + `
		FROM stock_lines WHERE company_id = $1 AND branch_id = $2 AND product_id = $3
		FOR UPDATE`
	s, err := scanStockLine(r.q.QueryRow(ctx, query, key.CompanyID, key.BranchID, key.ProductID))
	if err != nil {
		return nil, wrap("lock stock line", err)
	}
	return s, nil
}

// Upsert inserta o actualiza la línea de stock.
func (r *StockLineRepo) Upsert(ctx context.Context, s *entity.StockLine) error {
	query := `
		INSERT INTO stock_lines (company_id, branch_id, product_id, quantity, reserved_quantity, location,
			average_cost, last_stock_check, last_restock_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (company_id, branch_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			reserved_quantity = EXCLUDED.reserved_quantity,
			location = EXCLUDED.location,
			average_cost = EXCLUDED.average_cost,
			last_stock_check = EXCLUDED.last_stock_check,
			last_restock_date = EXCLUDED.last_restock_date,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.CompanyID, s.BranchID, s.ProductID, s.Quantity, s.ReservedQuantity, nullString(s.Location),
		s.AverageCost, s.LastStockCheck, s.LastRestockDate, s.UpdatedAt,
	)
	if err != nil {
		return wrap("upsert stock line", err)
	}
	return nil
}

// List devuelve las líneas de la empresa; branchID vacío = todas.
func (r *StockLineRepo) List(ctx context.Context, companyID, branchID string) ([]*entity.StockLine, error) {
	query := `SELECT ` + stockLineColumns + ` FROM stock_lines WHERE company_id = $1`
	args := []any{companyID}
	if branchID != "" {
		query += ` AND branch_id = $2`
		args = append(args, branchID)
	}
	query += ` ORDER BY branch_id, product_id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list stock lines", err)
	}
	defer rows.Close()

	var list []*entity.StockLine
	for rows.Next() {
		s, err := scanStockLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock line: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list stock lines", err)
	}
	return list, nil
}
