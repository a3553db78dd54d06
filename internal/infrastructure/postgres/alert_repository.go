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

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo persiste alertas en stock_alerts. El índice único parcial
// (company_id, branch_id, product_id, type) WHERE NOT is_resolved impide duplicados vigentes.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador de alertas.
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, company_id, product_id, branch_id, type, severity, current_quantity, threshold,
	is_read, is_resolved, created_at, updated_at, resolved_at`

func scanAlert(row pgx.Row) (*entity.StockAlert, error) {
	var (
		a              entity.StockAlert
		typ, severity string
	)
	err := row.Scan(&a.ID, &a.CompanyID, &a.ProductID, &a.BranchID, &typ, &severity, &a.CurrentQuantity, &a.Threshold,
		&a.IsRead, &a.IsResolved, &a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	a.Type = entity.AlertType(typ)
	a.Severity = entity.AlertSeverity(severity)
	return &a, nil
}

// Create inserta una alerta; ErrConflict si ya hay una vigente del mismo tipo para la línea.
func (r *AlertRepo) Create(ctx context.Context, a *entity.StockAlert) error {
	query := `INSERT INTO stock_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.CompanyID, a.ProductID, a.BranchID, string(a.Type), string(a.Severity), a.CurrentQuantity, a.Threshold,
		a.IsRead, a.IsResolved, a.CreatedAt, a.UpdatedAt, a.ResolvedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return wrap("insert alert", err)
	}
	return nil
}

// GetByID obtiene una alerta (nil si no existe).
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.StockAlert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get alert", err)
	}
	return a, nil
}

// Update actualiza los campos mutables de la alerta.
func (r *AlertRepo) Update(ctx context.Context, a *entity.StockAlert) error {
	query := `
		UPDATE stock_alerts SET severity = $2, current_quantity = $3, threshold = $4, is_read = $5,
			is_resolved = $6, updated_at = $7, resolved_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		a.ID, string(a.Severity), a.CurrentQuantity, a.Threshold, a.IsRead, a.IsResolved, a.UpdatedAt, a.ResolvedAt,
	)
	if err != nil {
		return wrap("update alert", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnresolved devuelve las alertas vigentes de la línea.
func (r *AlertRepo) ListUnresolved(ctx context.Context, key entity.StockKey) ([]*entity.StockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM stock_alerts
		WHERE company_id = $1 AND branch_id = $2 AND product_id = $3 AND NOT is_resolved
		ORDER BY created_at`
	return r.query(ctx, query, key.CompanyID, key.BranchID, key.ProductID)
}

// List lista alertas de la empresa (más recientes primero).
func (r *AlertRepo) List(ctx context.Context, companyID string, f repository.AlertFilter) ([]*entity.StockAlert, error) {
	conds := []string{"company_id = $1"}
	args := []any{companyID}
	if f.BranchID != "" {
		args = append(args, f.BranchID)
		conds = append(conds, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if f.UnresolvedOnly {
		conds = append(conds, "NOT is_resolved")
	}
	query := `SELECT ` + alertColumns + ` FROM stock_alerts WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *AlertRepo) query(ctx context.Context, query string, args ...any) ([]*entity.StockAlert, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list alerts", err)
	}
	defer rows.Close()
	var list []*entity.StockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list alerts", err)
	}
	return list, nil
}
