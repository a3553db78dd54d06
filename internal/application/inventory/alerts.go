package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ StockObserver = (*AlertGenerator)(nil)

// AlertGenerator deriva alertas de stock bajo / agotado a partir de la proyección.
// Es idempotente: nunca duplica una alerta sin resolver del mismo (producto, sucursal, tipo).
type AlertGenerator struct {
	alertRepo   repository.AlertRepository
	productRepo repository.ProductRepository
	stockRepo   repository.StockLineRepository
	log         zerolog.Logger
	now         func() time.Time

	// serializa evaluaciones de la misma línea dentro del proceso
	keyLocks sync.Map // entity.StockKey → *sync.Mutex
}

// NewAlertGenerator construye el generador de alertas.
// stockRepo se usa para leer la línea confirmada; las notificaciones pueden llegar fuera de orden.
func NewAlertGenerator(
	alertRepo repository.AlertRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockLineRepository,
	log zerolog.Logger,
) *AlertGenerator {
	return &AlertGenerator{
		alertRepo:   alertRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		log:         log.With().Str("component", "alerts").Logger(),
		now:         time.Now,
	}
}

// StockChanged implementa StockObserver.
func (g *AlertGenerator) StockChanged(ctx context.Context, line *entity.StockLine) error {
	return g.Evaluate(ctx, line)
}

// Evaluate aplica la regla de umbral del producto a la línea vigente en el almacén
// (snapshot solo identifica la clave; su cantidad puede estar desactualizada):
//   - la alerta vigente del mismo tipo se actualiza en su lugar (cantidad y severidad)
//   - las alertas de umbral de otro tipo se resuelven (low_stock escala a out_of_stock sin duplicar)
//   - sobre el umbral se resuelven todas las alertas de umbral de la línea
func (g *AlertGenerator) Evaluate(ctx context.Context, snapshot *entity.StockLine) error {
	mu, _ := g.keyLocks.LoadOrStore(snapshot.Key(), &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	line, err := g.stockRepo.Get(ctx, snapshot.Key())
	if err != nil {
		return fmt.Errorf("alertas: leer línea %s/%s: %w", snapshot.BranchID, snapshot.ProductID, err)
	}
	product, err := g.productRepo.GetByID(ctx, line.ProductID)
	if err != nil {
		return fmt.Errorf("alertas: producto %s: %w", line.ProductID, err)
	}
	if product == nil || !product.TrackInventory {
		return nil
	}

	decision, needed := inventory.EvaluateAlert(line.Quantity, product.LowStockThreshold)
	open, err := g.alertRepo.ListUnresolved(ctx, line.Key())
	if err != nil {
		return fmt.Errorf("alertas: listar vigentes: %w", err)
	}

	now := g.now()
	var current *entity.StockAlert
	for _, a := range open {
		if !inventory.IsThresholdAlert(a.Type) {
			continue
		}
		if needed && a.Type == decision.Type && current == nil {
			current = a
			continue
		}
		if err := g.resolve(ctx, a, now); err != nil {
			return err
		}
	}
	if !needed {
		return nil
	}

	if current != nil {
		if current.Severity == decision.Severity && current.CurrentQuantity == line.Quantity && current.Threshold == product.LowStockThreshold {
			return nil
		}
		current.Severity = decision.Severity
		current.CurrentQuantity = line.Quantity
		current.Threshold = product.LowStockThreshold
		current.UpdatedAt = now
		return g.alertRepo.Update(ctx, current)
	}

	alert := &entity.StockAlert{
		ID:              uuid.New().String(),
		CompanyID:       line.CompanyID,
		ProductID:       line.ProductID,
		BranchID:        line.BranchID,
		Type:            decision.Type,
		Severity:        decision.Severity,
		CurrentQuantity: line.Quantity,
		Threshold:       product.LowStockThreshold,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := g.alertRepo.Create(ctx, alert); err != nil {
		// Otra evaluación concurrente ya creó la alerta: se deja en su lugar.
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return fmt.Errorf("alertas: crear: %w", err)
	}
	g.log.Info().
		Str("alert_id", alert.ID).
		Str("type", string(alert.Type)).
		Str("severity", string(alert.Severity)).
		Str("branch_id", alert.BranchID).
		Str("product_id", alert.ProductID).
		Int64("quantity", alert.CurrentQuantity).
		Msg("alerta de stock generada")
	return nil
}

func (g *AlertGenerator) resolve(ctx context.Context, a *entity.StockAlert, now time.Time) error {
	a.IsResolved = true
	a.ResolvedAt = &now
	a.UpdatedAt = now
	if err := g.alertRepo.Update(ctx, a); err != nil {
		return fmt.Errorf("alertas: resolver %s: %w", a.ID, err)
	}
	return nil
}

// ListAlerts lista las alertas de la empresa; branchID vacío = todas las sucursales.
func (g *AlertGenerator) ListAlerts(ctx context.Context, companyID string, filter repository.AlertFilter) ([]*entity.StockAlert, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return g.alertRepo.List(ctx, companyID, filter)
}

// MarkRead marca una alerta como leída.
func (g *AlertGenerator) MarkRead(ctx context.Context, companyID, alertID string) (*entity.StockAlert, error) {
	a, err := g.get(ctx, companyID, alertID)
	if err != nil {
		return nil, err
	}
	if a.IsRead {
		return a, nil
	}
	a.IsRead = true
	a.UpdatedAt = g.now()
	if err := g.alertRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Resolve resuelve manualmente una alerta.
func (g *AlertGenerator) Resolve(ctx context.Context, companyID, alertID string) (*entity.StockAlert, error) {
	a, err := g.get(ctx, companyID, alertID)
	if err != nil {
		return nil, err
	}
	if a.IsResolved {
		return a, nil
	}
	if err := g.resolve(ctx, a, g.now()); err != nil {
		return nil, err
	}
	return a, nil
}

func (g *AlertGenerator) get(ctx context.Context, companyID, alertID string) (*entity.StockAlert, error) {
	if alertID == "" {
		return nil, domain.ErrInvalidInput
	}
	a, err := g.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	if a.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return a, nil
}
