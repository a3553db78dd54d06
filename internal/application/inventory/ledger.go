package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// LedgerConfig parámetros del ledger.
type LedgerConfig struct {
	Retry           RetryPolicy
	DefaultPageSize int
	MaxPageSize     int
}

// Ledger es el único componente que modifica StockLine.Quantity.
// Cada Apply bloquea la fila (SELECT FOR UPDATE), valida que el stock no quede negativo,
// agrega la entrada al log y actualiza la proyección en la misma transacción.
type Ledger struct {
	txRunner  TxRunner
	entryRepo repository.LedgerEntryRepository
	stockRepo repository.StockLineRepository
	observer  StockObserver
	cfg       LedgerConfig
	log       zerolog.Logger
	now       func() time.Time
}

// NewLedger construye el ledger. entryRepo y stockRepo son de lectura (pool); las escrituras van por txRunner.
// observer puede ser nil.
func NewLedger(
	txRunner TxRunner,
	entryRepo repository.LedgerEntryRepository,
	stockRepo repository.StockLineRepository,
	observer StockObserver,
	cfg LedgerConfig,
	log zerolog.Logger,
) *Ledger {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 500
	}
	return &Ledger{
		txRunner:  txRunner,
		entryRepo: entryRepo,
		stockRepo: stockRepo,
		observer:  observer,
		cfg:       cfg,
		log:       log.With().Str("component", "ledger").Logger(),
		now:       time.Now,
	}
}

// ApplyInput entrada de applyTransaction. Quantity es el delta con signo (positivo = aumento).
// El ledger no valida claves foráneas: la existencia de producto y sucursal es responsabilidad del caller.
type ApplyInput struct {
	CompanyID     string
	BranchID      string
	ProductID     string
	Type          entity.LedgerEntryType
	Quantity      int64
	PerformedBy   string
	Notes         string
	ReferenceType string
	ReferenceID   string
	UnitCost      *decimal.Decimal
	UnitPrice     *decimal.Decimal
	Location      string // si no es vacío reemplaza la ubicación de la línea
}

func (in ApplyInput) key() entity.StockKey {
	return entity.StockKey{CompanyID: in.CompanyID, BranchID: in.BranchID, ProductID: in.ProductID}
}

func validateApply(in ApplyInput) error {
	if in.CompanyID == "" || in.BranchID == "" || in.ProductID == "" {
		return fmt.Errorf("%w: company_id, branch_id y product_id son requeridos", domain.ErrInvalidInput)
	}
	if in.Quantity == 0 {
		return fmt.Errorf("%w: quantity debe ser distinto de cero", domain.ErrInvalidInput)
	}
	sign, ok := in.Type.Sign()
	if !ok {
		return fmt.Errorf("%w: tipo de transacción %q desconocido", domain.ErrInvalidInput, in.Type)
	}
	if (sign > 0 && in.Quantity < 0) || (sign < 0 && in.Quantity > 0) {
		return fmt.Errorf("%w: signo de quantity %d no corresponde al tipo %s", domain.ErrInvalidInput, in.Quantity, in.Type)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit_cost negativo", domain.ErrInvalidInput)
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price negativo", domain.ErrInvalidInput)
	}
	return nil
}

// Apply registra una transacción de forma atómica y devuelve la entrada escrita.
// Errores: StockError (domain.ErrInsufficientStock), domain.ErrInvalidInput, domain.ErrOpeningStockExists,
// domain.ErrStoreUnavailable (reintentable por el caller, sin efectos parciales).
func (l *Ledger) Apply(ctx context.Context, in ApplyInput) (*entity.LedgerEntry, error) {
	if err := validateApply(in); err != nil {
		return nil, err
	}
	var (
		entry *entity.LedgerEntry
		line  *entity.StockLine
	)
	err := l.cfg.Retry.run(ctx, l.log, "apply", func() error {
		return l.txRunner.Run(ctx, func(
			ledgerRepo repository.LedgerEntryRepository,
			stockRepo repository.StockLineRepository,
			_ repository.TransferRepository,
		) error {
			var err error
			entry, line, err = l.applyInTx(ctx, ledgerRepo, stockRepo, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().
		Str("entry_id", entry.ID).
		Str("branch_id", entry.BranchID).
		Str("product_id", entry.ProductID).
		Str("type", string(entry.Type)).
		Int64("quantity", entry.Quantity).
		Int64("new_quantity", entry.NewQuantity).
		Msg("transacción de inventario registrada")
	l.notify(ctx, line)
	return entry, nil
}

// applyInTx es la unidad atómica: lectura bloqueante, cálculo, validación, append y upsert.
// Debe ejecutarse dentro de TxRunner.Run con los repositorios de esa transacción.
func (l *Ledger) applyInTx(
	ctx context.Context,
	ledgerRepo repository.LedgerEntryRepository,
	stockRepo repository.StockLineRepository,
	in ApplyInput,
) (*entity.LedgerEntry, *entity.StockLine, error) {
	line, err := stockRepo.GetForUpdate(ctx, in.key())
	if err != nil {
		return nil, nil, err
	}
	if in.Type == entity.EntryOpening && line.Quantity != 0 {
		return nil, nil, fmt.Errorf("%w: producto %s en sucursal %s tiene %d",
			domain.ErrOpeningStockExists, in.ProductID, in.BranchID, line.Quantity)
	}

	newQty := line.Quantity + in.Quantity
	if newQty < 0 || (in.Quantity < 0 && newQty < line.ReservedQuantity) {
		return nil, nil, &StockError{
			BranchID:  in.BranchID,
			ProductID: in.ProductID,
			Current:   line.Quantity,
			Reserved:  line.ReservedQuantity,
			Requested: in.Quantity,
		}
	}

	now := l.now()
	entry := &entity.LedgerEntry{
		ID:               uuid.New().String(),
		CompanyID:        in.CompanyID,
		BranchID:         in.BranchID,
		ProductID:        in.ProductID,
		Type:             in.Type,
		Date:             now,
		Quantity:         in.Quantity,
		PreviousQuantity: line.Quantity,
		NewQuantity:      newQty,
		UnitPrice:        in.UnitPrice,
		ReferenceType:    in.ReferenceType,
		ReferenceID:      in.ReferenceID,
		Notes:            in.Notes,
		PerformedBy:      in.PerformedBy,
		CreatedAt:        now,
	}

	// Costo: las entradas costeadas recalculan el promedio; las salidas se valoran al promedio vigente.
	unitCost := in.UnitCost
	if unitCost == nil && in.Quantity < 0 && !line.AverageCost.IsZero() {
		avg := line.AverageCost
		unitCost = &avg
	}
	if unitCost != nil {
		total := decimal.NewFromInt(in.Quantity).Mul(*unitCost)
		entry.UnitCost = unitCost
		entry.TotalCost = &total
	}
	if in.Quantity > 0 && in.UnitCost != nil {
		line.AverageCost = inventory.CostCalculator(line.Quantity, line.AverageCost, in.Quantity, *in.UnitCost)
	}

	line.Quantity = newQty
	line.UpdatedAt = now
	if in.Type.IsRestock() {
		line.LastRestockDate = &now
	}
	// solo un ajuste manual es un conteo físico; las compensaciones de traslado no
	if in.Type == entity.EntryAdjustment && in.ReferenceType != entity.ReferenceTransfer {
		line.LastStockCheck = &now
	}
	if in.Location != "" {
		line.Location = in.Location
	}

	if err := ledgerRepo.Append(ctx, entry); err != nil {
		return nil, nil, err
	}
	if err := stockRepo.Upsert(ctx, line); err != nil {
		return nil, nil, err
	}
	return entry, line, nil
}

// notify evalúa alertas después del commit; un fallo aquí solo se registra.
func (l *Ledger) notify(ctx context.Context, line *entity.StockLine) {
	if l.observer == nil || line == nil {
		return
	}
	if err := l.observer.StockChanged(ctx, line); err != nil {
		l.log.Warn().Err(err).
			Str("branch_id", line.BranchID).
			Str("product_id", line.ProductID).
			Msg("evaluación de alertas fallida (el movimiento ya está confirmado)")
	}
}

// OpeningStockInput stock inicial por sucursal de un producto recién creado.
type OpeningStockInput struct {
	CompanyID   string
	ProductID   string
	PerformedBy string
	UnitCost    *decimal.Decimal
	Quantities  map[string]int64 // branchID → cantidad inicial
}

// InitializeOpeningStock registra una entrada "opening" por cada sucursal con cantidad > 0.
// La cantidad previa debe ser 0; si no lo es falla con domain.ErrOpeningStockExists en lugar de sobrescribir.
// Cada sucursal es su propia unidad atómica; ante un error devuelve las entradas ya escritas.
func (l *Ledger) InitializeOpeningStock(ctx context.Context, in OpeningStockInput) ([]*entity.LedgerEntry, error) {
	if in.CompanyID == "" || in.ProductID == "" {
		return nil, fmt.Errorf("%w: company_id y product_id son requeridos", domain.ErrInvalidInput)
	}
	branches := make([]string, 0, len(in.Quantities))
	for branchID, qty := range in.Quantities {
		if qty < 0 || branchID == "" {
			return nil, fmt.Errorf("%w: cantidad inicial inválida para sucursal %q", domain.ErrInvalidInput, branchID)
		}
		if qty > 0 {
			branches = append(branches, branchID)
		}
	}
	sort.Strings(branches)

	entries := make([]*entity.LedgerEntry, 0, len(branches))
	for _, branchID := range branches {
		entry, err := l.Apply(ctx, ApplyInput{
			CompanyID:   in.CompanyID,
			BranchID:    branchID,
			ProductID:   in.ProductID,
			Type:        entity.EntryOpening,
			Quantity:    in.Quantities[branchID],
			PerformedBy: in.PerformedBy,
			UnitCost:    in.UnitCost,
			Notes:       "stock inicial",
		})
		if err != nil {
			return entries, fmt.Errorf("stock inicial sucursal %s: %w", branchID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListTransactions lista transacciones (lectura eventualmente consistente), ordenadas por fecha descendente.
func (l *Ledger) ListTransactions(ctx context.Context, companyID string, filter repository.LedgerFilter) ([]*entity.LedgerEntry, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Type != "" {
		if _, ok := filter.Type.Sign(); !ok {
			return nil, fmt.Errorf("%w: tipo %q desconocido", domain.ErrInvalidInput, filter.Type)
		}
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	if filter.Limit <= 0 {
		filter.Limit = l.cfg.DefaultPageSize
	}
	if filter.Limit > l.cfg.MaxPageSize {
		filter.Limit = l.cfg.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return l.entryRepo.List(ctx, companyID, filter)
}

// GetStockLine devuelve la proyección actual; una línea inexistente se informa con cantidad 0.
func (l *Ledger) GetStockLine(ctx context.Context, key entity.StockKey) (*entity.StockLine, error) {
	if key.CompanyID == "" || key.BranchID == "" || key.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	return l.stockRepo.Get(ctx, key)
}

// ProjectionCheck resultado de comparar la proyección con el plegado del log.
type ProjectionCheck struct {
	Key               entity.StockKey
	ProjectedQuantity int64
	LedgerQuantity    int64
	EntryCount        int
	Consistent        bool
}

// VerifyProjection compara StockLine.Quantity contra la suma de deltas del ledger.
func (l *Ledger) VerifyProjection(ctx context.Context, key entity.StockKey) (*ProjectionCheck, error) {
	line, err := l.GetStockLine(ctx, key)
	if err != nil {
		return nil, err
	}
	sum, count, err := l.entryRepo.SumDeltas(ctx, key)
	if err != nil {
		return nil, err
	}
	check := &ProjectionCheck{
		Key:               key,
		ProjectedQuantity: line.Quantity,
		LedgerQuantity:    sum,
		EntryCount:        count,
		Consistent:        sum == line.Quantity,
	}
	if !check.Consistent {
		l.log.Error().
			Str("branch_id", key.BranchID).
			Str("product_id", key.ProductID).
			Int64("projected", line.Quantity).
			Int64("ledger", sum).
			Msg("proyección de stock inconsistente con el ledger")
	}
	return check, nil
}

// Reserve aparta cantidad disponible sin mover el stock (no genera entrada en el ledger).
func (l *Ledger) Reserve(ctx context.Context, key entity.StockKey, quantity int64) (*entity.StockLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity debe ser positivo", domain.ErrInvalidInput)
	}
	return l.changeReservation(ctx, key, quantity)
}

// Release libera cantidad reservada.
func (l *Ledger) Release(ctx context.Context, key entity.StockKey, quantity int64) (*entity.StockLine, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity debe ser positivo", domain.ErrInvalidInput)
	}
	return l.changeReservation(ctx, key, -quantity)
}

func (l *Ledger) changeReservation(ctx context.Context, key entity.StockKey, delta int64) (*entity.StockLine, error) {
	if key.CompanyID == "" || key.BranchID == "" || key.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	var line *entity.StockLine
	err := l.cfg.Retry.run(ctx, l.log, "reservation", func() error {
		return l.txRunner.Run(ctx, func(
			_ repository.LedgerEntryRepository,
			stockRepo repository.StockLineRepository,
			_ repository.TransferRepository,
		) error {
			current, err := stockRepo.GetForUpdate(ctx, key)
			if err != nil {
				return err
			}
			reserved := current.ReservedQuantity + delta
			if reserved < 0 {
				return fmt.Errorf("%w: se liberan %d pero solo hay %d reservados", domain.ErrConflict, -delta, current.ReservedQuantity)
			}
			if reserved > current.Quantity {
				return &StockError{
					BranchID:  key.BranchID,
					ProductID: key.ProductID,
					Current:   current.Quantity,
					Reserved:  current.ReservedQuantity,
					Requested: -delta,
				}
			}
			current.ReservedQuantity = reserved
			current.UpdatedAt = l.now()
			if err := stockRepo.Upsert(ctx, current); err != nil {
				return err
			}
			line = current
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}
