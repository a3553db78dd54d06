package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// TransferCoordinator orquesta los traslados entre sucursales: un transfer_out por ítem en origen
// y un transfer_in por ítem en destino al completarse. Cada paso de ítem es su propia transacción
// (bloquea el traslado y la línea de stock); no hay atomicidad entre ítems.
type TransferCoordinator struct {
	ledger       *Ledger
	transferRepo repository.TransferRepository
	log          zerolog.Logger
}

// NewTransferCoordinator construye el coordinador. transferRepo es de lectura (pool).
func NewTransferCoordinator(ledger *Ledger, transferRepo repository.TransferRepository, log zerolog.Logger) *TransferCoordinator {
	return &TransferCoordinator{
		ledger:       ledger,
		transferRepo: transferRepo,
		log:          log.With().Str("component", "transfer").Logger(),
	}
}

// TransferItemInput ítem solicitado de un traslado.
type TransferItemInput struct {
	ProductID string
	Quantity  int64
}

// CreateTransferInput entrada de createTransfer.
type CreateTransferInput struct {
	CompanyID     string
	FromBranchID  string
	ToBranchID    string
	Items         []TransferItemInput
	InitialStatus entity.TransferStatus // vacío = pending
	Notes         string
	CreatedBy     string
	TransferDate  *time.Time
}

type itemStep string

const (
	stepDebit          itemStep = "debit"
	stepCredit         itemStep = "credit"
	stepDestReversal   itemStep = "dest_reversal"
	stepSourceReversal itemStep = "source_reversal"
)

func validateCreateTransfer(in *CreateTransferInput) error {
	if in.CompanyID == "" || in.FromBranchID == "" || in.ToBranchID == "" {
		return fmt.Errorf("%w: company_id, from_branch_id y to_branch_id son requeridos", domain.ErrInvalidInput)
	}
	if in.FromBranchID == in.ToBranchID {
		return fmt.Errorf("%w: la sucursal origen y destino deben ser distintas", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: el traslado requiere al menos un ítem", domain.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return fmt.Errorf("%w: ítem %q con cantidad %d", domain.ErrInvalidInput, it.ProductID, it.Quantity)
		}
		if seen[it.ProductID] {
			return fmt.Errorf("%w: producto %s repetido en el traslado", domain.ErrInvalidInput, it.ProductID)
		}
		seen[it.ProductID] = true
	}
	if in.InitialStatus == "" {
		in.InitialStatus = entity.TransferPending
	}
	if !inventory.ValidInitialStatus(in.InitialStatus) {
		return fmt.Errorf("%w: estado inicial %q", domain.ErrInvalidInput, in.InitialStatus)
	}
	return nil
}

// CreateTransfer crea el traslado y descuenta cada ítem en origen. Si el estado inicial es completed
// también acredita en destino. Ante fallo parcial devuelve el traslado persistido y un *TransferPartialError:
// con débitos fallidos queda en draft (solo cancelable); con créditos fallidos queda en in_transit.
func (c *TransferCoordinator) CreateTransfer(ctx context.Context, in CreateTransferInput) (*entity.StockTransfer, error) {
	if err := validateCreateTransfer(&in); err != nil {
		return nil, err
	}
	now := c.ledger.now()
	transferDate := now
	if in.TransferDate != nil {
		transferDate = *in.TransferDate
	}
	t := &entity.StockTransfer{
		ID:           uuid.New().String(),
		CompanyID:    in.CompanyID,
		FromBranchID: in.FromBranchID,
		ToBranchID:   in.ToBranchID,
		TransferDate: transferDate,
		Status:       entity.TransferDraft,
		Notes:        in.Notes,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, it := range in.Items {
		t.Items = append(t.Items, entity.TransferItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	// 1. Persistir el registro para que las entradas del ledger puedan referenciarlo
	err := c.ledger.cfg.Retry.run(ctx, c.log, "transfer_create", func() error {
		return c.ledger.txRunner.Run(ctx, func(_ repository.LedgerEntryRepository, _ repository.StockLineRepository, transferRepo repository.TransferRepository) error {
			return transferRepo.Create(ctx, t)
		})
	})
	if err != nil {
		return nil, err
	}

	// 2. Débito por ítem en origen; se detiene en el primer fallo
	var succeeded, failed []ItemResult
	var cause error
	for i, it := range t.Items {
		entryID, err := c.runItemStep(ctx, t.ID, it.ProductID, stepDebit, in.CreatedBy)
		if err != nil {
			cause = err
			failed = append(failed, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, Error: err.Error()})
			for _, rest := range t.Items[i+1:] {
				failed = append(failed, ItemResult{ProductID: rest.ProductID, Quantity: rest.Quantity, Error: "no procesado"})
			}
			break
		}
		succeeded = append(succeeded, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, EntryID: entryID})
	}
	if cause != nil {
		return c.failCreate(ctx, t, succeeded, failed, cause)
	}

	// 3. Crédito inmediato en destino si se crea completado
	if in.InitialStatus == entity.TransferCompleted {
		credited, creditFailed, creditCause := c.creditAll(ctx, t, in.CreatedBy)
		if creditCause != nil {
			updated, ferr := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
				tr.Status = entity.TransferInTransit
				markItemErrors(tr, creditFailed)
				return nil
			})
			if ferr != nil {
				return nil, ferr
			}
			return updated, &TransferPartialError{TransferID: t.ID, Stage: string(stepCredit), Succeeded: credited, Failed: creditFailed, Cause: creditCause}
		}
	}

	// 4. Persistir el estado resultante
	updated, err := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
		if tr.IsTerminal() {
			return fmt.Errorf("%w: el traslado cambió a %s durante su creación", domain.ErrInvalidTransition, tr.Status)
		}
		tr.Status = in.InitialStatus
		if in.InitialStatus == entity.TransferCompleted {
			done := c.ledger.now()
			tr.ReceivedBy = in.CreatedBy
			tr.CompletedAt = &done
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("transfer_id", t.ID).Str("status", string(updated.Status)).Int("items", len(t.Items)).Msg("traslado creado")
	return updated, nil
}

// failCreate cierra una creación fallida. Sin débitos aplicados el traslado se cancela y se devuelve
// el error original; con débitos aplicados queda en draft a la espera de cancelación.
func (c *TransferCoordinator) failCreate(ctx context.Context, t *entity.StockTransfer, succeeded, failed []ItemResult, cause error) (*entity.StockTransfer, error) {
	if len(succeeded) == 0 {
		_, ferr := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
			tr.Status = entity.TransferCancelled
			now := c.ledger.now()
			tr.CancelledAt = &now
			markItemErrors(tr, failed[:1])
			return nil
		})
		if ferr != nil {
			c.log.Error().Err(ferr).Str("transfer_id", t.ID).Msg("no se pudo cerrar el traslado fallido")
		}
		return nil, cause
	}
	updated, ferr := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
		markItemErrors(tr, failed)
		return nil
	})
	if ferr != nil {
		c.log.Error().Err(ferr).Str("transfer_id", t.ID).Msg("no se pudo registrar el fallo parcial del traslado")
		updated = t
	}
	c.log.Warn().Err(cause).Str("transfer_id", t.ID).Int("succeeded", len(succeeded)).Int("failed", len(failed)).
		Msg("traslado con débito parcial; requiere cancelación o ajuste manual")
	return updated, &TransferPartialError{TransferID: t.ID, Stage: string(stepDebit), Succeeded: succeeded, Failed: failed, Cause: cause}
}

// CompleteTransfer acredita en destino los ítems pendientes y pasa a completed.
// Si algún ítem falla el traslado conserva su estado con ese ítem sin resolver; no se revierte el origen.
func (c *TransferCoordinator) CompleteTransfer(ctx context.Context, companyID, transferID, receivedBy string) (*entity.StockTransfer, error) {
	t, err := c.GetTransfer(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !inventory.CanComplete(t.Status) {
		return nil, fmt.Errorf("%w: no se puede completar un traslado en estado %s", domain.ErrInvalidTransition, t.Status)
	}
	for _, it := range t.Items {
		if !it.Debited() {
			return nil, fmt.Errorf("%w: producto %s", domain.ErrTransferIncomplete, it.ProductID)
		}
	}
	credited, failed, cause := c.creditAll(ctx, t, receivedBy)
	if cause != nil {
		updated, ferr := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
			markItemErrors(tr, failed)
			return nil
		})
		if ferr != nil {
			return nil, ferr
		}
		return updated, &TransferPartialError{TransferID: t.ID, Stage: string(stepCredit), Succeeded: credited, Failed: failed, Cause: cause}
	}
	updated, err := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
		if tr.Status == entity.TransferCompleted {
			return nil
		}
		if !inventory.CanComplete(tr.Status) {
			return fmt.Errorf("%w: estado actual %s", domain.ErrInvalidTransition, tr.Status)
		}
		now := c.ledger.now()
		tr.Status = entity.TransferCompleted
		tr.ReceivedBy = receivedBy
		tr.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("transfer_id", t.ID).Str("received_by", receivedBy).Msg("traslado completado")
	return updated, nil
}

// creditAll intenta acreditar todos los ítems no acreditados; no se detiene ante un fallo.
func (c *TransferCoordinator) creditAll(ctx context.Context, t *entity.StockTransfer, actor string) (succeeded, failed []ItemResult, cause error) {
	for _, it := range t.Items {
		if it.Credited() {
			continue
		}
		entryID, err := c.runItemStep(ctx, t.ID, it.ProductID, stepCredit, actor)
		if err != nil {
			if cause == nil {
				cause = err
			}
			failed = append(failed, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, Error: err.Error()})
			continue
		}
		succeeded = append(succeeded, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, EntryID: entryID})
	}
	return succeeded, failed, cause
}

// CancelTransfer revierte con ajustes compensatorios lo ya aplicado (primero créditos en destino,
// luego débitos en origen) y pasa a cancelled. El historial nunca se edita ni se borra.
func (c *TransferCoordinator) CancelTransfer(ctx context.Context, companyID, transferID, performedBy string) (*entity.StockTransfer, error) {
	t, err := c.GetTransfer(ctx, companyID, transferID)
	if err != nil {
		return nil, err
	}
	if !inventory.CanTransition(t.Status, entity.TransferCancelled) {
		return nil, fmt.Errorf("%w: no se puede cancelar un traslado en estado %s", domain.ErrInvalidTransition, t.Status)
	}

	var succeeded, failed []ItemResult
	var cause error
	for _, it := range t.Items {
		if _, err := c.runItemStep(ctx, t.ID, it.ProductID, stepDestReversal, performedBy); err != nil {
			if cause == nil {
				cause = err
			}
			failed = append(failed, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, Error: err.Error()})
			continue
		}
		entryID, err := c.runItemStep(ctx, t.ID, it.ProductID, stepSourceReversal, performedBy)
		if err != nil {
			if cause == nil {
				cause = err
			}
			failed = append(failed, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, Error: err.Error()})
			continue
		}
		succeeded = append(succeeded, ItemResult{ProductID: it.ProductID, Quantity: it.Quantity, EntryID: entryID})
	}
	if cause != nil {
		updated, ferr := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
			markItemErrors(tr, failed)
			return nil
		})
		if ferr != nil {
			return nil, ferr
		}
		return updated, &TransferPartialError{TransferID: t.ID, Stage: "cancel", Succeeded: succeeded, Failed: failed, Cause: cause}
	}

	updated, err := c.finalize(ctx, t.ID, func(tr *entity.StockTransfer) error {
		if tr.Status == entity.TransferCancelled {
			return nil
		}
		if !inventory.CanTransition(tr.Status, entity.TransferCancelled) {
			return fmt.Errorf("%w: estado actual %s", domain.ErrInvalidTransition, tr.Status)
		}
		now := c.ledger.now()
		tr.Status = entity.TransferCancelled
		tr.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info().Str("transfer_id", t.ID).Str("performed_by", performedBy).Msg("traslado cancelado")
	return updated, nil
}

// AdvanceTransfer avanza un traslado por draft → pending → in_transit.
// completed y cancelled solo se alcanzan con CompleteTransfer y CancelTransfer.
func (c *TransferCoordinator) AdvanceTransfer(ctx context.Context, companyID, transferID string, to entity.TransferStatus) (*entity.StockTransfer, error) {
	if to != entity.TransferPending && to != entity.TransferInTransit {
		return nil, fmt.Errorf("%w: estado destino %q", domain.ErrInvalidTransition, to)
	}
	if _, err := c.GetTransfer(ctx, companyID, transferID); err != nil {
		return nil, err
	}
	return c.finalize(ctx, transferID, func(tr *entity.StockTransfer) error {
		if !inventory.CanTransition(tr.Status, to) {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, tr.Status, to)
		}
		for _, it := range tr.Items {
			if !it.Debited() {
				return fmt.Errorf("%w: producto %s", domain.ErrTransferIncomplete, it.ProductID)
			}
		}
		tr.Status = to
		return nil
	})
}

// GetTransfer obtiene un traslado de la empresa.
func (c *TransferCoordinator) GetTransfer(ctx context.Context, companyID, transferID string) (*entity.StockTransfer, error) {
	if transferID == "" {
		return nil, domain.ErrInvalidInput
	}
	t, err := c.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return t, nil
}

// ListTransfers lista traslados de la empresa.
func (c *TransferCoordinator) ListTransfers(ctx context.Context, companyID string, filter repository.TransferFilter) ([]*entity.StockTransfer, error) {
	if companyID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = c.ledger.cfg.DefaultPageSize
	}
	if filter.Limit > c.ledger.cfg.MaxPageSize {
		filter.Limit = c.ledger.cfg.MaxPageSize
	}
	return c.transferRepo.List(ctx, companyID, filter)
}

// runItemStep ejecuta un paso de un ítem en su propia transacción: bloquea el traslado, verifica
// que el paso no se haya aplicado ya, aplica la entrada del ledger y registra su ID en el ítem.
// Devuelve el ID de la entrada (vacío si el paso no aplica al ítem).
func (c *TransferCoordinator) runItemStep(ctx context.Context, transferID, productID string, step itemStep, actor string) (string, error) {
	var (
		entryID string
		line    *entity.StockLine
	)
	err := c.ledger.cfg.Retry.run(ctx, c.log, "transfer_"+string(step), func() error {
		entryID, line = "", nil
		return c.ledger.txRunner.Run(ctx, func(
			ledgerRepo repository.LedgerEntryRepository,
			stockRepo repository.StockLineRepository,
			transferRepo repository.TransferRepository,
		) error {
			tr, err := transferRepo.GetForUpdate(ctx, transferID)
			if err != nil {
				return err
			}
			if tr == nil {
				return domain.ErrNotFound
			}
			if tr.IsTerminal() {
				return fmt.Errorf("%w: traslado en estado %s", domain.ErrInvalidTransition, tr.Status)
			}
			item := tr.Item(productID)
			if item == nil {
				return fmt.Errorf("%w: producto %s no pertenece al traslado", domain.ErrInvalidInput, productID)
			}
			in, existing, apply, err := planItemStep(tr, item, step, actor)
			if err != nil || !apply {
				entryID = existing
				return err
			}
			entry, l, err := c.ledger.applyInTx(ctx, ledgerRepo, stockRepo, in)
			if err != nil {
				return err
			}
			switch step {
			case stepDebit:
				item.OutEntryID = entry.ID
			case stepCredit:
				item.InEntryID = entry.ID
			case stepDestReversal:
				item.DestReversalEntryID = entry.ID
			case stepSourceReversal:
				item.SourceReversalEntryID = entry.ID
			}
			item.LastError = ""
			tr.UpdatedAt = c.ledger.now()
			if err := transferRepo.Update(ctx, tr); err != nil {
				return err
			}
			entryID, line = entry.ID, l
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("producto %s: %w", productID, err)
	}
	c.ledger.notify(ctx, line)
	return entryID, nil
}

// planItemStep decide la entrada del ledger de un paso. apply=false si el paso ya se aplicó
// (existing = ID previo) o no corresponde al ítem.
func planItemStep(tr *entity.StockTransfer, item *entity.TransferItem, step itemStep, actor string) (in ApplyInput, existing string, apply bool, err error) {
	in = ApplyInput{
		CompanyID:     tr.CompanyID,
		ProductID:     item.ProductID,
		PerformedBy:   actor,
		ReferenceType: entity.ReferenceTransfer,
		ReferenceID:   tr.ID,
	}
	switch step {
	case stepDebit:
		if item.Debited() {
			return in, item.OutEntryID, false, nil
		}
		in.BranchID, in.Type, in.Quantity = tr.FromBranchID, entity.EntryTransferOut, -item.Quantity
		in.Notes = "salida por traslado"
	case stepCredit:
		if item.Credited() {
			return in, item.InEntryID, false, nil
		}
		if !item.Debited() || item.SourceReversalEntryID != "" {
			return in, "", false, fmt.Errorf("%w: producto %s", domain.ErrTransferIncomplete, item.ProductID)
		}
		in.BranchID, in.Type, in.Quantity = tr.ToBranchID, entity.EntryTransferIn, item.Quantity
		in.Notes = "entrada por traslado"
	case stepDestReversal:
		if !item.Credited() || item.DestReversalEntryID != "" {
			return in, item.DestReversalEntryID, false, nil
		}
		in.BranchID, in.Type, in.Quantity = tr.ToBranchID, entity.EntryAdjustment, -item.Quantity
		in.Notes = "reversión de traslado cancelado (destino)"
	case stepSourceReversal:
		if !item.Debited() || item.SourceReversalEntryID != "" {
			return in, item.SourceReversalEntryID, false, nil
		}
		if item.Credited() && item.DestReversalEntryID == "" {
			return in, "", false, fmt.Errorf("%w: el destino de %s aún no se revierte", domain.ErrConflict, item.ProductID)
		}
		in.BranchID, in.Type, in.Quantity = tr.FromBranchID, entity.EntryAdjustment, item.Quantity
		in.Notes = "compensación de traslado cancelado (origen)"
	default:
		return in, "", false, fmt.Errorf("paso de traslado desconocido: %s", step)
	}
	return in, "", true, nil
}

// finalize aplica mutate sobre el traslado bloqueado y lo persiste.
func (c *TransferCoordinator) finalize(ctx context.Context, transferID string, mutate func(tr *entity.StockTransfer) error) (*entity.StockTransfer, error) {
	var out *entity.StockTransfer
	err := c.ledger.cfg.Retry.run(ctx, c.log, "transfer_update", func() error {
		return c.ledger.txRunner.Run(ctx, func(_ repository.LedgerEntryRepository, _ repository.StockLineRepository, transferRepo repository.TransferRepository) error {
			tr, err := transferRepo.GetForUpdate(ctx, transferID)
			if err != nil {
				return err
			}
			if tr == nil {
				return domain.ErrNotFound
			}
			if err := mutate(tr); err != nil {
				return err
			}
			tr.UpdatedAt = c.ledger.now()
			if err := transferRepo.Update(ctx, tr); err != nil {
				return err
			}
			out = tr
			return nil
		})
	})
	return out, err
}

func markItemErrors(tr *entity.StockTransfer, failed []ItemResult) {
	for _, f := range failed {
		if item := tr.Item(f.ProductID); item != nil {
			item.LastError = f.Error
		}
	}
}

// IsPartial indica si err es un fallo parcial de traslado.
func IsPartial(err error) (*TransferPartialError, bool) {
	var pe *TransferPartialError
	ok := errors.As(err, &pe)
	return pe, ok
}
