package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// MovementUseCase es la puerta de entrada de los colaboradores (UI, catálogo, sucursales).
// Valida existencia y pertenencia de producto y sucursal y la política de control de inventario
// antes de delegar en el Ledger, que solo valida aritmética.
type MovementUseCase struct {
	ledger      *Ledger
	transfers   *TransferCoordinator
	productRepo repository.ProductRepository
	branchRepo  repository.BranchRepository
}

// NewMovementUseCase construye el caso de uso.
func NewMovementUseCase(
	ledger *Ledger,
	transfers *TransferCoordinator,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
) *MovementUseCase {
	return &MovementUseCase{
		ledger:      ledger,
		transfers:   transfers,
		productRepo: productRepo,
		branchRepo:  branchRepo,
	}
}

// RecordTransaction adapta el request HTTP a Ledger.Apply.
func (uc *MovementUseCase) RecordTransaction(ctx context.Context, companyID, userID string, in dto.ApplyTransactionRequest) (*entity.LedgerEntry, error) {
	if err := uc.checkBranch(ctx, companyID, in.BranchID); err != nil {
		return nil, err
	}
	if err := uc.checkProduct(ctx, companyID, in.ProductID); err != nil {
		return nil, err
	}
	return uc.ledger.Apply(ctx, ApplyInput{
		CompanyID:     companyID,
		BranchID:      in.BranchID,
		ProductID:     in.ProductID,
		Type:          entity.LedgerEntryType(in.Type),
		Quantity:      in.Quantity,
		PerformedBy:   userID,
		Notes:         in.Notes,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		UnitCost:      in.UnitCost,
		UnitPrice:     in.UnitPrice,
		Location:      in.Location,
	})
}

// InitializeOpeningStock valida producto y sucursales y registra el stock inicial.
func (uc *MovementUseCase) InitializeOpeningStock(ctx context.Context, companyID, userID string, in dto.OpeningStockRequest) ([]*entity.LedgerEntry, error) {
	if err := uc.checkProduct(ctx, companyID, in.ProductID); err != nil {
		return nil, err
	}
	for branchID := range in.Quantities {
		if err := uc.checkBranch(ctx, companyID, branchID); err != nil {
			return nil, err
		}
	}
	return uc.ledger.InitializeOpeningStock(ctx, OpeningStockInput{
		CompanyID:   companyID,
		ProductID:   in.ProductID,
		PerformedBy: userID,
		UnitCost:    in.UnitCost,
		Quantities:  in.Quantities,
	})
}

// CreateTransfer valida sucursales y productos y delega en el coordinador.
func (uc *MovementUseCase) CreateTransfer(ctx context.Context, companyID, userID string, in dto.CreateTransferRequest) (*entity.StockTransfer, error) {
	if in.FromBranchID == "" || in.ToBranchID == "" {
		return nil, fmt.Errorf("%w: from_branch_id y to_branch_id son requeridos", domain.ErrInvalidInput)
	}
	if err := uc.checkBranch(ctx, companyID, in.FromBranchID); err != nil {
		return nil, err
	}
	if err := uc.checkBranch(ctx, companyID, in.ToBranchID); err != nil {
		return nil, err
	}
	items := make([]TransferItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		if err := uc.checkProduct(ctx, companyID, it.ProductID); err != nil {
			return nil, err
		}
		items = append(items, TransferItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return uc.transfers.CreateTransfer(ctx, CreateTransferInput{
		CompanyID:     companyID,
		FromBranchID:  in.FromBranchID,
		ToBranchID:    in.ToBranchID,
		Items:         items,
		InitialStatus: entity.TransferStatus(in.Status),
		Notes:         in.Notes,
		CreatedBy:     userID,
		TransferDate:  in.TransferDate,
	})
}

func (uc *MovementUseCase) checkProduct(ctx context.Context, companyID, productID string) error {
	if productID == "" {
		return fmt.Errorf("%w: product_id es requerido", domain.ErrInvalidInput)
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, productID)
	}
	if product.CompanyID != companyID {
		return domain.ErrForbidden
	}
	if !product.TrackInventory {
		return fmt.Errorf("%w: %s", domain.ErrProductNotTracked, productID)
	}
	return nil
}

func (uc *MovementUseCase) checkBranch(ctx context.Context, companyID, branchID string) error {
	if branchID == "" {
		return fmt.Errorf("%w: branch_id es requerido", domain.ErrInvalidInput)
	}
	branch, err := uc.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}
	if branch == nil {
		return fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, branchID)
	}
	if branch.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}
