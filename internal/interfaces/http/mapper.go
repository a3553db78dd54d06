package http

import (
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

func toLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:               e.ID,
		BranchID:         e.BranchID,
		ProductID:        e.ProductID,
		Type:             string(e.Type),
		Date:             e.Date,
		Quantity:         e.Quantity,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
		UnitCost:         e.UnitCost,
		TotalCost:        e.TotalCost,
		UnitPrice:        e.UnitPrice,
		ReferenceType:    e.ReferenceType,
		ReferenceID:      e.ReferenceID,
		Notes:            e.Notes,
		PerformedBy:      e.PerformedBy,
	}
}

func toLedgerEntryResponses(list []*entity.LedgerEntry) []dto.LedgerEntryResponse {
	out := make([]dto.LedgerEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toLedgerEntryResponse(e))
	}
	return out
}

func toStockLineResponse(l *entity.StockLine) dto.StockLineResponse {
	return dto.StockLineResponse{
		BranchID:          l.BranchID,
		ProductID:         l.ProductID,
		Quantity:          l.Quantity,
		ReservedQuantity:  l.ReservedQuantity,
		AvailableQuantity: l.Available(),
		Location:          l.Location,
		AverageCost:       l.AverageCost,
		LastStockCheck:    l.LastStockCheck,
		LastRestockDate:   l.LastRestockDate,
	}
}

func toTransferResponse(t *entity.StockTransfer) *dto.TransferResponse {
	if t == nil {
		return nil
	}
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemResponse{
			ProductID:             it.ProductID,
			Quantity:              it.Quantity,
			OutEntryID:            it.OutEntryID,
			InEntryID:             it.InEntryID,
			SourceReversalEntryID: it.SourceReversalEntryID,
			DestReversalEntryID:   it.DestReversalEntryID,
			LastError:             it.LastError,
		})
	}
	return &dto.TransferResponse{
		ID:           t.ID,
		FromBranchID: t.FromBranchID,
		ToBranchID:   t.ToBranchID,
		TransferDate: t.TransferDate,
		Status:       string(t.Status),
		Items:        items,
		Notes:        t.Notes,
		CreatedBy:    t.CreatedBy,
		ReceivedBy:   t.ReceivedBy,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		CompletedAt:  t.CompletedAt,
		CancelledAt:  t.CancelledAt,
	}
}

func toItemResults(list []inventory.ItemResult) []dto.TransferItemResultDTO {
	out := make([]dto.TransferItemResultDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.TransferItemResultDTO{ProductID: r.ProductID, Quantity: r.Quantity, EntryID: r.EntryID, Error: r.Error})
	}
	return out
}

func toAlertResponse(a *entity.StockAlert) dto.StockAlertResponse {
	return dto.StockAlertResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		BranchID:        a.BranchID,
		Type:            string(a.Type),
		Severity:        string(a.Severity),
		CurrentQuantity: a.CurrentQuantity,
		Threshold:       a.Threshold,
		IsRead:          a.IsRead,
		IsResolved:      a.IsResolved,
		CreatedAt:       a.CreatedAt,
		ResolvedAt:      a.ResolvedAt,
	}
}
