package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

func TestRecordTransaction_ValidaColaboradores(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	e, err := h.movements.RecordTransaction(ctx, company, "u1", dto.ApplyTransactionRequest{
		BranchID: branchA, ProductID: product1, Type: string(entity.EntryPurchase), Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", e.PerformedBy)

	cases := []struct {
		name string
		req  dto.ApplyTransactionRequest
		want error
	}{
		{"producto sin control", dto.ApplyTransactionRequest{BranchID: branchA, ProductID: service, Type: "purchase", Quantity: 1}, domain.ErrProductNotTracked},
		{"producto inexistente", dto.ApplyTransactionRequest{BranchID: branchA, ProductID: "nada", Type: "purchase", Quantity: 1}, domain.ErrNotFound},
		{"sucursal inexistente", dto.ApplyTransactionRequest{BranchID: "nada", ProductID: product1, Type: "purchase", Quantity: 1}, domain.ErrNotFound},
		{"sucursal ajena", dto.ApplyTransactionRequest{BranchID: "bX", ProductID: product1, Type: "purchase", Quantity: 1}, domain.ErrForbidden},
		{"sin producto", dto.ApplyTransactionRequest{BranchID: branchA, Type: "purchase", Quantity: 1}, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.movements.RecordTransaction(ctx, company, "u1", tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, int64(3), h.qty(t, branchA, product1))
}

func TestMovement_StockInicialYTraslado(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entries, err := h.movements.InitializeOpeningStock(ctx, company, "u1", dto.OpeningStockRequest{
		ProductID: product1, Quantities: map[string]int64{branchA: 15},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = h.movements.InitializeOpeningStock(ctx, company, "u1", dto.OpeningStockRequest{
		ProductID: product1, Quantities: map[string]int64{"bX": 1},
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	tr, err := h.movements.CreateTransfer(ctx, company, "u1", dto.CreateTransferRequest{
		FromBranchID: branchA, ToBranchID: branchB, Status: "completed",
		Items: []dto.TransferItemRequest{{ProductID: product1, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCompleted, tr.Status)
	assert.Equal(t, int64(10), h.qty(t, branchA, product1))
	assert.Equal(t, int64(5), h.qty(t, branchB, product1))

	_, err = h.movements.CreateTransfer(ctx, company, "u1", dto.CreateTransferRequest{
		FromBranchID: branchA, ToBranchID: branchB,
		Items: []dto.TransferItemRequest{{ProductID: service, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotTracked)
}
