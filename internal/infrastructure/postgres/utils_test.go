package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"serialización", &pgconn.PgError{Code: codeSerializationFailure}, domain.ErrWriteConflict},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, domain.ErrWriteConflict},
		{"lock no disponible", &pgconn.PgError{Code: codeLockNotAvailable}, domain.ErrWriteConflict},
		{"demasiadas conexiones", &pgconn.PgError{Code: codeTooManyConnections}, domain.ErrStoreUnavailable},
		{"servidor apagándose", &pgconn.PgError{Code: codeAdminShutdown}, domain.ErrStoreUnavailable},
		{"clase 08", &pgconn.PgError{Code: "08006"}, domain.ErrStoreUnavailable},
		{"deadline", fmt.Errorf("consulta: %w", context.DeadlineExceeded), domain.ErrStoreUnavailable},
		{"dominio intacto", fmt.Errorf("x: %w", domain.ErrInsufficientStock), domain.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tc.err), tc.want)
		})
	}
}

func TestClassify_SinClasificar(t *testing.T) {
	check := &pgconn.PgError{Code: "23514", Message: "check violation"}
	got := classify(check)
	assert.Same(t, check, got)
	assert.False(t, errors.Is(got, domain.ErrStoreUnavailable))
	assert.Nil(t, classify(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: codeUniqueViolation}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	assert.Equal(t, "x", derefString(nullString("x")))
	assert.Equal(t, "", derefString(nil))
}
