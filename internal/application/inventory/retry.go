package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

// RetryPolicy reintentos ante domain.ErrWriteConflict con backoff exponencial.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy valores por defecto si la configuración no define otros.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, BaseDelay: 10 * time.Millisecond}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// run ejecuta fn reintentando solo los conflictos de escritura; cada intento es una
// transacción completa, así que un intento fallido no deja efectos.
// Cualquier otro error corta los reintentos y se devuelve sin envolver.
func (p RetryPolicy) run(ctx context.Context, log zerolog.Logger, op string, fn func() error) error {
	attempts := 0
	permanent := false
	err := backoff.RetryNotify(func() error {
		attempts++
		err := fn()
		if err != nil && !errors.Is(err, domain.ErrWriteConflict) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx), func(err error, delay time.Duration) {
		log.Debug().Err(err).Str("op", op).Int("attempt", attempts).Dur("delay", delay).Msg("conflicto de escritura, reintentando")
	})
	if err == nil || permanent {
		return err
	}
	if !errors.Is(err, domain.ErrWriteConflict) {
		// el contexto terminó durante la espera
		return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %d reintentos agotados: %w", domain.ErrStoreUnavailable, op, attempts-1, err)
}
