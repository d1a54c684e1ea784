package postgres

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/materiales-api/internal/application/ports"
	"github.com/jhoicas/materiales-api/internal/domain"
	"github.com/jhoicas/materiales-api/pkg/logger"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL SERIALIZABLE.
// Ante un fallo de serialización (40001) o deadlock (40P01) repite el callback completo.
type TxRunner struct {
	pool        *pgxpool.Pool
	maxAttempts int
	maxWrites   int
	log         *logger.Logger
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, maxAttempts, maxWrites int, log *logger.Logger) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{pool: pool, maxAttempts: maxAttempts, maxWrites: maxWrites, log: log}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Una vez iniciada no se cancela con ctx: confirma o falla completa.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return domain.Unavailable("iniciar transacción", err)
	}
	ctx = context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) {
			return domain.Unavailable("transacción", err)
		}
		r.log.Debug().Err(err).Int("attempt", attempt).Msg("conflicto de serialización, reintentando")
		if attempt < r.maxAttempts {
			time.Sleep(backoff(attempt))
		}
	}
	return fmt.Errorf("%w: transacción tras %d intentos: %w", domain.ErrStoreUnavailable, r.maxAttempts, err)
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := &writeCounter{Querier: tx, max: r.maxWrites}
	if err := fn(ctx, newRepositories(q)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// backoff espera exponencial con jitter: 10ms, 20ms, 40ms... hasta 320ms.
func backoff(attempt int) time.Duration {
	base := 10 * time.Millisecond << min(attempt-1, 5)
	return base/2 + rand.N(base/2+1)
}

// writeCounter cuenta las sentencias de escritura de la transacción y rechaza las que superan
// el techo configurado. Las lecturas pasan directo.
type writeCounter struct {
	Querier
	max    int
	writes int
}

func (w *writeCounter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	w.writes++
	if w.max > 0 && w.writes > w.max {
		return pgconn.CommandTag{}, domain.Validation("la transacción supera el máximo de %d escrituras", w.max)
	}
	return w.Querier.Exec(ctx, sql, args...)
}
