package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var (
	_ domain.ProfileRepo      = (*Postgres)(nil)
	_ domain.RecipeRepo       = (*Postgres)(nil)
	_ domain.NotificationRepo = (*Postgres)(nil)
	_ domain.RuleRepo         = (*Postgres)(nil)
	_ domain.MessageLog       = (*Postgres)(nil)
	_ domain.StatsRepo        = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, now: time.Now}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// inTx выполняет fn в транзакции и фиксирует её, если fn не вернула ошибку.
func (p *Postgres) inTx(ctx context.Context, table string, fn func(pgx.Tx) error) error {
	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", table, start, err)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", table, start, err)
	return err
}

// nextCounter увеличивает именованный счётчик внутри транзакции.
func nextCounter(ctx context.Context, tx pgx.Tx, name string) (int, error) {
	var value int
	start := time.Now()
	err := tx.QueryRow(ctx, `
INSERT INTO counters (name, value) VALUES ($1, 1)
ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
RETURNING value
`, name).Scan(&value)
	metrics.ObserveNetworkRequest("postgres", "counter_next", "counters", start, err)
	return value, err
}
