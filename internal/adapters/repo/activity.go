package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// Rules возвращает все правила ответов.
func (p *Postgres) Rules(ctx context.Context) (map[string]string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT key, template FROM reply_rules`)
	metrics.ObserveNetworkRequest("postgres", "rules_list", "reply_rules", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, template string
		if err := rows.Scan(&key, &template); err != nil {
			return nil, err
		}
		out[key] = template
	}
	return out, rows.Err()
}

// SetRule создаёт или заменяет правило.
func (p *Postgres) SetRule(ctx context.Context, rule domain.ReplyRule) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO reply_rules (key, template) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET template = EXCLUDED.template, updated_at = now()
`, rule.Key, rule.Template)
	metrics.ObserveNetworkRequest("postgres", "rules_upsert", "reply_rules", start, err)
	return err
}

// DeleteRule удаляет правило; отсутствие правила не ошибка.
func (p *Postgres) DeleteRule(ctx context.Context, key string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM reply_rules WHERE key = $1`, key)
	metrics.ObserveNetworkRequest("postgres", "rules_delete", "reply_rules", start, err)
	return err
}

// Append записывает сообщение и обрезает журнал до domain.MessageLogLimit.
func (p *Postgres) Append(ctx context.Context, rec domain.MessageRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if rec.At.IsZero() {
		rec.At = p.now()
	}
	return p.inTx(ctx, "message_log", func(tx pgx.Tx) error {
		start := time.Now()
		_, err := tx.Exec(ctx, `
INSERT INTO message_log (user_id, kind, content, created_at) VALUES ($1, $2, $3, $4)
`, rec.UserID, string(rec.Kind), rec.Content, rec.At)
		metrics.ObserveNetworkRequest("postgres", "message_insert", "message_log", start, err)
		if err != nil {
			return err
		}
		start = time.Now()
		_, err = tx.Exec(ctx, `
DELETE FROM message_log
WHERE user_id = $1 AND id NOT IN (
    SELECT id FROM message_log WHERE user_id = $1 ORDER BY id DESC LIMIT $2
)
`, rec.UserID, domain.MessageLogLimit)
		metrics.ObserveNetworkRequest("postgres", "message_trim", "message_log", start, err)
		return err
	})
}

// Recent возвращает последние limit сообщений в хронологическом порядке.
func (p *Postgres) Recent(ctx context.Context, userID string, limit int) ([]domain.MessageRecord, error) {
	if limit <= 0 {
		limit = domain.MessageLogLimit
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT user_id, kind, content, created_at FROM (
    SELECT id, user_id, kind, content, created_at FROM message_log
    WHERE user_id = $1 ORDER BY id DESC LIMIT $2
) recent ORDER BY id
`, userID, limit)
	metrics.ObserveNetworkRequest("postgres", "message_recent", "message_log", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MessageRecord
	for rows.Next() {
		var (
			rec  domain.MessageRecord
			kind string
		)
		if err := rows.Scan(&rec.UserID, &kind, &rec.Content, &rec.At); err != nil {
			return nil, err
		}
		rec.Kind = domain.EventKind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Incr увеличивает дневной и общий счётчик, удаляя дни старше domain.StatRetentionDays.
func (p *Postgres) Incr(ctx context.Context, event string, at time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	day := at.Format("2006-01-02")
	cutoff := at.AddDate(0, 0, -domain.StatRetentionDays).Format("2006-01-02")
	return p.inTx(ctx, "event_stats", func(tx pgx.Tx) error {
		start := time.Now()
		_, err := tx.Exec(ctx, `
INSERT INTO event_stats (day, event, count) VALUES ($1::date, $2, 1)
ON CONFLICT (day, event) DO UPDATE SET count = event_stats.count + 1
`, day, event)
		metrics.ObserveNetworkRequest("postgres", "stats_incr", "event_stats", start, err)
		if err != nil {
			return err
		}
		start = time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO event_totals (event, count) VALUES ($1, 1)
ON CONFLICT (event) DO UPDATE SET count = event_totals.count + 1
`, event)
		metrics.ObserveNetworkRequest("postgres", "stats_total", "event_totals", start, err)
		if err != nil {
			return err
		}
		start = time.Now()
		_, err = tx.Exec(ctx, `DELETE FROM event_stats WHERE day < $1::date`, cutoff)
		metrics.ObserveNetworkRequest("postgres", "stats_prune", "event_stats", start, err)
		return err
	})
}
