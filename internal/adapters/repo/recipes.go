package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"wx-home-bot/internal/domain"
	"wx-home-bot/internal/infra/metrics"
)

// Add выдаёт следующий идентификатор из счётчика recipe.
func (p *Postgres) Add(ctx context.Context, recipe domain.Recipe) (domain.Recipe, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = p.now()
	}
	err := p.inTx(ctx, "recipes", func(tx pgx.Tx) error {
		id, err := nextCounter(ctx, tx, "recipe")
		if err != nil {
			return err
		}
		recipe.ID = id
		start := time.Now()
		_, err = tx.Exec(ctx, `
INSERT INTO recipes (id, name, content, category, creator_id, creator_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, recipe.ID, recipe.Name, recipe.Content, string(recipe.Category), recipe.CreatorID, recipe.CreatorName, recipe.CreatedAt)
		metrics.ObserveNetworkRequest("postgres", "recipe_insert", "recipes", start, err)
		return err
	})
	if err != nil {
		return domain.Recipe{}, err
	}
	return recipe, nil
}

const recipeColumns = `id, name, content, category, creator_id, creator_name, created_at`

// List возвращает рецепты в порядке добавления.
func (p *Postgres) List(ctx context.Context) ([]domain.Recipe, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
	metrics.ObserveNetworkRequest("postgres", "recipe_list", "recipes", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetByIndex ищет рецепт по позиции в списке, начиная с 1.
func (p *Postgres) GetByIndex(ctx context.Context, index int) (domain.Recipe, error) {
	if index < 1 {
		return domain.Recipe{}, domain.ErrNotFound
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id OFFSET $1 LIMIT 1`, index-1)
	r, err := scanRecipe(row)
	metrics.ObserveNetworkRequest("postgres", "recipe_get", "recipes", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Recipe{}, domain.ErrNotFound
	}
	return r, err
}

func scanRecipe(row pgx.Row) (domain.Recipe, error) {
	var (
		r        domain.Recipe
		category string
	)
	if err := row.Scan(&r.ID, &r.Name, &r.Content, &category, &r.CreatorID, &r.CreatorName, &r.CreatedAt); err != nil {
		return domain.Recipe{}, err
	}
	r.Category = domain.RecipeCategory(category)
	return r, nil
}

// Push кладёт уведомление в очередь каждого получателя одним запросом.
func (p *Postgres) Push(ctx context.Context, userIDs []string, n domain.RecipeNotification) error {
	if len(userIDs) == 0 {
		return nil
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	if n.At.IsZero() {
		n.At = p.now()
	}
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO recipe_notifications (user_id, recipe_name, created_at)
SELECT unnest($1::text[]), $2, $3
`, userIDs, n.RecipeName, n.At)
	metrics.ObserveNetworkRequest("postgres", "notification_push", "recipe_notifications", start, err)
	return err
}

// Pending возвращает непрочитанные уведомления пользователя.
func (p *Postgres) Pending(ctx context.Context, userID string) ([]domain.RecipeNotification, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT recipe_name, created_at FROM recipe_notifications WHERE user_id = $1 ORDER BY id
`, userID)
	metrics.ObserveNetworkRequest("postgres", "notification_pending", "recipe_notifications", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RecipeNotification
	for rows.Next() {
		var n domain.RecipeNotification
		if err := rows.Scan(&n.RecipeName, &n.At); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Drain очищает очередь уведомлений пользователя.
func (p *Postgres) Drain(ctx context.Context, userID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM recipe_notifications WHERE user_id = $1`, userID)
	metrics.ObserveNetworkRequest("postgres", "notification_drain", "recipe_notifications", start, err)
	return err
}
