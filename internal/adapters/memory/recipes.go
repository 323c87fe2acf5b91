package memory

import (
	"context"
	"sync"

	"wx-home-bot/internal/domain"
)

// RecipeRepo общий список рецептов и очереди уведомлений в памяти.
type RecipeRepo struct {
	mu            sync.Mutex
	recipes       []domain.Recipe
	notifications map[string][]domain.RecipeNotification
}

// NewRecipeRepo создаёт репозиторий рецептов.
func NewRecipeRepo() *RecipeRepo {
	return &RecipeRepo{notifications: make(map[string][]domain.RecipeNotification)}
}

// Add присваивает следующий плотный идентификатор.
func (r *RecipeRepo) Add(_ context.Context, recipe domain.Recipe) (domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	recipe.ID = len(r.recipes) + 1
	r.recipes = append(r.recipes, recipe)
	return recipe, nil
}

// List возвращает рецепты в порядке добавления.
func (r *RecipeRepo) List(context.Context) ([]domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Recipe(nil), r.recipes...), nil
}

// GetByIndex ищет рецепт по позиции с 1.
func (r *RecipeRepo) GetByIndex(_ context.Context, index int) (domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 1 || index > len(r.recipes) {
		return domain.Recipe{}, domain.ErrNotFound
	}
	return r.recipes[index-1], nil
}

// Push добавляет уведомление каждому пользователю из списка.
func (r *RecipeRepo) Push(_ context.Context, userIDs []string, n domain.RecipeNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range userIDs {
		r.notifications[id] = append(r.notifications[id], n)
	}
	return nil
}

// Pending возвращает непрочитанные уведомления.
func (r *RecipeRepo) Pending(_ context.Context, userID string) ([]domain.RecipeNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.RecipeNotification(nil), r.notifications[userID]...), nil
}

// Drain очищает очередь пользователя.
func (r *RecipeRepo) Drain(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notifications, userID)
	return nil
}
