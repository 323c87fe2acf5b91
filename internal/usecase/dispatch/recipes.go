package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wx-home-bot/internal/domain"
)

// saveRecipe сохраняет рецепт и уведомляет остальных VIP.
func (d *Dispatcher) saveRecipe(ctx context.Context, userID, content string, category domain.RecipeCategory) (Outcome, error) {
	profile, err := d.profile(ctx, userID)
	if err != nil {
		return Outcome{Reply: textRecipeAddFailed}, fmt.Errorf("get profile: %w", err)
	}
	recipe, err := d.deps.Recipes.Add(ctx, domain.Recipe{
		Name:        domain.DeriveRecipeName(content),
		Content:     content,
		Category:    category,
		CreatorID:   userID,
		CreatorName: profile.DisplayName(),
		CreatedAt:   d.deps.Now(),
	})
	if err != nil {
		return Outcome{Reply: textRecipeAddFailed}, fmt.Errorf("add recipe: %w", err)
	}
	d.incr(ctx, domain.StatRecipeAdded)
	d.notifyVIPs(ctx, userID, recipe)
	return Outcome{Reply: fmt.Sprintf(textRecipeAdded, recipe.Name, category.Label())}, nil
}

// notifyVIPs ставит уведомление всем активным VIP, кроме автора.
// Сбой рассылки не отменяет уже сохранённый рецепт.
func (d *Dispatcher) notifyVIPs(ctx context.Context, authorID string, recipe domain.Recipe) {
	vips, err := d.deps.Profiles.ListVIPs(ctx)
	if err != nil {
		d.log.Warn().Err(err).Msg("не удалось получить список VIP для уведомления")
		return
	}
	ids := make([]string, 0, len(vips))
	for _, p := range vips {
		if p.UserID != authorID && p.IsVIP() {
			ids = append(ids, p.UserID)
		}
	}
	if len(ids) == 0 {
		return
	}
	n := domain.RecipeNotification{RecipeName: recipe.Name, At: recipe.CreatedAt}
	if err := d.deps.Notifications.Push(ctx, ids, n); err != nil {
		d.log.Warn().Err(err).Int("recipients", len(ids)).Msg("не удалось разослать уведомления о рецепте")
	}
}

// recipeList группирует рецепты по категориям с общей нумерацией и очищает
// очередь уведомлений смотрящего.
func (d *Dispatcher) recipeList(ctx context.Context, userID string) (Outcome, error) {
	recipes, err := d.deps.Recipes.List(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list recipes: %w", err)
	}
	if err := d.deps.Notifications.Drain(ctx, userID); err != nil {
		d.log.Warn().Err(err).Str("user", userID).Msg("не удалось очистить уведомления")
	}
	if len(recipes) == 0 {
		return Outcome{Reply: textRecipeListEmpty}, nil
	}

	groups := map[domain.RecipeCategory][]string{}
	for i, r := range recipes {
		line := fmt.Sprintf("%d. %s (%s)", i+1, r.Name, r.CreatedAt.Format("01-02"))
		groups[r.Category] = append(groups[r.Category], line)
	}

	var b strings.Builder
	b.WriteString(textRecipeListHeader)
	for _, c := range []domain.RecipeCategory{domain.RecipeCategoryMeat, domain.RecipeCategoryVeg, domain.RecipeCategoryNone} {
		lines := groups[c]
		if c == domain.RecipeCategoryNone && len(lines) == 0 {
			continue
		}
		label := c.Label()
		if c == domain.RecipeCategoryNone {
			label = "📝 " + label
		}
		b.WriteString("\n\n" + label + "\n")
		if len(lines) == 0 {
			b.WriteString(textCategoryEmpty)
			continue
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, textRecipeListFooter, len(recipes))
	return Outcome{Reply: b.String()}, nil
}

func (d *Dispatcher) recipeDetail(ctx context.Context, index int) (Outcome, error) {
	r, err := d.deps.Recipes.GetByIndex(ctx, index)
	if errors.Is(err, domain.ErrNotFound) {
		return Outcome{Reply: textRecipeIndexInvalid}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("get recipe: %w", err)
	}
	creator := r.CreatorName
	if creator == "" {
		creator = "未知"
	}
	return Outcome{Reply: fmt.Sprintf(textRecipeDetail, r.Name, body(r), r.CreatedAt.Format("2006-01-02 15:04:05"), creator)}, nil
}

// randomRecipes предлагает одно мясное и одно овощное блюдо.
func (d *Dispatcher) randomRecipes(ctx context.Context) (Outcome, error) {
	recipes, err := d.deps.Recipes.List(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list recipes: %w", err)
	}
	var meat, veg []domain.Recipe
	for _, r := range recipes {
		switch r.Category {
		case domain.RecipeCategoryMeat:
			meat = append(meat, r)
		case domain.RecipeCategoryVeg:
			veg = append(veg, r)
		}
	}
	if len(meat) == 0 && len(veg) == 0 {
		return Outcome{Reply: textRandomEmpty}, nil
	}
	meatSection := fmt.Sprintf(textRandomCategoryEmpty, "荤")
	if len(meat) > 0 {
		r := meat[d.deps.Pick(len(meat))]
		meatSection = strings.TrimRight(fmt.Sprintf(textRandomMeat, r.Name, body(r)), "\n")
	}
	vegSection := fmt.Sprintf(textRandomCategoryEmpty, "素")
	if len(veg) > 0 {
		r := veg[d.deps.Pick(len(veg))]
		vegSection = strings.TrimRight(fmt.Sprintf(textRandomVeg, r.Name, body(r)), "\n")
	}
	return Outcome{Reply: fmt.Sprintf(textRandomPair, meatSection, vegSection)}, nil
}

// body содержимое рецепта без повтора названия.
func body(r domain.Recipe) string {
	if strings.TrimSpace(r.Content) == strings.TrimSpace(r.Name) {
		return ""
	}
	return r.Content
}
