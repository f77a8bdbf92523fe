package recipe

import (
	"context"

	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, ingredients []*entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, recipeID uint) error
		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)
		RecipeExists(ctx context.Context, id uint) (bool, error)

		// Favorites
		AddFavorite(ctx context.Context, userID, recipeID uint) error
		RemoveFavorite(ctx context.Context, userID, recipeID uint) (int64, error)
		IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error)
		GetFavoriteRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)

		// Shopping cart
		AddToCart(ctx context.Context, userID, recipeID uint) error
		RemoveFromCart(ctx context.Context, userID, recipeID uint) (int64, error)
		IsInCart(ctx context.Context, userID, recipeID uint) (bool, error)
		GetCartRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)

		AggregateShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	// Create writes the recipe row, the recipe_ingredients rows and the tag
	// links in one transaction.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(recipe).Error
	})
}

func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag, ingredients []*entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).
			Select("name", "text", "image_url", "cooking_time").
			Updates(map[string]any{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"image_url":    recipe.ImageURL,
				"cooking_time": recipe.CookingTime,
			}).Error; err != nil {
			return err
		}

		// Association sets are replaced, never merged.
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for _, ingredient := range ingredients {
			ingredient.RecipeID = recipe.ID
		}
		return tx.Create(&ingredients).Error
	})
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, recipeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).
			Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).
			Delete(&entities.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
			return err
		}
		return tx.Delete(&entities.Recipe{}, recipeID).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("RecipeIngredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	base := r.db.WithContext(ctx).Model(&entities.Recipe{})
	base = applyRecipeFilter(base, filter)

	if err := base.Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("RecipeIngredients.Ingredient")
	query = applyRecipeFilter(query, filter)

	if err := query.
		Distinct("recipes.*").
		Offset(offset).
		Limit(limit).
		Order("recipes.id desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func applyRecipeFilter(query *gorm.DB, filter domain.RecipeFilter) *gorm.DB {
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
	}
	if filter.Favorited && filter.ViewerID != 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_id FROM favorites WHERE user_id = ?)",
			filter.ViewerID,
		)
	}
	if filter.InShoppingCart && filter.ViewerID != 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_id FROM shopping_carts WHERE user_id = ?)",
			filter.ViewerID,
		)
	}
	return query
}

func (r *recipeRepository) RecipeExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	favorite := entities.Favorite{
		UserID:   userID,
		RecipeID: recipeID,
	}
	return r.db.WithContext(ctx).Create(&favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetFavoriteRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return r.memberRecipeIDs(ctx, &entities.Favorite{}, userID, recipeIDs)
}

func (r *recipeRepository) AddToCart(ctx context.Context, userID, recipeID uint) error {
	cart := entities.ShoppingCart{
		UserID:   userID,
		RecipeID: recipeID,
	}
	return r.db.WithContext(ctx).Create(&cart).Error
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCart{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetCartRecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return r.memberRecipeIDs(ctx, &entities.ShoppingCart{}, userID, recipeIDs)
}

// memberRecipeIDs answers "which of these recipes are in the user's set" for
// the two membership tables sharing the (user_id, recipe_id) shape.
func (r *recipeRepository) memberRecipeIDs(ctx context.Context, model any, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	member := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return member, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, err
	}

	for _, id := range ids {
		member[id] = true
	}
	return member, nil
}

func (r *recipeRepository) AggregateShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error) {
	var items []domain.ShoppingListItem
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
