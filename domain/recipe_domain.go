package domain

import "errors"

const (
	AmountMin      = 1
	AmountMax      = 32000
	CookingTimeMin = 1
	CookingTimeMax = 32000
)

var (
	MessageSuccessGetRecipes   = "success get recipes"
	MessageSuccessGetRecipe    = "success get recipe detail"
	MessageSuccessCreateRecipe = "recipe created successfully"
	MessageSuccessUpdateRecipe = "recipe updated successfully"
	MessageSuccessDeleteRecipe = "recipe deleted successfully"
	MessageSuccessFavorite     = "recipe added to favorites"
	MessageSuccessUnfavorite   = "recipe removed from favorites"
	MessageSuccessAddToCart    = "recipe added to shopping cart"
	MessageSuccessRemoveCart   = "recipe removed from shopping cart"
	MessageSuccessGetShortLink = "success get short link"
	MessageSuccessShoppingList = "success get shopping list"

	MessageFailedGetRecipes   = "failed to get recipes"
	MessageFailedGetRecipe    = "failed to get recipe detail"
	MessageFailedCreateRecipe = "failed to create recipe"
	MessageFailedUpdateRecipe = "failed to update recipe"
	MessageFailedDeleteRecipe = "failed to delete recipe"
	MessageFailedFavorite     = "failed to add recipe to favorites"
	MessageFailedUnfavorite   = "failed to remove recipe from favorites"
	MessageFailedAddToCart    = "failed to add recipe to shopping cart"
	MessageFailedRemoveCart   = "failed to remove recipe from shopping cart"
	MessageFailedGetShortLink = "failed to get short link"
	MessageFailedShoppingList = "failed to get shopping list"

	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrRecipeAccessDenied   = errors.New("only the author can modify this recipe")
	ErrNoIngredients        = errors.New("recipe must contain at least one ingredient")
	ErrNoTags               = errors.New("recipe must contain at least one tag")
	ErrDuplicateIngredients = errors.New("ingredients must be unique")
	ErrDuplicateTags        = errors.New("tags must be unique")
	ErrInvalidImage         = errors.New("invalid image payload")
	ErrAlreadyFavorited     = errors.New("recipe already in favorites")
	ErrNotInFavorites       = errors.New("recipe not in favorites")
	ErrAlreadyInCart        = errors.New("recipe already in shopping cart")
	ErrNotInCart            = errors.New("recipe not in shopping cart")
	ErrShoppingCartEmpty    = errors.New("shopping cart is empty")
)

type (
	RecipeIngredientInput struct {
		ID     uint `json:"id" validate:"required"`
		Amount int  `json:"amount" validate:"required,min=1,max=32000"`
	}

	CreateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required,max=256"`
		Text        string                  `json:"text" validate:"required"`
		Image       string                  `json:"image" validate:"required"`
		CookingTime int                     `json:"cooking_time" validate:"required,min=1,max=32000"`
		Tags        []uint                  `json:"tags" validate:"required,min=1"`
		Ingredients []RecipeIngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	}

	UpdateRecipeRequest struct {
		Name        string                  `json:"name" validate:"required,max=256"`
		Text        string                  `json:"text" validate:"required"`
		Image       string                  `json:"image"`
		CookingTime int                     `json:"cooking_time" validate:"required,min=1,max=32000"`
		Tags        []uint                  `json:"tags" validate:"required,min=1"`
		Ingredients []RecipeIngredientInput `json:"ingredients" validate:"required,min=1,dive"`
	}

	RecipeIngredientView struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeDetail struct {
		ID               uint                   `json:"id"`
		Author           UserProfile            `json:"author"`
		Tags             []TagResponse          `json:"tags"`
		Ingredients      []RecipeIngredientView `json:"ingredients"`
		IsFavorited      bool                   `json:"is_favorited"`
		Name             string                 `json:"name"`
		Image            string                 `json:"image"`
		IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
		Text             string                 `json:"text"`
		CookingTime      int                    `json:"cooking_time"`
	}

	// ShortRecipe is the condensed representation echoed by the
	// favorite/shopping-cart actions and embedded in subscription views.
	ShortRecipe struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeFilter struct {
		AuthorID       uint
		TagSlugs       []string
		Favorited      bool
		InShoppingCart bool
		ViewerID       uint
	}

	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)
