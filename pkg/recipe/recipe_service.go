package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils"
	"recipebook/internal/utils/storage"
	"recipebook/pkg/catalog"
	"recipebook/pkg/user"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]domain.RecipeDetail, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID, viewerID uint) (domain.RecipeDetail, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID uint) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID uint, req domain.UpdateRecipeRequest, userID uint, role string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID, userID uint, role string) error

		Favorite(ctx context.Context, recipeID, userID uint) (domain.ShortRecipe, error)
		Unfavorite(ctx context.Context, recipeID, userID uint) error
		AddToShoppingCart(ctx context.Context, recipeID, userID uint) (domain.ShortRecipe, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID, userID uint) error

		DownloadShoppingCart(ctx context.Context, userID uint) (string, error)
		GetShortLink(ctx context.Context, recipeID uint) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, token string) (uint, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		userRepository    user.UserRepository
		s3                storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	catalogRepository catalog.CatalogRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		userRepository:    userRepository,
		s3:                s3,
	}
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]domain.RecipeDetail, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	favorited, err := s.recipeRepository.GetFavoriteRecipeIDs(ctx, filter.ViewerID, recipeIDs)
	if err != nil {
		return nil, 0, err
	}
	inCart, err := s.recipeRepository.GetCartRecipeIDs(ctx, filter.ViewerID, recipeIDs)
	if err != nil {
		return nil, 0, err
	}
	subscribed, err := s.userRepository.GetSubscribedAuthorIDs(ctx, filter.ViewerID, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeDetail, 0, len(recipes))
	for _, recipe := range recipes {
		result = append(result, detailOf(recipe, favorited[recipe.ID], inCart[recipe.ID], subscribed[recipe.AuthorID]))
	}
	return result, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID, viewerID uint) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}

	isFavorited := false
	isInCart := false
	isSubscribed := false
	if viewerID != 0 {
		if isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipeID); err != nil {
			return domain.RecipeDetail{}, err
		}
		if isInCart, err = s.recipeRepository.IsInCart(ctx, viewerID, recipeID); err != nil {
			return domain.RecipeDetail{}, err
		}
		if isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID); err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	return detailOf(recipe, isFavorited, isInCart, isSubscribed), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, authorID uint) (domain.RecipeDetail, error) {
	tags, ingredients, err := s.resolveAssociations(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	imageURL, err := s.storeImage(req.Image, authorID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe := &entities.Recipe{
		AuthorID:          authorID,
		Name:              req.Name,
		Text:              req.Text,
		ImageURL:          imageURL,
		CookingTime:       req.CookingTime,
		Tags:              tags,
		RecipeIngredients: ingredients,
	}
	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		return domain.RecipeDetail{}, err
	}

	// The mutation always answers with the detail view re-read.
	return s.GetRecipeDetail(ctx, recipe.ID, authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID uint, req domain.UpdateRecipeRequest, userID uint, role string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	if recipe.AuthorID != userID && role != domain.RoleAdmin {
		return domain.RecipeDetail{}, domain.ErrRecipeAccessDenied
	}

	tags, ingredients, err := s.resolveAssociations(ctx, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime
	if req.Image != "" {
		imageURL, err := s.storeImage(req.Image, recipe.AuthorID)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		recipe.ImageURL = imageURL
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, tags, ingredients); err != nil {
		return domain.RecipeDetail{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, userID uint, role string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	if recipe.AuthorID != userID && role != domain.RoleAdmin {
		return domain.ErrRecipeAccessDenied
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) Favorite(ctx context.Context, recipeID, userID uint) (domain.ShortRecipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortRecipe{}, domain.ErrRecipeNotFound
		}
		return domain.ShortRecipe{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.ShortRecipe{}, err
	}
	if favorited {
		return domain.ShortRecipe{}, domain.ErrAlreadyFavorited
	}

	if err := s.recipeRepository.AddFavorite(ctx, userID, recipeID); err != nil {
		return domain.ShortRecipe{}, err
	}
	return shortOf(recipe), nil
}

func (s *recipeService) Unfavorite(ctx context.Context, recipeID, userID uint) error {
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return err
	}

	deleted, err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotInFavorites
	}
	return nil
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID, userID uint) (domain.ShortRecipe, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortRecipe{}, domain.ErrRecipeNotFound
		}
		return domain.ShortRecipe{}, err
	}

	inCart, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.ShortRecipe{}, err
	}
	if inCart {
		return domain.ShortRecipe{}, domain.ErrAlreadyInCart
	}

	if err := s.recipeRepository.AddToCart(ctx, userID, recipeID); err != nil {
		return domain.ShortRecipe{}, err
	}
	return shortOf(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID, userID uint) error {
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return err
	}

	deleted, err := s.recipeRepository.RemoveFromCart(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID uint) (string, error) {
	items, err := s.recipeRepository.AggregateShoppingList(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", domain.ErrShoppingCartEmpty
	}

	owner, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}

	var list strings.Builder
	fmt.Fprintf(&list, "Shopping list for %s %s:\n\n", owner.FirstName, owner.LastName)
	for _, item := range items {
		fmt.Fprintf(&list, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.Amount)
	}
	return list.String(), nil
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID uint) (domain.ShortLinkResponse, error) {
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return domain.ShortLinkResponse{}, err
	}

	base := strings.TrimSuffix(utils.GetConfig("APP_URL"), "/")
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", base, EncodeShortLinkToken(recipeID)),
	}, nil
}

func (s *recipeService) ResolveShortLink(ctx context.Context, token string) (uint, error) {
	recipeID, err := DecodeShortLinkToken(token)
	if err != nil {
		return 0, err
	}
	if err := s.requireRecipe(ctx, recipeID); err != nil {
		return 0, err
	}
	return recipeID, nil
}

func (s *recipeService) requireRecipe(ctx context.Context, recipeID uint) error {
	exists, err := s.recipeRepository.RecipeExists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrRecipeNotFound
	}
	return nil
}

// resolveAssociations checks the submitted tag and ingredient id sets for
// duplicates and resolves them against the catalog. Every id must exist.
func (s *recipeService) resolveAssociations(ctx context.Context, tagIDs []uint, inputs []domain.RecipeIngredientInput) ([]*entities.Tag, []*entities.RecipeIngredient, error) {
	if len(tagIDs) == 0 {
		return nil, nil, domain.ErrNoTags
	}
	if len(inputs) == 0 {
		return nil, nil, domain.ErrNoIngredients
	}

	seenTags := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTags
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[uint]bool, len(inputs))
	ingredientIDs := make([]uint, 0, len(inputs))
	for _, input := range inputs {
		if seenIngredients[input.ID] {
			return nil, nil, domain.ErrDuplicateIngredients
		}
		seenIngredients[input.ID] = true
		ingredientIDs = append(ingredientIDs, input.ID)
	}

	tags, err := s.catalogRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredients, err := s.catalogRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	amounts := make(map[uint]int, len(inputs))
	for _, input := range inputs {
		amounts[input.ID] = input.Amount
	}
	rows := make([]*entities.RecipeIngredient, 0, len(ingredients))
	for _, ingredient := range ingredients {
		rows = append(rows, &entities.RecipeIngredient{
			IngredientID: ingredient.ID,
			Amount:       amounts[ingredient.ID],
		})
	}

	return tags, rows, nil
}

func (s *recipeService) storeImage(data string, authorID uint) (string, error) {
	raw, ext, err := utils.DecodeBase64Image(data)
	if err != nil {
		return "", domain.ErrInvalidImage
	}

	objectKey, err := s.s3.UploadBytes(
		fmt.Sprintf("recipe-%d", authorID),
		raw,
		ext,
		"recipes",
		storage.AllowImage...,
	)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func detailOf(recipe *entities.Recipe, isFavorited, isInCart, authorSubscribed bool) domain.RecipeDetail {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		tags = append(tags, domain.TagResponse{
			ID:   tag.ID,
			Name: tag.Name,
			Slug: tag.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientView, 0, len(recipe.RecipeIngredients))
	for _, row := range recipe.RecipeIngredients {
		view := domain.RecipeIngredientView{
			ID:     row.IngredientID,
			Amount: row.Amount,
		}
		if row.Ingredient != nil {
			view.Name = row.Ingredient.Name
			view.MeasurementUnit = row.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, view)
	}

	author := domain.UserProfile{IsSubscribed: authorSubscribed}
	if recipe.Author != nil {
		author.ID = recipe.Author.ID
		author.Email = recipe.Author.Email
		author.Username = recipe.Author.Username
		author.FirstName = recipe.Author.FirstName
		author.LastName = recipe.Author.LastName
		author.Avatar = recipe.Author.AvatarURL
	}

	return domain.RecipeDetail{
		ID:               recipe.ID,
		Author:           author,
		Tags:             tags,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		Name:             recipe.Name,
		Image:            recipe.ImageURL,
		IsInShoppingCart: isInCart,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

func shortOf(recipe *entities.Recipe) domain.ShortRecipe {
	return domain.ShortRecipe{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}
