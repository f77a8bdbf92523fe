package handlers

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"recipebook/domain"
	"recipebook/internal/api/presenters"
	"recipebook/pkg/recipe"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipeDetail(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		Favorite(c *fiber.Ctx) error
		Unfavorite(c *fiber.Ctx) error
		AddToShoppingCart(c *fiber.Ctx) error
		RemoveFromShoppingCart(c *fiber.Ctx) error
		DownloadShoppingCart(c *fiber.Ctx) error
		GetShortLink(c *fiber.Ctx) error
		ResolveShortLink(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	page, limit := pagination(c)

	filter := domain.RecipeFilter{
		ViewerID:       viewerID(c),
		Favorited:      c.QueryBool("is_favorited", false),
		InShoppingCart: c.QueryBool("is_in_shopping_cart", false),
	}
	if author, err := strconv.ParseUint(c.Query("author", "0"), 10, 64); err == nil {
		filter.AuthorID = uint(author)
	}
	if args := c.Context().QueryArgs().PeekMulti("tags"); len(args) > 0 {
		for _, slug := range args {
			filter.TagSlugs = append(filter.TagSlugs, string(slug))
		}
	}

	recipes, count, err := h.recipeService.GetRecipes(c.Context(), filter, page, limit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"recipes":    recipes,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipeDetail(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipe, err)
	}

	res, err := h.recipeService.GetRecipeDetail(c.Context(), recipeID, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedGetRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipe)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req := new(domain.CreateRecipeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), *req, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	req := new(domain.UpdateRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.Context(), recipeID, *req, viewerID(c), viewerRole(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteRecipe, err)
	}

	if err := h.recipeService.DeleteRecipe(c.Context(), recipeID, viewerID(c), viewerRole(c)); err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedDeleteRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessDeleteRecipe)
}

func (h *recipeHandler) Favorite(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedFavorite, err)
	}

	res, err := h.recipeService.Favorite(c.Context(), recipeID, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedFavorite, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessFavorite)
}

func (h *recipeHandler) Unfavorite(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUnfavorite, err)
	}

	if err := h.recipeService.Unfavorite(c.Context(), recipeID, viewerID(c)); err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedUnfavorite, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessUnfavorite)
}

func (h *recipeHandler) AddToShoppingCart(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddToCart, err)
	}

	res, err := h.recipeService.AddToShoppingCart(c.Context(), recipeID, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedAddToCart, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddToCart)
}

func (h *recipeHandler) RemoveFromShoppingCart(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRemoveCart, err)
	}

	if err := h.recipeService.RemoveFromShoppingCart(c.Context(), recipeID, viewerID(c)); err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedRemoveCart, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessRemoveCart)
}

func (h *recipeHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	list, err := h.recipeService.DownloadShoppingCart(c.Context(), viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedShoppingList, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="shopping_list.txt"`)
	return c.SendString(list)
}

func (h *recipeHandler) GetShortLink(c *fiber.Ctx) error {
	recipeID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetShortLink, err)
	}

	res, err := h.recipeService.GetShortLink(c.Context(), recipeID)
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedGetShortLink, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetShortLink)
}

func (h *recipeHandler) ResolveShortLink(c *fiber.Ctx) error {
	token := c.Params("token")

	recipeID, err := h.recipeService.ResolveShortLink(c.Context(), token)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetRecipe, err)
	}

	return c.Redirect(fmt.Sprintf("/recipes/%d", recipeID), fiber.StatusFound)
}
