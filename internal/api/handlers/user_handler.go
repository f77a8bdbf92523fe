package handlers

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"recipebook/domain"
	"recipebook/internal/api/presenters"
	"recipebook/pkg/user"
)

type (
	UserHandler interface {
		Register(c *fiber.Ctx) error
		Login(c *fiber.Ctx) error
		GetUsers(c *fiber.Ctx) error
		GetProfile(c *fiber.Ctx) error
		Me(c *fiber.Ctx) error
		SetAvatar(c *fiber.Ctx) error
		DeleteAvatar(c *fiber.Ctx) error
		GetSubscriptions(c *fiber.Ctx) error
		Subscribe(c *fiber.Ctx) error
		Unsubscribe(c *fiber.Ctx) error
	}

	userHandler struct {
		userService user.UserService
		validator   *validator.Validate
	}
)

func NewUserHandler(userService user.UserService, validator *validator.Validate) UserHandler {
	return &userHandler{
		userService: userService,
		validator:   validator,
	}
}

func (h *userHandler) Register(c *fiber.Ctx) error {
	req := new(domain.RegisterRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegister, err)
	}

	res, err := h.userService.Register(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegister, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRegister)
}

func (h *userHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLogin, err)
	}

	res, err := h.userService.Login(c.Context(), *req)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedLogin, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *userHandler) GetUsers(c *fiber.Ctx) error {
	page, limit := pagination(c)

	users, count, err := h.userService.GetUsers(c.Context(), page, limit, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetUsers, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"users":      users,
		"pagination": paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetUsers)
}

func (h *userHandler) GetProfile(c *fiber.Ctx) error {
	targetID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProfile, err)
	}

	res, err := h.userService.GetProfile(c.Context(), targetID, viewerID(c))
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedGetProfile, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProfile)
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	id := viewerID(c)

	res, err := h.userService.GetProfile(c.Context(), id, id)
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedGetProfile, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProfile)
}

func (h *userHandler) SetAvatar(c *fiber.Ctx) error {
	req := new(domain.SetAvatarRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSetAvatar, err)
	}

	res, err := h.userService.SetAvatar(c.Context(), viewerID(c), *req)
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedSetAvatar, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSetAvatar)
}

func (h *userHandler) DeleteAvatar(c *fiber.Ctx) error {
	if err := h.userService.DeleteAvatar(c.Context(), viewerID(c)); err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedDeleteAvatar, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessDeleteAvatar)
}

func (h *userHandler) GetSubscriptions(c *fiber.Ctx) error {
	page, limit := pagination(c)
	recipesLimit, _ := strconv.Atoi(c.Query("recipes_limit", "0"))

	res, count, err := h.userService.GetSubscriptions(c.Context(), viewerID(c), page, limit, recipesLimit)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetSubscriptions, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"subscriptions": res,
		"pagination":    paginationMap(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetSubscriptions)
}

func (h *userHandler) Subscribe(c *fiber.Ctx) error {
	authorID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSubscribe, err)
	}
	recipesLimit, _ := strconv.Atoi(c.Query("recipes_limit", "0"))

	res, err := h.userService.Subscribe(c.Context(), viewerID(c), authorID, recipesLimit)
	if err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedSubscribe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessSubscribe)
}

func (h *userHandler) Unsubscribe(c *fiber.Ctx) error {
	authorID, err := paramID(c)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUnsubscribe, err)
	}

	if err := h.userService.Unsubscribe(c.Context(), viewerID(c), authorID); err != nil {
		return presenters.ErrorResponse(c, errStatus(err), domain.MessageFailedUnsubscribe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessUnsubscribe)
}
