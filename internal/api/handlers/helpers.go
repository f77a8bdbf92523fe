package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"recipebook/domain"
)

// viewerID resolves the authenticated caller from the request locals.
// Returns 0 for anonymous requests (optional-auth routes).
func viewerID(c *fiber.Ctx) uint {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func viewerRole(c *fiber.Ctx) string {
	role, ok := c.Locals("role").(string)
	if !ok {
		return ""
	}
	return role
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrParseID
	}
	return uint(id), nil
}

func pagination(c *fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(domain.PageSizeDefault)))
	if err != nil || limit < 1 {
		limit = domain.PageSizeDefault
	}

	return page, limit
}

func paginationMap(page, limit int, count int64) fiber.Map {
	return fiber.Map{
		"page":        page,
		"limit":       limit,
		"total":       count,
		"total_pages": (count + int64(limit) - 1) / int64(limit),
	}
}

// errStatus maps domain errors to HTTP status codes. Anything unmapped is a
// plain bad request.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrRecipeAccessDenied),
		errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}
