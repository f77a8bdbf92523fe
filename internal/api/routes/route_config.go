package routes

import (
	"github.com/gofiber/fiber/v2"

	"recipebook/internal/api/handlers"
	"recipebook/internal/middleware"
	"recipebook/pkg/jwt"
)

type Config struct {
	App            *fiber.App
	UserHandler    handlers.UserHandler
	RecipeHandler  handlers.RecipeHandler
	CatalogHandler handlers.CatalogHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Auth()
	c.Users()
	c.Catalog()
	c.Recipes()
	c.ShortLinks()
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/auth")
	auth.Post("/token/login", c.UserHandler.Login)
}

func (c *Config) Users() {
	users := c.App.Group("/api/users")
	requireAuth := c.Middleware.AuthMiddleware(c.JWTService)
	optionalAuth := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	users.Post("", c.UserHandler.Register)
	users.Get("", optionalAuth, c.UserHandler.GetUsers)

	// Fixed paths before the :id wildcard.
	users.Get("/me", requireAuth, c.UserHandler.Me)
	users.Put("/me/avatar", requireAuth, c.UserHandler.SetAvatar)
	users.Delete("/me/avatar", requireAuth, c.UserHandler.DeleteAvatar)
	users.Get("/subscriptions", requireAuth, c.UserHandler.GetSubscriptions)

	users.Get("/:id", optionalAuth, c.UserHandler.GetProfile)
	users.Post("/:id/subscribe", requireAuth, c.UserHandler.Subscribe)
	users.Delete("/:id/subscribe", requireAuth, c.UserHandler.Unsubscribe)
}

func (c *Config) Catalog() {
	tags := c.App.Group("/api/tags")
	tags.Get("", c.CatalogHandler.GetTags)
	tags.Get("/:id", c.CatalogHandler.GetTagDetail)

	ingredients := c.App.Group("/api/ingredients")
	ingredients.Get("", c.CatalogHandler.GetIngredients)
	ingredients.Get("/:id", c.CatalogHandler.GetIngredientDetail)
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/recipes")
	requireAuth := c.Middleware.AuthMiddleware(c.JWTService)
	optionalAuth := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	recipes.Get("", optionalAuth, c.RecipeHandler.GetRecipes)
	recipes.Post("", requireAuth, c.RecipeHandler.CreateRecipe)

	recipes.Get("/download_shopping_cart", requireAuth, c.RecipeHandler.DownloadShoppingCart)

	recipes.Get("/:id", optionalAuth, c.RecipeHandler.GetRecipeDetail)
	recipes.Patch("/:id", requireAuth, c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", requireAuth, c.RecipeHandler.DeleteRecipe)

	recipes.Get("/:id/get-link", c.RecipeHandler.GetShortLink)
	recipes.Post("/:id/favorite", requireAuth, c.RecipeHandler.Favorite)
	recipes.Delete("/:id/favorite", requireAuth, c.RecipeHandler.Unfavorite)
	recipes.Post("/:id/shopping_cart", requireAuth, c.RecipeHandler.AddToShoppingCart)
	recipes.Delete("/:id/shopping_cart", requireAuth, c.RecipeHandler.RemoveFromShoppingCart)
}

func (c *Config) ShortLinks() {
	c.App.Get("/s/:token", c.RecipeHandler.ResolveShortLink)
}
