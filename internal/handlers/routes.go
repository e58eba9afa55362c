package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
)

type Handlers struct {
	Auth       *AuthHandler
	Lists      *ListsHandler
	Shares     *SharesHandler
	Users      *UsersHandler
	Titles     *TitlesHandler
	Activities *ActivitiesHandler
	Audit      *AuditHandler
}

// RegisterRoutes mounts every endpoint on app. The server and the handler
// tests share it.
func RegisterRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	callback := app.Group("/auth")
	callback.Get("/callback", h.Auth.Callback)
	callback.Get("/confirm", h.Auth.Confirm)
	callback.Get("/auth-code-error", h.Auth.CodeError)

	api := app.Group("/api")
	api.Get("/version", versionHandler(h))
	// Catalog lookups are public; a valid token only attributes the request.
	api.Get("/search", authMiddleware.OptionalAuth, h.Titles.Search)
	api.Get("/titles/:type/:id", authMiddleware.OptionalAuth, h.Titles.Details)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", h.Auth.SignUp)
	authRoutes.Post("/signin", h.Auth.SignIn)
	authRoutes.Post("/signout", h.Auth.SignOut)
	authRoutes.Post("/refresh", h.Auth.Refresh)
	authRoutes.Get("/me", authMiddleware.RequireAuth, h.Auth.Me)

	api.Get("/users/search", authMiddleware.RequireAuth, h.Users.Search)

	listRoutes := api.Group("/lists", authMiddleware.RequireAuth)
	listRoutes.Get("/", h.Lists.List)
	listRoutes.Post("/", h.Lists.Create)
	listRoutes.Get("/:id", h.Lists.Get)
	listRoutes.Put("/:id", h.Lists.Update)
	listRoutes.Delete("/:id", h.Lists.Delete)
	listRoutes.Post("/:id/items", h.Lists.AddItem)
	listRoutes.Delete("/:id/items/:tmdbId", h.Lists.RemoveItem)
	listRoutes.Post("/:id/shares", h.Shares.Share)
	listRoutes.Delete("/:id/shares/:userId", h.Shares.Unshare)

	activityRoutes := api.Group("/activities", authMiddleware.RequireAuth)
	activityRoutes.Get("/", h.Activities.List)
	activityRoutes.Get("/unread-count", h.Activities.UnreadCount)
	activityRoutes.Put("/read-all", h.Activities.MarkAllRead)
	activityRoutes.Put("/:id/read", h.Activities.MarkRead)

	api.Get("/audit-log/export", authMiddleware.RequireAuth, h.Audit.ExportMyLog)
}
