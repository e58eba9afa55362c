package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/pkg/utils"
)

type UsersHandler struct {
	Repo *services.ListRepository
}

func NewUsersHandler(repo *services.ListRepository) *UsersHandler {
	return &UsersHandler{Repo: repo}
}

func (h *UsersHandler) Search(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))
	users, err := h.Repo.SearchUsers(c.UserContext(), middleware.GetPrincipal(c), c.Query("q"), limit)
	if err != nil {
		return serviceError(c, err, "user", "search_users")
	}
	return utils.Success(c, fiber.StatusOK, users)
}
