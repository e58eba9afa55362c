package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

type SharesHandler struct {
	Repo *services.ListRepository
}

func NewSharesHandler(repo *services.ListRepository) *SharesHandler {
	return &SharesHandler{Repo: repo}
}

type shareListRequest struct {
	Email      string            `json:"email"`
	Permission models.Permission `json:"permission"`
}

func (h *SharesHandler) Share(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	var req shareListRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	share, err := h.Repo.ShareList(c.UserContext(), principal, listID, req.Email, req.Permission)
	if err != nil {
		return serviceError(c, err, "list", "share_list")
	}

	logger.InfoWithUser(principal.ID.String(), "list_shared", map[string]interface{}{
		"list_id":    listID.String(),
		"target_id":  share.SharedWithUserID.String(),
		"permission": string(share.Permission),
	})
	return utils.Success(c, fiber.StatusOK, share)
}

func (h *SharesHandler) Unshare(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Repo.UnshareList(c.UserContext(), principal, listID, userID); err != nil {
		return serviceError(c, err, "list", "unshare_list")
	}

	logger.InfoWithUser(principal.ID.String(), "list_unshared", map[string]interface{}{
		"list_id":   listID.String(),
		"target_id": userID.String(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "share removed"})
}
