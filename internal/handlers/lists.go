package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

type ListsHandler struct {
	Repo *services.ListRepository
}

func NewListsHandler(repo *services.ListRepository) *ListsHandler {
	return &ListsHandler{Repo: repo}
}

func (h *ListsHandler) List(c *fiber.Ctx) error {
	lists, err := h.Repo.GetLists(c.UserContext(), middleware.GetPrincipal(c))
	if err != nil {
		return serviceError(c, err, "list", "list_lists")
	}
	return utils.Success(c, fiber.StatusOK, lists)
}

func (h *ListsHandler) Create(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)

	var req services.CreateListInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.Repo.AddList(c.UserContext(), principal, req)
	if err != nil {
		return serviceError(c, err, "list", "create_list")
	}

	logger.InfoWithUser(principal.ID.String(), "list_created", map[string]interface{}{
		"list_id":   list.ID.String(),
		"list_name": list.Name,
	})
	return utils.Success(c, fiber.StatusCreated, list)
}

func (h *ListsHandler) Get(c *fiber.Ctx) error {
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	list, err := h.Repo.GetList(c.UserContext(), middleware.GetPrincipal(c), listID)
	if err != nil {
		return serviceError(c, err, "list", "get_list")
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (h *ListsHandler) Update(c *fiber.Ctx) error {
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	var req services.UpdateListInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.Repo.UpdateList(c.UserContext(), middleware.GetPrincipal(c), listID, req)
	if err != nil {
		return serviceError(c, err, "list", "update_list")
	}
	return utils.Success(c, fiber.StatusOK, list)
}

func (h *ListsHandler) Delete(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	if err := h.Repo.DeleteList(c.UserContext(), principal, listID); err != nil {
		return serviceError(c, err, "list", "delete_list")
	}

	logger.InfoWithUser(principal.ID.String(), "list_deleted", map[string]interface{}{
		"list_id": listID.String(),
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "list deleted"})
}

func (h *ListsHandler) AddItem(c *fiber.Ctx) error {
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}

	var req services.ItemInput
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.Repo.AddItemToList(c.UserContext(), middleware.GetPrincipal(c), listID, req)
	if err != nil {
		return serviceError(c, err, "list", "add_item")
	}
	return utils.Success(c, fiber.StatusCreated, item)
}

func (h *ListsHandler) RemoveItem(c *fiber.Ctx) error {
	listID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
	}
	tmdbID, err := strconv.ParseInt(c.Params("tmdbId"), 10, 64)
	if err != nil || tmdbID <= 0 {
		return utils.Error(c, fiber.StatusBadRequest, "invalid tmdb id")
	}

	if err := h.Repo.RemoveItemFromList(c.UserContext(), middleware.GetPrincipal(c), listID, tmdbID); err != nil {
		return serviceError(c, err, "list", "remove_item")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "item removed"})
}
