package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/pkg/utils"
	"gorm.io/gorm"
)

type ActivitiesHandler struct {
	DB *gorm.DB
}

func NewActivitiesHandler(db *gorm.DB) *ActivitiesHandler {
	return &ActivitiesHandler{DB: db}
}

func (h *ActivitiesHandler) List(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	page := utils.ParsePage(c)
	query := h.DB.WithContext(c.UserContext()).Model(&models.Activity{}).Where("user_id = ?", principal.ID)
	if c.QueryBool("unread") {
		query = query.Where("is_read = ?", false)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting activities")
	}

	activities := []models.Activity{}
	if err := query.Scopes(page.Scope).Preload("Actor").Order("created_at DESC").Find(&activities).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing activities")
	}

	return page.Respond(c, activities, total)
}

func (h *ActivitiesHandler) UnreadCount(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	var count int64
	if err := h.DB.WithContext(c.UserContext()).Model(&models.Activity{}).
		Where("user_id = ? AND is_read = ?", principal.ID, false).
		Count(&count).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting unread activities")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"count": count})
}

func (h *ActivitiesHandler) MarkRead(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	activityID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid activity id")
	}

	result := h.DB.WithContext(c.UserContext()).Model(&models.Activity{}).
		Where("id = ? AND user_id = ?", activityID, principal.ID).
		Updates(readUpdate())
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed marking activity as read")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "activity not found")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "marked as read"})
}

func (h *ActivitiesHandler) MarkAllRead(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.DB.WithContext(c.UserContext()).Model(&models.Activity{}).
		Where("user_id = ? AND is_read = ?", principal.ID, false).
		Updates(readUpdate()).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed marking all activities as read")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "all marked as read"})
}

func readUpdate() map[string]interface{} {
	return map[string]interface{}{"is_read": true, "read_at": time.Now().UTC()}
}
