package handlers

import (
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/models"
	"github.com/reelshare/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuditHandler struct {
	DB *gorm.DB
}

func NewAuditHandler(db *gorm.DB) *AuditHandler {
	return &AuditHandler{DB: db}
}

func (h *AuditHandler) ExportMyLog(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", "csv")))
	if format != "csv" && format != "json" {
		return utils.Error(c, fiber.StatusBadRequest, "format must be csv or json")
	}

	query := h.DB.WithContext(c.UserContext()).Where("user_id = ?", principal.ID)
	if raw := c.Query("list"); raw != "" {
		listID, err := parseUUID(raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid list id")
		}
		query = query.Where("list_id = ?", listID)
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "since must be an RFC 3339 timestamp")
		}
		query = query.Where("created_at >= ?", since.UTC())
	}

	logs := []models.AuditLog{}
	if err := query.Order("created_at DESC").
		Limit(10000).
		Find(&logs).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading audit logs")
	}

	if format == "json" {
		c.Set("Content-Type", "application/json")
		c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-log.json"))
		return c.JSON(fiber.Map{"success": true, "data": logs})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-log.csv"))

	writer := csv.NewWriter(c.Response().BodyWriter())
	_ = writer.Write([]string{"Timestamp", "Action", "List ID", "List", "IP Address", "Request ID", "Details"})

	for _, log := range logs {
		listID := ""
		if log.ListID != nil {
			listID = log.ListID.String()
		}

		detailStr := ""
		if log.Details != nil {
			keys := make([]string, 0, len(log.Details))
			for k := range log.Details {
				if k != "notify_user_ids" && k != "list_name" {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, fmt.Sprintf("%s=%v", k, log.Details[k]))
			}
			detailStr = strings.Join(parts, "; ")
		}

		_ = writer.Write([]string{
			log.CreatedAt.Format(time.RFC3339),
			log.Action,
			listID,
			log.ListName,
			log.IPAddress,
			log.RequestID,
			detailStr,
		})
	}

	writer.Flush()
	return nil
}
