package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps repository errors onto the response envelope. A bare
// ErrNotFound is reported as "<resource> not found".
func serviceError(c *fiber.Ctx, err error, resource, action string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return utils.ValidationError(c, verr.Error(), verr.Fields)
	case errors.Is(err, services.ErrValidation):
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	case errors.Is(err, services.ErrPermissionDenied):
		return utils.Error(c, fiber.StatusForbidden, "permission denied")
	case errors.Is(err, services.ErrNotFound):
		if err == services.ErrNotFound {
			return utils.Error(c, fiber.StatusNotFound, resource+" not found")
		}
		return utils.Error(c, fiber.StatusNotFound, err.Error())
	}

	details := map[string]interface{}{"path": c.Path()}
	if p := middleware.GetPrincipal(c); p != nil {
		logger.ErrorWithUser(p.ID.String(), action+"_failed", err, details)
	} else {
		logger.Error(action+"_failed", err, details)
	}
	return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
}
