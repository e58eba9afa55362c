package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/tmdb"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

type TitlesHandler struct {
	TMDB *tmdb.Client
}

func NewTitlesHandler(client *tmdb.Client) *TitlesHandler {
	return &TitlesHandler{TMDB: client}
}

// Search answers in the upstream search shape, unwrapped, so clients built
// against the catalog API can consume it directly.
func (h *TitlesHandler) Search(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.TMDB.Search(c.UserContext(), c.Query("q")))
}

func (h *TitlesHandler) Details(c *fiber.Ctx) error {
	mediaType := c.Params("type")
	if mediaType != "movie" && mediaType != "tv" {
		return utils.Error(c, fiber.StatusBadRequest, "type must be movie or tv")
	}
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return utils.Error(c, fiber.StatusBadRequest, "invalid title id")
	}

	details, err := h.TMDB.Details(c.UserContext(), mediaType, id)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "title not found")
		}
		logger.Error("tmdb_details_failed", err, map[string]interface{}{
			"type": mediaType,
			"id":   id,
		})
		return utils.Error(c, fiber.StatusBadGateway, "metadata service unavailable")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"title":        details,
		"genres":       tmdb.GenreNames(details.GenreIDs),
		"posterUrl":    tmdb.PosterURL(deref(details.PosterPath)),
		"backdropUrl":  tmdb.BackdropURL(deref(details.BackdropPath)),
		"displayTitle": details.DisplayTitle(),
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
