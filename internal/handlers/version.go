package handlers

import (
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/pkg/utils"
)

// Version is injected at build time:
//
//	go build -ldflags "-X github.com/reelshare/backend/internal/handlers.Version=1.2.3"
var Version = "dev"

const apiVersion = "v1"

type versionResponse struct {
	Version      string `json:"version"`
	APIVersion   string `json:"apiVersion"`
	Commit       string `json:"commit,omitempty"`
	AuthProvider string `json:"authProvider"`
	SearchMode   string `json:"searchMode"`
}

func buildCommit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}
	return ""
}

// versionHandler reports the build and which backends are live. searchMode
// is "fallback" when no catalog key is configured.
func versionHandler(h Handlers) fiber.Handler {
	resp := versionResponse{
		Version:      Version,
		APIVersion:   apiVersion,
		Commit:       buildCommit(),
		AuthProvider: h.Auth.Provider.Name(),
		SearchMode:   "fallback",
	}
	if h.Titles.TMDB.Configured() {
		resp.SearchMode = "tmdb"
	}
	return func(c *fiber.Ctx) error {
		return utils.Success(c, fiber.StatusOK, resp)
	}
}
