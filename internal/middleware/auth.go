package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/reelshare/backend/internal/auth"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

const (
	principalKey = "principal"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

type AuthMiddleware struct {
	Provider auth.Provider
}

func NewAuthMiddleware(provider auth.Provider) *AuthMiddleware {
	return &AuthMiddleware{Provider: provider}
}

func CORS(origins []string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
	})
}

// AccessToken reads a bearer token, falling back to the session cookie set
// by the confirmation callback.
func AccessToken(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == authHeader {
			return ""
		}
		return token
	}
	return c.Cookies(AccessTokenCookie)
}

func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	token := AccessToken(c)
	if token == "" {
		logger.Warn("auth_missing_token", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}

	principal, err := a.Provider.CurrentUser(c.UserContext(), token)
	if err != nil {
		logger.Warn("auth_token_rejected", map[string]interface{}{
			"ip":       c.IP(),
			"path":     c.Path(),
			"provider": a.Provider.Name(),
			"error":    err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
	}

	setPrincipal(c, principal)
	return c.Next()
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous or badly authenticated requests through unchanged.
func (a *AuthMiddleware) OptionalAuth(c *fiber.Ctx) error {
	token := AccessToken(c)
	if token == "" {
		return c.Next()
	}
	if principal, err := a.Provider.CurrentUser(c.UserContext(), token); err == nil {
		setPrincipal(c, principal)
	}
	return c.Next()
}

func setPrincipal(c *fiber.Ctx, principal *auth.Principal) {
	c.Locals(principalKey, principal)
	c.Locals("userID", principal.ID.String())
}

// GetPrincipal returns the authenticated caller or nil.
func GetPrincipal(c *fiber.Ctx) *auth.Principal {
	value := c.Locals(principalKey)
	if value == nil {
		return nil
	}
	principal, ok := value.(*auth.Principal)
	if !ok {
		return nil
	}
	return principal
}
