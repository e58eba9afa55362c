package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/auth"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
)

const (
	invalidLinkMessage = "Invalid confirmation link"
	codeVerifierCookie = "code_verifier"
)

type AuthHandlerConfig struct {
	FrontendURL   string
	SecureCookies bool
	RefreshTTL    time.Duration
}

type AuthHandler struct {
	Provider auth.Provider
	cfg      AuthHandlerConfig
}

func NewAuthHandler(provider auth.Provider, cfg AuthHandlerConfig) *AuthHandler {
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &AuthHandler{Provider: provider, cfg: cfg}
}

// Callback finishes email confirmation. It accepts, in order of precedence,
// an error from the provider, a PKCE code, a token hash with its type, or a
// token pair moved out of a URL fragment by Confirm.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if providerErr := c.Query("error"); providerErr != "" {
		msg := c.Query("error_description", providerErr)
		logger.Warn("auth_callback_provider_error", map[string]interface{}{"error": msg})
		return h.redirectError(c, msg)
	}

	var (
		session *auth.Session
		err     error
		method  string
	)
	switch {
	case c.Query("code") != "":
		method = "code"
		verifier := c.Query("code_verifier", c.Cookies(codeVerifierCookie))
		session, err = h.Provider.ExchangeCode(auth.WithCodeVerifier(ctx, verifier), c.Query("code"))
	case c.Query("token_hash") != "" || c.Query("token") != "":
		method = "otp"
		tokenHash := c.Query("token_hash", c.Query("token"))
		otpType := c.Query("type")
		if otpType != "signup" && otpType != "email" {
			return h.redirectError(c, invalidLinkMessage)
		}
		session, err = h.Provider.VerifyOTP(ctx, tokenHash, otpType)
	case c.Query("access_token") != "":
		method = "fragment"
		session, err = h.Provider.SetSession(ctx, c.Query("access_token"), c.Query("refresh_token"))
	default:
		logger.Warn("auth_callback_no_params", map[string]interface{}{"ip": c.IP()})
		return h.redirectError(c, invalidLinkMessage)
	}

	if err != nil {
		logger.Warn("auth_callback_failed", map[string]interface{}{
			"method": method,
			"error":  err.Error(),
		})
		return h.redirectError(c, callbackMessage(err))
	}

	h.setSessionCookies(c, session)
	c.ClearCookie(codeVerifierCookie)
	logger.InfoWithUser(session.User.ID.String(), "auth_callback_success", map[string]interface{}{
		"method":   method,
		"provider": h.Provider.Name(),
	})
	return c.Redirect(h.cfg.FrontendURL+safeNext(c.Query("next")), fiber.StatusFound)
}

func callbackMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		return "Email link is invalid or has expired"
	case errors.Is(err, auth.ErrInvalidToken):
		return "Session is invalid or has expired"
	default:
		return "Authentication failed"
	}
}

// safeNext keeps redirects on the frontend origin.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

func (h *AuthHandler) redirectError(c *fiber.Ctx, message string) error {
	q := url.Values{}
	q.Set("error", message)
	return c.Redirect(h.cfg.FrontendURL+"/auth/auth-code-error?"+q.Encode(), fiber.StatusFound)
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, session *auth.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	if session.RefreshToken != "" {
		c.Cookie(&fiber.Cookie{
			Name:     middleware.RefreshTokenCookie,
			Value:    session.RefreshToken,
			Path:     "/",
			Expires:  time.Now().Add(h.cfg.RefreshTTL),
			HTTPOnly: true,
			Secure:   h.cfg.SecureCookies,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func (h *AuthHandler) clearSessionCookies(c *fiber.Ctx) {
	c.ClearCookie(middleware.AccessTokenCookie, middleware.RefreshTokenCookie)
}

var confirmPage = template.Must(template.New("confirm").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Confirming your email</title></head>
<body>
<p>Confirming your email address...</p>
<script>
(function () {
  var fragment = new URLSearchParams(window.location.hash.slice(1));
  var query = new URLSearchParams(window.location.search);
  fragment.forEach(function (v, k) { query.set(k, v); });
  window.location.replace({{.}} + "?" + query.toString());
})();
</script>
</body>
</html>
`))

// Confirm serves a small page that moves tokens from the URL fragment,
// which never reaches the server, into the callback query string.
func (h *AuthHandler) Confirm(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set("Cache-Control", "no-store")
	return confirmPage.Execute(c.Response().BodyWriter(), "/auth/callback")
}

func (h *AuthHandler) CodeError(c *fiber.Ctx) error {
	msg := c.Query("error")
	if msg == "" {
		msg = invalidLinkMessage
	}
	return utils.Error(c, fiber.StatusBadRequest, msg)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) passwordProvider() (auth.PasswordProvider, bool) {
	pp, ok := h.Provider.(auth.PasswordProvider)
	return pp, ok
}

func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	pp, ok := h.passwordProvider()
	if !ok {
		return utils.Error(c, fiber.StatusNotImplemented, "sign up is handled by "+h.Provider.Name())
	}

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	principal, err := pp.SignUp(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return authError(c, err, "signup")
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"user":    principal,
		"message": "check your email to confirm your account",
	})
}

func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	pp, ok := h.passwordProvider()
	if !ok {
		return utils.Error(c, fiber.StatusNotImplemented, "sign in is handled by "+h.Provider.Name())
	}

	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	session, err := pp.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return authError(c, err, "signin")
	}

	h.setSessionCookies(c, session)
	logger.InfoWithUser(session.User.ID.String(), "user_signed_in", map[string]interface{}{"ip": c.IP()})
	return utils.Success(c, fiber.StatusOK, session)
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	token := middleware.AccessToken(c)
	ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
	defer cancel()

	if err := h.Provider.SignOut(ctx, token); err != nil && !errors.Is(err, auth.ErrInvalidToken) {
		return authError(c, err, "signout")
	}
	h.clearSessionCookies(c)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "signed out"})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh trades a refresh token, from the body or the cookie, for a fresh
// access token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if req.RefreshToken == "" {
		req.RefreshToken = c.Cookies(middleware.RefreshTokenCookie)
	}
	if req.RefreshToken == "" {
		return utils.Error(c, fiber.StatusBadRequest, "refresh_token is required")
	}

	session, err := h.Provider.SetSession(c.UserContext(), "", req.RefreshToken)
	if err != nil {
		return authError(c, err, "refresh")
	}

	h.setSessionCookies(c, session)
	return utils.Success(c, fiber.StatusOK, session)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "authentication required")
	}
	return utils.Success(c, fiber.StatusOK, principal)
}

func authError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		return utils.Error(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return utils.Error(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		return utils.Error(c, fiber.StatusForbidden, err.Error())
	}
	logger.Error(action+"_failed", err, map[string]interface{}{"ip": c.IP()})
	return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
}
