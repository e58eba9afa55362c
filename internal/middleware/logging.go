package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/pkg/logger"
)

// quietPaths are probed by load balancers and only logged on failure.
var quietPaths = map[string]bool{
	"/health":      true,
	"/api/health":  true,
	"/api/version": true,
}

// RequestLogger tags every request with an id, hands the id and caller
// address to the audit layer and writes one structured line per request.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" || len(requestID) > 64 {
			requestID = logger.GenerateRequestID()
		}
		c.Locals("requestID", requestID)
		c.Set(fiber.HeaderXRequestID, requestID)
		c.SetUserContext(services.WithRequestMeta(c.UserContext(), services.RequestMeta{
			IPAddress: c.IP(),
			RequestID: requestID,
		}))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		if status < 400 && quietPaths[c.Path()] {
			return err
		}

		details := map[string]interface{}{
			"method":        c.Method(),
			"path":          c.Path(),
			"status_code":   status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"user_agent":    c.Get(fiber.HeaderUserAgent),
			"ip":            c.IP(),
			"request_body":  logger.GetRequestBodySummary(c),
			"response_body": logger.GetResponseSizeSummary(c),
			"request_id":    requestID,
		}
		logRequest(logger.GetUserIDFromContext(c), status, err, details)
		return err
	}
}

func logRequest(userID *string, status int, err error, details map[string]interface{}) {
	switch {
	case status >= 500 && userID != nil:
		logger.ErrorWithUser(*userID, "http_request", err, details)
	case status >= 500:
		logger.Error("http_request", err, details)
	case status >= 400 && userID != nil:
		logger.WarnWithUser(*userID, "http_request", details)
	case status >= 400:
		logger.Warn("http_request", details)
	case userID != nil:
		logger.InfoWithUser(*userID, "http_request", details)
	default:
		logger.Info("http_request", details)
	}
}

// SecurityLogger flags refused requests. List lookups a caller may not see
// answer 404, so those are recorded alongside outright denials.
func SecurityLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		var reason string
		switch c.Response().StatusCode() {
		case fiber.StatusUnauthorized:
			reason = "unauthenticated"
		case fiber.StatusForbidden:
			reason = "access_denied"
		case fiber.StatusNotFound:
			reason = "not_found"
		default:
			return err
		}

		userID := logger.GetUserIDFromContext(c)
		details := map[string]interface{}{
			"method": c.Method(),
			"path":   c.Path(),
			"ip":     c.IP(),
			"reason": reason,
		}
		if userID != nil {
			logger.WarnWithUser(*userID, "security_"+reason, details)
		} else {
			logger.Warn("security_"+reason, details)
		}
		return err
	}
}
