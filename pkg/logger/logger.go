package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type Logger struct {
	entry *logrus.Logger
}

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "action",
		},
	})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: l}
}

func Init() {
	SetOutput(os.Stdout)
}

// SetOutput replaces the global logger. Tests use it to capture entries.
func SetOutput(output io.Writer) {
	mu.Lock()
	globalLogger = New(output)
	mu.Unlock()
}

// SetLevel accepts logrus level names; unknown names are ignored.
func SetLevel(level string) {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return
	}
	if parsed, err := logrus.ParseLevel(level); err == nil {
		globalLogger.entry.SetLevel(parsed)
	}
}

func (l *Logger) log(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	fields := logrus.Fields{}
	if len(details) > 0 {
		fields["details"] = details
	}
	if userID != nil {
		fields["user_id"] = *userID
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	e := l.entry.WithFields(fields)
	switch level {
	case LevelError:
		e.Error(action)
	case LevelWarn:
		e.Warn(action)
	default:
		e.Info(action)
	}
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

func Info(action string, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelInfo, action, nil, details, nil)
	}
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelInfo, action, &userID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelWarn, action, nil, details, nil)
	}
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelWarn, action, &userID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelError, action, nil, details, err)
	}
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	if l := current(); l != nil {
		l.log(LevelError, action, &userID, details, err)
	}
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if userID := c.Locals("userID"); userID != nil {
		if id, ok := userID.(string); ok {
			return &id
		}
	}
	return nil
}

var sensitiveFields = []string{"password", "access_token", "refresh_token", "token", "token_hash", "code"}

func redactSensitiveFields(jsonMap map[string]interface{}) {
	for _, field := range sensitiveFields {
		if _, exists := jsonMap[field]; exists {
			jsonMap[field] = "[REDACTED]"
		}
	}
}

func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(body, &jsonMap); err == nil {
		redactSensitiveFields(jsonMap)
		if jsonBytes, err := json.Marshal(jsonMap); err == nil {
			if len(jsonBytes) > 200 {
				return string(jsonBytes[:200]) + "..."
			}
			return string(jsonBytes)
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	response := c.Response()
	if response == nil {
		return "unknown"
	}

	body := response.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	return fmt.Sprintf("small (%d bytes)", len(body))
}

func GenerateRequestID() string {
	return uuid.New().String()
}
