package utils

import "github.com/gofiber/fiber/v2"

// Envelope is the body of every JSON response except title search, which
// keeps the catalog's own shape.
type Envelope struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Pagination *PageInfo         `json:"pagination,omitempty"`
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(Envelope{Success: true, Data: data})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Envelope{Error: message})
}

// ValidationError is a 400 carrying per-field messages next to the summary.
func ValidationError(c *fiber.Ctx, message string, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(Envelope{Error: message, Fields: fields})
}

func Paginated(c *fiber.Ctx, data interface{}, page, limit int, total int64) error {
	info := &PageInfo{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		info.TotalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return c.Status(fiber.StatusOK).JSON(Envelope{Success: true, Data: data, Pagination: info})
}
