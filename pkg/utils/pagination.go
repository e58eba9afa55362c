package utils

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request taken from ?page= and ?limit=.
type Page struct {
	Number int
	Size   int
}

func ParsePage(c *fiber.Ctx) Page {
	p := Page{
		Number: c.QueryInt("page", 1),
		Size:   c.QueryInt("limit", DefaultPageSize),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	switch {
	case p.Size < 1:
		p.Size = DefaultPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Scope limits a query to the page, for use with db.Scopes.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Size)
}

// Respond writes rows in the paginated envelope.
func (p Page) Respond(c *fiber.Ctx, rows interface{}, total int64) error {
	return Paginated(c, rows, p.Number, p.Size, total)
}
