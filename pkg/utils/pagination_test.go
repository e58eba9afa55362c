package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func pageFromQuery(t *testing.T, query string) (Page, int) {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		p := ParsePage(c)
		return c.JSON(fiber.Map{"number": p.Number, "size": p.Size, "offset": p.Offset()})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?"+query, nil), -1)
	if err != nil {
		t.Fatalf("request failed for query %q: %v", query, err)
	}
	defer resp.Body.Close()

	var body struct {
		Number int `json:"number"`
		Size   int `json:"size"`
		Offset int `json:"offset"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed decoding response: %v", err)
	}
	return Page{Number: body.Number, Size: body.Size}, body.Offset
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		want       Page
		wantOffset int
	}{
		{query: "", want: Page{Number: 1, Size: DefaultPageSize}},
		{query: "page=3&limit=10", want: Page{Number: 3, Size: 10}, wantOffset: 20},
		{query: "limit=500", want: Page{Number: 1, Size: MaxPageSize}},
		{query: "page=abc&limit=-4", want: Page{Number: 1, Size: DefaultPageSize}},
		{query: "page=0&limit=5", want: Page{Number: 1, Size: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, offset := pageFromQuery(t, tt.query)
			if got != tt.want || offset != tt.wantOffset {
				t.Fatalf("expected %+v offset %d, got %+v offset %d", tt.want, tt.wantOffset, got, offset)
			}
		})
	}
}
