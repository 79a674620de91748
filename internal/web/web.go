package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "templates/*.html"))

// LoginPage is the data rendered by login.html.
type LoginPage struct {
	Email string
	Error string
}

// HomePage is the data rendered by index.html.
type HomePage struct {
	Email   string
	Balance string
}

// UnavailablePage is the data rendered by unavailable.html.
type UnavailablePage struct {
	Message string
}

// Render executes the named template and writes it with status.
func Render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
