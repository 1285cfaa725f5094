package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

//go:embed web
var webFS embed.FS

// uiHandler serves the embedded single page client.
func uiHandler() fiber.Handler {
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic("embedded web UI missing: " + err.Error())
	}
	return adaptor.HTTPHandler(http.FileServer(http.FS(sub)))
}
