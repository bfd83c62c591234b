// Package web holds the HTML templates rendered by the page handlers.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templates embed.FS

// Templates parses every page template, keyed by file name (login.html, ...)
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templates, "templates/*.html")
}
