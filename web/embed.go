// Package web holds the page templates and browser assets served by
// cmd/orcamentos.
package web

import "embed"

// TemplatesFS holds the full page and the htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the clipboard helper script.
//
//go:embed static/*.css static/*.js
var StaticFS embed.FS
