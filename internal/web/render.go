// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package web renders the marketing site and the upload page.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/stemsplit/internal/catalog"
	"github.com/ManuGH/stemsplit/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageHome    = "home"
	PageModels  = "models"
	PagePricing = "pricing"
	PageAPI     = "api"
	PageDemo    = "demo"
	PageUpload  = "upload"
	PageError   = "error"
)

var pageNames = []string{PageHome, PageModels, PagePricing, PageAPI, PageDemo, PageUpload, PageError}

// NavLink is a header navigation entry.
type NavLink struct {
	Href  string
	Label string
}

var nav = []NavLink{
	{"/", "Home"},
	{"/upload", "Upload"},
	{"/models", "Models"},
	{"/pricing", "Pricing"},
	{"/api-docs", "API"},
}

// PageData is passed to every template. Content is page specific.
type PageData struct {
	Page    string
	Title   string
	Active  string
	Nav     []NavLink
	Version string
	Year    int
	Content any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages   map[string]*template.Template
	version string
	now     func() time.Time
}

// NewRenderer parses every page against the shared layout.
func NewRenderer(version string) (*Renderer, error) {
	f := catalog.DefaultFormatter
	funcs := template.FuncMap{
		"price":      f.Price,
		"modelPrice": f.ModelPrice,
		"megabytes":  f.MegaBytes,
		"title":      f.Title,
		"clock":      catalog.Clock,
		"lower":      strings.ToLower,
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, version: version, now: time.Now}, nil
}

// Render writes page with status. Output is buffered so a template error
// never produces a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page, title string, content any) {
	t, ok := r.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	active := req.URL.Path
	if page == PageError {
		active = ""
	}
	data := PageData{
		Page:    page,
		Title:   title,
		Active:  active,
		Nav:     nav,
		Version: r.version,
		Year:    r.now().Year(),
		Content: content,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logger := log.WithComponentFromContext(req.Context(), "web")
		logger.Error().Err(err).Str("event", "web.render_failed").Str("page", page).Msg("template execution failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
