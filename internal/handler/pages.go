// Package handler contains the HTTP request handlers and the HTML pages they render.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, form body)
// 2. Call the service layer
// 3. Pick a page template and write the response
//
// Handlers never touch SQL and never leak internal error text into a page.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
)

// Page template files. Each is parsed together with base.html.
const (
	pageOpinion     = "opinion.html"
	pageAddOpinion  = "add_opinion.html"
	pageNotFound    = "404.html"
	pageServerError = "500.html"
)

// Pages holds one parsed template set per page, so every page can define
// its own "content" block for base.html.
type Pages struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewPages parses every page template from fsys.
func NewPages(fsys fs.FS, logger *slog.Logger) (*Pages, error) {
	funcs := templateFuncs()

	p := &Pages{
		templates: make(map[string]*template.Template),
		logger:    logger,
	}
	for _, page := range []string{pageOpinion, pageAddOpinion, pageNotFound, pageServerError} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(fsys, "base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		p.templates[page] = tmpl
	}
	return p, nil
}

// render executes the page into a buffer first, so a template error can
// still become a clean 500 instead of a half-written page.
func (p *Pages) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := p.templates[page]
	if !ok {
		p.logger.Error("unknown page template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		p.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		if page != pageServerError {
			p.render(w, http.StatusInternalServerError, pageServerError, errorPage{PageTitle: "Ошибка"})
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// textPolicy allows only inline emphasis and line breaks in opinion text.
var textPolicy = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("br", "b", "i", "em", "strong")
	return p
}()

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		// paragraphs keeps the author's line breaks and strips any other markup.
		"paragraphs": func(text string) template.HTML {
			text = strings.ReplaceAll(text, "\r\n", "\n")
			return template.HTML(textPolicy.Sanitize(strings.ReplaceAll(text, "\n", "<br>")))
		},
		"since": func(t time.Time) string {
			return humanize.Time(t)
		},
	}
}
