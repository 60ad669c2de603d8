package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/what-to-watch/internal/apperror"
)

// errorPage is the data for the 404 and 500 pages.
type errorPage struct {
	PageTitle string
	Message   string
}

// NotFound renders the generic 404 page. It doubles as chi's NotFound handler.
func (p *Pages) NotFound(w http.ResponseWriter, r *http.Request) {
	p.notFound(w, "")
}

// MethodNotAllowed renders the 404 page body with a 405 status.
func (p *Pages) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusMethodNotAllowed, pageNotFound, errorPage{PageTitle: "Страница не найдена"})
}

// ServerError renders the generic 500 page. The error is logged, never shown.
func (p *Pages) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)
	p.render(w, http.StatusInternalServerError, pageServerError, errorPage{PageTitle: "Ошибка"})
}

// writeError maps a domain error to an error page.
//
// ERROR MAPPING:
// Only NotFound has a page of its own. Validation and duplicate errors are
// rendered inline by the form handler and never reach this function;
// anything else is a fault and becomes a 500.
func (p *Pages) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperror.ErrNotFound) {
		p.notFound(w, "")
		return
	}
	p.ServerError(w, r, err)
}

func (p *Pages) notFound(w http.ResponseWriter, message string) {
	p.render(w, http.StatusNotFound, pageNotFound, errorPage{
		PageTitle: "Страница не найдена",
		Message:   message,
	})
}
