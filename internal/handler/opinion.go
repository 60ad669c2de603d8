package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/what-to-watch/internal/apperror"
	"github.com/sakif/what-to-watch/internal/csrf"
	"github.com/sakif/what-to-watch/internal/form"
	"github.com/sakif/what-to-watch/internal/model"
	"github.com/sakif/what-to-watch/internal/service"
)

// Notices shown above the submission form.
const (
	MsgDuplicate   = "Такое мнение было оставлено ранее!"
	MsgFormExpired = "Форма устарела. Пожалуйста, отправьте её ещё раз."
)

// opinionPage is the data for opinion.html.
type opinionPage struct {
	PageTitle string
	Opinion   *model.Opinion
}

// addPage is the data for add_opinion.html.
type addPage struct {
	PageTitle string
	Form      *form.OpinionForm
	Errors    form.Errors
	Flash     string
	CSRFToken string
}

// OpinionHandler serves the opinion pages and the submission form.
type OpinionHandler struct {
	opinions *service.OpinionService
	csrf     *csrf.Protector
	pages    *Pages
	logger   *slog.Logger
}

// NewOpinionHandler creates a new OpinionHandler.
func NewOpinionHandler(
	opinions *service.OpinionService,
	protector *csrf.Protector,
	pages *Pages,
	logger *slog.Logger,
) *OpinionHandler {
	return &OpinionHandler{
		opinions: opinions,
		csrf:     protector,
		pages:    pages,
		logger:   logger,
	}
}

// HandleRandom shows a random opinion.
//
// HTTP: GET /
// An empty database is a 404 with its own message, not an error.
func (h *OpinionHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	opinion, err := h.opinions.Random(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrEmpty) {
			h.pages.notFound(w, service.EmptyMessage)
			return
		}
		h.pages.writeError(w, r, err)
		return
	}
	h.renderOpinion(w, opinion)
}

// HandleShow shows one opinion by id.
//
// HTTP: GET /opinion/{id}
// The route only matches digits; ids that overflow int64 are treated as missing.
func (h *OpinionHandler) HandleShow(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.pages.NotFound(w, r)
		return
	}

	opinion, err := h.opinions.GetByID(r.Context(), id)
	if err != nil {
		h.pages.writeError(w, r, err)
		return
	}
	h.renderOpinion(w, opinion)
}

// HandleAddForm renders an empty submission form.
//
// HTTP: GET /add
func (h *OpinionHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, &form.OpinionForm{}, nil, "")
}

// HandleAdd processes a submitted opinion.
//
// HTTP: POST /add
//
// FLOW:
//  1. Verify the CSRF token
//  2. Validate the fields (errors re-render the form, 200)
//  3. Store the opinion (duplicates re-render the form with a notice, 200)
//  4. Redirect to the new opinion (302)
func (h *OpinionHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("invalid opinion form body", slog.String("error", err.Error()))
		h.renderForm(w, r, &form.OpinionForm{}, nil, MsgFormExpired)
		return
	}
	f := form.FromValues(r.PostForm)

	if err := h.csrf.Verify(r); err != nil {
		h.logger.Warn("rejected opinion form", slog.String("error", err.Error()))
		h.renderForm(w, r, f, nil, MsgFormExpired)
		return
	}

	if errs := f.Validate(); errs != nil {
		h.renderForm(w, r, f, errs, "")
		return
	}

	opinion, err := h.opinions.Create(r.Context(), f.Draft())
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			h.renderForm(w, r, f, nil, MsgDuplicate)
			return
		}
		h.pages.writeError(w, r, err)
		return
	}

	http.Redirect(w, r, "/opinion/"+strconv.FormatInt(opinion.ID, 10), http.StatusFound)
}

func (h *OpinionHandler) renderOpinion(w http.ResponseWriter, opinion *model.Opinion) {
	h.pages.render(w, http.StatusOK, pageOpinion, opinionPage{
		PageTitle: opinion.Title,
		Opinion:   opinion,
	})
}

func (h *OpinionHandler) renderForm(w http.ResponseWriter, r *http.Request, f *form.OpinionForm, errs form.Errors, flash string) {
	token, err := h.csrf.Token(w, r)
	if err != nil {
		h.pages.ServerError(w, r, err)
		return
	}
	h.pages.render(w, http.StatusOK, pageAddOpinion, addPage{
		PageTitle: "Новое мнение",
		Form:      f,
		Errors:    errs,
		Flash:     flash,
		CSRFToken: token,
	})
}
