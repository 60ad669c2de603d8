// Package form validates opinion submissions before they reach storage.
//
// Validation rules live in struct tags and are checked by
// go-playground/validator. Failures come back as per-field messages that the
// handler renders next to each input, so the user can fix and resubmit.
package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/sakif/what-to-watch/internal/model"
)

// Field limits enforced on submission.
const (
	MaxTitleLength  = model.MaxTitleLength
	MaxSourceLength = 128
)

// UI messages shown next to invalid fields.
const (
	MsgRequired   = "Обязательное поле"
	MsgInvalidURL = "Некорректный URL"
	msgMaxLength  = "Длина поля не должна превышать %s символов"
)

// Field names, matching the HTML input names.
const (
	FieldTitle  = "title"
	FieldText   = "text"
	FieldSource = "source"
)

// validate is shared: a *validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("form"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// OpinionForm is the raw user input of the "add opinion" page.
// Source must be an absolute http or https URL with a host.
type OpinionForm struct {
	Title  string `form:"title"  validate:"required,max=128"`
	Text   string `form:"text"   validate:"required"`
	Source string `form:"source" validate:"omitempty,max=128,http_url"`
}

// Errors maps a field name to the message displayed for it.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// FromValues builds a form from posted values, trimming surrounding
// whitespace and normalising to NFC so visually identical texts compare equal.
func FromValues(values url.Values) *OpinionForm {
	return &OpinionForm{
		Title:  clean(values.Get(FieldTitle)),
		Text:   clean(values.Get(FieldText)),
		Source: strings.TrimSpace(values.Get(FieldSource)),
	}
}

// Validate checks the form. It returns nil when the form is valid.
func (f *OpinionForm) Validate() Errors {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError only happens on programmer error (nil form).
		panic(fmt.Sprintf("form: validating opinion form: %v", err))
	}

	errs := make(Errors, len(verrs))
	for _, fe := range verrs {
		if errs.Has(fe.Field()) {
			continue
		}
		errs[fe.Field()] = message(fe)
	}
	return errs
}

// Draft returns the typed draft for a form that passed Validate.
func (f *OpinionForm) Draft() model.OpinionDraft {
	return model.OpinionDraft{
		Title:  f.Title,
		Text:   f.Text,
		Source: f.Source,
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return fmt.Sprintf(msgMaxLength, fe.Param())
	case "http_url":
		return MsgInvalidURL
	default:
		return fmt.Sprintf("Некорректное значение (%s)", fe.Tag())
	}
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
