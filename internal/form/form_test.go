package form

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/what-to-watch/internal/model"
)

func values(title, text, source string) url.Values {
	v := url.Values{}
	v.Set(FieldTitle, title)
	v.Set(FieldText, text)
	v.Set(FieldSource, source)
	return v
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		wantFields map[string]string
	}{
		{
			name: "valid with source",
			form: values("Dune", "Great movie", "http://example.com"),
		},
		{
			name: "valid without source",
			form: values("Dune", "Great movie", ""),
		},
		{
			name: "title at max length in runes",
			form: values(strings.Repeat("я", MaxTitleLength), "text", ""),
		},
		{
			name:       "missing title",
			form:       values("", "Great movie", ""),
			wantFields: map[string]string{FieldTitle: MsgRequired},
		},
		{
			name:       "whitespace-only title",
			form:       values("   ", "Great movie", ""),
			wantFields: map[string]string{FieldTitle: MsgRequired},
		},
		{
			name:       "missing text",
			form:       values("Dune", "", ""),
			wantFields: map[string]string{FieldText: MsgRequired},
		},
		{
			name: "missing title and text",
			form: values("", "\n\t", ""),
			wantFields: map[string]string{
				FieldTitle: MsgRequired,
				FieldText:  MsgRequired,
			},
		},
		{
			name:       "title too long",
			form:       values(strings.Repeat("a", MaxTitleLength+1), "text", ""),
			wantFields: map[string]string{FieldTitle: "Длина поля не должна превышать 128 символов"},
		},
		{
			name:       "source not a url",
			form:       values("Dune", "text", "not a url"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name: "https source",
			form: values("Dune", "text", "https://example.com/review?id=1"),
		},
		{
			name:       "javascript scheme",
			form:       values("Dune", "text", "javascript:alert(1)"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name:       "ftp scheme",
			form:       values("Dune", "text", "ftp://example.com/review"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name:       "mailto scheme",
			form:       values("Dune", "text", "mailto:a@b.c"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name:       "opaque uri",
			form:       values("Dune", "text", "foo:bar"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name:       "scheme without host",
			form:       values("Dune", "text", "http://"),
			wantFields: map[string]string{FieldSource: MsgInvalidURL},
		},
		{
			name:       "source too long",
			form:       values("Dune", "text", "http://example.com/"+strings.Repeat("a", MaxSourceLength)),
			wantFields: map[string]string{FieldSource: "Длина поля не должна превышать 128 символов"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := FromValues(tt.form).Validate()
			if tt.wantFields == nil {
				assert.Nil(t, errs)
				return
			}
			assert.Equal(t, Errors(tt.wantFields), errs)
		})
	}
}

func TestFromValues_TrimsAndNormalises(t *testing.T) {
	// "й" written as "и" + combining breve must compose to a single rune.
	decomposed := "Мои" + "\u0306" + " фильм"
	f := FromValues(values("  Dune  ", decomposed+"\n", " http://example.com "))

	assert.Equal(t, "Dune", f.Title)
	assert.Equal(t, "Мой фильм", f.Text)
	assert.Equal(t, "http://example.com", f.Source)
}

func TestDraft(t *testing.T) {
	f := FromValues(values("Dune", "Great movie", "http://example.com"))
	require.Nil(t, f.Validate())

	assert.Equal(t, model.OpinionDraft{
		Title:  "Dune",
		Text:   "Great movie",
		Source: "http://example.com",
	}, f.Draft())
}

func TestErrorsHas(t *testing.T) {
	errs := Errors{FieldTitle: MsgRequired}
	assert.True(t, errs.Has(FieldTitle))
	assert.False(t, errs.Has(FieldText))

	var none Errors
	assert.False(t, none.Has(FieldTitle))
}
