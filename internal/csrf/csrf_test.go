package csrf

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestProtector(t *testing.T) *Protector {
	t.Helper()
	p, err := New(testSecret)
	require.NoError(t, err)
	return p
}

// postWith builds a form POST carrying the given nonce cookie and token.
func postWith(nonce, token string) *http.Request {
	form := url.Values{}
	if token != "" {
		form.Set(FieldName, token)
	}
	req := httptest.NewRequest(http.MethodPost, "/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if nonce != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: nonce})
	}
	_ = req.ParseForm()
	return req
}

func TestNew_ShortSecret(t *testing.T) {
	_, err := New("short")
	assert.Error(t, err)
}

func TestToken_SetsCookieOnce(t *testing.T) {
	p := newTestProtector(t)

	rr := httptest.NewRecorder()
	token, err := p.Token(rr, httptest.NewRequest(http.MethodGet, "/add", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// A request that already has the cookie reuses it.
	req := httptest.NewRequest(http.MethodGet, "/add", nil)
	req.AddCookie(cookies[0])
	rr2 := httptest.NewRecorder()
	_, err = p.Token(rr2, req)
	require.NoError(t, err)
	assert.Empty(t, rr2.Result().Cookies())
}

func TestVerify_RoundTrip(t *testing.T) {
	p := newTestProtector(t)

	rr := httptest.NewRecorder()
	token, err := p.Token(rr, httptest.NewRequest(http.MethodGet, "/add", nil))
	require.NoError(t, err)
	nonce := rr.Result().Cookies()[0].Value

	assert.NoError(t, p.Verify(postWith(nonce, token)))
}

func TestVerify_Rejects(t *testing.T) {
	p := newTestProtector(t)
	other, err := New("another-secret-of-enough-length")
	require.NoError(t, err)

	valid, err := p.Issue("nonce-a", time.Hour)
	require.NoError(t, err)
	expired, err := p.Issue("nonce-a", -time.Minute)
	require.NoError(t, err)
	forged, err := other.Issue("nonce-a", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		nonce string
		token string
	}{
		{name: "missing cookie", nonce: "", token: valid},
		{name: "missing token", nonce: "nonce-a", token: ""},
		{name: "nonce mismatch", nonce: "nonce-b", token: valid},
		{name: "expired", nonce: "nonce-a", token: expired},
		{name: "wrong secret", nonce: "nonce-a", token: forged},
		{name: "garbage", nonce: "nonce-a", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Verify(postWith(tt.nonce, tt.token))
			assert.True(t, errors.Is(err, ErrInvalidToken), "Verify() error = %v", err)
		})
	}
}
