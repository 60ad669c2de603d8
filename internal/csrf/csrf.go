// Package csrf protects HTML forms against cross-site request forgery.
//
// DOUBLE-SUBMIT WITH A SIGNED TOKEN:
//  1. The first form render sets a random nonce (xid) in an HttpOnly cookie.
//  2. The form carries a hidden JWT whose "jti" claim is that nonce, signed
//     with the application's SECRET_KEY.
//  3. On POST, the token must verify with the secret, be unexpired, and carry
//     the same nonce as the cookie.
//
// A forged cross-site POST has the victim's cookie but cannot mint a token
// for it without the secret.
package csrf

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// CookieName holds the per-browser nonce.
	CookieName = "csrf_nonce"
	// FieldName is the hidden form input carrying the signed token.
	FieldName = "csrf_token"

	issuer = "what-to-watch"
	// DefaultTTL matches Flask-WTF's default token lifetime.
	DefaultTTL = time.Hour
)

// ErrInvalidToken is returned by Verify for missing, expired or forged tokens.
var ErrInvalidToken = errors.New("csrf: invalid token")

// Protector issues and verifies form tokens.
type Protector struct {
	secret []byte
	ttl    time.Duration
}

// New creates a Protector. The secret must be at least 16 characters.
func New(secret string) (*Protector, error) {
	if len(secret) < 16 {
		return nil, errors.New("csrf: secret must be at least 16 characters")
	}
	return &Protector{secret: []byte(secret), ttl: DefaultTTL}, nil
}

// Token returns a token for the form being rendered, setting the nonce
// cookie on w if the request does not carry one yet.
func (p *Protector) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	var nonce string
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		nonce = c.Value
	} else {
		nonce = xid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    nonce,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return p.Issue(nonce, p.ttl)
}

// Issue signs a token bound to nonce that expires after ttl.
// Tests use it to build valid submissions directly.
func (p *Protector) Issue(nonce string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("csrf: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the posted token against the nonce cookie.
// r.ParseForm must already have been called.
func (p *Protector) Verify(r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return fmt.Errorf("%w: missing nonce cookie", ErrInvalidToken)
	}

	raw := r.PostForm.Get(FieldName)
	if raw == "" {
		return fmt.Errorf("%w: missing token", ErrInvalidToken)
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ID != cookie.Value {
		return fmt.Errorf("%w: nonce mismatch", ErrInvalidToken)
	}
	return nil
}
