package auth

import (
	"net/http"
	"time"
)

// TokenCookieName is the cookie carrying the login token.
const TokenCookieName = "jwt"

// CookieCarrier writes and reads the token cookie.
type CookieCarrier struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// NewCookieCarrier returns a carrier for the jwt cookie. Secure should be
// true outside development deployments.
func NewCookieCarrier(secure bool, ttl time.Duration) *CookieCarrier {
	return &CookieCarrier{Name: TokenCookieName, Secure: secure, TTL: ttl}
}

// Set stores token in an HTTP-only cookie expiring with the token.
func (c *CookieCarrier) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.TTL / time.Second),
		Expires:  time.Now().Add(c.TTL),
	})
}

// Clear deletes the cookie.
func (c *CookieCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// Read returns the raw token if the cookie is present and non-empty.
func (c *CookieCarrier) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
