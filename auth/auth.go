// Package auth issues and verifies account tokens, carries them in the jwt
// cookie and provides the request gates built on top of them.
package auth

import (
	"context"
	"net/http"

	"github.com/diewo77/go-dealership/httpx"
)

type ctxKey string

const claimsCtxKey = ctxKey("claims")

// Flash message codes used by the gates. They are resolved through i18n by
// the FlashFunc the host application installs.
const (
	MsgTokenInvalid  = "auth_token_invalid"
	MsgLoginRequired = "auth_login_required"
	MsgRoleNoToken   = "auth_role_no_token"
	MsgRoleExpired   = "auth_role_expired"
	MsgRoleForbidden = "auth_role_forbidden"
)

// FlashFunc queues a one-time notice for the next rendered page.
type FlashFunc func(w http.ResponseWriter, r *http.Request, code string)

// RoleCheck decides whether verified claims may pass a role gate.
type RoleCheck func(ctx context.Context, c *Claims) bool

// WithClaims stores verified claims in context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// ClaimsFromContext extracts claims stored by one of the gates.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsCtxKey).(*Claims)
	return c, ok && c != nil
}

// Authenticator groups the token service and cookie carrier the gates need.
type Authenticator struct {
	Tokens    *TokenService
	Cookies   *CookieCarrier
	Flash     FlashFunc
	LoginPath string
	HomePath  string
}

// NewAuthenticator returns gates redirecting to /account/login and /.
func NewAuthenticator(tokens *TokenService, cookies *CookieCarrier, flash FlashFunc) *Authenticator {
	return &Authenticator{
		Tokens:    tokens,
		Cookies:   cookies,
		Flash:     flash,
		LoginPath: "/account/login",
		HomePath:  "/",
	}
}

// Login issues a token for the identity and sets the cookie.
func (a *Authenticator) Login(w http.ResponseWriter, id Identity) error {
	token, err := a.Tokens.Issue(id)
	if err != nil {
		return err
	}
	a.Cookies.Set(w, token)
	return nil
}

// Logout deletes the token cookie.
func (a *Authenticator) Logout(w http.ResponseWriter) {
	a.Cookies.Clear(w)
}

// TokenGate verifies the cookie when present and attaches its claims.
// Requests without a cookie continue anonymously; a bad cookie is cleared
// and the request is sent to the login page.
func (a *Authenticator) TokenGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := a.Cookies.Read(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.Tokens.Verify(raw)
		if err != nil {
			a.Cookies.Clear(w)
			a.deny(w, r, http.StatusUnauthorized, MsgTokenInvalid, a.LoginPath)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireLogin only lets through requests the TokenGate authenticated.
func (a *Authenticator) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			a.deny(w, r, http.StatusUnauthorized, MsgLoginRequired, a.LoginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole verifies the cookie on its own and asks allow whether the
// claims may continue. It does not depend on TokenGate having run.
func (a *Authenticator) RequireRole(allow RoleCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := a.Cookies.Read(r)
			if !ok {
				a.deny(w, r, http.StatusUnauthorized, MsgRoleNoToken, a.LoginPath)
				return
			}
			claims, err := a.Tokens.Verify(raw)
			if err != nil {
				a.Cookies.Clear(w)
				a.deny(w, r, http.StatusUnauthorized, MsgRoleExpired, a.LoginPath)
				return
			}
			if allow == nil || !allow(r.Context(), claims) {
				a.deny(w, r, http.StatusForbidden, MsgRoleForbidden, a.HomePath)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// deny answers JSON clients with a status and everyone else with a flash
// notice and a redirect.
func (a *Authenticator) deny(w http.ResponseWriter, r *http.Request, status int, code, target string) {
	if httpx.WantsJSON(r) {
		msg := "unauthorized"
		if status == http.StatusForbidden {
			msg = "forbidden"
		}
		httpx.JSONError(w, status, msg, nil)
		return
	}
	if a.Flash != nil {
		a.Flash(w, r, code)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
