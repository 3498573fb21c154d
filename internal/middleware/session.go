package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-dealership/i18n"
)

// SessionName is the cookie carrying flash notices.
const SessionName = "cse_session"

type ctxKey string

const (
	ctxSession ctxKey = "session"
	ctxLogger  ctxKey = "logger"
)

// NewCookieStore returns the signed cookie store used for flash notices.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

type sessionState struct {
	store sessions.Store
	sess  *sessions.Session
}

// Session loads the per-request session once and makes it available to
// Flash, Flashes and Destroy. A tampered cookie yields a fresh session.
func Session(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Get(r, SessionName)
			if err != nil {
				LoggerFrom(r).WithError(err).Debug("discarding unreadable session")
				sess, _ = store.New(r, SessionName)
			}
			ctx := context.WithValue(r.Context(), ctxSession, &sessionState{store: store, sess: sess})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func stateFrom(r *http.Request) *sessionState {
	st, _ := r.Context().Value(ctxSession).(*sessionState)
	if st == nil || st.sess == nil {
		return nil
	}
	return st
}

func (st *sessionState) save(w http.ResponseWriter, r *http.Request) {
	if err := st.sess.Save(r, w); err != nil {
		LoggerFrom(r).WithError(err).Warn("session save failed")
	}
}

// Flash queues the translated message for code. It must run before the
// response is written.
func Flash(w http.ResponseWriter, r *http.Request, code string) {
	addFlash(w, r, i18n.T(LangFrom(r), code))
}

// Flashf is Flash for messages with template data.
func Flashf(w http.ResponseWriter, r *http.Request, code string, data map[string]any) {
	addFlash(w, r, i18n.Tf(LangFrom(r), code, data))
}

func addFlash(w http.ResponseWriter, r *http.Request, msg string) {
	st := stateFrom(r)
	if st == nil {
		return
	}
	st.sess.AddFlash(msg)
	st.save(w, r)
}

// Flashes returns and clears the queued notices, including ones added
// earlier in the same request.
func Flashes(w http.ResponseWriter, r *http.Request) []string {
	st := stateFrom(r)
	if st == nil {
		return nil
	}
	raw := st.sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	st.save(w, r)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Destroy expires the session cookie.
func Destroy(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	if st == nil {
		return
	}
	st.sess.Values = map[any]any{}
	st.sess.Options.MaxAge = -1
	st.save(w, r)
}

// LoggerFrom returns the request-scoped logger set by Logging, or the
// standard logrus logger.
func LoggerFrom(r *http.Request) logrus.FieldLogger {
	if l, ok := r.Context().Value(ctxLogger).(logrus.FieldLogger); ok && l != nil {
		return l
	}
	return logrus.StandardLogger()
}
