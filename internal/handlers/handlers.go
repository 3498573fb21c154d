// Package handlers holds the HTTP controllers of the site.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/i18n"
	"github.com/diewo77/go-dealership/internal/metrics"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/view"
)

// Authorizer checks the request subject against a resource.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

// Deps are shared by every handler.
type Deps struct {
	Auth    *auth.Authenticator
	Gate    Authorizer
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
	Now     func() time.Time
}

type base struct{ Deps }

func newBase(d Deps) base {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return base{Deps: d}
}

func (b base) log(r *http.Request) logrus.FieldLogger {
	if l := middleware.LoggerFrom(r); l != logrus.StandardLogger() {
		return l
	}
	return b.Log
}

func (b base) tr(r *http.Request, code string) string {
	return i18n.T(i18n.LangFromContext(r.Context()), code)
}

func (b base) trf(r *http.Request, code string, data map[string]any) string {
	return i18n.Tf(i18n.LangFromContext(r.Context()), code, data)
}

// render writes the page or, when the template fails, a bare 500.
func (b base) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		b.log(r).WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// serverError logs err and shows the generic error page. msgCode picks
// the user-facing message; internals never reach the page.
func (b base) serverError(w http.ResponseWriter, r *http.Request, err error, msgCode string) {
	b.log(r).WithError(err).WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Error("request failed")
	if msgCode == "" {
		msgCode = "error_generic"
	}
	b.render(w, r, http.StatusInternalServerError, "error.html", map[string]any{
		"Title":   b.tr(r, "title_server_error"),
		"Message": b.tr(r, msgCode),
	})
}

// notFound shows the friendly not-found page.
func (b base) notFound(w http.ResponseWriter, r *http.Request, status int, titleCode, msgCode string) {
	b.render(w, r, status, "not-found.html", map[string]any{
		"Title":   b.tr(r, titleCode),
		"Message": b.tr(r, msgCode),
	})
}

func (b base) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func idString(id uint) string { return strconv.FormatUint(uint64(id), 10) }
