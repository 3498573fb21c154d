package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/httpx"
	"github.com/diewo77/go-dealership/internal/db"
	"github.com/diewo77/go-dealership/internal/metrics"
	"github.com/diewo77/go-dealership/internal/middleware"
	"github.com/diewo77/go-dealership/internal/policy"
	"github.com/diewo77/go-dealership/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	store     sessions.Store
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	log       logrus.FieldLogger
	handler   http.Handler
}

// NewApp creates the application with all routes and middleware configured.
func NewApp(dbConn *gorm.DB, routerCfg *policy.RouterConfig, store sessions.Store, m *metrics.Metrics, registry *prometheus.Registry, log logrus.FieldLogger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        dbConn,
		routerCfg: routerCfg,
		store:     store,
		metrics:   m,
		registry:  registry,
		log:       log,
	}
	// Templates reach the gate, the navigation and the flash queue through
	// resolver callbacks so the view package stays free of policy types.
	view.SetCanProfileResolver(func(r *http.Request, resource, action string) bool {
		return routerCfg.AuthGate.CanProfile(r.Context(), gate.Action(action), resource)
	})
	view.SetNavResolver(func(r *http.Request) any {
		list, err := routerCfg.Classifications.List(r.Context())
		if err != nil {
			middleware.LoggerFrom(r).WithError(err).Warn("navigation unavailable")
			return nil
		}
		return list
	})
	view.SetFlashResolver(middleware.Flashes)
	app.setupRoutes()
	app.handler = app.chain()
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// chain wraps the router in the global middleware. Logging is outermost.
func (a *App) chain() http.Handler {
	h := a.withRecover(a.mux)
	h = a.routerCfg.AuthGate.Auth.TokenGate(h)
	h = middleware.Session(a.store)(h)
	h = middleware.Prefs(h)
	if a.metrics != nil {
		h = metrics.HTTPMetricsMiddleware(a.metrics)(h)
	}
	return middleware.Logging(a.log)(h)
}

func (a *App) setupRoutes() {
	hh := a.routerCfg.HomeHandler
	ah := a.routerCfg.AccountHandler
	ih := a.routerCfg.InventoryHandler
	ch := a.routerCfg.ClassificationHandler
	fh := a.routerCfg.FavoriteHandler

	// ─────────────────────────────────────────────────────────────────────────
	// Public routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /{$}", hh.Index)
	a.mux.HandleFunc("GET /error/trigger", hh.TriggerError)
	a.mux.HandleFunc("GET /inv/type/{classificationId}", ih.ByClassification)
	a.mux.HandleFunc("GET /inv/detail/{invId}", ih.Detail)

	a.mux.HandleFunc("GET /account/login", ah.LoginForm)
	a.mux.HandleFunc("POST /account/login", ah.Login)
	a.mux.HandleFunc("GET /account/register", ah.RegisterForm)
	a.mux.HandleFunc("POST /account/register", ah.Register)
	a.mux.HandleFunc("GET /account/logout", ah.Logout)
	a.mux.HandleFunc("POST /account/logout", ah.Logout)

	// ─────────────────────────────────────────────────────────────────────────
	// Logged-in routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /account/{$}", a.requireLogin(ah.Management))
	a.mux.Handle("GET /account/update/{accountId}", a.requireLogin(ah.UpdateForm))
	a.mux.Handle("POST /account/update", a.requireLogin(ah.Update))
	a.mux.Handle("POST /account/update/{accountId}", a.requireLogin(ah.Update))
	a.mux.Handle("POST /account/update-password", a.requireLogin(ah.UpdatePassword))
	a.mux.Handle("GET /account/favorites", a.requireLogin(fh.List))
	a.mux.Handle("POST /inv/favorite/{invId}", a.requireLogin(fh.Add))
	a.mux.Handle("POST /inv/favorite/{invId}/delete", a.requireLogin(fh.Remove))

	// ─────────────────────────────────────────────────────────────────────────
	// Employee and admin routes
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /inv/{$}", a.requireStaff(ih.Management))
	a.mux.Handle("GET /inv/getInventory/{classificationId}", a.requireStaff(ih.InventoryJSON))
	a.mux.Handle("GET /inv/add-inventory", a.requireStaff(ih.AddForm))
	a.mux.Handle("POST /inv/add-inventory", a.requireStaff(ih.Add))
	a.mux.Handle("GET /inv/edit/{invId}", a.requireStaff(ih.EditForm))
	a.mux.Handle("POST /inv/update/", a.requireStaff(ih.Update))
	a.mux.Handle("GET /inv/delete/{invId}", a.requireStaff(ih.DeleteConfirm))
	a.mux.Handle("POST /inv/delete/{invId}", a.requireStaff(ih.Delete))
	a.mux.Handle("GET /inv/add-classification",
		a.requirePermission(policy.ResourceClassification, gate.ActionCreate)(http.HandlerFunc(ch.AddForm)))
	a.mux.Handle("POST /inv/add-classification",
		a.requirePermission(policy.ResourceClassification, gate.ActionCreate)(http.HandlerFunc(ch.Add)))

	// ─────────────────────────────────────────────────────────────────────────
	// Operations
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	a.mux.HandleFunc("GET /healthz", a.healthz)
	if a.registry != nil {
		a.mux.Handle("GET /metrics", metrics.Handler(a.registry))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Static files
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	a.mux.Handle("GET /images/", http.StripPrefix("/images/", http.FileServer(http.Dir("static/images"))))

	a.mux.HandleFunc("/", hh.NotFound)
}

func (a *App) requireLogin(h http.HandlerFunc) http.Handler {
	return a.routerCfg.AuthGate.Auth.RequireLogin(h)
}

func (a *App) requireStaff(h http.HandlerFunc) http.Handler {
	return a.routerCfg.AuthGate.RequireEmployeeOrAdmin()(h)
}

func (a *App) requirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return a.routerCfg.AuthGate.RequirePermission(resourceType, action)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db); err != nil {
		middleware.LoggerFrom(r).WithError(err).Warn("health check failed")
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withRecover turns a panic in a handler into the generic error page.
func (a *App) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.routerCfg.HomeHandler.ServerError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
