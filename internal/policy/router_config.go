package policy

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/internal/handlers"
	"github.com/diewo77/go-dealership/internal/metrics"
	"github.com/diewo77/go-dealership/internal/services"
)

// RouterConfig holds the configured gate, handlers and services the router
// and background jobs share.
type RouterConfig struct {
	AuthGate *AuthGate

	HomeHandler           *handlers.HomeHandler
	AccountHandler        *handlers.AccountHandler
	InventoryHandler      *handlers.InventoryHandler
	ClassificationHandler *handlers.ClassificationHandler
	FavoriteHandler       *handlers.FavoriteHandler

	Accounts        *services.AccountService
	Classifications *services.ClassificationService
	Inventory       *services.InventoryService
	Favorites       *services.FavoriteService
}

// NewRouterConfig wires the authorization gate, the services and the
// handlers on top of db.
//
//	cfg := policy.NewRouterConfig(db, authn, m, log)
//	mux.Handle("GET /inv/", cfg.AuthGate.RequireEmployeeOrAdmin()(http.HandlerFunc(cfg.InventoryHandler.Management)))
func NewRouterConfig(db *gorm.DB, authn *auth.Authenticator, m *metrics.Metrics, log logrus.FieldLogger) *RouterConfig {
	authGate := NewAuthGate(authn)

	accounts := services.NewAccountService(db)
	classifications := services.NewClassificationService(db)
	inventory := services.NewInventoryService(db)
	favorites := services.NewFavoriteService(db)

	deps := handlers.Deps{Auth: authn, Gate: authGate, Metrics: m, Log: log}

	return &RouterConfig{
		AuthGate:              authGate,
		HomeHandler:           handlers.NewHomeHandler(deps),
		AccountHandler:        handlers.NewAccountHandler(deps, accounts),
		InventoryHandler:      handlers.NewInventoryHandler(deps, inventory, classifications, favorites),
		ClassificationHandler: handlers.NewClassificationHandler(deps, classifications),
		FavoriteHandler:       handlers.NewFavoriteHandler(deps, favorites, inventory),
		Accounts:              accounts,
		Classifications:       classifications,
		Inventory:             inventory,
		Favorites:             favorites,
	}
}
