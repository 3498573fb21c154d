package policy

import (
	"context"
	"net/http"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
)

// AuthGate is the central authorization point: role profiles resolved from
// token claims plus ownership policies for favorites and accounts.
type AuthGate struct {
	Gate *gate.HybridGate[Subject]
	Auth *auth.Authenticator
}

// NewAuthGate builds the gate and registers the ownership policies.
func NewAuthGate(authn *auth.Authenticator) *AuthGate {
	g := &AuthGate{Gate: gate.NewHybridGate[Subject](RoleResolver()), Auth: authn}
	owned := NewAdminBypassPolicy(NewOwnershipPolicy(), g.isAdmin)
	g.Gate.Register(ResourceFavorite, owned)
	g.Gate.Register(ResourceAccount, owned)
	return g
}

func (ag *AuthGate) isAdmin(ctx context.Context, s Subject) bool {
	p, err := RoleResolver().Resolve(ctx, s)
	return err == nil && p != nil && p.HasPermission(gate.PermissionSuperAdmin)
}

// Authorize checks the request's subject against action on resource.
// Returns nil if authorized, gate.ErrUnauthorized otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	s, ok := SubjectFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, s, action, resourceType, resource)
}

func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string, resource any) bool {
	return ag.Authorize(ctx, action, resourceType, resource) == nil
}

// CanProfile checks only profile permissions (no ownership check).
// Useful for UI to show/hide links before a resource is loaded.
func (ag *AuthGate) CanProfile(ctx context.Context, action gate.Action, resourceType string) bool {
	s, ok := SubjectFromContext(ctx)
	if !ok {
		return false
	}
	return ag.Gate.CanProfile(ctx, s, action, resourceType)
}

// IsAdmin reports whether the request's subject holds "*:*".
func (ag *AuthGate) IsAdmin(ctx context.Context) bool {
	s, ok := SubjectFromContext(ctx)
	return ok && ag.isAdmin(ctx, s)
}

// RequirePermission returns the role-required gate for resourceType:action.
// It re-verifies the token cookie itself.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return ag.Auth.RequireRole(func(ctx context.Context, c *auth.Claims) bool {
		return ag.Gate.CanProfile(ctx, SubjectFromClaims(c), action, resourceType)
	})
}

// RequireEmployeeOrAdmin guards the inventory management routes.
func (ag *AuthGate) RequireEmployeeOrAdmin() func(http.Handler) http.Handler {
	return ag.RequirePermission(ResourceInventory, gate.ActionManage)
}
