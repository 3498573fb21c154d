package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diewo77/go-dealership/auth"
	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/internal/models"
	"github.com/diewo77/go-dealership/internal/policy"
)

func ctxFor(id uint, role models.AccountType) context.Context {
	return auth.WithClaims(context.Background(), &auth.Claims{AccountID: id, Type: string(role)})
}

func newGate() *policy.AuthGate {
	tokens := auth.NewTokenService("policy-secret", time.Hour)
	authn := auth.NewAuthenticator(tokens, auth.NewCookieCarrier(false, time.Hour), nil)
	return policy.NewAuthGate(authn)
}

func TestRoleProfiles(t *testing.T) {
	g := newGate()
	cases := []struct {
		role     models.AccountType
		resource string
		action   gate.Action
		want     bool
	}{
		{models.AccountClient, policy.ResourceFavorite, gate.ActionCreate, true},
		{models.AccountClient, policy.ResourceAccount, gate.ActionUpdate, true},
		{models.AccountClient, policy.ResourceInventory, gate.ActionManage, false},
		{models.AccountClient, policy.ResourceClassification, gate.ActionCreate, false},
		{models.AccountEmployee, policy.ResourceInventory, gate.ActionManage, true},
		{models.AccountEmployee, policy.ResourceClassification, gate.ActionCreate, true},
		{models.AccountEmployee, policy.ResourceFavorite, gate.ActionDelete, true},
		{models.AccountAdmin, policy.ResourceInventory, gate.ActionDelete, true},
		{"Guest", policy.ResourceFavorite, gate.ActionList, false},
	}
	for _, tc := range cases {
		got := g.CanProfile(ctxFor(1, tc.role), tc.action, tc.resource)
		if got != tc.want {
			t.Errorf("%s %s:%s = %v, want %v", tc.role, tc.resource, tc.action, got, tc.want)
		}
	}
	if g.CanProfile(context.Background(), gate.ActionView, policy.ResourceAccount) {
		t.Error("anonymous requests have no profile")
	}
}

func TestFavoriteOwnership(t *testing.T) {
	g := newGate()
	fav := &models.Favorite{AccountID: 42, InventoryID: 7}

	if !g.Can(ctxFor(42, models.AccountClient), gate.ActionDelete, policy.ResourceFavorite, fav) {
		t.Error("owner should remove own favorite")
	}
	if g.Can(ctxFor(99, models.AccountClient), gate.ActionDelete, policy.ResourceFavorite, fav) {
		t.Error("other client must be denied")
	}
	if g.Can(ctxFor(99, models.AccountEmployee), gate.ActionDelete, policy.ResourceFavorite, fav) {
		t.Error("employee gets no ownership bypass")
	}
	if !g.Can(ctxFor(1, models.AccountAdmin), gate.ActionDelete, policy.ResourceFavorite, fav) {
		t.Error("admin bypasses ownership")
	}
}

func TestAccountPolicy(t *testing.T) {
	g := newGate()
	acc := &models.Account{ID: 5}
	if !g.Can(ctxFor(5, models.AccountClient), gate.ActionUpdate, policy.ResourceAccount, acc) {
		t.Error("own account should be editable")
	}
	if g.Can(ctxFor(6, models.AccountEmployee), gate.ActionUpdate, policy.ResourceAccount, acc) {
		t.Error("other accounts must not be editable")
	}
	if !g.IsAdmin(ctxFor(1, models.AccountAdmin)) || g.IsAdmin(ctxFor(1, models.AccountEmployee)) {
		t.Error("unexpected IsAdmin result")
	}
}

type notOwnable struct{}

func TestOwnershipPolicyDeniesNonOwnable(t *testing.T) {
	p := policy.NewOwnershipPolicy()
	s := policy.Subject{AccountID: 1, Role: "Client"}
	if !p.Can(context.Background(), s, gate.ActionList, nil) {
		t.Error("nil resource is allowed")
	}
	if p.Can(context.Background(), s, gate.ActionView, notOwnable{}) {
		t.Error("resources without an owner are denied")
	}
}

func TestRequireEmployeeOrAdmin(t *testing.T) {
	g := newGate()
	h := g.RequireEmployeeOrAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	issue := func(role models.AccountType) string {
		tok, err := g.Auth.Tokens.Issue(auth.Identity{AccountID: 1, Type: string(role)})
		if err != nil {
			t.Fatal(err)
		}
		return tok
	}
	cases := []struct {
		name     string
		cookie   string
		want     int
		location string
	}{
		{"no cookie", "", http.StatusSeeOther, "/account/login"},
		{"client", issue(models.AccountClient), http.StatusSeeOther, "/"},
		{"employee", issue(models.AccountEmployee), http.StatusOK, ""},
		{"admin", issue(models.AccountAdmin), http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/inv/", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: tc.cookie})
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want || rr.Header().Get("Location") != tc.location {
				t.Fatalf("got %d %q, want %d %q", rr.Code, rr.Header().Get("Location"), tc.want, tc.location)
			}
		})
	}
}

func TestSubjectFromClaims(t *testing.T) {
	if (policy.SubjectFromClaims(nil) != policy.Subject{}) {
		t.Error("nil claims give the zero subject")
	}
	s, ok := policy.SubjectFromContext(ctxFor(3, models.AccountEmployee))
	if !ok || s.AccountID != 3 || s.Role != "Employee" {
		t.Errorf("unexpected subject %+v", s)
	}
}
