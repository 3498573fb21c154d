package policy

import (
	"context"

	"github.com/diewo77/go-dealership/gate"
)

// Ownable is implemented by models that belong to an account.
type Ownable interface {
	GetAccountID() uint
}

// OwnershipPolicy allows access to resources owned by the subject.
type OwnershipPolicy struct{}

func NewOwnershipPolicy() *OwnershipPolicy { return &OwnershipPolicy{} }

// Can allows a nil resource (list/create are profile-controlled) and denies
// resources that do not implement Ownable.
func (p *OwnershipPolicy) Can(_ context.Context, s Subject, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		return false
	}
	return s.AccountID != 0 && ownable.GetAccountID() == s.AccountID
}

// AdminBypassPolicy allows admins through and defers to inner otherwise.
type AdminBypassPolicy struct {
	inner   gate.Policy[Subject]
	isAdmin func(ctx context.Context, s Subject) bool
}

func NewAdminBypassPolicy(inner gate.Policy[Subject], isAdmin func(ctx context.Context, s Subject) bool) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner, isAdmin: isAdmin}
}

func (p *AdminBypassPolicy) Can(ctx context.Context, s Subject, action gate.Action, resource any) bool {
	if p.isAdmin(ctx, s) {
		return true
	}
	return p.inner.Can(ctx, s, action, resource)
}
