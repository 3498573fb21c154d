// Package policy connects verified token claims to the gate package: role
// profiles, ownership policies and the role-required middleware.
package policy

import (
	"context"

	"github.com/diewo77/go-dealership/auth"
)

// Subject is who a request acts as, taken from verified claims. The role is
// the one embedded at login, so a role change applies on the next login.
type Subject struct {
	AccountID uint
	Role      string
}

func SubjectFromClaims(c *auth.Claims) Subject {
	if c == nil {
		return Subject{}
	}
	return Subject{AccountID: c.AccountID, Role: c.Type}
}

// SubjectFromContext returns the subject attached by the auth gates.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	c, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return Subject{}, false
	}
	return SubjectFromClaims(c), true
}
