// Package gate is a small Gate/Policy authorization layer. Profiles grant
// "resource:action" permissions with wildcard support; policies add
// per-resource checks such as ownership. The subject type is generic so the
// caller decides what identifies a user (an id, verified token claims, ...).
package gate

import (
	"context"
	"errors"
)

// Action describes the kind of operation a subject wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoProfile    = errors.New("no profile for subject")
)

// Policy holds resource-specific rules. For list/create the resource is nil.
type Policy[U any] interface {
	Can(ctx context.Context, subject U, action Action, resource any) bool
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[U any] func(ctx context.Context, subject U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, subject U, action Action, resource any) bool {
	return f(ctx, subject, action, resource)
}

// HybridGate combines profile permissions with resource policies:
//  1. the subject must be non-zero and resolve to a profile
//  2. the profile must grant resource:action
//  3. when a resource is given and a policy is registered, the policy must allow it
type HybridGate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

// NewHybridGate creates a gate resolving profiles through resolver.
func NewHybridGate[U comparable](resolver ProfileResolver[U]) *HybridGate[U] {
	return &HybridGate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register sets the policy for a resource type, replacing any previous one.
func (g *HybridGate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

func (g *HybridGate[U]) profile(ctx context.Context, subject U) (Profile, error) {
	var zero U
	if subject == zero {
		return nil, ErrUnauthorized
	}
	p, err := g.resolver.Resolve(ctx, subject)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoProfile
	}
	return p, nil
}

// Authorize returns nil when subject may perform action on resource.
func (g *HybridGate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	p, err := g.profile(ctx, subject)
	if err != nil {
		return ErrUnauthorized
	}
	if !p.HasPermission(NewPermission(resourceType, action)) {
		return ErrUnauthorized
	}
	if resource == nil {
		return nil
	}
	if pol, ok := g.policies[resourceType]; ok && !pol.Can(ctx, subject, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is Authorize as a bool.
func (g *HybridGate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}

// CanProfile checks the profile permission only, before any resource is loaded.
func (g *HybridGate[U]) CanProfile(ctx context.Context, subject U, action Action, resourceType string) bool {
	p, err := g.profile(ctx, subject)
	if err != nil {
		return false
	}
	return p.HasPermission(NewPermission(resourceType, action))
}
