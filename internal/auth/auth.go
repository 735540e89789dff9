// Package auth resolves the request's principal from its bearer token and
// enforces the route access policy. Authentication (the gate) and
// authorization (the policy) run as separate middleware stages; handlers only
// ever see the request-scoped Principal.
package auth

import (
	"context"
	"errors"

	"github.com/inkwell-hq/inkwell/internal/model"
)

// ErrForbidden is returned by RequireRole when the principal lacks the
// required role.
var ErrForbidden = errors.New("forbidden")

// Principal is the authenticated identity attached to a request. It is
// reconstructed from a verified token on every request and never persisted.
type Principal struct {
	UserID int64
	Role   model.Role
}

// Anonymous is the principal for requests that carry no Authorization header.
func Anonymous() Principal {
	return Principal{Role: model.RoleGuest}
}

// Authenticated reports whether the principal was derived from a verified
// token. Anonymous requests have no user id.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

type contextKey struct{}

var principalKey = contextKey{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the request's principal. Requests that passed the gate
// always carry one; the anonymous principal is returned otherwise.
func FromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Anonymous()
}

// RequireRole fails with ErrForbidden unless the context principal holds
// exactly the given role. There is no role hierarchy; admin does not imply
// user.
func RequireRole(ctx context.Context, role model.Role) error {
	if FromContext(ctx).Role != role {
		return ErrForbidden
	}
	return nil
}
