// Package guard decides whether the current session may open a location and
// where to send it otherwise.
package guard

import (
	"context"
	"slices"

	"github.com/contaportal/portal/internal/client/session"
	"github.com/contaportal/portal/internal/core/domain"
)

// Well-known locations.
const (
	Login            = "/login"
	Root             = "/"
	AdminHome        = "/admin"
	AccountantHome   = "/accountant"
	OrganizationHome = "/organization"
)

// Decision is the outcome of Check. When Allowed is false, Redirect names
// where to go instead and From records the location that was asked for.
type Decision struct {
	Allowed  bool
	Redirect string
	From     string
}

// Check gates location. Without an identity it redirects to Login. With one
// whose role is outside a non-empty allowed list it redirects to Root, which
// in turn resolves to the role's home.
func Check(id *session.Identity, location string, allowed ...domain.Role) Decision {
	if id == nil {
		return Decision{Redirect: Login, From: location}
	}
	if len(allowed) > 0 && !slices.Contains(allowed, id.Role) {
		return Decision{Redirect: Root, From: location}
	}
	return Decision{Allowed: true}
}

// Home is where Root leads for id. Every role and the absent session map to
// exactly one location.
func Home(id *session.Identity) string {
	if id == nil {
		return Login
	}
	switch id.Role {
	case domain.RoleAdmin:
		return AdminHome
	case domain.RoleAccountant:
		return AccountantHome
	case domain.RoleOrganization:
		return OrganizationHome
	}
	return Login
}

// Resolve follows redirects until a final location: Root becomes the home of
// id.
func Resolve(id *session.Identity, d Decision) string {
	if d.Allowed {
		return ""
	}
	if d.Redirect == Root {
		return Home(id)
	}
	return d.Redirect
}

// Await blocks until the store has finished restoring, so nothing gated is
// shown while the session is still initializing.
func Await(ctx context.Context, s *session.Store) (*session.Identity, error) {
	select {
	case <-s.Ready():
		return s.Current(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
