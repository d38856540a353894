package actor

import "context"

// Role is the authorization role of a caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Actor identifies the caller of an operation. It is populated by the
// authentication middleware from a verified token; a zero Actor is a guest.
type Actor struct {
	UserID string
	Role   Role
}

// IsGuest reports whether the caller is unauthenticated.
func (a Actor) IsGuest() bool {
	return a.UserID == ""
}

// IsAdmin reports whether the caller has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type ctxKey struct{}

// WithContext returns a context carrying the actor.
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext extracts the actor from the context. A missing actor is a guest.
func FromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(ctxKey{}).(Actor)

	return a
}
