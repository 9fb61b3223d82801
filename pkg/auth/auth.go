package auth

import (
	"context"

	"github.com/pkg/errors"
)

// Trusted identity headers set by the upstream auth layer (API gateway).
const (
	XUserIDHeader   = "X-User-Id"
	XUserNameHeader = "X-User-Name"
	XUserRoleHeader = "X-User-Role"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Caller is the pre-verified identity every core operation receives.
type Caller struct {
	ID   string
	Name string
	Role Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

type callerKey struct{}

var ErrNoCaller = errors.New("no caller in context")

func SetAuthContext(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func FromContext(ctx context.Context) (Caller, error) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	if !ok {
		return Caller{}, ErrNoCaller
	}
	return caller, nil
}
