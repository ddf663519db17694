package auth

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated = errors.New("auth: authentication required")
	ErrHostRequired    = errors.New("auth: host account required")
)

// Authenticated is implemented by messages that need a caller.
type Authenticated interface {
	RequiresPrincipal() bool
}

// HostOnly is implemented by messages only hosts may send.
type HostOnly interface {
	RequiresHost() bool
}

// Authorizer enforces Authenticated and HostOnly using the principal in ctx.
type Authorizer struct{}

func (Authorizer) Authorize(ctx context.Context, message any) error {
	needsPrincipal := false
	if m, ok := message.(Authenticated); ok && m.RequiresPrincipal() {
		needsPrincipal = true
	}
	needsHost := false
	if m, ok := message.(HostOnly); ok && m.RequiresHost() {
		needsHost = true
	}
	if !needsPrincipal && !needsHost {
		return nil
	}
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if needsHost && !p.IsHost {
		return ErrHostRequired
	}
	return nil
}
