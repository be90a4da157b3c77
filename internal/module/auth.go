package module

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	authorization = "Authorization"
	userIDHeader  = "X-User-ID"
	roleHeader    = "X-User-Role"

	RoleAdmin = "admin"
)

var (
	ErrOwnerNotFound = errors.New("owner not found in request")
	ErrNotAdmin      = errors.New("admin role required")
)

type ownerKey struct{}
type roleKey struct{}

// WithOwner returns a context carrying the authenticated owner id.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the owner injected by OwnerMiddleware.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(roleKey{}).(string)
	return role == RoleAdmin
}

// OwnerMiddleware injects the owner of the request into the context. Identity is
// established by the auth proxy in front of the api, which sets X-User-ID; a bearer
// token is accepted as the owner id when the header is absent.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if owner, err := ownerFromHeader(r); err == nil {
			ctx = WithOwner(ctx, owner)
		}
		if role := r.Header.Get(roleHeader); role != "" {
			ctx = WithRole(ctx, role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOwner rejects requests without an owner.
func RequireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := OwnerFromContext(r.Context()); !ok {
			http.Error(w, ErrOwnerNotFound.Error(), http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// RequireAdmin rejects requests without the admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			http.Error(w, ErrNotAdmin.Error(), http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func ownerFromHeader(r *http.Request) (string, error) {
	if owner := strings.TrimSpace(r.Header.Get(userIDHeader)); owner != "" {
		return owner, nil
	}

	authToken := r.Header.Get(authorization)
	if authToken == "" {
		return "", ErrOwnerNotFound
	}

	// remove prefix Bearer
	owner, ok := strings.CutPrefix(authToken, "Bearer ")
	if !ok || strings.TrimSpace(owner) == "" {
		return "", ErrOwnerNotFound
	}

	return strings.TrimSpace(owner), nil
}
