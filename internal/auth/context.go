package auth

import (
	"context"

	"github.com/pluspoint/pluspoint/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated profile through a request. Role comes
// from the profile row, never inferred from the shape of the data.
type AuthContext struct {
	ProfileID string
	Role      model.Role
	ParentID  string // set iff Role is child
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func ProfileID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.ProfileID
}

func IsParent(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleParent
}

func IsChild(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleChild
}
