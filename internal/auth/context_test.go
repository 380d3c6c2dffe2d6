package auth

import (
	"context"
	"testing"

	"github.com/pluspoint/pluspoint/internal/model"
)

func TestAuthContextRoundTrip(t *testing.T) {
	ac := AuthContext{ProfileID: "child-1", Role: model.RoleChild, ParentID: "parent-1"}
	ctx := WithAuth(context.Background(), ac)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected auth context")
	}
	if got != ac {
		t.Errorf("got %+v, want %+v", got, ac)
	}
	if ProfileID(ctx) != "child-1" {
		t.Errorf("ProfileID = %q, want child-1", ProfileID(ctx))
	}
	if !IsChild(ctx) {
		t.Error("expected IsChild")
	}
	if IsParent(ctx) {
		t.Error("unexpected IsParent")
	}
}

func TestEmptyContext(t *testing.T) {
	ctx := context.Background()

	if _, ok := FromContext(ctx); ok {
		t.Error("expected no auth context")
	}
	if ProfileID(ctx) != "" {
		t.Error("expected empty profile id")
	}
	if IsParent(ctx) || IsChild(ctx) {
		t.Error("expected no role")
	}
}
