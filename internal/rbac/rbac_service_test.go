package rbac

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"hrflow/internal/user"
)

type fakeUserRepo struct {
	user.Repository
	users map[string]*user.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func testService(t *testing.T, users map[string]*user.User) Service {
	t.Helper()
	svc, err := NewService(&fakeUserRepo{users: users}, zap.NewNop())
	assert.NoError(t, err)
	return svc
}

func addUser(users map[string]*user.User, band string, active bool) string {
	id := uuid.New().String()
	users[id] = &user.User{ID: uuid.MustParse(id), RoleBand: band, Active: active}
	return id
}

func TestManagerCanDecideButNotManageUsers(t *testing.T) {
	users := map[string]*user.User{}
	manager := addUser(users, user.RoleManager, true)
	svc := testService(t, users)

	allowed, err := svc.Enforce(context.Background(), manager, "leave_request", "decide")
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Enforce(context.Background(), manager, "user", "manage")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestHRInheritsManagerGrants(t *testing.T) {
	users := map[string]*user.User{}
	hr := addUser(users, user.RoleHR, true)
	svc := testService(t, users)

	for _, check := range [][2]string{
		{"leave_request", "decide"},
		{"wfh_request", "decide"},
		{"user", "manage"},
		{"balance", "manage"},
		{"audit", "read"},
	} {
		allowed, err := svc.Enforce(context.Background(), hr, check[0], check[1])
		assert.NoError(t, err)
		assert.True(t, allowed, "hr should hold %s:%s", check[0], check[1])
	}

	allowed, err := svc.Enforce(context.Background(), hr, "rbac", "read")
	assert.NoError(t, err)
	assert.False(t, allowed, "rbac introspection is admin only")
}

func TestAdminInheritsEverything(t *testing.T) {
	users := map[string]*user.User{}
	admin := addUser(users, user.RoleAdmin, true)
	svc := testService(t, users)

	for _, check := range [][2]string{
		{"rbac", "read"},
		{"user", "manage"},
		{"leave_request", "decide"},
	} {
		allowed, err := svc.Enforce(context.Background(), admin, check[0], check[1])
		assert.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestICHasNoGrants(t *testing.T) {
	users := map[string]*user.User{}
	ic := addUser(users, user.RoleIC, true)
	svc := testService(t, users)

	allowed, err := svc.Enforce(context.Background(), ic, "leave_request", "decide")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestInactiveAndUnknownUsersDenied(t *testing.T) {
	users := map[string]*user.User{}
	inactive := addUser(users, user.RoleAdmin, false)
	svc := testService(t, users)

	allowed, err := svc.Enforce(context.Background(), inactive, "user", "read")
	assert.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.Enforce(context.Background(), uuid.New().String(), "user", "read")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestGrantsIncludeInherited(t *testing.T) {
	svc := testService(t, map[string]*user.User{})

	grants := svc.Grants()
	var adminHasDecide bool
	for _, g := range grants {
		if g.RoleBand == user.RoleAdmin && g.Resource == "leave_request" && g.Action == "decide" {
			adminHasDecide = true
		}
	}
	assert.True(t, adminHasDecide)
}
