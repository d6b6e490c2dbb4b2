package rbac

import (
	"context"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"

	"hrflow/internal/user"
)

// The permission model is fixed at compile time: a single company, four
// role bands, and a small grant table. Users map to bands through the
// users table, so a promotion takes effect on the next request without
// any policy reload.
const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// Band grants. Inheritance runs ic < manager < hr < admin through
// grouping rules, so each band lists only what it adds.
var bandGrants = [][3]string{
	{user.RoleManager, "leave_request", "decide"},
	{user.RoleManager, "wfh_request", "decide"},
	{user.RoleManager, "balance", "read"},
	{user.RoleManager, "user", "read"},

	{user.RoleHR, "user", "manage"},
	{user.RoleHR, "org_unit", "read"},
	{user.RoleHR, "org_unit", "manage"},
	{user.RoleHR, "policy", "read"},
	{user.RoleHR, "policy", "manage"},
	{user.RoleHR, "balance", "manage"},
	{user.RoleHR, "audit", "read"},

	{user.RoleAdmin, "rbac", "read"},
}

var bandInheritance = [][2]string{
	{user.RoleHR, user.RoleManager},
	{user.RoleAdmin, user.RoleHR},
}

//go:generate mockgen -source=rbac_service.go -destination=mock/rbac_service_mock.go -package=mock
type Service interface {
	// Enforce resolves the user's current role band and checks it
	// against the grant table. Inactive or unknown users are denied.
	Enforce(ctx context.Context, userID, resource, action string) (bool, error)
	// Grants lists every (band, resource, action) triple, including
	// inherited ones, for the introspection endpoint.
	Grants() []Grant
}

type Grant struct {
	RoleBand string `json:"role_band"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type service struct {
	users    user.Repository
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

func NewService(users user.Repository, logger ...*zap.Logger) (Service, error) {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}

	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, g := range bandGrants {
		if _, err := enforcer.AddPolicy(g[0], g[1], g[2]); err != nil {
			return nil, err
		}
	}
	for _, g := range bandInheritance {
		if _, err := enforcer.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, err
		}
	}

	return &service{users: users, enforcer: enforcer, logger: l}, nil
}

func (s *service) Enforce(ctx context.Context, userID, resource, action string) (bool, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, nil
	}
	if !u.Active {
		return false, nil
	}

	allowed, err := s.enforcer.Enforce(u.RoleBand, resource, action)
	if err != nil {
		return false, err
	}
	if !allowed {
		s.logger.Debug("permission denied",
			zap.String("user_id", userID),
			zap.String("role_band", u.RoleBand),
			zap.String("resource", resource),
			zap.String("action", action),
		)
	}
	return allowed, nil
}

func (s *service) Grants() []Grant {
	bands := []string{user.RoleIC, user.RoleManager, user.RoleHR, user.RoleAdmin}
	var out []Grant
	for _, band := range bands {
		perms, err := s.enforcer.GetImplicitPermissionsForUser(band)
		if err != nil {
			continue
		}
		for _, p := range perms {
			out = append(out, Grant{RoleBand: band, Resource: p[1], Action: p[2]})
		}
	}
	return out
}
