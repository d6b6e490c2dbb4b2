package policy

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=policy_repo.go -destination=mock/policy_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateLeaveType(ctx context.Context, t *LeaveType) error
	FindAllLeaveTypes(ctx context.Context) ([]LeaveType, error)
	FindLeaveTypeByID(ctx context.Context, id string) (*LeaveType, error)
	FindLeaveTypeByKind(ctx context.Context, kind string) (*LeaveType, error)
	UpdateLeaveType(ctx context.Context, t *LeaveType) error
	DeleteLeaveType(ctx context.Context, id string) error

	CreatePolicy(ctx context.Context, p *LeavePolicy) error
	FindAllPolicies(ctx context.Context) ([]LeavePolicy, error)
	FindPolicyByID(ctx context.Context, id string) (*LeavePolicy, error)
	FindPoliciesByFrequency(ctx context.Context, frequency string) ([]LeavePolicy, error)
	FindPoliciesForOrgUnits(ctx context.Context, orgUnitIDs []string) ([]LeavePolicy, error)
	UpdatePolicy(ctx context.Context, p *LeavePolicy) error
	DeletePolicy(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) CreateLeaveType(ctx context.Context, t *LeaveType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindAllLeaveTypes(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).Order("name ASC").Find(&types).Error
	return types, err
}

func (r *repository) FindLeaveTypeByID(ctx context.Context, id string) (*LeaveType, error) {
	var t LeaveType
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) FindLeaveTypeByKind(ctx context.Context, kind string) (*LeaveType, error) {
	var t LeaveType
	err := r.db.WithContext(ctx).First(&t, "kind = ?", kind).Error
	return &t, err
}

func (r *repository) UpdateLeaveType(ctx context.Context, t *LeaveType) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) DeleteLeaveType(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&LeaveType{}, "id = ?", id).Error
}

func (r *repository) CreatePolicy(ctx context.Context, p *LeavePolicy) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *repository) FindAllPolicies(ctx context.Context) ([]LeavePolicy, error) {
	var policies []LeavePolicy
	err := r.db.WithContext(ctx).Preload("LeaveType").Find(&policies).Error
	return policies, err
}

func (r *repository) FindPolicyByID(ctx context.Context, id string) (*LeavePolicy, error) {
	var p LeavePolicy
	err := r.db.WithContext(ctx).Preload("LeaveType").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *repository) FindPoliciesByFrequency(ctx context.Context, frequency string) ([]LeavePolicy, error) {
	var policies []LeavePolicy
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("accrual_frequency = ?", frequency).
		Find(&policies).Error
	return policies, err
}

// FindPoliciesForOrgUnits returns policies rooted at any of the given org
// units. Callers pass a user's ancestor chain so the org-subtree rule
// resolves to "some ancestor of my unit carries the policy".
func (r *repository) FindPoliciesForOrgUnits(ctx context.Context, orgUnitIDs []string) ([]LeavePolicy, error) {
	if len(orgUnitIDs) == 0 {
		return nil, nil
	}
	var policies []LeavePolicy
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("org_unit_id IN ?", orgUnitIDs).
		Find(&policies).Error
	return policies, err
}

func (r *repository) UpdatePolicy(ctx context.Context, p *LeavePolicy) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *repository) DeletePolicy(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&LeavePolicy{}, "id = ?", id).Error
}
