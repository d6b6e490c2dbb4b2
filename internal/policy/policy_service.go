package policy

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"hrflow/internal/config"
	"hrflow/internal/orgunit"
	policyerrors "hrflow/internal/policy/errors"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=policy_service.go -destination=mock/policy_service_mock.go -package=mock
type Service interface {
	CreateLeaveType(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error)
	GetLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error)
	DeleteLeaveType(ctx context.Context, id string) error

	CreatePolicy(ctx context.Context, req CreatePolicyRequest) (PolicyResponse, error)
	GetPolicies(ctx context.Context) ([]PolicyResponse, error)
	DeletePolicy(ctx context.Context, id string) error

	// PoliciesFor resolves the org-subtree rule for one user: every policy
	// rooted at the user's org unit or any of its ancestors.
	PoliciesFor(ctx context.Context, userID string) ([]ApplicablePolicy, error)

	// UsersForPolicy resolves the other direction: every active user whose
	// org unit lies in the subtree rooted at the policy's org unit.
	UsersForPolicy(ctx context.Context, p LeavePolicy) ([]user.User, error)

	// ValidateSubmission applies the eligibility rules for a leave span,
	// in order: date ordering, working-day count, type-specific gates.
	// Duplicate detection belongs to the request store, and comment
	// length is checked after it via ValidateComments.
	ValidateSubmission(gender string, lt *LeaveType, start, end, today time.Time) error

	ValidateComments(comments string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	orgUnits orgunit.Repository
	users    user.Repository
	cfg      config.Config
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	orgUnits orgunit.Repository,
	users user.Repository,
	cfg config.Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("policy.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("policy.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		orgUnits: orgUnits,
		users:    users,
		cfg:      cfg,
		logger:   l,
	}
}

func (s *service) CreateLeaveType(ctx context.Context, req CreateLeaveTypeRequest) (LeaveTypeResponse, error) {
	allocation, err := decimal.NewFromString(req.DefaultAllocationDays)
	if err != nil {
		return LeaveTypeResponse{}, policyerrors.ErrInvalidID
	}

	if req.Kind == KindCustom && strings.TrimSpace(req.Code) == "" {
		return LeaveTypeResponse{}, policyerrors.ErrCustomCodeRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveTypeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	// Built-in kinds are singletons.
	if req.Kind != KindCustom {
		if _, err := qtx.FindLeaveTypeByKind(ctx, req.Kind); err == nil {
			return LeaveTypeResponse{}, policyerrors.ErrKindExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, err
		}
	}

	t := &LeaveType{
		ID:                    uuid.New(),
		Kind:                  req.Kind,
		Code:                  req.Code,
		Name:                  req.Name,
		DefaultAllocationDays: allocation,
	}

	if err := qtx.CreateLeaveType(ctx, t); err != nil {
		s.logger.Error("create leave type persist failed", zap.Error(err))
		return LeaveTypeResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return LeaveTypeResponse{}, err
	}

	s.logger.Info("create leave type success",
		zap.String("leave_type_id", t.ID.String()),
		zap.String("kind", t.Kind),
	)
	return mapTypeToResponse(*t), nil
}

func (s *service) GetLeaveTypes(ctx context.Context) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAllLeaveTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LeaveTypeResponse, len(types))
	for i, t := range types {
		out[i] = mapTypeToResponse(t)
	}
	return out, nil
}

func (s *service) DeleteLeaveType(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return policyerrors.ErrInvalidID
	}
	return s.repo.DeleteLeaveType(ctx, id)
}

func (s *service) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (PolicyResponse, error) {
	allocation, err := decimal.NewFromString(req.AllocationDaysPerYear)
	if err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidID
	}
	amount, err := decimal.NewFromString(req.AccrualAmountPerPeriod)
	if err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidID
	}
	orgUnitID, err := uuid.Parse(req.OrgUnitID)
	if err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidID
	}
	leaveTypeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return PolicyResponse{}, policyerrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PolicyResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindLeaveTypeByID(ctx, req.LeaveTypeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PolicyResponse{}, policyerrors.ErrLeaveTypeNotFound
		}
		return PolicyResponse{}, err
	}

	p := &LeavePolicy{
		ID:                     uuid.New(),
		OrgUnitID:              orgUnitID,
		LeaveTypeID:            leaveTypeID,
		AllocationDaysPerYear:  allocation,
		AccrualFrequency:       req.AccrualFrequency,
		AccrualAmountPerPeriod: amount,
	}

	if err := qtx.CreatePolicy(ctx, p); err != nil {
		s.logger.Error("create policy persist failed", zap.Error(err))
		return PolicyResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return PolicyResponse{}, err
	}

	s.logger.Info("create policy success",
		zap.String("policy_id", p.ID.String()),
		zap.String("org_unit_id", req.OrgUnitID),
		zap.String("frequency", p.AccrualFrequency),
	)
	return mapPolicyToResponse(*p), nil
}

func (s *service) GetPolicies(ctx context.Context) ([]PolicyResponse, error) {
	policies, err := s.repo.FindAllPolicies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PolicyResponse, len(policies))
	for i, p := range policies {
		out[i] = mapPolicyToResponse(p)
	}
	return out, nil
}

func (s *service) DeletePolicy(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return policyerrors.ErrInvalidID
	}
	return s.repo.DeletePolicy(ctx, id)
}

func (s *service) PoliciesFor(ctx context.Context, userID string) ([]ApplicablePolicy, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.OrgUnitID == nil {
		return nil, nil
	}

	ancestors, err := s.orgUnits.AncestorIDs(ctx, u.OrgUnitID.String())
	if err != nil {
		return nil, err
	}

	policies, err := s.repo.FindPoliciesForOrgUnits(ctx, ancestors)
	if err != nil {
		return nil, err
	}

	out := make([]ApplicablePolicy, len(policies))
	for i, p := range policies {
		name := ""
		if p.LeaveType != nil {
			name = p.LeaveType.Name
		}
		out[i] = ApplicablePolicy{
			PolicyID:         p.ID.String(),
			LeaveTypeID:      p.LeaveTypeID.String(),
			LeaveTypeName:    name,
			AccrualFrequency: p.AccrualFrequency,
			AmountPerPeriod:  p.AccrualAmountPerPeriod.String(),
		}
	}
	return out, nil
}

func (s *service) UsersForPolicy(ctx context.Context, p LeavePolicy) ([]user.User, error) {
	subtree, err := s.orgUnits.SubtreeIDs(ctx, p.OrgUnitID.String())
	if err != nil {
		return nil, err
	}
	return s.users.FindActiveInOrgUnits(ctx, subtree)
}

func (s *service) ValidateSubmission(gender string, lt *LeaveType, start, end, today time.Time) error {
	if end.Before(start) {
		return policyerrors.ErrEndBeforeStart
	}
	if clock.WeekdayCount(start, end, s.cfg.WeekendDays) == 0 {
		return policyerrors.ErrWeekendsOnly
	}

	switch lt.Kind {
	case KindAnnual:
		if clock.CalendarDaysUntil(today, start) < s.cfg.AnnualAdvanceNoticeDays {
			return policyerrors.ErrLeadTime
		}
	case KindMaternity:
		if gender != user.GenderFemale {
			return policyerrors.ErrGenderMismatch
		}
	case KindPaternity:
		if gender != user.GenderMale {
			return policyerrors.ErrGenderMismatch
		}
	}
	return nil
}

func (s *service) ValidateComments(comments string) error {
	if len(strings.TrimSpace(comments)) < s.cfg.MinLeaveCommentLength {
		return policyerrors.ErrCommentsTooShort
	}
	return nil
}

func mapTypeToResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                    t.ID.String(),
		Kind:                  t.Kind,
		Code:                  t.Code,
		Name:                  t.Name,
		DefaultAllocationDays: t.DefaultAllocationDays.String(),
	}
}

func mapPolicyToResponse(p LeavePolicy) PolicyResponse {
	resp := PolicyResponse{
		ID:                     p.ID.String(),
		OrgUnitID:              p.OrgUnitID.String(),
		LeaveTypeID:            p.LeaveTypeID.String(),
		AllocationDaysPerYear:  p.AllocationDaysPerYear.String(),
		AccrualFrequency:       p.AccrualFrequency,
		AccrualAmountPerPeriod: p.AccrualAmountPerPeriod.String(),
	}
	if p.LeaveType != nil {
		resp.LeaveTypeName = p.LeaveType.Name
	}
	return resp
}
