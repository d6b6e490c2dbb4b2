package policy

import (
	"context"
	"strings"
	"testing"
	"time"

	"hrflow/internal/config"
	"hrflow/internal/orgunit"
	policyerrors "hrflow/internal/policy/errors"
	"hrflow/internal/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakePolicyRepo struct {
	Repository
	FindPoliciesForOrgUnitsFn func(ctx context.Context, orgUnitIDs []string) ([]LeavePolicy, error)
}

func (f *fakePolicyRepo) FindPoliciesForOrgUnits(ctx context.Context, orgUnitIDs []string) ([]LeavePolicy, error) {
	return f.FindPoliciesForOrgUnitsFn(ctx, orgUnitIDs)
}

type fakeOrgUnitRepo struct {
	orgunit.Repository
	AncestorIDsFn func(ctx context.Context, unitID string) ([]string, error)
	SubtreeIDsFn  func(ctx context.Context, rootID string) ([]string, error)
}

func (f *fakeOrgUnitRepo) AncestorIDs(ctx context.Context, unitID string) ([]string, error) {
	return f.AncestorIDsFn(ctx, unitID)
}

func (f *fakeOrgUnitRepo) SubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	return f.SubtreeIDsFn(ctx, rootID)
}

type fakeUserRepo struct {
	user.Repository
	FindByIDFn             func(ctx context.Context, id string) (*user.User, error)
	FindActiveInOrgUnitsFn func(ctx context.Context, orgUnitIDs []string) ([]user.User, error)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	return f.FindByIDFn(ctx, id)
}

func (f *fakeUserRepo) FindActiveInOrgUnits(ctx context.Context, orgUnitIDs []string) ([]user.User, error) {
	return f.FindActiveInOrgUnitsFn(ctx, orgUnitIDs)
}

func testConfig() config.Config {
	return config.Config{
		AnnualAdvanceNoticeDays: 5,
		MinLeaveCommentLength:   40,
		WeekendDays: map[time.Weekday]bool{
			time.Saturday: true,
			time.Sunday:   true,
		},
	}
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func validComments() string {
	return strings.Repeat("taking leave for a family trip. ", 3)
}

func newValidationService(t *testing.T) *service {
	t.Helper()
	return &service{cfg: testConfig(), logger: zap.NewNop()}
}

func TestValidateSubmissionEndBeforeStart(t *testing.T) {
	s := newValidationService(t)
	lt := &LeaveType{Kind: KindSick}

	err := s.ValidateSubmission(user.GenderMale, lt,
		date("2026-03-10"), date("2026-03-09"), date("2026-03-01"))

	assert.ErrorIs(t, err, policyerrors.ErrEndBeforeStart)
}

func TestValidateSubmissionWeekendsOnly(t *testing.T) {
	s := newValidationService(t)
	lt := &LeaveType{Kind: KindSick}

	// 2026-03-07 is a Saturday, 2026-03-08 a Sunday.
	err := s.ValidateSubmission(user.GenderMale, lt,
		date("2026-03-07"), date("2026-03-08"), date("2026-03-01"))

	assert.ErrorIs(t, err, policyerrors.ErrWeekendsOnly)
}

func TestValidateSubmissionAnnualLeadTime(t *testing.T) {
	s := newValidationService(t)
	lt := &LeaveType{Kind: KindAnnual}

	// Starts 3 calendar days out, below the 5 day notice floor.
	err := s.ValidateSubmission(user.GenderFemale, lt,
		date("2026-03-04"), date("2026-03-06"), date("2026-03-01"))
	assert.ErrorIs(t, err, policyerrors.ErrLeadTime)

	// Exactly 5 days out passes.
	err = s.ValidateSubmission(user.GenderFemale, lt,
		date("2026-03-06"), date("2026-03-06"), date("2026-03-01"))
	assert.NoError(t, err)
}

func TestValidateSubmissionGenderGates(t *testing.T) {
	s := newValidationService(t)
	start, end, today := date("2026-03-09"), date("2026-03-13"), date("2026-03-01")

	err := s.ValidateSubmission(user.GenderMale, &LeaveType{Kind: KindMaternity},
		start, end, today)
	assert.ErrorIs(t, err, policyerrors.ErrGenderMismatch)

	err = s.ValidateSubmission(user.GenderFemale, &LeaveType{Kind: KindPaternity},
		start, end, today)
	assert.ErrorIs(t, err, policyerrors.ErrGenderMismatch)

	err = s.ValidateSubmission(user.GenderFemale, &LeaveType{Kind: KindMaternity},
		start, end, today)
	assert.NoError(t, err)
}

func TestValidateCommentsTooShort(t *testing.T) {
	s := newValidationService(t)

	assert.ErrorIs(t, s.ValidateComments("short note"), policyerrors.ErrCommentsTooShort)
	assert.ErrorIs(t, s.ValidateComments("   "), policyerrors.ErrCommentsTooShort)
	assert.NoError(t, s.ValidateComments(validComments()))
}

func TestCreatePolicyRejectsMalformedIDs(t *testing.T) {
	s := newValidationService(t)

	for _, req := range []CreatePolicyRequest{
		{OrgUnitID: "not-a-uuid", LeaveTypeID: uuid.NewString(), AllocationDaysPerYear: "12", AccrualFrequency: FrequencyMonthly, AccrualAmountPerPeriod: "1"},
		{OrgUnitID: uuid.NewString(), LeaveTypeID: "not-a-uuid", AllocationDaysPerYear: "12", AccrualFrequency: FrequencyMonthly, AccrualAmountPerPeriod: "1"},
	} {
		_, err := s.CreatePolicy(context.Background(), req)
		assert.ErrorIs(t, err, policyerrors.ErrInvalidID)
	}
}

func TestValidateSubmissionIgnoresComments(t *testing.T) {
	s := newValidationService(t)
	lt := &LeaveType{Kind: KindAnnual}

	// Span rules run without looking at comments; date order wins here.
	err := s.ValidateSubmission(user.GenderMale, lt,
		date("2026-03-10"), date("2026-03-09"), date("2026-03-01"))

	assert.ErrorIs(t, err, policyerrors.ErrEndBeforeStart)
}

func TestPoliciesForWalksAncestorChain(t *testing.T) {
	unitID := uuid.New()
	parentID := uuid.New()
	typeID := uuid.New()
	userID := uuid.New()

	var askedUnits []string
	policies := []LeavePolicy{{
		ID:                     uuid.New(),
		OrgUnitID:              parentID,
		LeaveTypeID:            typeID,
		AccrualFrequency:       FrequencyMonthly,
		AccrualAmountPerPeriod: decimal.RequireFromString("1.5"),
		LeaveType:              &LeaveType{ID: typeID, Kind: KindAnnual, Name: "Annual Leave"},
	}}

	s := &service{
		cfg:    testConfig(),
		logger: zap.NewNop(),
		repo: &fakePolicyRepo{
			FindPoliciesForOrgUnitsFn: func(_ context.Context, ids []string) ([]LeavePolicy, error) {
				askedUnits = ids
				return policies, nil
			},
		},
		orgUnits: &fakeOrgUnitRepo{
			AncestorIDsFn: func(_ context.Context, id string) ([]string, error) {
				assert.Equal(t, unitID.String(), id)
				return []string{unitID.String(), parentID.String()}, nil
			},
		},
		users: &fakeUserRepo{
			FindByIDFn: func(_ context.Context, id string) (*user.User, error) {
				return &user.User{ID: userID, OrgUnitID: &unitID}, nil
			},
		},
	}

	got, err := s.PoliciesFor(context.Background(), userID.String())

	assert.NoError(t, err)
	assert.Equal(t, []string{unitID.String(), parentID.String()}, askedUnits)
	assert.Len(t, got, 1)
	assert.Equal(t, "Annual Leave", got[0].LeaveTypeName)
	assert.Equal(t, "1.5", got[0].AmountPerPeriod)
}

func TestPoliciesForUserWithoutOrgUnit(t *testing.T) {
	s := &service{
		cfg:    testConfig(),
		logger: zap.NewNop(),
		users: &fakeUserRepo{
			FindByIDFn: func(_ context.Context, id string) (*user.User, error) {
				return &user.User{ID: uuid.New()}, nil
			},
		},
	}

	got, err := s.PoliciesFor(context.Background(), uuid.NewString())

	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestUsersForPolicyCoversSubtree(t *testing.T) {
	rootID := uuid.New()
	childID := uuid.New()

	s := &service{
		cfg:    testConfig(),
		logger: zap.NewNop(),
		orgUnits: &fakeOrgUnitRepo{
			SubtreeIDsFn: func(_ context.Context, id string) ([]string, error) {
				assert.Equal(t, rootID.String(), id)
				return []string{rootID.String(), childID.String()}, nil
			},
		},
		users: &fakeUserRepo{
			FindActiveInOrgUnitsFn: func(_ context.Context, ids []string) ([]user.User, error) {
				assert.Equal(t, []string{rootID.String(), childID.String()}, ids)
				return []user.User{{ID: uuid.New()}, {ID: uuid.New()}}, nil
			},
		},
	}

	got, err := s.UsersForPolicy(context.Background(), LeavePolicy{OrgUnitID: rootID})

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
