package scheduler

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"hrflow/internal/audit"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	"hrflow/internal/leave"
	"hrflow/internal/orgunit"
	"hrflow/internal/policy"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
	"hrflow/internal/wfh"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memBalanceRepo struct {
	mu      sync.Mutex
	rows    map[string]*balance.Balance
	accrued map[string]bool
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{
		rows:    make(map[string]*balance.Balance),
		accrued: make(map[string]bool),
	}
}

func balKey(userID, typeID uuid.UUID) string { return userID.String() + "|" + typeID.String() }

func (m *memBalanceRepo) seed(userID, typeID uuid.UUID, days string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[balKey(userID, typeID)] = &balance.Balance{
		ID: uuid.New(), UserID: userID, LeaveTypeID: typeID,
		Days: decimal.RequireFromString(days),
	}
}

func (m *memBalanceRepo) days(userID, typeID uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.rows[balKey(userID, typeID)]; ok {
		return b.Days
	}
	return decimal.Zero
}

func (m *memBalanceRepo) WithTx(tx *sql.Tx) balance.Repository { return m }

func (m *memBalanceRepo) Get(_ context.Context, userID, typeID uuid.UUID) (*balance.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.rows[balKey(userID, typeID)]; ok {
		return b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memBalanceRepo) GetForUpdate(_ context.Context, userID, typeID uuid.UUID) (*balance.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balKey(userID, typeID)
	if _, ok := m.rows[key]; !ok {
		m.rows[key] = &balance.Balance{ID: uuid.New(), UserID: userID, LeaveTypeID: typeID, Days: decimal.Zero}
	}
	return m.rows[key], nil
}

func (m *memBalanceRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]balance.Balance, error) {
	return nil, nil
}

func (m *memBalanceRepo) ListOverCap(_ context.Context, typeID uuid.UUID, threshold decimal.Decimal) ([]balance.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []balance.Balance
	for _, b := range m.rows {
		if b.LeaveTypeID == typeID && b.Days.GreaterThan(threshold) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBalanceRepo) SetDays(_ context.Context, id uuid.UUID, days decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.ID == id {
			b.Days = days
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memBalanceRepo) MarkAccrued(_ context.Context, policyID, userID uuid.UUID, period string, _ decimal.Decimal) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := policyID.String() + "|" + userID.String() + "|" + period
	if m.accrued[key] {
		return false, nil
	}
	m.accrued[key] = true
	return true, nil
}

type memLeaveRepo struct {
	leave.Repository
	mu   sync.Mutex
	rows map[uuid.UUID]*leave.LeaveRequest
}

func newMemLeaveRepo() *memLeaveRepo {
	return &memLeaveRepo{rows: make(map[uuid.UUID]*leave.LeaveRequest)}
}

func (m *memLeaveRepo) add(r *leave.LeaveRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
}

func (m *memLeaveRepo) WithTx(tx *sql.Tx) leave.Repository { return m }

func (m *memLeaveRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memLeaveRepo) MarkDecided(_ context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != leave.StatusPending {
		return sql.ErrNoRows
	}
	r.Status = status
	r.DecidedBy = &decidedBy
	r.DecisionAt = &decisionAt
	r.ApprovalNote = note
	return nil
}

func (m *memLeaveRepo) FindStalePending(_ context.Context, olderThan time.Time) ([]leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range m.rows {
		if r.Status == leave.StatusPending && r.AppliedAt.Before(olderThan) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memLeaveRepo) FindUndocumentedSickPending(_ context.Context, sickTypeID uuid.UUID, olderThan time.Time) ([]leave.LeaveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range m.rows {
		if r.LeaveTypeID == sickTypeID && r.Status == leave.StatusPending &&
			r.DocumentURL == nil && r.AppliedAt.Before(olderThan) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type memWFHRepo struct {
	wfh.Repository
	mu   sync.Mutex
	rows map[uuid.UUID]*wfh.WFHRequest
}

func newMemWFHRepo() *memWFHRepo {
	return &memWFHRepo{rows: make(map[uuid.UUID]*wfh.WFHRequest)}
}

func (m *memWFHRepo) add(r *wfh.WFHRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
}

func (m *memWFHRepo) WithTx(tx *sql.Tx) wfh.Repository { return m }

func (m *memWFHRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*wfh.WFHRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memWFHRepo) MarkDecided(_ context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.Status != wfh.StatusPending {
		return sql.ErrNoRows
	}
	r.Status = status
	r.DecidedBy = &decidedBy
	r.DecisionAt = &decisionAt
	r.ApprovalNote = note
	return nil
}

func (m *memWFHRepo) FindStalePending(_ context.Context, olderThan time.Time) ([]wfh.WFHRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []wfh.WFHRequest
	for _, r := range m.rows {
		if r.Status == wfh.StatusPending && r.AppliedAt.Before(olderThan) {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakePolicyService struct {
	policy.Service
	UsersForPolicyFn func(ctx context.Context, p policy.LeavePolicy) ([]user.User, error)
}

func (f *fakePolicyService) UsersForPolicy(ctx context.Context, p policy.LeavePolicy) ([]user.User, error) {
	return f.UsersForPolicyFn(ctx, p)
}

type fakeCatalog struct {
	policy.Repository
	byFrequency map[string][]policy.LeavePolicy
	byKind      map[string]*policy.LeaveType
	byID        map[uuid.UUID]*policy.LeaveType
	forOrgUnits func(orgUnitIDs []string) []policy.LeavePolicy
}

func (f *fakeCatalog) FindPoliciesByFrequency(_ context.Context, frequency string) ([]policy.LeavePolicy, error) {
	return f.byFrequency[frequency], nil
}

func (f *fakeCatalog) FindLeaveTypeByKind(_ context.Context, kind string) (*policy.LeaveType, error) {
	if t, ok := f.byKind[kind]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCatalog) FindLeaveTypeByID(_ context.Context, id string) (*policy.LeaveType, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	if t, ok := f.byID[parsed]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCatalog) FindPoliciesForOrgUnits(_ context.Context, orgUnitIDs []string) ([]policy.LeavePolicy, error) {
	if f.forOrgUnits == nil {
		return nil, nil
	}
	return f.forOrgUnits(orgUnitIDs), nil
}

type fakeOrgUnits struct {
	orgunit.Repository
	ancestors map[string][]string
}

func (f *fakeOrgUnits) AncestorIDs(_ context.Context, unitID string) ([]string, error) {
	return f.ancestors[unitID], nil
}

type fakeUsers struct {
	user.Repository
	users    map[uuid.UUID]*user.User
	joinedOn []user.User
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*user.User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, sql.ErrNoRows
	}
	if u, ok := f.users[parsed]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) FindActiveJoinedOn(_ context.Context, month, day int) ([]user.User, error) {
	return f.joinedOn, nil
}

type harness struct {
	sched    *Scheduler
	mock     sqlmock.Sqlmock
	balances *memBalanceRepo
	leaves   *memLeaveRepo
	wfhs     *memWFHRepo
	users    *fakeUsers
	catalog  *fakeCatalog
	policies *fakePolicyService
	orgUnits *fakeOrgUnits
	clk      *clock.FixedClock

	annualType *policy.LeaveType
	sickType   *policy.LeaveType
}

func newHarness(t *testing.T, now string) *harness {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	at, err := time.Parse(time.RFC3339, now)
	assert.NoError(t, err)

	h := &harness{
		mock:       mock,
		balances:   newMemBalanceRepo(),
		leaves:     newMemLeaveRepo(),
		wfhs:       newMemWFHRepo(),
		clk:        clock.NewFixedClock(at),
		annualType: &policy.LeaveType{ID: uuid.New(), Kind: policy.KindAnnual, Name: "Annual Leave"},
		sickType:   &policy.LeaveType{ID: uuid.New(), Kind: policy.KindSick, Name: "Sick Leave"},
	}
	h.catalog = &fakeCatalog{
		byFrequency: map[string][]policy.LeavePolicy{},
		byKind: map[string]*policy.LeaveType{
			policy.KindAnnual: h.annualType,
			policy.KindSick:   h.sickType,
		},
		byID: map[uuid.UUID]*policy.LeaveType{
			h.annualType.ID: h.annualType,
			h.sickType.ID:   h.sickType,
		},
	}
	h.users = &fakeUsers{users: map[uuid.UUID]*user.User{}}
	h.orgUnits = &fakeOrgUnits{ancestors: map[string][]string{}}
	h.policies = &fakePolicyService{
		UsersForPolicyFn: func(context.Context, policy.LeavePolicy) ([]user.User, error) { return nil, nil },
	}

	cfg := config.Config{
		StalePendingWeeks:     3,
		SickDocDeadlineHours:  48,
		AnnualCarryForwardCap: 5,
		WeekendDays:           map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
	}

	h.sched = New(db, h.policies, h.catalog, h.orgUnits, h.users,
		balance.NewLedger(h.balances, zap.NewNop()), h.balances,
		h.leaves, h.wfhs, nil, nil, audit.NopRecorder{}, h.clk, cfg, zap.NewNop())
	return h
}

func (h *harness) addUser(u *user.User) { h.users.users[u.ID] = u }

func TestMonthlyAccrualRespectsOrgSubtree(t *testing.T) {
	h := newHarness(t, "2026-02-01T00:00:00Z")

	inSubtree := &user.User{ID: uuid.New(), Email: "eng@corp.test", Active: true}
	outside := &user.User{ID: uuid.New(), Email: "sales@corp.test", Active: true}
	h.addUser(inSubtree)
	h.addUser(outside)

	p := policy.LeavePolicy{
		ID:                     uuid.New(),
		OrgUnitID:              uuid.New(),
		LeaveTypeID:            h.annualType.ID,
		AccrualFrequency:       policy.FrequencyMonthly,
		AccrualAmountPerPeriod: decimal.RequireFromString("1.75"),
	}
	h.catalog.byFrequency[policy.FrequencyMonthly] = []policy.LeavePolicy{p}
	h.policies.UsersForPolicyFn = func(_ context.Context, got policy.LeavePolicy) ([]user.User, error) {
		assert.Equal(t, p.ID, got.ID)
		return []user.User{*inSubtree}, nil
	}

	h.balances.seed(inSubtree.ID, h.annualType.ID, "3.25")

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunMonthlyAccrual(context.Background()))

	assert.True(t, h.balances.days(inSubtree.ID, h.annualType.ID).Equal(decimal.RequireFromString("5")))
	assert.True(t, h.balances.days(outside.ID, h.annualType.ID).IsZero(), "user outside the policy subtree accrues nothing")
}

func TestMonthlyAccrualRepeatedTickCreditsOnce(t *testing.T) {
	h := newHarness(t, "2026-06-01T00:00:00Z")

	u := &user.User{ID: uuid.New(), Email: "eng@corp.test", Active: true}
	h.addUser(u)

	p := policy.LeavePolicy{
		ID:                     uuid.New(),
		OrgUnitID:              uuid.New(),
		LeaveTypeID:            h.annualType.ID,
		AccrualFrequency:       policy.FrequencyMonthly,
		AccrualAmountPerPeriod: decimal.RequireFromString("1.5"),
	}
	h.catalog.byFrequency[policy.FrequencyMonthly] = []policy.LeavePolicy{p}
	h.policies.UsersForPolicyFn = func(context.Context, policy.LeavePolicy) ([]user.User, error) {
		return []user.User{*u}, nil
	}

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunMonthlyAccrual(context.Background()))

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunMonthlyAccrual(context.Background()))

	assert.True(t, h.balances.days(u.ID, h.annualType.ID).Equal(decimal.RequireFromString("1.5")),
		"a re-run within the same period must not credit again")
}

func TestPeriodTagPerFrequency(t *testing.T) {
	at, err := time.Parse(time.RFC3339, "2026-05-17T09:30:00Z")
	assert.NoError(t, err)

	assert.Equal(t, "2026-05", periodTag(policy.FrequencyMonthly, at))
	assert.Equal(t, "2026-Q2", periodTag(policy.FrequencyQuarterly, at))
	assert.Equal(t, "2026", periodTag(policy.FrequencyYearly, at))
}

func TestAccrualNoPoliciesNoTransaction(t *testing.T) {
	h := newHarness(t, "2026-02-01T00:00:00Z")

	assert.NoError(t, h.sched.RunQuarterlyAccrual(context.Background()))
	assert.NoError(t, h.mock.ExpectationsWereMet())
}

func TestAnniversaryResetSetsYearlyAllocation(t *testing.T) {
	h := newHarness(t, "2026-03-15T00:00:00Z")

	unitID := uuid.New()
	u := user.User{ID: uuid.New(), OrgUnitID: &unitID, Active: true}
	h.users.joinedOn = []user.User{u}
	h.orgUnits.ancestors[unitID.String()] = []string{unitID.String()}

	yearly := policy.LeavePolicy{
		ID:                    uuid.New(),
		OrgUnitID:             unitID,
		LeaveTypeID:           h.annualType.ID,
		AccrualFrequency:      policy.FrequencyYearly,
		AllocationDaysPerYear: decimal.RequireFromString("21"),
	}
	monthly := policy.LeavePolicy{
		ID:               uuid.New(),
		OrgUnitID:        unitID,
		LeaveTypeID:      h.sickType.ID,
		AccrualFrequency: policy.FrequencyMonthly,
	}
	h.catalog.forOrgUnits = func([]string) []policy.LeavePolicy {
		return []policy.LeavePolicy{yearly, monthly}
	}

	h.balances.seed(u.ID, h.annualType.ID, "2.5")
	h.balances.seed(u.ID, h.sickType.ID, "4")

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunAnniversaryReset(context.Background()))

	assert.True(t, h.balances.days(u.ID, h.annualType.ID).Equal(decimal.RequireFromString("21")))
	assert.True(t, h.balances.days(u.ID, h.sickType.ID).Equal(decimal.RequireFromString("4")), "monthly policies are not reset")
}

func TestCarryForwardClampBoundaries(t *testing.T) {
	h := newHarness(t, "2026-12-31T00:00:00Z")

	atCap := uuid.New()
	over := uuid.New()
	under := uuid.New()
	h.balances.seed(atCap, h.annualType.ID, "5")
	h.balances.seed(over, h.annualType.ID, "7.5")
	h.balances.seed(under, h.annualType.ID, "3")

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunCarryForward(context.Background()))

	assert.True(t, h.balances.days(atCap, h.annualType.ID).Equal(decimal.RequireFromString("5")))
	assert.True(t, h.balances.days(over, h.annualType.ID).Equal(decimal.RequireFromString("5")))
	assert.True(t, h.balances.days(under, h.annualType.ID).Equal(decimal.RequireFromString("3")))
}

func TestSickDocSweepDebitsAnnualAndApproves(t *testing.T) {
	h := newHarness(t, "2026-07-10T12:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)
	h.balances.seed(owner.ID, h.annualType.ID, "10")
	h.balances.seed(owner.ID, h.sickType.ID, "4")

	req := &leave.LeaveRequest{
		ID:          uuid.New(),
		UserID:      owner.ID,
		LeaveTypeID: h.sickType.ID,
		TotalDays:   2,
		Status:      leave.StatusPending,
		AppliedAt:   h.clk.Now().Add(-72 * time.Hour),
	}
	h.leaves.add(req)

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunSickDocSweep(context.Background()))

	stored, err := h.leaves.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, stored.Status)
	assert.Equal(t, uuid.Nil, *stored.DecidedBy)
	assert.True(t, h.balances.days(owner.ID, h.annualType.ID).Equal(decimal.RequireFromString("8")), "annual bucket pays for the undocumented sick leave")
	assert.True(t, h.balances.days(owner.ID, h.sickType.ID).Equal(decimal.RequireFromString("4")), "sick bucket is untouched")
}

func TestSickDocSweepSkipsDocumented(t *testing.T) {
	h := newHarness(t, "2026-07-10T12:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)
	doc := "https://files.corp.test/cert.pdf"
	req := &leave.LeaveRequest{
		ID:          uuid.New(),
		UserID:      owner.ID,
		LeaveTypeID: h.sickType.ID,
		TotalDays:   2,
		Status:      leave.StatusPending,
		DocumentURL: &doc,
		AppliedAt:   h.clk.Now().Add(-72 * time.Hour),
	}
	h.leaves.add(req)

	assert.NoError(t, h.sched.RunSickDocSweep(context.Background()))

	stored, err := h.leaves.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
}

func TestSickDocSweepLeavesRequestWhenAnnualInsufficient(t *testing.T) {
	h := newHarness(t, "2026-07-10T12:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)
	h.balances.seed(owner.ID, h.annualType.ID, "1")

	req := &leave.LeaveRequest{
		ID:          uuid.New(),
		UserID:      owner.ID,
		LeaveTypeID: h.sickType.ID,
		TotalDays:   3,
		Status:      leave.StatusPending,
		AppliedAt:   h.clk.Now().Add(-72 * time.Hour),
	}
	h.leaves.add(req)

	h.mock.ExpectBegin()
	h.mock.ExpectRollback()
	assert.NoError(t, h.sched.RunSickDocSweep(context.Background()))

	stored, err := h.leaves.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
	assert.True(t, h.balances.days(owner.ID, h.annualType.ID).Equal(decimal.RequireFromString("1")))
}

func TestStaleAutoRejectRestoresLeaveBalance(t *testing.T) {
	h := newHarness(t, "2026-07-10T00:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)
	h.balances.seed(owner.ID, h.annualType.ID, "5")

	req := &leave.LeaveRequest{
		ID:          uuid.New(),
		UserID:      owner.ID,
		LeaveTypeID: h.annualType.ID,
		TotalDays:   4,
		Status:      leave.StatusPending,
		AppliedAt:   h.clk.Now().Add(-22 * 24 * time.Hour),
	}
	h.leaves.add(req)

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunStaleAutoReject(context.Background()))

	stored, err := h.leaves.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, stored.Status)
	assert.True(t, h.balances.days(owner.ID, h.annualType.ID).Equal(decimal.RequireFromString("9")))
}

func TestStaleAutoRejectSkipsFreshRequests(t *testing.T) {
	h := newHarness(t, "2026-07-10T00:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)

	req := &leave.LeaveRequest{
		ID:          uuid.New(),
		UserID:      owner.ID,
		LeaveTypeID: h.annualType.ID,
		TotalDays:   4,
		Status:      leave.StatusPending,
		AppliedAt:   h.clk.Now().Add(-10 * 24 * time.Hour),
	}
	h.leaves.add(req)

	assert.NoError(t, h.sched.RunStaleAutoReject(context.Background()))

	stored, err := h.leaves.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)
}

func TestStaleAutoRejectHandlesWFHWithoutBalance(t *testing.T) {
	h := newHarness(t, "2026-07-10T00:00:00Z")

	owner := &user.User{ID: uuid.New(), Email: "owner@corp.test", Active: true}
	h.addUser(owner)

	req := &wfh.WFHRequest{
		ID:        uuid.New(),
		UserID:    owner.ID,
		Status:    wfh.StatusPending,
		AppliedAt: h.clk.Now().Add(-30 * 24 * time.Hour),
	}
	h.wfhs.add(req)

	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	assert.NoError(t, h.sched.RunStaleAutoReject(context.Background()))

	stored, err := h.wfhs.FindByIDForUpdate(context.Background(), req.ID)
	assert.NoError(t, err)
	assert.Equal(t, wfh.StatusRejected, stored.Status)
}
