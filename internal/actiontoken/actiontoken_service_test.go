package actiontoken

import (
	"context"
	"database/sql"
	"testing"
	"time"

	actiontokenerrors "hrflow/internal/actiontoken/errors"
	"hrflow/internal/audit"
	"hrflow/internal/config"
	"hrflow/internal/shared/clock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeRepo struct {
	CreateFn               func(ctx context.Context, t *ActionToken) error
	FindByTokenForUpdateFn func(ctx context.Context, token string) (*ActionToken, error)
	MarkUsedFn             func(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	DeleteExpiredFn        func(ctx context.Context, before time.Time) (int64, error)
}

func (f *fakeRepo) WithTx(tx *sql.Tx) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, t *ActionToken) error {
	return f.CreateFn(ctx, t)
}

func (f *fakeRepo) FindByTokenForUpdate(ctx context.Context, token string) (*ActionToken, error) {
	return f.FindByTokenForUpdateFn(ctx, token)
}

func (f *fakeRepo) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	return f.MarkUsedFn(ctx, id, usedAt)
}

func (f *fakeRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return f.DeleteExpiredFn(ctx, before)
}

type fakeTransitioner struct {
	decideFn func(ctx context.Context, tx *sql.Tx, resourceID, approverID uuid.UUID, action string) error
}

func (f *fakeTransitioner) DecideInTx(ctx context.Context, tx *sql.Tx, resourceID, approverID uuid.UUID, action string) error {
	return f.decideFn(ctx, tx, resourceID, approverID, action)
}

func testService(t *testing.T, repo Repository, now time.Time) (Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	svc := NewService(db, repo, clock.NewFixedClock(now), config.Config{ActionTokenTTLHours: 72},
		audit.NopRecorder{}, zap.NewNop())
	return svc, mock, func() { db.Close() }
}

func validToken(now time.Time) *ActionToken {
	return &ActionToken{
		ID:           uuid.New(),
		PairID:       uuid.New(),
		Token:        "tok",
		Action:       ActionApprove,
		ResourceType: "leave_request",
		ResourceID:   uuid.New(),
		ApproverID:   uuid.New(),
		ExpiresAt:    now.Add(time.Hour),
	}
}

func TestIssuePairWritesTwoDistinctTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	mock.ExpectBegin()

	var created []*ActionToken
	repo := &fakeRepo{CreateFn: func(_ context.Context, tok *ActionToken) error {
		created = append(created, tok)
		return nil
	}}
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(db, repo, clock.NewFixedClock(now), config.Config{ActionTokenTTLHours: 72},
		audit.NopRecorder{}, zap.NewNop())

	tx, err := db.Begin()
	assert.NoError(t, err)

	approve, reject, err := svc.IssuePair(context.Background(), tx, "leave_request", uuid.New(), uuid.New())

	assert.NoError(t, err)
	assert.NotEmpty(t, approve)
	assert.NotEmpty(t, reject)
	assert.NotEqual(t, approve, reject)
	assert.Len(t, created, 2)
	assert.Equal(t, ActionApprove, created[0].Action)
	assert.Equal(t, ActionReject, created[1].Action)
	assert.Equal(t, created[0].PairID, created[1].PairID)
	assert.Equal(t, now.Add(72*time.Hour), created[0].ExpiresAt)
}

func TestRedeemAppliesDecisionAndConsumesPair(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tok := validToken(now)

	tokenUsed := false
	repo := &fakeRepo{
		FindByTokenForUpdateFn: func(_ context.Context, raw string) (*ActionToken, error) {
			assert.Equal(t, "tok", raw)
			return tok, nil
		},
		MarkUsedFn: func(_ context.Context, id uuid.UUID, usedAt time.Time) error {
			assert.Equal(t, tok.ID, id)
			assert.Equal(t, now, usedAt)
			tokenUsed = true
			return nil
		},
	}

	svc, mock, closeDB := testService(t, repo, now)
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectCommit()

	decided := false
	svc.Register("leave_request", &fakeTransitioner{
		decideFn: func(_ context.Context, _ *sql.Tx, resourceID, approverID uuid.UUID, action string) error {
			assert.Equal(t, tok.ResourceID, resourceID)
			assert.Equal(t, tok.ApproverID, approverID)
			assert.Equal(t, ActionApprove, action)
			decided = true
			return nil
		},
	})

	result, err := svc.Redeem(context.Background(), "tok")

	assert.NoError(t, err)
	assert.True(t, decided)
	assert.True(t, tokenUsed)
	assert.Equal(t, ActionApprove, result.Action)
	assert.Equal(t, tok.ResourceID, result.ResourceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemUnknownToken(t *testing.T) {
	repo := &fakeRepo{
		FindByTokenForUpdateFn: func(context.Context, string) (*ActionToken, error) {
			return nil, sql.ErrNoRows
		},
	}
	svc, mock, closeDB := testService(t, repo, time.Now())
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Redeem(context.Background(), "nope")

	assert.ErrorIs(t, err, actiontokenerrors.ErrTokenInvalid)
}

func TestRedeemUsedToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tok := validToken(now)
	used := now.Add(-time.Minute)
	tok.UsedAt = &used

	repo := &fakeRepo{
		FindByTokenForUpdateFn: func(context.Context, string) (*ActionToken, error) { return tok, nil },
	}
	svc, mock, closeDB := testService(t, repo, now)
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Redeem(context.Background(), "tok")

	assert.ErrorIs(t, err, actiontokenerrors.ErrTokenUsed)
}

func TestRedeemExpiredToken(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	tok := validToken(now)
	tok.ExpiresAt = now.Add(-time.Second)

	repo := &fakeRepo{
		FindByTokenForUpdateFn: func(context.Context, string) (*ActionToken, error) { return tok, nil },
	}
	svc, mock, closeDB := testService(t, repo, now)
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.Redeem(context.Background(), "tok")

	assert.ErrorIs(t, err, actiontokenerrors.ErrTokenExpired)
}

func TestRedeemDecisionFailureRollsBack(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tok := validToken(now)

	markCalled := false
	repo := &fakeRepo{
		FindByTokenForUpdateFn: func(context.Context, string) (*ActionToken, error) { return tok, nil },
		MarkUsedFn: func(context.Context, uuid.UUID, time.Time) error {
			markCalled = true
			return nil
		},
	}
	svc, mock, closeDB := testService(t, repo, now)
	defer closeDB()
	mock.ExpectBegin()
	mock.ExpectRollback()

	svc.Register("leave_request", &fakeTransitioner{
		decideFn: func(context.Context, *sql.Tx, uuid.UUID, uuid.UUID, string) error {
			return assert.AnError
		},
	})

	_, err := svc.Redeem(context.Background(), "tok")

	assert.Error(t, err)
	assert.False(t, markCalled, "pair must stay live when the decision fails")
	assert.NoError(t, mock.ExpectationsWereMet())
}
