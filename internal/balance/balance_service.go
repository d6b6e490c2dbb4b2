package balance

import (
	"context"
	"database/sql"

	"hrflow/internal/audit"
	balanceerrors "hrflow/internal/balance/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	ListForUser(ctx context.Context, userID string) ([]BalanceResponse, error)
	// Adjust sets a user's balance to an absolute value. HR only, audited.
	Adjust(ctx context.Context, actorID string, req AdjustBalanceRequest) (BalanceResponse, error)
}

type service struct {
	db      *sql.DB
	ledger  *Ledger
	auditor audit.Recorder
	logger  *zap.Logger
}

func NewService(db *sql.DB, ledger *Ledger, auditor audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{db: db, ledger: ledger, auditor: auditor, logger: l}
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]BalanceResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, balanceerrors.ErrInvalidID
	}

	balances, err := s.ledger.ListForUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = BalanceResponse{
			UserID:      b.UserID.String(),
			LeaveTypeID: b.LeaveTypeID.String(),
			Days:        b.Days.StringFixed(2),
		}
	}
	return out, nil
}

func (s *service) Adjust(ctx context.Context, actorID string, req AdjustBalanceRequest) (BalanceResponse, error) {
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidID
	}
	uid := uuid.MustParse(req.UserID)
	typeID := uuid.MustParse(req.LeaveTypeID)

	days, err := decimal.NewFromString(req.Days)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	set, err := s.ledger.WithTx(tx).Set(ctx, uid, typeID, days)
	if err != nil {
		return BalanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return BalanceResponse{}, err
	}

	s.auditor.Record(ctx, &actor, audit.ActionBalanceAdjusted, "balance", &uid, map[string]any{
		"leave_type_id": req.LeaveTypeID,
		"days":          set.StringFixed(2),
		"reason":        req.Reason,
	})

	s.logger.Info("balance adjusted",
		zap.String("actor_id", actorID),
		zap.String("user_id", req.UserID),
		zap.String("days", set.StringFixed(2)),
	)
	return BalanceResponse{
		UserID:      req.UserID,
		LeaveTypeID: req.LeaveTypeID,
		Days:        set.StringFixed(2),
	}, nil
}
