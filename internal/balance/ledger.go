package balance

import (
	"context"
	"database/sql"

	balanceerrors "hrflow/internal/balance/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the only way balances change. Callers that mutate state as
// part of a larger unit of work bind it to their transaction first, so
// the debit or credit commits and rolls back with the request row.
type Ledger struct {
	repo   Repository
	logger *zap.Logger
}

func NewLedger(repo Repository, logger ...*zap.Logger) *Ledger {
	l := zap.L().Named("balance.ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.ledger")
	}
	return &Ledger{repo: repo, logger: l}
}

func (l *Ledger) WithTx(tx *sql.Tx) *Ledger {
	return &Ledger{repo: l.repo.WithTx(tx), logger: l.logger}
}

func (l *Ledger) Read(ctx context.Context, userID, leaveTypeID uuid.UUID) (decimal.Decimal, error) {
	b, err := l.repo.Get(ctx, userID, leaveTypeID)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return b.Days, nil
}

func (l *Ledger) ListForUser(ctx context.Context, userID uuid.UUID) ([]Balance, error) {
	return l.repo.ListForUser(ctx, userID)
}

// Debit removes days from a balance, refusing to take it below zero.
func (l *Ledger) Debit(ctx context.Context, userID, leaveTypeID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, balanceerrors.ErrNegativeAmount
	}

	b, err := l.repo.GetForUpdate(ctx, userID, leaveTypeID)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := b.Days.Sub(amount)
	if remaining.IsNegative() {
		return b.Days, balanceerrors.ErrInsufficientBalance
	}

	if err := l.repo.SetDays(ctx, b.ID, remaining); err != nil {
		return decimal.Zero, err
	}

	l.logger.Info("balance debited",
		zap.String("user_id", userID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.String("amount", amount.String()),
		zap.String("remaining", remaining.String()),
	)
	return remaining, nil
}

// Credit adds days to a balance, creating the row when absent.
func (l *Ledger) Credit(ctx context.Context, userID, leaveTypeID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, balanceerrors.ErrNegativeAmount
	}

	b, err := l.repo.GetForUpdate(ctx, userID, leaveTypeID)
	if err != nil {
		return decimal.Zero, err
	}

	total := b.Days.Add(amount)
	if err := l.repo.SetDays(ctx, b.ID, total); err != nil {
		return decimal.Zero, err
	}

	l.logger.Info("balance credited",
		zap.String("user_id", userID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.String("amount", amount.String()),
		zap.String("total", total.String()),
	)
	return total, nil
}

// Set overwrites a balance to an absolute value. Used by the anniversary
// reset, the carry-forward clamp and manual adjustments.
func (l *Ledger) Set(ctx context.Context, userID, leaveTypeID uuid.UUID, days decimal.Decimal) (decimal.Decimal, error) {
	if days.IsNegative() {
		return decimal.Zero, balanceerrors.ErrNegativeBalance
	}

	b, err := l.repo.GetForUpdate(ctx, userID, leaveTypeID)
	if err != nil {
		return decimal.Zero, err
	}
	if err := l.repo.SetDays(ctx, b.ID, days); err != nil {
		return decimal.Zero, err
	}
	return days, nil
}
