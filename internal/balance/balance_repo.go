package balance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Get(ctx context.Context, userID, leaveTypeID uuid.UUID) (*Balance, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	// Missing rows are created at zero so the lock always has a target.
	GetForUpdate(ctx context.Context, userID, leaveTypeID uuid.UUID) (*Balance, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Balance, error)
	// ListOverCap feeds the year-end carry-forward job: every balance of
	// the given type holding more days than the threshold.
	ListOverCap(ctx context.Context, leaveTypeID uuid.UUID, threshold decimal.Decimal) ([]Balance, error)
	SetDays(ctx context.Context, id uuid.UUID, days decimal.Decimal) error
	// MarkAccrued claims the (policy, user, period) accrual slot. It
	// returns false when the slot was already claimed by an earlier run,
	// which makes re-running an accrual tick a no-op per pair.
	MarkAccrued(ctx context.Context, policyID, userID uuid.UUID, period string, days decimal.Decimal) (bool, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) Get(ctx context.Context, userID, leaveTypeID uuid.UUID) (*Balance, error) {
	query := `
        SELECT id, user_id, leave_type_id, days, created_at, updated_at
        FROM balances
        WHERE user_id = $1 AND leave_type_id = $2
    `
	return scanBalance(r.execer().QueryRowContext(ctx, query, userID, leaveTypeID))
}

func (r *repository) GetForUpdate(ctx context.Context, userID, leaveTypeID uuid.UUID) (*Balance, error) {
	insert := `
        INSERT INTO balances (id, user_id, leave_type_id, days, created_at, updated_at)
        VALUES ($1, $2, $3, 0, now(), now())
        ON CONFLICT (user_id, leave_type_id) DO NOTHING
    `
	if _, err := r.execer().ExecContext(ctx, insert, uuid.New(), userID, leaveTypeID); err != nil {
		return nil, err
	}

	query := `
        SELECT id, user_id, leave_type_id, days, created_at, updated_at
        FROM balances
        WHERE user_id = $1 AND leave_type_id = $2
        FOR UPDATE
    `
	return scanBalance(r.execer().QueryRowContext(ctx, query, userID, leaveTypeID))
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Balance, error) {
	query := `
        SELECT id, user_id, leave_type_id, days, created_at, updated_at
        FROM balances
        WHERE user_id = $1
        ORDER BY created_at ASC
    `
	rows, err := r.execer().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		var days string
		if err := rows.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &days, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Days, err = decimal.NewFromString(days); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) ListOverCap(ctx context.Context, leaveTypeID uuid.UUID, threshold decimal.Decimal) ([]Balance, error) {
	query := `
        SELECT id, user_id, leave_type_id, days, created_at, updated_at
        FROM balances
        WHERE leave_type_id = $1 AND days > $2
    `
	rows, err := r.execer().QueryContext(ctx, query, leaveTypeID, threshold.StringFixed(2))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		var days string
		if err := rows.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &days, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if b.Days, err = decimal.NewFromString(days); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) SetDays(ctx context.Context, id uuid.UUID, days decimal.Decimal) error {
	query := `UPDATE balances SET days = $1, updated_at = now() WHERE id = $2`
	res, err := r.execer().ExecContext(ctx, query, days.StringFixed(2), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repository) MarkAccrued(ctx context.Context, policyID, userID uuid.UUID, period string, days decimal.Decimal) (bool, error) {
	query := `
        INSERT INTO accrual_log (policy_id, user_id, period, credited_days)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (policy_id, user_id, period) DO NOTHING
    `
	res, err := r.execer().ExecContext(ctx, query, policyID, userID, period, days.StringFixed(2))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanBalance(row *sql.Row) (*Balance, error) {
	var b Balance
	var days string
	err := row.Scan(&b.ID, &b.UserID, &b.LeaveTypeID, &days, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if b.Days, err = decimal.NewFromString(days); err != nil {
		return nil, err
	}
	return &b, nil
}
