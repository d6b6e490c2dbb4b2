package actiontoken

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

//go:generate mockgen -source=actiontoken_repo.go -destination=mock/actiontoken_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, t *ActionToken) error
	// FindByTokenForUpdate locks the row so concurrent redemptions of the
	// same token serialize; the loser sees used_at set.
	FindByTokenForUpdate(ctx context.Context, token string) (*ActionToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) Create(ctx context.Context, t *ActionToken) error {
	query := `
        INSERT INTO action_tokens (
            id, pair_id, token, action, resource_type, resource_id, approver_id, expires_at, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		t.ID, t.PairID, t.Token, t.Action,
		t.ResourceType, t.ResourceID, t.ApproverID, t.ExpiresAt,
	)
	return err
}

func (r *repository) FindByTokenForUpdate(ctx context.Context, token string) (*ActionToken, error) {
	query := `
        SELECT id, pair_id, token, action, resource_type, resource_id, approver_id, expires_at, used_at
        FROM action_tokens
        WHERE token = $1
        FOR UPDATE
    `
	var t ActionToken
	err := r.execer().QueryRowContext(ctx, query, token).Scan(
		&t.ID, &t.PairID, &t.Token, &t.Action,
		&t.ResourceType, &t.ResourceID, &t.ApproverID, &t.ExpiresAt, &t.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkUsed consumes a single token. Its sibling stays live; a later
// redemption of the sibling fails at the request state guard instead.
func (r *repository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `UPDATE action_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`
	_, err := r.execer().ExecContext(ctx, query, usedAt, id)
	return err
}

// DeleteExpired garbage-collects tokens past their expiry. Run by the
// daily maintenance job.
func (r *repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM action_tokens WHERE expires_at < $1`
	res, err := r.execer().ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
