package wfh

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=wfh_repo.go -destination=mock/wfh_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, r *WFHRequest) error
	FindByID(ctx context.Context, id string) (*WFHRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*WFHRequest, error)
	ListForUser(ctx context.Context, userID string) ([]WFHRequest, error)
	ListPendingForManager(ctx context.Context, managerID string) ([]WFHRequest, error)
	ListAll(ctx context.Context, status string) ([]WFHRequest, error)

	HasDuplicate(ctx context.Context, userID uuid.UUID, start, end time.Time) (bool, error)
	MarkDecided(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error
	UpdateComments(ctx context.Context, id uuid.UUID, comments string) error

	FindStalePending(ctx context.Context, olderThan time.Time) ([]WFHRequest, error)
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
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
	return r.sqlDB
}

const requestColumns = `id, user_id, start_date, end_date, status, comments, approval_note, applied_at, decision_at, decided_by`

func (r *repository) Create(ctx context.Context, req *WFHRequest) error {
	_, err := r.execer().ExecContext(ctx, `
		INSERT INTO wfh_requests (id, user_id, start_date, end_date, status, comments, applied_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		req.ID, req.UserID, req.StartDate, req.EndDate, req.Status, req.Comments, req.AppliedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*WFHRequest, error) {
	var req WFHRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*WFHRequest, error) {
	row := r.execer().QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM wfh_requests WHERE id = $1 FOR UPDATE`, id)
	return scanRequest(row)
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]WFHRequest, error) {
	var requests []WFHRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListPendingForManager(ctx context.Context, managerID string) ([]WFHRequest, error) {
	var requests []WFHRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = wfh_requests.user_id").
		Where("users.manager_id = ? AND wfh_requests.status = ?", managerID, StatusPending).
		Order("wfh_requests.applied_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) ListAll(ctx context.Context, status string) ([]WFHRequest, error) {
	var requests []WFHRequest
	q := r.db.WithContext(ctx).Preload("User").Order("applied_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&requests).Error
	return requests, err
}

func (r *repository) HasDuplicate(ctx context.Context, userID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := r.execer().QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM wfh_requests
			WHERE user_id = $1 AND start_date = $2 AND end_date = $3
			  AND status NOT IN ($4, $5)
		)`,
		userID, start, end, StatusRejected, StatusCancelled,
	).Scan(&exists)
	return exists, err
}

func (r *repository) MarkDecided(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error {
	res, err := r.execer().ExecContext(ctx, `
		UPDATE wfh_requests
		SET status = $2, decided_by = $3, decision_at = $4, approval_note = $5, updated_at = now()
		WHERE id = $1 AND status = $6`,
		id, status, decidedBy, decisionAt, note, StatusPending,
	)
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

func (r *repository) UpdateComments(ctx context.Context, id uuid.UUID, comments string) error {
	res, err := r.execer().ExecContext(ctx, `
		UPDATE wfh_requests SET comments = $2, updated_at = now() WHERE id = $1`,
		id, comments,
	)
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

func (r *repository) FindStalePending(ctx context.Context, olderThan time.Time) ([]WFHRequest, error) {
	var requests []WFHRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND applied_at < ?", StatusPending, olderThan).
		Find(&requests).Error
	return requests, err
}

func scanRequest(row *sql.Row) (*WFHRequest, error) {
	var req WFHRequest
	err := row.Scan(
		&req.ID, &req.UserID, &req.StartDate, &req.EndDate, &req.Status,
		&req.Comments, &req.ApprovalNote, &req.AppliedAt, &req.DecisionAt, &req.DecidedBy,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
