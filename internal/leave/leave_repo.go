package leave

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, r *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindByIDForUpdate locks the request row; every transition goes
	// through this so concurrent decisions serialize.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error)
	ListForUser(ctx context.Context, userID string) ([]LeaveRequest, error)
	ListPendingForManager(ctx context.Context, managerID string) ([]LeaveRequest, error)
	ListAll(ctx context.Context, status string) ([]LeaveRequest, error)

	HasDuplicate(ctx context.Context, userID, leaveTypeID uuid.UUID, start, end time.Time) (bool, error)
	MarkDecided(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error
	UpdateComments(ctx context.Context, id uuid.UUID, comments string) error
	AttachDocument(ctx context.Context, id uuid.UUID, url string) error

	FindStalePending(ctx context.Context, olderThan time.Time) ([]LeaveRequest, error)
	FindUndocumentedSickPending(ctx context.Context, sickTypeID uuid.UUID, olderThan time.Time) ([]LeaveRequest, error)
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

func (r *repository) Create(ctx context.Context, req *LeaveRequest) error {
	query := `
        INSERT INTO leave_requests (
            id, user_id, leave_type_id, start_date, end_date, total_days,
            status, comments, applied_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		req.ID, req.UserID, req.LeaveTypeID, req.StartDate, req.EndDate,
		req.TotalDays, req.Status, req.Comments, req.AppliedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("LeaveType").
		First(&req, "id = ?", id).Error
	return &req, err
}

const requestColumns = `
    id, user_id, leave_type_id, start_date, end_date, total_days,
    status, comments, approval_note, document_url, applied_at, decision_at, decided_by
`

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE id = $1 FOR UPDATE`
	return scanRequest(r.execer().QueryRowContext(ctx, query, id))
}

func (r *repository) ListForUser(ctx context.Context, userID string) ([]LeaveRequest, error) {
	var reqs []LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("LeaveType").
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *repository) ListPendingForManager(ctx context.Context, managerID string) ([]LeaveRequest, error) {
	var reqs []LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("LeaveType").
		Joins("JOIN users ON users.id = leave_requests.user_id").
		Where("users.manager_id = ?", managerID).
		Where("leave_requests.status = ?", StatusPending).
		Order("leave_requests.applied_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *repository) ListAll(ctx context.Context, status string) ([]LeaveRequest, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Preload("LeaveType").
		Order("applied_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []LeaveRequest
	err := q.Find(&reqs).Error
	return reqs, err
}

func (r *repository) HasDuplicate(ctx context.Context, userID, leaveTypeID uuid.UUID, start, end time.Time) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM leave_requests
            WHERE user_id = $1 AND leave_type_id = $2
              AND start_date = $3 AND end_date = $4
              AND status NOT IN ($5, $6)
        )
    `
	var exists bool
	err := r.execer().QueryRowContext(ctx, query, userID, leaveTypeID, start, end,
		StatusRejected, StatusCancelled).Scan(&exists)
	return exists, err
}

func (r *repository) MarkDecided(ctx context.Context, id uuid.UUID, status string, decidedBy uuid.UUID, decisionAt time.Time, note *string) error {
	query := `
        UPDATE leave_requests
        SET status = $1, decided_by = $2, decision_at = $3, approval_note = $4, updated_at = now()
        WHERE id = $5 AND status = $6
    `
	res, err := r.execer().ExecContext(ctx, query, status, decidedBy, decisionAt, note, id, StatusPending)
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
	query := `UPDATE leave_requests SET comments = $1, updated_at = now() WHERE id = $2`
	_, err := r.execer().ExecContext(ctx, query, comments, id)
	return err
}

func (r *repository) AttachDocument(ctx context.Context, id uuid.UUID, url string) error {
	query := `UPDATE leave_requests SET document_url = $1, updated_at = now() WHERE id = $2`
	_, err := r.execer().ExecContext(ctx, query, url, id)
	return err
}

func (r *repository) FindStalePending(ctx context.Context, olderThan time.Time) ([]LeaveRequest, error) {
	var reqs []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Where("applied_at < ?", olderThan).
		Find(&reqs).Error
	return reqs, err
}

func (r *repository) FindUndocumentedSickPending(ctx context.Context, sickTypeID uuid.UUID, olderThan time.Time) ([]LeaveRequest, error) {
	var reqs []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("leave_type_id = ?", sickTypeID).
		Where("status = ?", StatusPending).
		Where("document_url IS NULL").
		Where("applied_at < ?", olderThan).
		Find(&reqs).Error
	return reqs, err
}

func scanRequest(row *sql.Row) (*LeaveRequest, error) {
	var req LeaveRequest
	err := row.Scan(
		&req.ID, &req.UserID, &req.LeaveTypeID, &req.StartDate, &req.EndDate,
		&req.TotalDays, &req.Status, &req.Comments, &req.ApprovalNote,
		&req.DocumentURL, &req.AppliedAt, &req.DecisionAt, &req.DecidedBy,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
