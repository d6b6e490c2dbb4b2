package user

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *User) error
	FindAll(ctx context.Context, activeOnly bool) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindActiveInOrgUnits(ctx context.Context, orgUnitIDs []string) ([]User, error)
	FindActiveJoinedOn(ctx context.Context, month, day int) ([]User, error)
	Update(ctx context.Context, u *User) error
	HardDelete(ctx context.Context, id string) error
	HasRequests(ctx context.Context, id string) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) FindAll(ctx context.Context, activeOnly bool) ([]User, error) {
	q := r.db.WithContext(ctx).Order("full_name ASC")
	if activeOnly {
		q = q.Where("active = true")
	}
	var users []User
	err := q.Find(&users).Error
	return users, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	return &u, err
}

// FindActiveInOrgUnits returns active users whose org unit is in the given
// id set. The accrual jobs feed this with a policy's subtree.
func (r *repository) FindActiveInOrgUnits(ctx context.Context, orgUnitIDs []string) ([]User, error) {
	if len(orgUnitIDs) == 0 {
		return nil, nil
	}
	var users []User
	err := r.db.WithContext(ctx).
		Where("active = true").
		Where("org_unit_id IN ?", orgUnitIDs).
		Find(&users).Error
	return users, err
}

func (r *repository) FindActiveJoinedOn(ctx context.Context, month, day int) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Where("active = true").
		Where("EXTRACT(MONTH FROM join_date) = ?", month).
		Where("EXTRACT(DAY FROM join_date) = ?", day).
		Find(&users).Error
	return users, err
}

func (r *repository) Update(ctx context.Context, u *User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *repository) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&User{}, "id = ?", id).Error
}

// HasRequests reports whether any leave or WFH request references the
// user. Hard delete is refused while any remain.
func (r *repository) HasRequests(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT (SELECT count(*) FROM leave_requests WHERE user_id = @id)
		     + (SELECT count(*) FROM wfh_requests WHERE user_id = @id)
	`, sql.Named("id", id)).Scan(&count).Error
	return count > 0, err
}
