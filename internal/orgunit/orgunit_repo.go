package orgunit

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=orgunit_repo.go -destination=mock/orgunit_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, u *OrgUnit) error
	FindAll(ctx context.Context) ([]OrgUnit, error)
	FindByID(ctx context.Context, id string) (*OrgUnit, error)
	Update(ctx context.Context, u *OrgUnit) error
	Delete(ctx context.Context, id string) error
	SubtreeIDs(ctx context.Context, rootID string) ([]string, error)
	AncestorIDs(ctx context.Context, unitID string) ([]string, error)
	HasChildren(ctx context.Context, id string) (bool, error)
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

func (r *repository) Create(ctx context.Context, u *OrgUnit) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *repository) FindAll(ctx context.Context) ([]OrgUnit, error) {
	var units []OrgUnit
	err := r.db.WithContext(ctx).Order("name ASC").Find(&units).Error
	return units, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*OrgUnit, error) {
	var u OrgUnit
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) Update(ctx context.Context, u *OrgUnit) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&OrgUnit{}, "id = ?", id).Error
}

// SubtreeIDs returns the ids of the subtree rooted at rootID, root
// included. This closure is what makes a leave policy apply to a user.
func (r *repository) SubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE subtree AS (
			SELECT id FROM org_units WHERE id = ? AND deleted_at IS NULL
			UNION ALL
			SELECT o.id FROM org_units o
			JOIN subtree s ON o.parent_id = s.id
			WHERE o.deleted_at IS NULL
		)
		SELECT id FROM subtree
	`, rootID).Scan(&ids).Error
	return ids, err
}

// AncestorIDs returns the chain from unitID up to its root, unit included.
func (r *repository) AncestorIDs(ctx context.Context, unitID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Raw(`
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id FROM org_units WHERE id = ? AND deleted_at IS NULL
			UNION ALL
			SELECT o.id, o.parent_id FROM org_units o
			JOIN ancestors a ON o.id = a.parent_id
			WHERE o.deleted_at IS NULL
		)
		SELECT id FROM ancestors
	`, unitID).Scan(&ids).Error
	return ids, err
}

func (r *repository) HasChildren(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrgUnit{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count > 0, err
}
