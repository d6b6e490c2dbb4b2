package audit

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context, limit, offset int) ([]Record, int64, error)
	ListByResource(ctx context.Context, resourceType, resourceID string) ([]Record, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, rec *Record) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Record, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Record{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recs []Record
	err := r.db.WithContext(ctx).
		Order("created_at DESC NULLS LAST").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	return recs, total, err
}

func (r *repository) ListByResource(ctx context.Context, resourceType, resourceID string) ([]Record, error) {
	var recs []Record
	err := r.db.WithContext(ctx).
		Where("resource_type = ?", resourceType).
		Where("resource_id = ?", resourceID).
		Order("created_at DESC NULLS LAST").
		Find(&recs).Error
	return recs, err
}
