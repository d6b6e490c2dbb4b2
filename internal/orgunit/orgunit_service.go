package orgunit

import (
	"context"
	"database/sql"
	"errors"

	orguniterrors "hrflow/internal/orgunit/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=orgunit_service.go -destination=mock/orgunit_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateOrgUnitRequest) (OrgUnitResponse, error)
	GetAll(ctx context.Context) ([]OrgUnitResponse, error)
	GetByID(ctx context.Context, id string) (OrgUnitResponse, error)
	Update(ctx context.Context, id string, req UpdateOrgUnitRequest) (OrgUnitResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("orgunit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("orgunit.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, req CreateOrgUnitRequest) (OrgUnitResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OrgUnitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	parentID, err := s.resolveParent(ctx, qtx, req.ParentID)
	if err != nil {
		return OrgUnitResponse{}, err
	}

	unit := &OrgUnit{
		ID:       uuid.New(),
		Name:     req.Name,
		ParentID: parentID,
	}

	if err := qtx.Create(ctx, unit); err != nil {
		s.logger.Error("create org unit persist failed", zap.Error(err))
		return OrgUnitResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return OrgUnitResponse{}, err
	}

	s.logger.Info("create org unit success", zap.String("org_unit_id", unit.ID.String()))
	return mapToResponse(*unit), nil
}

func (s *service) GetAll(ctx context.Context) ([]OrgUnitResponse, error) {
	units, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(units), nil
}

func (s *service) GetByID(ctx context.Context, id string) (OrgUnitResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return OrgUnitResponse{}, orguniterrors.ErrInvalidUnitID
	}
	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrgUnitResponse{}, orguniterrors.ErrUnitNotFound
		}
		return OrgUnitResponse{}, err
	}
	return mapToResponse(*unit), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateOrgUnitRequest) (OrgUnitResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return OrgUnitResponse{}, orguniterrors.ErrInvalidUnitID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return OrgUnitResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	unit, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrgUnitResponse{}, orguniterrors.ErrUnitNotFound
		}
		return OrgUnitResponse{}, err
	}

	parentID, err := s.resolveParent(ctx, qtx, req.ParentID)
	if err != nil {
		return OrgUnitResponse{}, err
	}

	// A unit may not move under its own subtree.
	if parentID != nil {
		subtree, err := qtx.SubtreeIDs(ctx, id)
		if err != nil {
			return OrgUnitResponse{}, err
		}
		for _, sid := range subtree {
			if sid == parentID.String() {
				s.logger.Warn("update org unit cycle detected",
					zap.String("org_unit_id", id),
					zap.String("parent_id", parentID.String()),
				)
				return OrgUnitResponse{}, orguniterrors.ErrCycleDetected
			}
		}
	}

	unit.Name = req.Name
	unit.ParentID = parentID

	if err := qtx.Update(ctx, unit); err != nil {
		s.logger.Error("update org unit persist failed", zap.String("org_unit_id", id), zap.Error(err))
		return OrgUnitResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return OrgUnitResponse{}, err
	}

	return mapToResponse(*unit), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return orguniterrors.ErrInvalidUnitID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	hasChildren, err := qtx.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return orguniterrors.ErrUnitHasChildren
	}

	if err := qtx.Delete(ctx, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *service) resolveParent(ctx context.Context, qtx Repository, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*raw)
	if err != nil {
		return nil, orguniterrors.ErrInvalidUnitID
	}
	if _, err := qtx.FindByID(ctx, parsed.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orguniterrors.ErrParentNotFound
		}
		return nil, err
	}
	return &parsed, nil
}

func mapToResponse(u OrgUnit) OrgUnitResponse {
	resp := OrgUnitResponse{
		ID:   u.ID.String(),
		Name: u.Name,
	}
	if u.ParentID != nil {
		v := u.ParentID.String()
		resp.ParentID = &v
	}
	return resp
}

func mapToListResponse(units []OrgUnit) []OrgUnitResponse {
	resp := make([]OrgUnitResponse, len(units))
	for i, u := range units {
		resp[i] = mapToResponse(u)
	}
	return resp
}
