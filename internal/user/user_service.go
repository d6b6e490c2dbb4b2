package user

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"hrflow/internal/audit"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/notification"
	"hrflow/internal/shared/clock"
	usererrors "hrflow/internal/user/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	optionsCacheKey = "users:options"
	optionsCacheTTL = 5 * time.Minute
)

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Invite(ctx context.Context, actorID string, req InviteUserRequest) (UserResponse, error)
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetOptions(ctx context.Context) ([]UserOption, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)
	Deactivate(ctx context.Context, actorID, id string) error
	HardDelete(ctx context.Context, id string) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	outbox   kafka.OutboxRepository
	recorder audit.Recorder
	rdb      *redis.Client
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	outbox kafka.OutboxRepository,
	recorder audit.Recorder,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		outbox:   outbox,
		recorder: recorder,
		rdb:      rdb,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) Invite(ctx context.Context, actorID string, req InviteUserRequest) (UserResponse, error) {
	s.logger.Debug("invite user requested",
		zap.String("actor_id", actorID),
		zap.String("email", req.Email),
		zap.String("role_band", req.RoleBand),
	)

	joinDate, err := clock.ParseDate(req.JoinDate)
	if err != nil {
		return UserResponse{}, usererrors.ErrInvalidJoinDate
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("invite user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	managerID, err := s.resolveManager(ctx, qtx, req.ManagerID, "")
	if err != nil {
		return UserResponse{}, err
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return UserResponse{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, err
	}

	u := &User{
		ID:           uuid.New(),
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		RoleBand:     req.RoleBand,
		RoleTitle:    req.RoleTitle,
		ManagerID:    managerID,
		OrgUnitID:    parseOptionalUUID(req.OrgUnitID),
		JoinDate:     joinDate,
		Active:       true,
	}

	if err := qtx.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return UserResponse{}, usererrors.ErrEmailTaken
		}
		s.logger.Error("invite user persist failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := s.emitInvited(ctx, tx, u, tempPassword); err != nil {
		s.logger.Error("invite user emit event failed", zap.Error(err))
		return UserResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("invite user commit failed", zap.Error(err))
		return UserResponse{}, err
	}

	actor := parseOptionalUUID(&actorID)
	s.recorder.Record(ctx, actor, audit.ActionUserInvited, "user", &u.ID, map[string]any{
		"email":     u.Email,
		"role_band": u.RoleBand,
	})

	s.invalidateOptions(ctx)
	s.logger.Info("invite user success", zap.String("user_id", u.ID.String()))
	return mapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx, false)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

// GetOptions serves the lightweight picker list from Redis, collapsing
// concurrent cache misses through singleflight.
func (s *service) GetOptions(ctx context.Context) ([]UserOption, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, optionsCacheKey).Result(); err == nil {
			var opts []UserOption
			if err := json.Unmarshal([]byte(cached), &opts); err == nil {
				return opts, nil
			}
		}
	}

	v, err, _ := s.sf.Do(optionsCacheKey, func() (interface{}, error) {
		users, err := s.repo.FindAll(ctx, true)
		if err != nil {
			return nil, err
		}
		opts := make([]UserOption, len(users))
		for i, u := range users {
			opts[i] = UserOption{ID: u.ID.String(), FullName: u.FullName}
		}
		if s.rdb != nil {
			if b, err := json.Marshal(opts); err == nil {
				s.rdb.Set(ctx, optionsCacheKey, b, optionsCacheTTL)
			}
		}
		return opts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]UserOption), nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}
	return mapToResponse(*u), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	u, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserResponse{}, usererrors.ErrUserNotFound
		}
		return UserResponse{}, err
	}

	managerID, err := s.resolveManager(ctx, qtx, req.ManagerID, id)
	if err != nil {
		return UserResponse{}, err
	}

	u.FullName = req.FullName
	u.Gender = req.Gender
	u.RoleBand = req.RoleBand
	u.RoleTitle = req.RoleTitle
	u.ManagerID = managerID
	u.OrgUnitID = parseOptionalUUID(req.OrgUnitID)

	if err := qtx.Update(ctx, u); err != nil {
		s.logger.Error("update user persist failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return UserResponse{}, err
	}

	s.invalidateOptions(ctx)
	return mapToResponse(*u), nil
}

func (s *service) Deactivate(ctx context.Context, actorID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return usererrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	u, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return usererrors.ErrUserNotFound
		}
		return err
	}

	u.Active = false
	if err := qtx.Update(ctx, u); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	actor := parseOptionalUUID(&actorID)
	s.recorder.Record(ctx, actor, audit.ActionUserDeactivated, "user", &u.ID, nil)
	s.invalidateOptions(ctx)
	return nil
}

func (s *service) HardDelete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return usererrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	hasRequests, err := qtx.HasRequests(ctx, id)
	if err != nil {
		return err
	}
	if hasRequests {
		return usererrors.ErrUserHasRequests
	}

	if err := qtx.HardDelete(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.invalidateOptions(ctx)
	return nil
}

func (s *service) resolveManager(ctx context.Context, qtx Repository, raw *string, selfID string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(*raw)
	if err != nil {
		return nil, usererrors.ErrInvalidUserID
	}
	if selfID != "" && parsed.String() == selfID {
		return nil, usererrors.ErrSelfManager
	}
	if _, err := qtx.FindByID(ctx, parsed.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrManagerNotFound
		}
		return nil, err
	}
	return &parsed, nil
}

func (s *service) emitInvited(ctx context.Context, tx *sql.Tx, u *User, tempPassword string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(notification.Event{
		EventType:  notification.EventUserInvited,
		Recipient:  u.Email,
		Subject:    "Welcome to the HR portal",
		Body:       "An account has been created for " + u.FullName + ". Temporary password: " + tempPassword,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: "user",
		AggregateID:   u.ID.String(),
		EventType:     notification.EventUserInvited,
		Topic:         notification.Topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) invalidateOptions(ctx context.Context) {
	if s.rdb != nil {
		s.rdb.Del(ctx, optionsCacheKey)
	}
}

func generateTempPassword() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func parseOptionalUUID(raw *string) *uuid.UUID {
	if raw == nil || *raw == "" {
		return nil
	}
	parsed, err := uuid.Parse(*raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FullName:  u.FullName,
		Gender:    u.Gender,
		RoleBand:  u.RoleBand,
		RoleTitle: u.RoleTitle,
		JoinDate:  clock.FormatDate(u.JoinDate),
		Active:    u.Active,
	}
	if u.ManagerID != nil {
		v := u.ManagerID.String()
		resp.ManagerID = &v
	}
	if u.OrgUnitID != nil {
		v := u.OrgUnitID.String()
		resp.OrgUnitID = &v
	}
	return resp
}

func mapToListResponse(users []User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp
}
