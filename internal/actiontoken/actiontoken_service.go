package actiontoken

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"

	actiontokenerrors "hrflow/internal/actiontoken/errors"
	"hrflow/internal/audit"
	"hrflow/internal/config"
	"hrflow/internal/shared/clock"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transitioner applies an approve or reject decision to a request inside
// the redemption transaction. Request modules register one per resource
// type at startup.
type Transitioner interface {
	DecideInTx(ctx context.Context, tx *sql.Tx, resourceID, approverID uuid.UUID, action string) error
}

type RedeemResult struct {
	Action       string
	ResourceType string
	ResourceID   uuid.UUID
}

//go:generate mockgen -source=actiontoken_service.go -destination=mock/actiontoken_service_mock.go -package=mock
type Service interface {
	Register(resourceType string, t Transitioner)
	// IssuePair writes an approve and a reject token in the caller's
	// transaction and returns them in that order.
	IssuePair(ctx context.Context, tx *sql.Tx, resourceType string, resourceID, approverID uuid.UUID) (string, string, error)
	Redeem(ctx context.Context, rawToken string) (RedeemResult, error)
}

type service struct {
	db            *sql.DB
	repo          Repository
	clk           clock.Clock
	cfg           config.Config
	auditor       audit.Recorder
	transitioners map[string]Transitioner
	logger        *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	clk clock.Clock,
	cfg config.Config,
	auditor audit.Recorder,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("actiontoken.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("actiontoken.service")
	}
	return &service{
		db:            db,
		repo:          repo,
		clk:           clk,
		cfg:           cfg,
		auditor:       auditor,
		transitioners: make(map[string]Transitioner),
		logger:        l,
	}
}

func (s *service) Register(resourceType string, t Transitioner) {
	s.transitioners[resourceType] = t
}

func (s *service) IssuePair(ctx context.Context, tx *sql.Tx, resourceType string, resourceID, approverID uuid.UUID) (string, string, error) {
	pairID := uuid.New()
	expiresAt := s.clk.Now().Add(s.cfg.ActionTokenTTL())
	qtx := s.repo.WithTx(tx)

	tokens := make([]string, 2)
	for i, action := range []string{ActionApprove, ActionReject} {
		raw, err := generateToken()
		if err != nil {
			return "", "", err
		}
		t := &ActionToken{
			ID:           uuid.New(),
			PairID:       pairID,
			Token:        raw,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			ApproverID:   approverID,
			ExpiresAt:    expiresAt,
		}
		if err := qtx.Create(ctx, t); err != nil {
			return "", "", err
		}
		tokens[i] = raw
	}
	return tokens[0], tokens[1], nil
}

func (s *service) Redeem(ctx context.Context, rawToken string) (RedeemResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RedeemResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	t, err := qtx.FindByTokenForUpdate(ctx, rawToken)
	if errors.Is(err, sql.ErrNoRows) {
		return RedeemResult{}, actiontokenerrors.ErrTokenInvalid
	}
	if err != nil {
		return RedeemResult{}, err
	}

	if t.Used() {
		return RedeemResult{}, actiontokenerrors.ErrTokenUsed
	}
	now := s.clk.Now()
	if t.Expired(now.Add(-s.cfg.ClockSkewTolerance)) {
		return RedeemResult{}, actiontokenerrors.ErrTokenExpired
	}

	transitioner, ok := s.transitioners[t.ResourceType]
	if !ok {
		s.logger.Error("no transitioner registered", zap.String("resource_type", t.ResourceType))
		return RedeemResult{}, actiontokenerrors.ErrUnknownResource
	}

	if err := transitioner.DecideInTx(ctx, tx, t.ResourceID, t.ApproverID, t.Action); err != nil {
		return RedeemResult{}, err
	}

	if err := qtx.MarkUsed(ctx, t.ID, now); err != nil {
		return RedeemResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return RedeemResult{}, err
	}

	approver := t.ApproverID
	resource := t.ResourceID
	s.auditor.Record(ctx, &approver, audit.ActionTokenRedeemed, t.ResourceType, &resource, map[string]any{
		"action": t.Action,
	})

	s.logger.Info("token redeemed",
		zap.String("resource_type", t.ResourceType),
		zap.String("resource_id", t.ResourceID.String()),
		zap.String("action", t.Action),
	)
	return RedeemResult{Action: t.Action, ResourceType: t.ResourceType, ResourceID: t.ResourceID}, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
