package wfh

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/config"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/notification"
	policyerrors "hrflow/internal/policy/errors"
	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"
	wfherrors "hrflow/internal/wfh/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:generate mockgen -source=wfh_service.go -destination=mock/wfh_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, userID string, req SubmitWFHRequest) (WFHResponse, error)
	Approve(ctx context.Context, actorID, id string, note *string) (WFHResponse, error)
	Reject(ctx context.Context, actorID, id string, note *string) (WFHResponse, error)
	Cancel(ctx context.Context, actorID, id string) (WFHResponse, error)
	UpdateComments(ctx context.Context, actorID, id, comments string) error
	GetByID(ctx context.Context, actorID, id string) (WFHResponse, error)
	ListMine(ctx context.Context, userID string) ([]WFHResponse, error)
	ListPendingApprovals(ctx context.Context, actorID string) ([]WFHResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    user.Repository
	tokens   actiontoken.Service
	outbox   kafka.OutboxRepository
	recorder audit.Recorder
	clk      clock.Clock
	cfg      config.Config
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	tokens actiontoken.Service,
	outbox kafka.OutboxRepository,
	recorder audit.Recorder,
	clk clock.Clock,
	cfg config.Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("wfh.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("wfh.service")
	}
	s := &service{
		db:       db,
		repo:     repo,
		users:    users,
		tokens:   tokens,
		outbox:   outbox,
		recorder: recorder,
		clk:      clk,
		cfg:      cfg,
		logger:   l,
	}
	if tokens != nil {
		tokens.Register(ResourceType, &transitioner{s: s})
	}
	return s
}

func (s *service) Submit(ctx context.Context, userID string, req SubmitWFHRequest) (WFHResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidID
	}

	start, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidDate
	}
	end, err := clock.ParseDate(req.EndDate)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidDate
	}

	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return WFHResponse{}, apperror.ErrNotFound
	}

	now := s.clk.Now()
	today := clock.Midnight(now)
	if end.Before(start) {
		return WFHResponse{}, policyerrors.ErrEndBeforeStart
	}
	if clock.CalendarDaysUntil(today, start) < s.cfg.WFHAdvanceNoticeDays {
		return WFHResponse{}, policyerrors.ErrLeadTime
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WFHResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dup, err := qtx.HasDuplicate(ctx, uid, start, end)
	if err != nil {
		return WFHResponse{}, err
	}
	if dup {
		return WFHResponse{}, wfherrors.ErrDuplicateRequest
	}

	request := &WFHRequest{
		ID:        uuid.New(),
		UserID:    uid,
		StartDate: start,
		EndDate:   end,
		Status:    StatusPending,
		Comments:  req.Comments,
		AppliedAt: now,
	}
	if err := qtx.Create(ctx, request); err != nil {
		if isUniqueViolation(err) {
			return WFHResponse{}, wfherrors.ErrDuplicateRequest
		}
		s.logger.Error("submit wfh persist failed", zap.Error(err))
		return WFHResponse{}, err
	}

	if owner.ManagerID != nil {
		if err := s.notifyManager(ctx, tx, request, owner); err != nil {
			s.logger.Error("submit wfh notify manager failed", zap.Error(err))
			return WFHResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return WFHResponse{}, wfherrors.ErrDuplicateRequest
		}
		return WFHResponse{}, err
	}

	s.recorder.Record(ctx, &uid, audit.ActionWFHSubmitted, ResourceType, &request.ID, map[string]any{
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	})

	s.logger.Info("wfh submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("user_id", userID),
	)
	request.User = owner
	return s.mapToResponse(*request), nil
}

func (s *service) Approve(ctx context.Context, actorID, id string, note *string) (WFHResponse, error) {
	return s.decideByActor(ctx, actorID, id, StatusApproved, note)
}

func (s *service) Reject(ctx context.Context, actorID, id string, note *string) (WFHResponse, error) {
	return s.decideByActor(ctx, actorID, id, StatusRejected, note)
}

func (s *service) decideByActor(ctx context.Context, actorID, id string, status string, note *string) (WFHResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidID
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WFHResponse{}, err
	}
	defer tx.Rollback()

	request, err := s.decide(ctx, tx, requestID, actor, status, note)
	if err != nil {
		return WFHResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return WFHResponse{}, err
	}

	s.auditDecision(ctx, actor, request, status)
	return s.mapToResponse(*request), nil
}

// decide runs the same guard order as the leave state machine. No
// balance is touched on any WFH transition.
func (s *service) decide(ctx context.Context, tx *sql.Tx, requestID, actorID uuid.UUID, status string, note *string) (*WFHRequest, error) {
	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wfherrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	if request.Terminal() {
		return nil, wfherrors.ErrInvalidState
	}
	if request.UserID == actorID {
		return nil, wfherrors.ErrSelfDecision
	}

	owner, err := s.users.FindByID(ctx, request.UserID.String())
	if err != nil {
		return nil, err
	}
	actor, err := s.users.FindByID(ctx, actorID.String())
	if err != nil {
		return nil, wfherrors.ErrNotApprover
	}

	isManager := owner.ManagerID != nil && *owner.ManagerID == actor.ID
	if !actor.IsApproverRole() && !isManager {
		s.recorder.Record(ctx, &actorID, audit.ActionPermissionDenied, ResourceType, &request.ID, map[string]any{
			"attempted": status,
		})
		return nil, wfherrors.ErrNotApprover
	}

	now := s.clk.Now()
	if err := qtx.MarkDecided(ctx, request.ID, status, actorID, now, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wfherrors.ErrInvalidState
		}
		return nil, err
	}

	eventType := notification.EventRequestApproved
	subject := "Your WFH request was approved"
	if status == StatusRejected {
		eventType = notification.EventRequestRejected
		subject = "Your WFH request was rejected"
	}
	if err := s.emitEvent(ctx, tx, eventType, request, owner.Email, subject, decisionBody(request, note), "", ""); err != nil {
		return nil, err
	}

	request.Status = status
	request.DecisionAt = &now
	request.DecidedBy = &actorID
	request.ApprovalNote = note
	request.User = owner
	return request, nil
}

func (s *service) Cancel(ctx context.Context, actorID, id string) (WFHResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidID
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WFHResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return WFHResponse{}, wfherrors.ErrRequestNotFound
	}
	if err != nil {
		return WFHResponse{}, err
	}

	if request.UserID != actor {
		return WFHResponse{}, wfherrors.ErrNotOwner
	}
	if request.Terminal() {
		return WFHResponse{}, wfherrors.ErrInvalidState
	}

	now := s.clk.Now()
	if err := qtx.MarkDecided(ctx, request.ID, StatusCancelled, actor, now, nil); err != nil {
		return WFHResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return WFHResponse{}, err
	}

	s.recorder.Record(ctx, &actor, audit.ActionWFHCancelled, ResourceType, &request.ID, nil)

	request.Status = StatusCancelled
	request.DecisionAt = &now
	request.DecidedBy = &actor
	return s.mapToResponse(*request), nil
}

func (s *service) UpdateComments(ctx context.Context, actorID, id, comments string) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return wfherrors.ErrRequestNotFound
	}
	if request.UserID.String() != actorID {
		return wfherrors.ErrNotOwner
	}
	return s.repo.UpdateComments(ctx, request.ID, comments)
}

func (s *service) GetByID(ctx context.Context, actorID, id string) (WFHResponse, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return WFHResponse{}, wfherrors.ErrRequestNotFound
	}

	if request.UserID.String() != actorID {
		actor, err := s.users.FindByID(ctx, actorID)
		if err != nil {
			return WFHResponse{}, wfherrors.ErrNotApprover
		}
		isManager := request.User != nil && request.User.ManagerID != nil && *request.User.ManagerID == actor.ID
		if !actor.IsApproverRole() && !isManager {
			return WFHResponse{}, wfherrors.ErrNotApprover
		}
	}
	return s.mapToResponse(*request), nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]WFHResponse, error) {
	requests, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.mapToListResponse(requests), nil
}

func (s *service) ListPendingApprovals(ctx context.Context, actorID string) ([]WFHResponse, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, wfherrors.ErrNotApprover
	}

	var requests []WFHRequest
	if actor.IsApproverRole() {
		requests, err = s.repo.ListAll(ctx, StatusPending)
	} else {
		requests, err = s.repo.ListPendingForManager(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}
	return s.mapToListResponse(requests), nil
}

type transitioner struct {
	s *service
}

func (t *transitioner) DecideInTx(ctx context.Context, tx *sql.Tx, resourceID, approverID uuid.UUID, action string) error {
	status := StatusApproved
	if action == actiontoken.ActionReject {
		status = StatusRejected
	}
	request, err := t.s.decide(ctx, tx, resourceID, approverID, status, nil)
	if err != nil {
		return err
	}
	t.s.auditDecision(ctx, approverID, request, status)
	return nil
}

func (s *service) auditDecision(ctx context.Context, actor uuid.UUID, request *WFHRequest, status string) {
	action := audit.ActionWFHApproved
	if status == StatusRejected {
		action = audit.ActionWFHRejected
	}
	s.recorder.Record(ctx, &actor, action, ResourceType, &request.ID, nil)
}

func (s *service) notifyManager(ctx context.Context, tx *sql.Tx, request *WFHRequest, owner *user.User) error {
	manager, err := s.users.FindByID(ctx, owner.ManagerID.String())
	if err != nil {
		return err
	}

	approveToken, rejectToken, err := s.tokens.IssuePair(ctx, tx, ResourceType, request.ID, manager.ID)
	if err != nil {
		return err
	}

	body := owner.FullName + " requests to work from home from " +
		clock.FormatDate(request.StartDate) + " to " + clock.FormatDate(request.EndDate) + "."
	return s.emitEvent(ctx, tx, notification.EventRequestSubmitted, request, manager.Email,
		"WFH request from "+owner.FullName, body,
		s.cfg.BaseURL+"/api/v1/action/"+approveToken,
		s.cfg.BaseURL+"/api/v1/action/"+rejectToken,
	)
}

func (s *service) emitEvent(ctx context.Context, tx *sql.Tx, eventType string, request *WFHRequest, recipient, subject, body, approveURL, rejectURL string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(notification.Event{
		EventType:    eventType,
		ResourceType: ResourceType,
		ResourceID:   request.ID.String(),
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		ApproveURL:   approveURL,
		RejectURL:    rejectURL,
		OccurredAt:   s.clk.Now(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: ResourceType,
		AggregateID:   request.ID.String(),
		EventType:     eventType,
		Topic:         notification.Topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func decisionBody(request *WFHRequest, note *string) string {
	body := "Your work-from-home request for " +
		clock.FormatDate(request.StartDate) + " to " + clock.FormatDate(request.EndDate) + " has been decided."
	if note != nil && *note != "" {
		body += " Note: " + *note
	}
	return body
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *service) mapToResponse(r WFHRequest) WFHResponse {
	resp := WFHResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		StartDate:    clock.FormatDate(r.StartDate),
		EndDate:      clock.FormatDate(r.EndDate),
		WorkingDays:  clock.WeekdayCount(r.StartDate, r.EndDate, s.cfg.WeekendDays),
		Status:       r.Status,
		Comments:     r.Comments,
		ApprovalNote: r.ApprovalNote,
		AppliedAt:    r.AppliedAt.UTC().Format(time.RFC3339),
	}
	if r.User != nil {
		resp.UserName = r.User.FullName
	}
	if r.DecisionAt != nil {
		v := r.DecisionAt.UTC().Format(time.RFC3339)
		resp.DecisionAt = &v
	}
	if r.DecidedBy != nil {
		v := r.DecidedBy.String()
		resp.DecidedBy = &v
	}
	return resp
}

func (s *service) mapToListResponse(requests []WFHRequest) []WFHResponse {
	resp := make([]WFHResponse, len(requests))
	for i, r := range requests {
		resp[i] = s.mapToResponse(r)
	}
	return resp
}
