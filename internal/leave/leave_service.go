package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"hrflow/internal/actiontoken"
	"hrflow/internal/audit"
	"hrflow/internal/balance"
	"hrflow/internal/config"
	leaveerrors "hrflow/internal/leave/errors"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/notification"
	"hrflow/internal/policy"
	"hrflow/internal/shared/apperror"
	"hrflow/internal/shared/clock"
	"hrflow/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, userID string, req SubmitLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actorID, id string, note *string) (LeaveResponse, error)
	Reject(ctx context.Context, actorID, id string, note *string) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID, id string) (LeaveResponse, error)
	UpdateComments(ctx context.Context, actorID, id, comments string) error
	AttachDocument(ctx context.Context, actorID, id, url string) error
	GetByID(ctx context.Context, actorID, id string) (LeaveResponse, error)
	ListMine(ctx context.Context, userID string) ([]LeaveResponse, error)
	ListPendingApprovals(ctx context.Context, actorID string) ([]LeaveResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	users    user.Repository
	policies policy.Service
	types    policy.Repository
	ledger   *balance.Ledger
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
	policies policy.Service,
	types policy.Repository,
	ledger *balance.Ledger,
	tokens actiontoken.Service,
	outbox kafka.OutboxRepository,
	recorder audit.Recorder,
	clk clock.Clock,
	cfg config.Config,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	s := &service{
		db:       db,
		repo:     repo,
		users:    users,
		policies: policies,
		types:    types,
		ledger:   ledger,
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

func (s *service) Submit(ctx context.Context, userID string, req SubmitLeaveRequest) (LeaveResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}
	typeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	start, err := clock.ParseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDate
	}
	end, err := clock.ParseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidDate
	}

	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return LeaveResponse{}, apperror.ErrNotFound
	}
	lt, err := s.types.FindLeaveTypeByID(ctx, req.LeaveTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, apperror.ErrNotFound
		}
		return LeaveResponse{}, err
	}

	now := s.clk.Now()
	today := clock.Midnight(now)
	if err := s.policies.ValidateSubmission(owner.Gender, lt, start, end, today); err != nil {
		return LeaveResponse{}, err
	}
	totalDays := clock.WeekdayCount(start, end, s.cfg.WeekendDays)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	dup, err := qtx.HasDuplicate(ctx, uid, typeID, start, end)
	if err != nil {
		return LeaveResponse{}, err
	}
	if dup {
		return LeaveResponse{}, leaveerrors.ErrDuplicateRequest
	}
	if err := s.policies.ValidateComments(req.Comments); err != nil {
		return LeaveResponse{}, err
	}

	// Sick leave is not debited up front; the document sweep settles it
	// against the annual bucket if no certificate appears in time.
	if lt.Kind != policy.KindSick {
		if _, err := s.ledger.WithTx(tx).Debit(ctx, uid, typeID, decimal.NewFromInt(int64(totalDays))); err != nil {
			return LeaveResponse{}, err
		}
	}

	request := &LeaveRequest{
		ID:          uuid.New(),
		UserID:      uid,
		LeaveTypeID: typeID,
		StartDate:   start,
		EndDate:     end,
		TotalDays:   totalDays,
		Status:      StatusPending,
		Comments:    req.Comments,
		AppliedAt:   now,
	}
	if err := qtx.Create(ctx, request); err != nil {
		if isUniqueViolation(err) {
			return LeaveResponse{}, leaveerrors.ErrDuplicateRequest
		}
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if owner.ManagerID != nil {
		if err := s.notifyManager(ctx, tx, request, owner, lt); err != nil {
			s.logger.Error("submit leave notify manager failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return LeaveResponse{}, leaveerrors.ErrDuplicateRequest
		}
		return LeaveResponse{}, err
	}

	s.recorder.Record(ctx, &uid, audit.ActionLeaveSubmitted, ResourceType, &request.ID, map[string]any{
		"leave_type": lt.Kind,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"total_days": totalDays,
	})

	s.logger.Info("leave submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("user_id", userID),
		zap.Int("total_days", totalDays),
	)
	request.User, request.LeaveType = owner, lt
	return mapToResponse(*request), nil
}

func (s *service) Approve(ctx context.Context, actorID, id string, note *string) (LeaveResponse, error) {
	return s.decideByActor(ctx, actorID, id, StatusApproved, note)
}

func (s *service) Reject(ctx context.Context, actorID, id string, note *string) (LeaveResponse, error) {
	return s.decideByActor(ctx, actorID, id, StatusRejected, note)
}

func (s *service) decideByActor(ctx context.Context, actorID, id string, status string, note *string) (LeaveResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	request, err := s.decide(ctx, tx, requestID, actor, status, note)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return LeaveResponse{}, err
	}

	s.auditDecision(ctx, actor, request, status)
	return mapToResponse(*request), nil
}

// decide applies an approve or reject transition inside tx. Guards run
// in order: existence, pending, self-decision, approver relationship.
func (s *service) decide(ctx context.Context, tx *sql.Tx, requestID, actorID uuid.UUID, status string, note *string) (*LeaveRequest, error) {
	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}

	if request.Terminal() {
		return nil, leaveerrors.ErrInvalidState
	}
	if request.UserID == actorID {
		return nil, leaveerrors.ErrSelfDecision
	}

	owner, err := s.users.FindByID(ctx, request.UserID.String())
	if err != nil {
		return nil, err
	}
	actor, err := s.users.FindByID(ctx, actorID.String())
	if err != nil {
		return nil, leaveerrors.ErrNotApprover
	}

	// The manager link is re-read here, so a token issued to a previous
	// manager stops working once the report moves.
	isManager := owner.ManagerID != nil && *owner.ManagerID == actor.ID
	if !actor.IsApproverRole() && !isManager {
		s.recorder.Record(ctx, &actorID, audit.ActionPermissionDenied, ResourceType, &request.ID, map[string]any{
			"attempted": status,
		})
		return nil, leaveerrors.ErrNotApprover
	}

	now := s.clk.Now()
	if err := qtx.MarkDecided(ctx, request.ID, status, actorID, now, note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, leaveerrors.ErrInvalidState
		}
		return nil, err
	}

	lt, err := s.types.FindLeaveTypeByID(ctx, request.LeaveTypeID.String())
	if err != nil {
		return nil, err
	}
	if status == StatusRejected && lt.Kind != policy.KindSick {
		if _, err := s.ledger.WithTx(tx).Credit(ctx, request.UserID, request.LeaveTypeID, decimal.NewFromInt(int64(request.TotalDays))); err != nil {
			return nil, err
		}
	}

	eventType := notification.EventRequestApproved
	subject := "Your leave request was approved"
	if status == StatusRejected {
		eventType = notification.EventRequestRejected
		subject = "Your leave request was rejected"
	}
	if err := s.emitEvent(ctx, tx, eventType, request, owner.Email, subject, decisionBody(lt.Name, request, note), "", ""); err != nil {
		return nil, err
	}

	request.Status = status
	request.DecisionAt = &now
	request.DecidedBy = &actorID
	request.ApprovalNote = note
	request.User, request.LeaveType = owner, lt
	return request, nil
}

func (s *service) Cancel(ctx context.Context, actorID, id string) (LeaveResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}
	actor, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return LeaveResponse{}, leaveerrors.ErrRequestNotFound
	}
	if err != nil {
		return LeaveResponse{}, err
	}

	if request.UserID != actor {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	if request.Terminal() {
		return LeaveResponse{}, leaveerrors.ErrInvalidState
	}

	now := s.clk.Now()
	if err := qtx.MarkDecided(ctx, request.ID, StatusCancelled, actor, now, nil); err != nil {
		return LeaveResponse{}, err
	}

	lt, err := s.types.FindLeaveTypeByID(ctx, request.LeaveTypeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}
	if lt.Kind != policy.KindSick {
		if _, err := s.ledger.WithTx(tx).Credit(ctx, request.UserID, request.LeaveTypeID, decimal.NewFromInt(int64(request.TotalDays))); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return LeaveResponse{}, err
	}

	s.recorder.Record(ctx, &actor, audit.ActionLeaveCancelled, ResourceType, &request.ID, nil)

	request.Status = StatusCancelled
	request.DecisionAt = &now
	request.DecidedBy = &actor
	request.LeaveType = lt
	return mapToResponse(*request), nil
}

// UpdateComments is the one mutation allowed after a terminal decision.
func (s *service) UpdateComments(ctx context.Context, actorID, id, comments string) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrRequestNotFound
		}
		return err
	}
	if request.UserID.String() != actorID {
		return leaveerrors.ErrNotOwner
	}
	return s.repo.UpdateComments(ctx, request.ID, comments)
}

func (s *service) AttachDocument(ctx context.Context, actorID, id, url string) error {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrRequestNotFound
		}
		return err
	}
	if request.UserID.String() != actorID {
		return leaveerrors.ErrNotOwner
	}
	if request.Terminal() {
		return leaveerrors.ErrInvalidState
	}
	return s.repo.AttachDocument(ctx, request.ID, url)
}

func (s *service) GetByID(ctx context.Context, actorID, id string) (LeaveResponse, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrRequestNotFound
		}
		return LeaveResponse{}, err
	}

	if request.UserID.String() != actorID {
		actor, err := s.users.FindByID(ctx, actorID)
		if err != nil {
			return LeaveResponse{}, leaveerrors.ErrNotApprover
		}
		isManager := request.User != nil && request.User.ManagerID != nil && *request.User.ManagerID == actor.ID
		if !actor.IsApproverRole() && !isManager {
			return LeaveResponse{}, leaveerrors.ErrNotApprover
		}
	}
	return mapToResponse(*request), nil
}

func (s *service) ListMine(ctx context.Context, userID string) ([]LeaveResponse, error) {
	requests, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

// ListPendingApprovals shows HR and admins the whole pending queue;
// managers see only their direct reports.
func (s *service) ListPendingApprovals(ctx context.Context, actorID string) ([]LeaveResponse, error) {
	actor, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, leaveerrors.ErrNotApprover
	}

	var requests []LeaveRequest
	if actor.IsApproverRole() {
		requests, err = s.repo.ListAll(ctx, StatusPending)
	} else {
		requests, err = s.repo.ListPendingForManager(ctx, actorID)
	}
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

// transitioner lets the token service apply decisions inside its own
// redemption transaction.
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

func (s *service) auditDecision(ctx context.Context, actor uuid.UUID, request *LeaveRequest, status string) {
	action := audit.ActionLeaveApproved
	if status == StatusRejected {
		action = audit.ActionLeaveRejected
	}
	s.recorder.Record(ctx, &actor, action, ResourceType, &request.ID, map[string]any{
		"total_days": request.TotalDays,
	})
}

func (s *service) notifyManager(ctx context.Context, tx *sql.Tx, request *LeaveRequest, owner *user.User, lt *policy.LeaveType) error {
	manager, err := s.users.FindByID(ctx, owner.ManagerID.String())
	if err != nil {
		return err
	}

	approveToken, rejectToken, err := s.tokens.IssuePair(ctx, tx, ResourceType, request.ID, manager.ID)
	if err != nil {
		return err
	}

	body := owner.FullName + " requests " + lt.Name + " from " +
		clock.FormatDate(request.StartDate) + " to " + clock.FormatDate(request.EndDate) + "."
	return s.emitEvent(ctx, tx, notification.EventRequestSubmitted, request, manager.Email,
		"Leave request from "+owner.FullName, body,
		s.cfg.BaseURL+"/api/v1/action/"+approveToken,
		s.cfg.BaseURL+"/api/v1/action/"+rejectToken,
	)
}

func (s *service) emitEvent(ctx context.Context, tx *sql.Tx, eventType string, request *LeaveRequest, recipient, subject, body, approveURL, rejectURL string) error {
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

func decisionBody(typeName string, request *LeaveRequest, note *string) string {
	body := "Your " + typeName + " request for " +
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

func mapToResponse(r LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:           r.ID.String(),
		UserID:       r.UserID.String(),
		LeaveTypeID:  r.LeaveTypeID.String(),
		StartDate:    clock.FormatDate(r.StartDate),
		EndDate:      clock.FormatDate(r.EndDate),
		TotalDays:    r.TotalDays,
		Status:       r.Status,
		Comments:     r.Comments,
		ApprovalNote: r.ApprovalNote,
		DocumentURL:  r.DocumentURL,
		AppliedAt:    r.AppliedAt.UTC().Format(time.RFC3339),
	}
	if r.User != nil {
		resp.UserName = r.User.FullName
	}
	if r.LeaveType != nil {
		resp.LeaveTypeName = r.LeaveType.Name
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

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapToResponse(r)
	}
	return resp
}
