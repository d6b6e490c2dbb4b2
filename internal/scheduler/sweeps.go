package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hrflow/internal/audit"
	"hrflow/internal/leave"
	"hrflow/internal/messaging/kafka"
	"hrflow/internal/notification"
	"hrflow/internal/policy"
	"hrflow/internal/shared/clock"
	"hrflow/internal/wfh"
)

// Decisions made by sweeps carry the zero UUID as the acting user; no
// human decided them.
var systemActor = uuid.Nil

// RunSickDocSweep settles sick requests whose certificate never showed
// up. Past the deadline the request is approved anyway, but the days
// come out of the annual bucket instead of the sick one. A request
// whose annual balance cannot cover the span is left pending for HR to
// resolve by hand.
func (s *Scheduler) RunSickDocSweep(ctx context.Context) error {
	sick, err := s.catalog.FindLeaveTypeByKind(ctx, policy.KindSick)
	if err != nil {
		return err
	}
	annual, err := s.catalog.FindLeaveTypeByKind(ctx, policy.KindAnnual)
	if err != nil {
		return err
	}

	now := s.clk.Now()
	cutoff := now.Add(-time.Duration(s.cfg.SickDocDeadlineHours) * time.Hour)
	stale, err := s.leaves.FindUndocumentedSickPending(ctx, sick.ID, cutoff)
	if err != nil {
		return err
	}

	settled := 0
	for _, r := range stale {
		ok, err := s.settleSickRequest(ctx, r.ID, annual.ID, now)
		if err != nil {
			s.logger.Error("sick-doc sweep skipped request",
				zap.String("request_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if ok {
			settled++
		}
	}
	if len(stale) > 0 {
		s.logger.Info("sick-doc sweep finished",
			zap.Int("candidates", len(stale)),
			zap.Int("settled", settled),
		)
	}
	return nil
}

func (s *Scheduler) settleSickRequest(ctx context.Context, requestID, annualTypeID uuid.UUID, now time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	qtx := s.leaves.WithTx(tx)
	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// The document may have arrived, or someone may have decided the
	// request, between the scan and the lock.
	if request.Terminal() || request.DocumentURL != nil {
		return false, nil
	}

	amount := decimal.NewFromInt(int64(request.TotalDays))
	if _, err := s.ledger.WithTx(tx).Debit(ctx, request.UserID, annualTypeID, amount); err != nil {
		return false, err
	}

	note := "Approved automatically; no medical certificate was attached within the deadline. Days were deducted from the annual balance."
	if err := qtx.MarkDecided(ctx, request.ID, leave.StatusApproved, systemActor, now, &note); err != nil {
		return false, err
	}

	owner, err := s.users.FindByID(ctx, request.UserID.String())
	if err != nil {
		return false, err
	}
	if err := s.emitEvent(ctx, tx, notification.EventSickAutoApproved, leave.ResourceType, request.ID, owner.Email,
		"Your sick leave was auto-approved",
		"Your sick leave from "+clock.FormatDate(request.StartDate)+" to "+clock.FormatDate(request.EndDate)+
			" was approved without a certificate; "+amount.StringFixed(2)+" days were deducted from your annual balance.",
	); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	s.recorder.Record(ctx, nil, audit.ActionSickDocSweep, leave.ResourceType, &request.ID, map[string]any{
		"debited_from": "annual",
		"days":         amount.StringFixed(2),
	})
	return true, nil
}

// RunStaleAutoReject rejects anything still pending after the stale
// threshold, restoring the balance for leave requests. WFH requests are
// rejected without any balance work.
func (s *Scheduler) RunStaleAutoReject(ctx context.Context) error {
	now := s.clk.Now()
	cutoff := now.Add(-time.Duration(s.cfg.StalePendingWeeks) * 7 * 24 * time.Hour)

	staleLeaves, err := s.leaves.FindStalePending(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, r := range staleLeaves {
		if err := s.rejectStaleLeave(ctx, r.ID, now); err != nil {
			s.logger.Error("stale sweep skipped leave request",
				zap.String("request_id", r.ID.String()),
				zap.Error(err),
			)
		}
	}

	staleWFH, err := s.wfhs.FindStalePending(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, r := range staleWFH {
		if err := s.rejectStaleWFH(ctx, r.ID, now); err != nil {
			s.logger.Error("stale sweep skipped wfh request",
				zap.String("request_id", r.ID.String()),
				zap.Error(err),
			)
		}
	}

	if len(staleLeaves)+len(staleWFH) > 0 {
		s.logger.Info("stale auto-reject finished",
			zap.Int("leave", len(staleLeaves)),
			zap.Int("wfh", len(staleWFH)),
		)
	}
	return nil
}

const staleNote = "Rejected automatically after remaining undecided for too long. Please resubmit if still needed."

func (s *Scheduler) rejectStaleLeave(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.leaves.WithTx(tx)
	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if request.Terminal() {
		return nil
	}

	note := staleNote
	if err := qtx.MarkDecided(ctx, request.ID, leave.StatusRejected, systemActor, now, &note); err != nil {
		return err
	}

	lt, err := s.catalog.FindLeaveTypeByID(ctx, request.LeaveTypeID.String())
	if err != nil {
		return err
	}
	if lt.Kind != policy.KindSick {
		if _, err := s.ledger.WithTx(tx).Credit(ctx, request.UserID, request.LeaveTypeID, decimal.NewFromInt(int64(request.TotalDays))); err != nil {
			return err
		}
	}

	owner, err := s.users.FindByID(ctx, request.UserID.String())
	if err != nil {
		return err
	}
	if err := s.emitEvent(ctx, tx, notification.EventRequestAutoRejected, leave.ResourceType, request.ID, owner.Email,
		"Your leave request expired",
		"Your "+lt.Name+" request from "+clock.FormatDate(request.StartDate)+" to "+clock.FormatDate(request.EndDate)+
			" was rejected automatically because nobody decided it in time. Your balance has been restored.",
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.recorder.Record(ctx, nil, audit.ActionStaleAutoReject, leave.ResourceType, &request.ID, map[string]any{
		"applied_at": request.AppliedAt.UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *Scheduler) rejectStaleWFH(ctx context.Context, requestID uuid.UUID, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.wfhs.WithTx(tx)
	request, err := qtx.FindByIDForUpdate(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if request.Terminal() {
		return nil
	}

	note := staleNote
	if err := qtx.MarkDecided(ctx, request.ID, wfh.StatusRejected, systemActor, now, &note); err != nil {
		return err
	}

	owner, err := s.users.FindByID(ctx, request.UserID.String())
	if err != nil {
		return err
	}
	if err := s.emitEvent(ctx, tx, notification.EventRequestAutoRejected, wfh.ResourceType, request.ID, owner.Email,
		"Your WFH request expired",
		"Your work-from-home request from "+clock.FormatDate(request.StartDate)+" to "+clock.FormatDate(request.EndDate)+
			" was rejected automatically because nobody decided it in time.",
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.recorder.Record(ctx, nil, audit.ActionStaleAutoReject, wfh.ResourceType, &request.ID, map[string]any{
		"applied_at": request.AppliedAt.UTC().Format(time.RFC3339),
	})
	return nil
}

// RunTokenCleanup deletes approval tokens past their expiry. Unexpired
// tokens for decided requests stay; redemption fails them at the state
// guard anyway.
func (s *Scheduler) RunTokenCleanup(ctx context.Context) error {
	n, err := s.tokens.DeleteExpired(ctx, s.clk.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("expired tokens removed", zap.Int64("count", n))
	}
	return nil
}

func (s *Scheduler) emitEvent(ctx context.Context, tx *sql.Tx, eventType, resourceType string, resourceID uuid.UUID, recipient, subject, body string) error {
	if s.outbox == nil {
		return nil
	}

	payload, err := json.Marshal(notification.Event{
		EventType:    eventType,
		ResourceType: resourceType,
		ResourceID:   resourceID.String(),
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		OccurredAt:   s.clk.Now(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		AggregateType: resourceType,
		AggregateID:   resourceID.String(),
		EventType:     eventType,
		Topic:         notification.Topic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}
