package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hrflow/internal/audit"
	"hrflow/internal/policy"
	"hrflow/internal/shared/clock"
)

func (s *Scheduler) RunMonthlyAccrual(ctx context.Context) error {
	return s.runAccrual(ctx, policy.FrequencyMonthly)
}

func (s *Scheduler) RunQuarterlyAccrual(ctx context.Context) error {
	return s.runAccrual(ctx, policy.FrequencyQuarterly)
}

func (s *Scheduler) RunYearlyAccrual(ctx context.Context) error {
	return s.runAccrual(ctx, policy.FrequencyYearly)
}

type accrualEntry struct {
	userID      uuid.UUID
	leaveTypeID uuid.UUID
	amount      decimal.Decimal
	policyID    uuid.UUID
}

// periodTag names the accrual period containing t, e.g. "2026-06",
// "2026-Q2", "2026". The accrual log is keyed on it, so one credit per
// (policy, user, period) no matter how often the job fires.
func periodTag(frequency string, t time.Time) string {
	switch frequency {
	case policy.FrequencyQuarterly:
		start, _ := clock.QuarterBounds(t)
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
	case policy.FrequencyYearly:
		start, _ := clock.YearBounds(t)
		return fmt.Sprintf("%d", start.Year())
	default:
		return t.UTC().Format("2006-01")
	}
}

// runAccrual credits every (user, policy) pair for one frequency. A
// policy reaches exactly the users in the subtree rooted at its org
// unit; UsersForPolicy owns that resolution. Pairs already logged for
// the current period are skipped, so a restarted worker re-running the
// tick cannot double-accrue.
func (s *Scheduler) runAccrual(ctx context.Context, frequency string) error {
	policies, err := s.catalog.FindPoliciesByFrequency(ctx, frequency)
	if err != nil {
		return err
	}
	if len(policies) == 0 {
		return nil
	}
	period := periodTag(frequency, s.clk.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lgr := s.ledger.WithTx(tx)
	qtx := s.balances.WithTx(tx)

	var applied []accrualEntry
	for _, p := range policies {
		members, err := s.policies.UsersForPolicy(ctx, p)
		if err != nil {
			return err
		}
		for _, u := range members {
			claimed, err := qtx.MarkAccrued(ctx, p.ID, u.ID, period, p.AccrualAmountPerPeriod)
			if err != nil {
				return err
			}
			if !claimed {
				continue
			}
			if _, err := lgr.Credit(ctx, u.ID, p.LeaveTypeID, p.AccrualAmountPerPeriod); err != nil {
				return err
			}
			applied = append(applied, accrualEntry{
				userID:      u.ID,
				leaveTypeID: p.LeaveTypeID,
				amount:      p.AccrualAmountPerPeriod,
				policyID:    p.ID,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, e := range applied {
		s.recorder.Record(ctx, nil, audit.ActionAccrualApplied, "balance", &e.userID, map[string]any{
			"policy_id":     e.policyID.String(),
			"leave_type_id": e.leaveTypeID.String(),
			"amount":        e.amount.StringFixed(2),
			"frequency":     frequency,
			"period":        period,
		})
	}
	s.logger.Info("accrual applied",
		zap.String("frequency", frequency),
		zap.String("period", period),
		zap.Int("credits", len(applied)),
	)
	return nil
}

// RunAnniversaryReset handles yearly policies keyed to the hire date
// instead of the calendar year: on each user's join anniversary, their
// balance for every applicable yearly policy snaps back to the policy's
// full allocation.
func (s *Scheduler) RunAnniversaryReset(ctx context.Context) error {
	today := s.clk.Now().UTC()
	members, err := s.users.FindActiveJoinedOn(ctx, int(today.Month()), today.Day())
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lgr := s.ledger.WithTx(tx)

	var applied []accrualEntry
	for _, u := range members {
		if u.OrgUnitID == nil {
			continue
		}
		units, err := s.orgUnits.AncestorIDs(ctx, u.OrgUnitID.String())
		if err != nil {
			return err
		}
		policies, err := s.catalog.FindPoliciesForOrgUnits(ctx, units)
		if err != nil {
			return err
		}
		for _, p := range policies {
			if p.AccrualFrequency != policy.FrequencyYearly {
				continue
			}
			if _, err := lgr.Set(ctx, u.ID, p.LeaveTypeID, p.AllocationDaysPerYear); err != nil {
				return err
			}
			applied = append(applied, accrualEntry{
				userID:      u.ID,
				leaveTypeID: p.LeaveTypeID,
				amount:      p.AllocationDaysPerYear,
				policyID:    p.ID,
			})
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, e := range applied {
		s.recorder.Record(ctx, nil, audit.ActionAnniversaryReset, "balance", &e.userID, map[string]any{
			"policy_id":     e.policyID.String(),
			"leave_type_id": e.leaveTypeID.String(),
			"allocation":    e.amount.StringFixed(2),
		})
	}
	s.logger.Info("anniversary reset applied", zap.Int("resets", len(applied)))
	return nil
}

// RunCarryForward clamps annual balances to the carry-forward cap at
// year end. Balances at or below the cap are untouched.
func (s *Scheduler) RunCarryForward(ctx context.Context) error {
	annual, err := s.catalog.FindLeaveTypeByKind(ctx, policy.KindAnnual)
	if err != nil {
		return err
	}
	capDays := decimal.NewFromInt(int64(s.cfg.AnnualCarryForwardCap))

	over, err := s.balances.ListOverCap(ctx, annual.ID, capDays)
	if err != nil {
		return err
	}
	if len(over) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.balances.WithTx(tx)
	for _, b := range over {
		if err := qtx.SetDays(ctx, b.ID, capDays); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, b := range over {
		uid := b.UserID
		s.recorder.Record(ctx, nil, audit.ActionCarryForward, "balance", &uid, map[string]any{
			"from": b.Days.StringFixed(2),
			"to":   capDays.StringFixed(2),
		})
	}
	s.logger.Info("carry-forward applied",
		zap.Int("clamped", len(over)),
		zap.String("cap", capDays.StringFixed(2)),
	)
	return nil
}
